package kthread

// ThreadQueue is a FIFO queue of threads waiting for some resource, such as
// the CPU, a lock, or a condition.
//
// The zero value is an empty queue. A ThreadQueue is only safe to use from
// the thread currently holding the CPU, with interrupts disabled.
type ThreadQueue struct {
	threads []*KThread
}

// WaitForAccess appends t to the back of the queue.
func (q *ThreadQueue) WaitForAccess(t *KThread) {
	q.threads = append(q.threads, t)
}

// NextThread removes and returns the thread at the front of the queue, or
// nil if the queue is empty.
func (q *ThreadQueue) NextThread() *KThread {
	if len(q.threads) == 0 {
		return nil
	}
	t := q.threads[0]
	q.threads[0] = nil
	q.threads = q.threads[1:]
	if len(q.threads) == 0 {
		q.threads = nil
	}
	return t
}

// Remove deletes the first occurrence of t, reporting whether it was found.
func (q *ThreadQueue) Remove(t *KThread) bool {
	for i, v := range q.threads {
		if v == t {
			copy(q.threads[i:], q.threads[i+1:])
			q.threads[len(q.threads)-1] = nil
			q.threads = q.threads[:len(q.threads)-1]
			return true
		}
	}
	return false
}

// Contains reports whether t is in the queue.
func (q *ThreadQueue) Contains(t *KThread) bool {
	for _, v := range q.threads {
		if v == t {
			return true
		}
	}
	return false
}

// Len returns the number of queued threads.
func (q *ThreadQueue) Len() int {
	return len(q.threads)
}
