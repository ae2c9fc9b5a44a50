package kthread

import (
	"container/heap"
	"math"
)

// Alarm suspends threads until a point in simulated time. Each Kernel owns
// exactly one, driven by its timer interrupt.
//
// Wakeups are not exact: a thread is readied by the first timer interrupt
// at or after its deadline, and runs when it is next dispatched.
type Alarm struct {
	k         *Kernel
	deadlines deadlineHeap
	byThread  map[*KThread]*deadline
	seq       uint64
}

// deadline is a pending wakeup. seq breaks ties between equal wake times in
// registration order.
type deadline struct {
	thread *KThread
	wake   int64
	seq    uint64
	index  int
}

func newAlarm(k *Kernel) *Alarm {
	return &Alarm{
		k:        k,
		byThread: make(map[*KThread]*deadline),
	}
}

// WaitUntil suspends the calling thread for at least ticks of simulated
// time. It returns immediately if ticks is not positive.
//
// A thread may have at most one pending wait.
func (a *Alarm) WaitUntil(ticks int64) {
	if ticks <= 0 {
		return
	}

	k := a.k
	t := k.Current()
	prev := k.interrupt.Disable()
	if _, ok := a.byThread[t]; ok {
		panic(contractViolation("Alarm.WaitUntil", "thread "+t.String()+" already has a pending wait"))
	}

	a.seq++
	d := &deadline{
		thread: t,
		wake:   wakeTime(k.clock.Load(), ticks),
		seq:    a.seq,
	}
	heap.Push(&a.deadlines, d)
	a.byThread[t] = d

	k.block(t)
	k.interrupt.Restore(prev)
}

// wakeTime returns now+ticks, saturating at math.MaxInt64.
func wakeTime(now, ticks int64) int64 {
	if ticks > math.MaxInt64-now {
		return math.MaxInt64
	}
	return now + ticks
}

// Cancel removes the pending wait of t, without readying it. It reports
// whether a pending wait was found. Cancel and the timer interrupt are
// mutually exclusive, so exactly one of them claims any given wait.
func (a *Alarm) Cancel(t *KThread) bool {
	k := a.k
	prev := k.interrupt.Disable()
	d, ok := a.byThread[t]
	if ok {
		heap.Remove(&a.deadlines, d.index)
		delete(a.byThread, t)
	}
	k.interrupt.Restore(prev)
	return ok
}

// Pending returns the number of threads with a pending wait. It must be
// called from a thread of the kernel.
func (a *Alarm) Pending() int {
	return len(a.deadlines)
}

// timerInterrupt readies every thread whose deadline has passed, then
// yields, so a preempted thread gives the CPU to the next ready thread.
func (a *Alarm) timerInterrupt() {
	k := a.k
	now := k.clock.Load()
	for len(a.deadlines) > 0 && a.deadlines[0].wake <= now {
		d := heap.Pop(&a.deadlines).(*deadline)
		delete(a.byThread, d.thread)
		k.ready(d.thread)
	}
	k.Yield()
}

// deadlineHeap is a min-heap of deadlines, implementing heap.Interface.
type deadlineHeap []*deadline

func (h deadlineHeap) Len() int { return len(h) }

func (h deadlineHeap) Less(i, j int) bool {
	if h[i].wake != h[j].wake {
		return h[i].wake < h[j].wake
	}
	return h[i].seq < h[j].seq
}

func (h deadlineHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *deadlineHeap) Push(x any) {
	d := x.(*deadline)
	d.index = len(*h)
	*h = append(*h, d)
}

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	d := old[n-1]
	old[n-1] = nil
	d.index = -1
	*h = old[:n-1]
	return d
}
