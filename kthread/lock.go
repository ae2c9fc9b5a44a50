package kthread

// Lock is a mutual exclusion lock for the threads of one Kernel. It is not
// reentrant.
//
// Waiters are granted the lock in FIFO order: Release hands ownership
// directly to the longest waiting thread.
type Lock struct {
	k         *Kernel
	holder    *KThread
	waitQueue ThreadQueue
}

// NewLock returns an unheld lock. It may be called from any goroutine.
func NewLock(k *Kernel) *Lock {
	return &Lock{k: k}
}

// Acquire blocks until the calling thread holds the lock.
func (l *Lock) Acquire() {
	k := l.k
	t := k.Current()
	if l.holder == t {
		panic(contractViolation("Lock.Acquire", "lock is already held by "+t.String()))
	}

	prev := k.interrupt.Disable()
	if l.holder == nil {
		l.holder = t
	} else {
		l.waitQueue.WaitForAccess(t)
		for l.holder != t {
			k.block(t)
		}
	}
	k.interrupt.Restore(prev)
}

// Release releases the lock, which must be held by the calling thread.
func (l *Lock) Release() {
	k := l.k
	t := k.Current()
	if l.holder != t {
		panic(contractViolation("Lock.Release", "lock is not held by "+t.String()))
	}

	prev := k.interrupt.Disable()
	l.holder = l.waitQueue.NextThread()
	if l.holder != nil {
		k.ready(l.holder)
	}
	k.interrupt.Restore(prev)
}

// HeldByCurrentThread reports whether the calling thread holds the lock.
func (l *Lock) HeldByCurrentThread() bool {
	return l.holder == l.k.Current()
}
