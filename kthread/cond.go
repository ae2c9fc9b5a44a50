package kthread

// Cond is a condition variable with Mesa semantics, bound to one Lock. It is
// built from interrupt disabling and the ready queue alone.
//
// A woken thread is only readied: by the time it holds the lock again, the
// condition it waited for may no longer hold, so callers must re-check it in
// a loop.
//
// Every method must be called with the lock held by the calling thread.
type Cond struct {
	lock      *Lock
	waitQueue ThreadQueue
}

// NewCond returns a condition variable bound to lock.
func NewCond(lock *Lock) *Cond {
	return &Cond{lock: lock}
}

// Sleep atomically releases the lock and suspends the calling thread, until
// another thread calls Wake or WakeAll. The lock is held again when Sleep
// returns.
func (c *Cond) Sleep() {
	c.checkHeld("Cond.Sleep")
	k := c.lock.k
	t := k.Current()

	prev := k.interrupt.Disable()
	c.waitQueue.WaitForAccess(t)
	c.lock.Release()
	k.block(t)
	k.interrupt.Restore(prev)

	c.lock.Acquire()
}

// Wake readies the longest waiting thread, if any.
//
// A thread that has already been readied by the expiry of its SleepFor
// timeout is skipped, as it is no longer waiting.
func (c *Cond) Wake() {
	c.checkHeld("Cond.Wake")
	k := c.lock.k

	prev := k.interrupt.Disable()
	for t := c.waitQueue.NextThread(); t != nil; t = c.waitQueue.NextThread() {
		if t.status == StatusReady {
			continue
		}
		k.ready(t)
		break
	}
	k.interrupt.Restore(prev)
}

// WakeAll readies every waiting thread.
func (c *Cond) WakeAll() {
	c.checkHeld("Cond.WakeAll")
	k := c.lock.k

	prev := k.interrupt.Disable()
	for t := c.waitQueue.NextThread(); t != nil; t = c.waitQueue.NextThread() {
		k.ready(t)
	}
	k.interrupt.Restore(prev)
}

// SleepFor is like Sleep, but also returns once timeout ticks have passed.
// The caller is not told which happened. It returns immediately, having
// released and reacquired the lock, if timeout is not positive.
func (c *Cond) SleepFor(timeout int64) {
	c.checkHeld("Cond.SleepFor")
	k := c.lock.k
	t := k.Current()

	prev := k.interrupt.Disable()
	c.lock.Release()
	c.waitQueue.WaitForAccess(t)
	k.alarm.WaitUntil(timeout)
	if !k.alarm.Cancel(t) {
		// the timeout fired, or was never set
		c.waitQueue.Remove(t)
	}
	c.lock.Acquire()
	k.interrupt.Restore(prev)
}

// Waiting returns the number of threads queued on the condition. It must be
// called with the lock held.
func (c *Cond) Waiting() int {
	c.checkHeld("Cond.Waiting")
	return c.waitQueue.Len()
}

func (c *Cond) checkHeld(op string) {
	if !c.lock.HeldByCurrentThread() {
		panic(contractViolation(op, "lock is not held by the calling thread"))
	}
}
