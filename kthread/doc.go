// Package kthread implements cooperative kernel threads on a simulated
// uniprocessor, together with the blocking primitives built on them: an
// [Alarm] for timed waits, a [Lock], and a Mesa-style condition variable,
// [Cond], with an optional timeout.
//
// # Machine model
//
// A [Kernel] has a single logical CPU. Each [KThread] is hosted by its own
// goroutine, but only the thread holding the CPU ever executes; the others
// are parked. The CPU changes hands only when the running thread blocks,
// yields, or finishes. Interrupts are the one source of involuntary
// switches: while they are enabled, a due timer interrupt is delivered each
// time they are re-enabled, and its handler may request a yield.
//
// Time is simulated. The clock advances by a fixed kernel tick whenever
// interrupts go from disabled to enabled, and jumps forward to the next
// timer interrupt when no thread is runnable. Results are therefore
// deterministic for a given program and set of options.
//
// # Usage
//
//	k, err := kthread.New(kthread.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	return k.Run(ctx, func() {
//		lock := kthread.NewLock(k)
//		cond := kthread.NewCond(lock)
//		t := k.Fork("worker", func() {
//			k.Alarm().WaitUntil(1000)
//			lock.Acquire()
//			cond.Wake()
//			lock.Release()
//		})
//		lock.Acquire()
//		cond.SleepFor(5000)
//		lock.Release()
//		t.Join()
//	})
//
// # Errors
//
// Misuse of a primitive, such as releasing a lock that is not held, panics
// with a [*ContractError]. Any panic in a thread is fatal to its kernel:
// the kernel halts and [Kernel.Run] returns the error.
package kthread
