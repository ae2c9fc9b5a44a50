package kthread

import (
	"sync/atomic"
)

// Stats is a snapshot of a kernel's counters.
type Stats struct {
	// TotalTicks is the current simulated time.
	TotalTicks int64
	// KernelTicks is the time spent running threads.
	KernelTicks int64
	// IdleTicks is the time skipped while no thread was runnable.
	IdleTicks int64
	// ContextSwitches counts dispatches of a thread other than the previous one.
	ContextSwitches uint64
	// TimerInterrupts counts deliveries of the timer interrupt.
	TimerInterrupts uint64
	// ThreadsForked counts threads created by Fork.
	ThreadsForked uint64
}

type kernelStats struct {
	kernelTicks     atomic.Int64
	idleTicks       atomic.Int64
	contextSwitches atomic.Uint64
	timerInterrupts atomic.Uint64
	threadsForked   atomic.Uint64
}

// Stats returns a snapshot of the kernel's counters. It is safe to call
// from any goroutine.
func (k *Kernel) Stats() Stats {
	return Stats{
		TotalTicks:      k.clock.Load(),
		KernelTicks:     k.stats.kernelTicks.Load(),
		IdleTicks:       k.stats.idleTicks.Load(),
		ContextSwitches: k.stats.contextSwitches.Load(),
		TimerInterrupts: k.stats.timerInterrupts.Load(),
		ThreadsForked:   k.stats.threadsForked.Load(),
	}
}
