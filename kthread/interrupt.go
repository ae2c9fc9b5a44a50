package kthread

import (
	"math/rand/v2"
)

// Interrupt is the interrupt controller of a Kernel. Disabling interrupts is
// the only way to make a sequence of kernel operations atomic.
//
// The simulated clock only advances when interrupts are re-enabled, by the
// kernel tick, and when the CPU idles. Each time it advances, a due timer
// interrupt is delivered.
type Interrupt struct {
	k *Kernel

	enabled bool

	// inHandler is set while an interrupt handler runs. A Yield during that
	// time sets yieldOnReturn instead, and the yield happens afterward.
	inHandler     bool
	yieldOnReturn bool
}

// Enable enables interrupts, equivalent to SetStatus(true).
func (i *Interrupt) Enable() {
	i.SetStatus(true)
}

// Disable disables interrupts, returning the previous status, which should
// later be passed to Restore.
func (i *Interrupt) Disable() bool {
	return i.SetStatus(false)
}

// Restore sets the interrupt status returned by an earlier Disable.
func (i *Interrupt) Restore(status bool) {
	i.SetStatus(status)
}

// SetStatus sets whether interrupts are enabled, returning the previous
// status. Going from disabled to enabled advances the clock by one kernel
// tick, delivering the timer interrupt if it is due.
func (i *Interrupt) SetStatus(status bool) bool {
	i.k.Current()
	old := i.enabled
	i.enabled = status
	if !old && status {
		i.tick()
	}
	return old
}

// Enabled reports whether interrupts are enabled.
func (i *Interrupt) Enabled() bool {
	i.k.Current()
	return i.enabled
}

func (i *Interrupt) tick() {
	k := i.k
	k.clock.Add(k.kernelTick)
	k.stats.kernelTicks.Add(k.kernelTick)

	if k.clock.Load() >= k.timer.next {
		i.deliver()
	}

	if i.yieldOnReturn {
		// the tick for this enable is already charged, so yield without
		// going through Restore
		i.yieldOnReturn = false
		i.enabled = false
		k.yield(k.current)
		i.enabled = true
	}
}

// deliver runs the timer interrupt handler, with interrupts disabled.
func (i *Interrupt) deliver() {
	k := i.k
	prev := i.enabled
	i.enabled = false
	i.inHandler = true

	now := k.clock.Load()
	k.stats.timerInterrupts.Add(1)
	k.timer.schedule(now)
	k.debug(logCategoryTimer).
		Int64("next", k.timer.next).
		Log("timer interrupt")
	if k.timer.handler != nil {
		k.timer.handler()
	}

	i.inHandler = false
	i.enabled = prev
}

// timer is the hardware timer, which interrupts periodically.
type timer struct {
	handler func()
	rng     *rand.Rand
	period  int64
	next    int64
}

// schedule sets the next interrupt relative to now.
func (t *timer) schedule(now int64) {
	delay := t.period
	if t.rng != nil {
		delay = 1 + t.rng.Int64N(2*t.period)
	}
	t.next = wakeTime(now, delay)
}
