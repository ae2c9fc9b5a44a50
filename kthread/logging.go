package kthread

import (
	"github.com/joeycumines/logiface"
)

// Log categories, used as the rate limiting key for debug events.
const (
	logCategoryThread = "thread"
	logCategorySwitch = "switch"
	logCategoryTimer  = "timer"
	logCategoryIdle   = "idle"
)

// debug starts a debug event for a scheduling category. It returns nil (a
// disabled builder) if debug logging is off or the category is currently
// rate limited.
func (k *Kernel) debug(category string) *logiface.Builder[logiface.Event] {
	b := k.logger.Debug()
	if !b.Enabled() {
		return nil
	}
	if _, ok := k.logLimiter.Allow(category); !ok {
		b.Release()
		return nil
	}
	return b.
		Uint64("kernel", k.id).
		Str("category", category).
		Int64("tick", k.clock.Load())
}
