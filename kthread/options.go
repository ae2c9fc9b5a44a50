// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package kthread

import (
	"fmt"
	"math"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

const (
	// DefaultTimerTicks is the default period of the hardware timer.
	DefaultTimerTicks = 500

	// DefaultKernelTick is the default number of ticks the clock advances
	// each time interrupts are re-enabled.
	DefaultKernelTick = 10

	// MaxRandomTimerTicks is the largest timer period accepted together
	// with WithRandomTimer, as the delay is drawn from [1, 2*period].
	MaxRandomTimerTicks = math.MaxInt64 / 2
)

// kernelOptions holds configuration options for Kernel creation.
type kernelOptions struct {
	logger      *logiface.Logger[logiface.Event]
	logLimiter  *catrate.Limiter
	timerTicks  int64
	kernelTick  int64
	randomSeed  uint64
	randomTimer bool
}

// Option configures a Kernel instance.
type Option interface {
	applyKernel(*kernelOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyKernelFunc func(*kernelOptions) error
}

func (o *optionImpl) applyKernel(opts *kernelOptions) error {
	return o.applyKernelFunc(opts)
}

// WithLogger sets the structured logger for the kernel.
// A nil logger (the default) disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *kernelOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithTimerTicks sets the period, in ticks, of the timer interrupt that
// drives the Alarm. Must be greater than zero.
func WithTimerTicks(ticks int64) Option {
	return &optionImpl{func(opts *kernelOptions) error {
		if ticks <= 0 {
			return fmt.Errorf("%w: timer ticks must be > 0, got %d", ErrInvalidOption, ticks)
		}
		opts.timerTicks = ticks
		return nil
	}}
}

// WithKernelTick sets how far the clock advances each time interrupts are
// re-enabled. Must be greater than zero.
func WithKernelTick(ticks int64) Option {
	return &optionImpl{func(opts *kernelOptions) error {
		if ticks <= 0 {
			return fmt.Errorf("%w: kernel tick must be > 0, got %d", ErrInvalidOption, ticks)
		}
		opts.kernelTick = ticks
		return nil
	}}
}

// WithRandomTimer makes the timer fire after a pseudo-random delay in
// [1, 2*timerTicks] instead of a fixed period. The sequence is reproducible
// for a given seed. Combined with it, timerTicks must not exceed
// MaxRandomTimerTicks.
func WithRandomTimer(seed uint64) Option {
	return &optionImpl{func(opts *kernelOptions) error {
		opts.randomTimer = true
		opts.randomSeed = seed
		return nil
	}}
}

// WithLogRates rate limits the kernel's high-volume debug logs (timer
// interrupts, context switches, idling), per category, using the given
// sliding-window rates. A nil or empty map disables rate limiting.
func WithLogRates(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *kernelOptions) (err error) {
		if len(rates) == 0 {
			opts.logLimiter = nil
			return nil
		}
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: log rates: %v", ErrInvalidOption, r)
			}
		}()
		opts.logLimiter = catrate.NewLimiter(rates)
		return nil
	}}
}

// resolveOptions applies Option instances to kernelOptions.
func resolveOptions(opts []Option) (*kernelOptions, error) {
	cfg := &kernelOptions{
		timerTicks: DefaultTimerTicks,
		kernelTick: DefaultKernelTick,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyKernel(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.randomTimer && cfg.timerTicks > MaxRandomTimerTicks {
		return nil, fmt.Errorf("%w: timer ticks must be <= %d with a random timer, got %d", ErrInvalidOption, int64(MaxRandomTimerTicks), cfg.timerTicks)
	}
	return cfg, nil
}
