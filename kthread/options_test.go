package kthread

import (
	"math"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOptions_defaults(t *testing.T) {
	cfg, err := resolveOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultTimerTicks), cfg.timerTicks)
	assert.Equal(t, int64(DefaultKernelTick), cfg.kernelTick)
	assert.Nil(t, cfg.logger)
	assert.Nil(t, cfg.logLimiter)
	assert.False(t, cfg.randomTimer)
}

func TestResolveOptions_nilSkipped(t *testing.T) {
	cfg, err := resolveOptions([]Option{nil, WithTimerTicks(7), nil})
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.timerTicks)
}

func TestResolveOptions_applied(t *testing.T) {
	var buf syncBuffer
	logger := newTestLogger(&buf, logiface.LevelDebug)
	cfg, err := resolveOptions([]Option{
		WithLogger(logger),
		WithTimerTicks(123),
		WithKernelTick(3),
		WithRandomTimer(99),
		WithLogRates(map[time.Duration]int{time.Second: 5, time.Minute: 50}),
	})
	require.NoError(t, err)
	assert.Same(t, logger, cfg.logger)
	assert.Equal(t, int64(123), cfg.timerTicks)
	assert.Equal(t, int64(3), cfg.kernelTick)
	assert.True(t, cfg.randomTimer)
	assert.Equal(t, uint64(99), cfg.randomSeed)
	assert.NotNil(t, cfg.logLimiter)

	cfg, err = resolveOptions([]Option{
		WithLogRates(map[time.Duration]int{time.Second: 5}),
		WithLogRates(nil),
	})
	require.NoError(t, err)
	assert.Nil(t, cfg.logLimiter)
}

func TestNew_maxRandomTimer(t *testing.T) {
	k, err := New(WithTimerTicks(MaxRandomTimerTicks), WithRandomTimer(7))
	require.NoError(t, err)
	assert.Positive(t, k.timer.next)
	assert.LessOrEqual(t, k.timer.next, int64(2*MaxRandomTimerTicks))

	k, err = New(WithTimerTicks(math.MaxInt64))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), k.timer.next)
}

func TestNew_invalidOptions(t *testing.T) {
	for name, opts := range map[string][]Option{
		"zero timer ticks":     {WithTimerTicks(0)},
		"negative timer ticks": {WithTimerTicks(-1)},
		"zero kernel tick":     {WithKernelTick(0)},
		"negative kernel tick": {WithKernelTick(-10)},
		"zero log rate":        {WithLogRates(map[time.Duration]int{time.Second: 0})},
		"irrelevant log rate":  {WithLogRates(map[time.Duration]int{time.Second: 10, time.Minute: 5})},
		"random timer period":  {WithTimerTicks(MaxRandomTimerTicks + 1), WithRandomTimer(1)},
		"random timer first":   {WithRandomTimer(1), WithTimerTicks(math.MaxInt64)},
	} {
		t.Run(name, func(t *testing.T) {
			k, err := New(opts...)
			assert.Nil(t, k)
			assert.ErrorIs(t, err, ErrInvalidOption)
		})
	}
}
