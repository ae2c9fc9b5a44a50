package kthread

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterrupt_tickAccounting(t *testing.T) {
	var start, afterToggles, afterNested int64
	var enabledInside, enabledAfter bool
	_, err := runKernel(t, func(k *Kernel) {
		in := k.Interrupt()
		start = k.Time()
		for i := 0; i < 5; i++ {
			prev := in.Disable()
			in.Restore(prev)
		}
		afterToggles = k.Time()

		outer := in.Disable()
		inner := in.Disable()
		enabledInside = in.Enabled()
		in.Restore(inner)
		in.Restore(outer)
		afterNested = k.Time()
		enabledAfter = in.Enabled()
	}, WithTimerTicks(1_000_000), WithKernelTick(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), start)
	assert.Equal(t, start+5*7, afterToggles)
	assert.Equal(t, afterToggles+7, afterNested)
	assert.False(t, enabledInside)
	assert.True(t, enabledAfter)
}

func TestInterrupt_SetStatus(t *testing.T) {
	var results []bool
	_, err := runKernel(t, func(k *Kernel) {
		in := k.Interrupt()
		results = append(results,
			in.SetStatus(false),
			in.SetStatus(false),
			in.SetStatus(true),
			in.SetStatus(true),
		)
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, true}, results)
}

func TestInterrupt_timerPreemption(t *testing.T) {
	var events recorder[string]
	k, err := runKernel(t, func(k *Kernel) {
		busy := func(name string) func() {
			return func() {
				in := k.Interrupt()
				for i := 0; i < 50; i++ {
					events.add(name)
					in.Restore(in.Disable())
				}
			}
		}
		a := k.Fork("a", busy("a"))
		b := k.Fork("b", busy("b"))
		a.Join()
		b.Join()
	}, WithTimerTicks(100))
	require.NoError(t, err)

	seq := events.get()
	require.Len(t, seq, 100)
	lastA, firstB := -1, -1
	for i, v := range seq {
		if v == "a" {
			lastA = i
		} else if firstB < 0 {
			firstB = i
		}
	}
	assert.Less(t, firstB, lastA, "expected the timer to preempt a")
	assert.Positive(t, k.Stats().TimerInterrupts)
}

func TestInterrupt_yieldDeferredInHandler(t *testing.T) {
	var inHandler, yieldOnReturn bool
	k, err := New(WithTimerTicks(50))
	require.NoError(t, err)
	// intercept the handler installed for the alarm
	alarmHandler := k.timer.handler
	k.timer.handler = func() {
		inHandler = k.interrupt.inHandler
		alarmHandler()
		yieldOnReturn = k.interrupt.yieldOnReturn
	}

	var events recorder[string]
	err = k.Run(t.Context(), func() {
		k.Fork("other", func() { events.add("other") })
		for k.Stats().TimerInterrupts == 0 {
			in := k.Interrupt()
			in.Restore(in.Disable())
			events.add("main")
		}
		events.add("main done")
	})
	require.NoError(t, err)
	assert.True(t, inHandler)
	assert.True(t, yieldOnReturn)
	// the deferred yield ran other before main's third toggle returned
	assert.Equal(t, []string{"main", "main", "other", "main", "main done"}, events.get())
}

func TestInterrupt_randomTimerDeterministic(t *testing.T) {
	program := func(k *Kernel) []int64 {
		var times []int64
		for i := 0; i < 5; i++ {
			k.Alarm().WaitUntil(700)
			times = append(times, k.Time())
		}
		return times
	}
	run := func(opts ...Option) ([]int64, Stats) {
		var times []int64
		k, err := runKernel(t, func(k *Kernel) { times = program(k) }, opts...)
		require.NoError(t, err)
		return times, k.Stats()
	}

	t1, s1 := run(WithRandomTimer(42))
	t2, s2 := run(WithRandomTimer(42))
	if diff := cmp.Diff(t1, t2); diff != "" {
		t.Errorf("same seed produced different wake times (-first +second):\n%s", diff)
	}
	assert.Equal(t, s1, s2)

	prev := int64(0)
	for _, v := range t1 {
		assert.GreaterOrEqual(t, v-prev, int64(700))
		prev = v
	}
}

func TestTimer_schedule(t *testing.T) {
	tm := timer{period: 500}
	tm.schedule(1000)
	assert.Equal(t, int64(1500), tm.next)

	k, err := New(WithRandomTimer(7), WithTimerTicks(10))
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		k.timer.schedule(0)
		require.GreaterOrEqual(t, k.timer.next, int64(1))
		require.LessOrEqual(t, k.timer.next, int64(20))
	}
}
