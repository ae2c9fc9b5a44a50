package selftest

import (
	"github.com/joeycumines/go-kthread/kthread"
)

func alarmSuite() Suite {
	return Suite{
		Name:        "alarm",
		Description: "Alarm.WaitUntil durations, concurrent waiters, and Cancel",
		Cases: []Case{
			{Name: "main-thread-durations", Fn: func(t *T) {
				waitDurations(t, []int64{1000, 10 * 1000, 100 * 1000})
			}},
			{Name: "forked-thread-durations", Fn: func(t *T) {
				k := t.Kernel()
				child1 := k.Fork("forked thread1", func() { waitDurations(t, []int64{1000, 1000, 10 * 1000}) })
				child2 := k.Fork("forked thread2", func() { waitDurations(t, []int64{1000, 10 * 1000, 100 * 1000}) })
				waitDurations(t, []int64{10, 10, 10})
				child1.Join()
				child2.Join()
			}},
			{Name: "non-positive-durations", Fn: func(t *T) {
				k := t.Kernel()
				child1 := k.Fork("forked thread1", func() { waitDurations(t, []int64{0, 100, 200}) })
				child2 := k.Fork("forked thread2", func() { waitDurations(t, []int64{10, 1000, 100 * 1000}) })
				waitDurations(t, []int64{0, 0, -1})
				child1.Join()
				child2.Join()
			}},
			{Name: "wake-order", Fn: alarmWakeOrder},
			{Name: "cancel", Fn: alarmCancel},
		},
	}
}

// waitDurations waits for each duration in turn, checking that no wait
// returns early, and that non-positive waits return at once.
func waitDurations(t *T, durations []int64) {
	k := t.Kernel()
	name := k.Current().Name()
	for _, d := range durations {
		t0 := k.Time()
		k.Alarm().WaitUntil(d)
		elapsed := k.Time() - t0
		t.Logf("%s: waited for %d ticks, requested %d", name, elapsed, d)
		if d <= 0 {
			t.Check(elapsed == 0, "%s: wait of %d took %d ticks", name, d, elapsed)
		} else {
			t.Check(elapsed >= d, "%s: wait of %d returned after only %d ticks", name, d, elapsed)
		}
	}
}

func alarmWakeOrder(t *T) {
	k := t.Kernel()
	var order []string
	var threads []*kthread.KThread
	for _, w := range []struct {
		name string
		d    int64
	}{
		{"third", 30000},
		{"first", 5000},
		{"second", 15000},
	} {
		threads = append(threads, k.Fork(w.name, func() {
			k.Alarm().WaitUntil(w.d)
			order = append(order, w.name)
		}))
	}
	for _, th := range threads {
		th.Join()
	}
	t.Logf("wake order: %v", order)
	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("expected %d wakeups, got %v", len(want), order)
	}
	for i := range want {
		t.Check(order[i] == want[i], "wake %d: expected %s, got %s", i, want[i], order[i])
	}
}

func alarmCancel(t *T) {
	k := t.Kernel()
	a := k.Alarm()

	t.Check(!a.Cancel(k.Current()), "cancel without a pending wait returned true")

	var woke int64 = -1
	sleeper := k.Fork("sleeper", func() {
		a.WaitUntil(50000)
		woke = k.Time()
	})
	for a.Pending() == 0 {
		k.Yield()
	}
	t.Check(a.Cancel(sleeper), "cancel of a pending wait returned false")
	t.Check(!a.Cancel(sleeper), "second cancel returned true")
	t.Check(a.Pending() == 0, "expected no pending waits, got %d", a.Pending())

	// cancelled, so only an explicit ready resumes it
	prev := k.Interrupt().Disable()
	k.Ready(sleeper)
	k.Interrupt().Restore(prev)
	sleeper.Join()
	t.Logf("sleeper resumed at tick %d", woke)
	t.Check(woke >= 0 && woke < 50000, "sleeper resumed at %d, expected before its deadline", woke)
}
