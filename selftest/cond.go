package selftest

import (
	"github.com/joeycumines/go-kthread/kthread"
)

func condSuite() Suite {
	return Suite{
		Name:        "cond",
		Description: "Cond sleep/wake semantics, with and without timeouts",
		Cases: []Case{
			{Name: "interlock", Fn: condInterlock},
			{Name: "producer-consumer", Fn: condProducerConsumer},
			{Name: "wake-all", Fn: condWakeAll},
			{Name: "sleep-for-timeout", Fn: condSleepForTimeout},
			{Name: "sleep-for-woken", Fn: condSleepForWoken},
		},
	}
}

// condInterlock runs two threads that alternate strictly, each waking the
// other and then sleeping.
func condInterlock(t *T) {
	k := t.Kernel()
	lock := kthread.NewLock(k)
	cond := kthread.NewCond(lock)
	var order []string

	interlocker := func() {
		name := k.Current().Name()
		lock.Acquire()
		for i := 0; i < 10; i++ {
			order = append(order, name)
			cond.Wake()
			cond.Sleep()
		}
		lock.Release()
	}
	ping := k.Fork("ping", interlocker)
	k.Fork("pong", interlocker)
	ping.Join()

	t.Logf("order: %v", order)
	if len(order) != 20 {
		t.Fatalf("expected 20 turns, got %d", len(order))
	}
	for i, name := range order {
		want := "ping"
		if i%2 == 1 {
			want = "pong"
		}
		if !t.Check(name == want, "turn %d: expected %s, got %s", i, want, name) {
			return
		}
	}
}

// condProducerConsumer has the consumer wait until the producer has added
// every item, then drain them in order.
func condProducerConsumer(t *T) {
	k := t.Kernel()
	lock := kthread.NewLock(k)
	empty := kthread.NewCond(lock)
	var list []int

	consumer := k.Fork("consumer", func() {
		lock.Acquire()
		for len(list) == 0 {
			empty.Sleep()
		}
		t.Check(len(list) == 5, "expected 5 items, found %d", len(list))
		for want := 0; len(list) > 0; want++ {
			k.Yield()
			got := list[0]
			list = list[1:]
			t.Logf("removed %d", got)
			t.Check(got == want, "removed %d, expected %d", got, want)
		}
		lock.Release()
	})
	producer := k.Fork("producer", func() {
		lock.Acquire()
		for i := 0; i < 5; i++ {
			list = append(list, i)
			t.Logf("added %d", i)
			k.Yield()
		}
		empty.Wake()
		lock.Release()
	})
	consumer.Join()
	producer.Join()
}

func condWakeAll(t *T) {
	k := t.Kernel()
	lock := kthread.NewLock(k)
	cond := kthread.NewCond(lock)
	woken := 0

	var threads []*kthread.KThread
	for _, name := range []string{"s1", "s2", "s3", "s4"} {
		threads = append(threads, k.Fork(name, func() {
			lock.Acquire()
			cond.Sleep()
			woken++
			lock.Release()
		}))
	}
	// wait for every thread to be queued, even if preempted along the way
	for {
		lock.Acquire()
		if cond.Waiting() == len(threads) {
			break
		}
		lock.Release()
		k.Yield()
	}
	cond.WakeAll()
	t.Check(cond.Waiting() == 0, "expected no waiters after WakeAll, got %d", cond.Waiting())
	lock.Release()

	for _, th := range threads {
		th.Join()
	}
	t.Check(woken == 4, "expected 4 threads woken, got %d", woken)
}

// condSleepForTimeout sleeps with no other thread to wake it, so the
// timeout must end the wait.
func condSleepForTimeout(t *T) {
	k := t.Kernel()
	lock := kthread.NewLock(k)
	cond := kthread.NewCond(lock)

	lock.Acquire()
	t0 := k.Time()
	cond.SleepFor(2000)
	elapsed := k.Time() - t0
	t.Logf("slept for %d ticks", elapsed)
	t.Check(elapsed >= 2000, "woke after %d ticks, before the 2000 tick timeout", elapsed)
	t.Check(lock.HeldByCurrentThread(), "lock not held after SleepFor")
	t.Check(cond.Waiting() == 0, "still queued after timing out")
	lock.Release()
}

// condSleepForWoken is woken by another thread well before its timeout.
func condSleepForWoken(t *T) {
	k := t.Kernel()
	lock := kthread.NewLock(k)
	cond := kthread.NewCond(lock)

	lock.Acquire()
	waker := k.Fork("wakeSleeper", func() {
		k.Alarm().WaitUntil(500)
		lock.Acquire()
		t.Logf("about to wake main at tick %d", k.Time())
		cond.Wake()
		lock.Release()
	})

	t0 := k.Time()
	cond.SleepFor(3000)
	elapsed := k.Time() - t0
	lock.Release()
	t.Logf("slept for %d ticks", elapsed)
	t.Check(elapsed < 3000, "slept for %d ticks, expected fewer than 3000", elapsed)
	t.Check(k.Alarm().Pending() == 0, "timeout still pending after wake")
	waker.Join()

	// the cancelled timeout must not cut a later wait short
	t1 := k.Time()
	k.Alarm().WaitUntil(5000)
	t.Check(k.Time()-t1 >= 5000, "later wait returned after %d ticks", k.Time()-t1)
}
