package kthread_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeycumines/go-kthread/kthread"
)

func ExampleKernel_Run() {
	k, err := kthread.New()
	if err != nil {
		panic(err)
	}

	err = k.Run(context.Background(), func() {
		lock := kthread.NewLock(k)
		cond := kthread.NewCond(lock)
		pinger := func() {
			lock.Acquire()
			for i := 0; i < 3; i++ {
				fmt.Println(k.Current().Name())
				cond.Wake()
				cond.Sleep()
			}
			lock.Release()
		}
		ping := k.Fork("ping", pinger)
		k.Fork("pong", pinger)
		ping.Join()
	})
	fmt.Println("err:", err)

	//output:
	//ping
	//pong
	//ping
	//pong
	//ping
	//pong
	//err: <nil>
}

func ExampleAlarm_WaitUntil() {
	k, err := kthread.New()
	if err != nil {
		panic(err)
	}

	_ = k.Run(context.Background(), func() {
		start := k.Time()
		k.Alarm().WaitUntil(1000)
		fmt.Println("slept at least 1000 ticks:", k.Time()-start >= 1000)
	})

	//output:
	//slept at least 1000 ticks: true
}

func ExampleCond_SleepFor() {
	k, err := kthread.New()
	if err != nil {
		panic(err)
	}

	_ = k.Run(context.Background(), func() {
		lock := kthread.NewLock(k)
		cond := kthread.NewCond(lock)

		k.Fork("waker", func() {
			k.Alarm().WaitUntil(500)
			lock.Acquire()
			cond.Wake()
			lock.Release()
		})

		lock.Acquire()
		start := k.Time()
		cond.SleepFor(3000)
		fmt.Println("woken before the timeout:", k.Time()-start < 3000)
		lock.Release()
	})

	//output:
	//woken before the timeout: true
}

func ExampleKernel_Run_deadlock() {
	k, err := kthread.New()
	if err != nil {
		panic(err)
	}

	err = k.Run(context.Background(), func() {
		lock := kthread.NewLock(k)
		cond := kthread.NewCond(lock)
		lock.Acquire()
		// nothing will ever wake this thread
		cond.Sleep()
	})
	fmt.Println(errors.Is(err, kthread.ErrDeadlock))

	//output:
	//true
}
