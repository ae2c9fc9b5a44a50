package kthread

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_mutualExclusion(t *testing.T) {
	var events recorder[string]
	_, err := runKernel(t, func(k *Kernel) {
		lock := NewLock(k)
		var threads []*KThread
		for i := 0; i < 4; i++ {
			name := fmt.Sprint("t", i)
			threads = append(threads, k.Fork(name, func() {
				for j := 0; j < 3; j++ {
					lock.Acquire()
					events.add(name + " enter")
					for n := 0; n < 20; n++ {
						k.Yield()
					}
					events.add(name + " exit")
					lock.Release()
				}
			}))
		}
		for _, th := range threads {
			th.Join()
		}
	}, WithTimerTicks(50))
	require.NoError(t, err)

	seq := events.get()
	require.Len(t, seq, 24)
	for i := 0; i < len(seq); i += 2 {
		var name string
		_, err := fmt.Sscanf(seq[i], "%s enter", &name)
		require.NoError(t, err)
		assert.Equal(t, name+" exit", seq[i+1], "interleaved critical sections at %d: %v", i, seq)
	}
}

func TestLock_fifoHandoff(t *testing.T) {
	var order recorder[string]
	_, err := runKernel(t, func(k *Kernel) {
		lock := NewLock(k)
		lock.Acquire()
		var threads []*KThread
		for _, name := range []string{"a", "b", "c"} {
			threads = append(threads, k.Fork(name, func() {
				lock.Acquire()
				order.add(name)
				lock.Release()
			}))
		}
		// let all three queue on the lock
		k.Yield()
		order.add("main")
		lock.Release()
		for _, th := range threads {
			th.Join()
		}
	}, WithTimerTicks(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "a", "b", "c"}, order.get())
}

func TestLock_releaseHandsOffBeforeReacquire(t *testing.T) {
	var order recorder[string]
	_, err := runKernel(t, func(k *Kernel) {
		lock := NewLock(k)
		lock.Acquire()
		waiter := k.Fork("waiter", func() {
			lock.Acquire()
			order.add("waiter")
			lock.Release()
		})
		k.Yield()
		lock.Release()
		// the waiter owns the lock now, though it has not run
		lock.Acquire()
		order.add("main")
		lock.Release()
		waiter.Join()
	}, WithTimerTicks(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, []string{"waiter", "main"}, order.get())
}

func TestLock_HeldByCurrentThread(t *testing.T) {
	var results []bool
	var childSees bool
	_, err := runKernel(t, func(k *Kernel) {
		lock := NewLock(k)
		results = append(results, lock.HeldByCurrentThread())
		lock.Acquire()
		results = append(results, lock.HeldByCurrentThread())
		k.Fork("child", func() {
			childSees = lock.HeldByCurrentThread()
		}).Join()
		lock.Release()
		results = append(results, lock.HeldByCurrentThread())
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false}, results)
	assert.False(t, childSees)
}

func TestLock_contractViolations(t *testing.T) {
	for _, tc := range []struct {
		name   string
		op     string
		misuse func(k *Kernel)
	}{
		{
			name: "release unheld",
			op:   "Lock.Release",
			misuse: func(k *Kernel) {
				NewLock(k).Release()
			},
		},
		{
			name: "acquire twice",
			op:   "Lock.Acquire",
			misuse: func(k *Kernel) {
				lock := NewLock(k)
				lock.Acquire()
				lock.Acquire()
			},
		},
		{
			name: "release by other thread",
			op:   "Lock.Release",
			misuse: func(k *Kernel) {
				lock := NewLock(k)
				lock.Acquire()
				k.Fork("thief", lock.Release).Join()
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runKernel(t, tc.misuse)
			var cerr *ContractError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.op, cerr.Op)
		})
	}
}
