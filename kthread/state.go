package kthread

import (
	"sync/atomic"
)

// KernelState represents the lifecycle of a Kernel.
//
//	StateAwake → StateRunning   [Run()]
//	StateRunning → StateHalted  [root thread returned, fault, deadlock, or ctx done]
//
// StateHalted is terminal.
type KernelState uint32

const (
	// StateAwake indicates the kernel has been created but not started.
	StateAwake KernelState = iota
	// StateRunning indicates Run is in progress.
	StateRunning
	// StateHalted indicates the kernel has stopped and all threads are discarded.
	StateHalted
)

// String returns a human-readable representation of the state.
func (s KernelState) String() string {
	switch s {
	case StateAwake:
		return "Awake"
	case StateRunning:
		return "Running"
	case StateHalted:
		return "Halted"
	default:
		return "Unknown"
	}
}

// fastState is a lock-free state holder.
type fastState struct {
	v atomic.Uint32
}

func (s *fastState) Load() KernelState {
	return KernelState(s.v.Load())
}

// Store is for the terminal state only. Use TryTransition for the rest.
func (s *fastState) Store(state KernelState) {
	s.v.Store(uint32(state))
}

func (s *fastState) TryTransition(from, to KernelState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
