package kthread

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrKernelAlreadyRunning is returned when Run is called on a kernel that is already running.
	ErrKernelAlreadyRunning = errors.New("kthread: kernel is already running")

	// ErrKernelHalted is returned when Run is called on a kernel that has already halted.
	ErrKernelHalted = errors.New("kthread: kernel has halted")

	// ErrDeadlock is returned (wrapped) by Run when no thread is runnable and
	// no alarm deadline is pending, meaning the root thread can never resume.
	ErrDeadlock = errors.New("kthread: deadlock")

	// ErrContract matches every [*ContractError], via [errors.Is].
	ErrContract = errors.New("kthread: contract violation")

	// ErrInvalidOption is returned (wrapped) by New for rejected option values.
	ErrInvalidOption = errors.New("kthread: invalid option")

	// ErrNilTarget is returned by Run when the root function is nil.
	ErrNilTarget = errors.New("kthread: nil thread target")
)

// ContractError reports misuse of a kernel primitive, such as releasing a
// lock the caller does not hold, or calling a kernel operation from a
// goroutine that is not one of the kernel's threads.
//
// It is raised as a panic in the offending thread. If that thread belongs to
// a running kernel, the kernel halts and Run returns the error.
type ContractError struct {
	// Op names the operation, e.g. "Cond.Sleep".
	Op string
	// Reason describes the violated precondition.
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("kthread: %s: %s", e.Op, e.Reason)
}

// Is reports true for [ErrContract].
func (e *ContractError) Is(target error) bool {
	return target == ErrContract
}

func contractViolation(op, reason string) *ContractError {
	return &ContractError{Op: op, Reason: reason}
}

// PanicError wraps a value recovered from a panicking thread. Such a panic
// is fatal to the kernel, and Run returns the PanicError.
type PanicError struct {
	// Value is the value passed to panic.
	Value any
	// Thread is the String form of the thread that panicked.
	Thread string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("kthread: thread %s panicked: %v", e.Thread, e.Value)
}

// Unwrap returns the panic value if it is an error, enabling use with
// [errors.Is] and [errors.As].
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// haltSignal unwinds a thread's goroutine once its kernel has halted. It is
// recovered by the thread runner and never escapes.
type haltSignal struct{}
