package kthread

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/require"
)

// runKernel runs main as the root thread of a new kernel, failing the test
// if the kernel does not halt in a reasonable (real) time.
func runKernel(t *testing.T, main func(k *Kernel), opts ...Option) (*Kernel, error) {
	t.Helper()
	k, err := New(opts...)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = k.Run(ctx, func() { main(k) })
	require.NotErrorIs(t, err, context.DeadlineExceeded, "kernel did not halt")
	return k, err
}

// recoverContract calls fn, returning the *ContractError it panics with.
func recoverContract(fn func()) (err *ContractError) {
	defer func() {
		err, _ = recover().(*ContractError)
	}()
	fn()
	return nil
}

// recorder collects values from kernel threads. Threads never run
// concurrently, but the test goroutine reads after Run returns.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
}

func (r *recorder[T]) get() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger(w *syncBuffer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(level),
	).Logger()
}
