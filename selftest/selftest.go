// Package selftest provides the kernel's self-test scenarios as named
// suites, each case running on a fresh kthread.Kernel, with structured
// results.
package selftest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joeycumines/go-kthread/kthread"
)

type (
	// Suite is a named group of cases.
	Suite struct {
		Name        string
		Description string
		Cases       []Case
	}

	// Case is a single scenario. Fn runs as the root thread of a new kernel.
	Case struct {
		Name string
		Fn   func(t *T)
	}

	// T is passed to a case, and records its logs and failures. Its methods
	// must be called from threads of the case's kernel.
	T struct {
		k        *kthread.Kernel
		suite    string
		name     string
		logs     []string
		failures []string
		mu       sync.Mutex
	}

	// Result is the outcome of one case.
	Result struct {
		Suite    string
		Case     string
		Failures []string
		Logs     []string
		// Err is set if the kernel halted abnormally.
		Err     error
		Stats   kthread.Stats
		Elapsed time.Duration
	}

	// SuiteResult is the outcome of every case of a suite.
	SuiteResult struct {
		Suite   string
		Results []Result
		Elapsed time.Duration
	}

	// failNow unwinds a case's thread after Fatalf.
	failNow struct{}
)

// Passed reports whether the case completed without failures.
func (r *Result) Passed() bool {
	return r.Err == nil && len(r.Failures) == 0
}

// Passed reports whether every case passed.
func (r *SuiteResult) Passed() bool {
	for i := range r.Results {
		if !r.Results[i].Passed() {
			return false
		}
	}
	return true
}

// Failed returns the results of the cases that did not pass.
func (r *SuiteResult) Failed() (failed []Result) {
	for _, v := range r.Results {
		if !v.Passed() {
			failed = append(failed, v)
		}
	}
	return failed
}

// Kernel returns the kernel the case is running on.
func (t *T) Kernel() *kthread.Kernel {
	return t.k
}

// Logf records a message, and logs it at informational level.
func (t *T) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.mu.Lock()
	t.logs = append(t.logs, msg)
	t.mu.Unlock()
	t.k.Logger().Info().
		Str("suite", t.suite).
		Str("case", t.name).
		Int64("tick", t.k.Time()).
		Log(msg)
}

// Errorf records a failure, and continues.
func (t *T) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.mu.Lock()
	t.failures = append(t.failures, msg)
	t.mu.Unlock()
	t.k.Logger().Err().
		Str("suite", t.suite).
		Str("case", t.name).
		Int64("tick", t.k.Time()).
		Log(msg)
}

// Fatalf records a failure, and ends the case.
func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
	panic(failNow{})
}

// Check records a failure if cond is false.
func (t *T) Check(cond bool, format string, args ...any) bool {
	if !cond {
		t.Errorf(format, args...)
	}
	return cond
}

// Run runs the case on a new kernel configured with opts.
func (c Case) Run(ctx context.Context, suite string, opts ...kthread.Option) (result Result) {
	start := time.Now()
	result = Result{Suite: suite, Case: c.Name}
	defer func() {
		result.Elapsed = time.Since(start)
	}()

	k, err := kthread.New(opts...)
	if err != nil {
		result.Err = err
		return result
	}

	t := &T{k: k, suite: suite, name: c.Name}
	err = k.Run(ctx, func() { c.Fn(t) })

	var panicErr *kthread.PanicError
	if errors.As(err, &panicErr) {
		if _, ok := panicErr.Value.(failNow); ok {
			err = nil
		}
	}

	t.mu.Lock()
	result.Failures = append([]string(nil), t.failures...)
	result.Logs = append([]string(nil), t.logs...)
	t.mu.Unlock()
	result.Err = err
	result.Stats = k.Stats()
	return result
}

// Run runs every case of the suite, in order, stopping early only if ctx
// is done.
func (s *Suite) Run(ctx context.Context, opts ...kthread.Option) SuiteResult {
	start := time.Now()
	result := SuiteResult{Suite: s.Name}
	for _, c := range s.Cases {
		if ctx.Err() != nil {
			result.Results = append(result.Results, Result{Suite: s.Name, Case: c.Name, Err: ctx.Err()})
			continue
		}
		result.Results = append(result.Results, c.Run(ctx, s.Name, opts...))
	}
	result.Elapsed = time.Since(start)
	return result
}

// Suites returns every suite, in a stable order.
func Suites() []Suite {
	return []Suite{
		alarmSuite(),
		condSuite(),
		matchSuite(),
	}
}

// Lookup returns the suite with the given name.
func Lookup(name string) (Suite, bool) {
	for _, s := range Suites() {
		if s.Name == name {
			return s, true
		}
	}
	return Suite{}, false
}

// Names returns the name of every suite.
func Names() []string {
	suites := Suites()
	names := make([]string, len(suites))
	for i, s := range suites {
		names[i] = s.Name
	}
	return names
}
