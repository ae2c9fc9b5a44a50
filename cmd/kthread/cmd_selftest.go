package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/joeycumines/go-kthread/selftest"
	"github.com/joeycumines/go-utilpkg/jsonenc"
	"golang.org/x/sync/errgroup"
)

func (a *app) cmdSelftest(ctx context.Context, args []string) int {
	flags := flag.NewFlagSet("selftest", flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	var shared sharedFlags
	shared.register(flags)
	var suiteNames stringList
	flags.Var(&suiteNames, "suite", "suite to run, may be repeated (default: all)")
	parallel := flags.Int("parallel", 0, "maximum number of suites run at once")
	jsonOut := flags.Bool("json", false, "print one JSON object per suite")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	cfg, logger, err := a.setup(&shared)
	if err != nil {
		fmt.Fprintf(a.stderr, "kthread: selftest: %v\n", err)
		return 1
	}
	if *parallel > 0 {
		cfg.Selftest.Parallel = *parallel
	}
	if len(suiteNames) != 0 {
		cfg.Selftest.Suites = suiteNames
	}

	suites, err := resolveSuites(cfg.Selftest.Suites)
	if err != nil {
		fmt.Fprintf(a.stderr, "kthread: selftest: %v\n", err)
		return 1
	}

	opts := cfg.kernelOptions(logger)
	results := make([]selftest.SuiteResult, len(suites))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Selftest.Parallel)
	for i := range suites {
		g.Go(func() error {
			results[i] = suites[i].Run(ctx, opts...)
			return nil
		})
	}
	_ = g.Wait()

	code := 0
	for i := range results {
		if !results[i].Passed() {
			code = 1
		}
		if *jsonOut {
			a.stdout.Write(appendSuiteJSON(nil, &results[i]))
		} else {
			a.printSuite(&results[i])
		}
	}
	return code
}

func resolveSuites(names []string) ([]selftest.Suite, error) {
	if len(names) == 0 {
		return selftest.Suites(), nil
	}
	suites := make([]selftest.Suite, 0, len(names))
	for _, name := range names {
		s, ok := selftest.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown suite %q, want one of %v", name, selftest.Names())
		}
		suites = append(suites, s)
	}
	return suites, nil
}

func (a *app) printSuite(r *selftest.SuiteResult) {
	failed := r.Failed()
	status := "ok  "
	if len(failed) != 0 {
		status = "FAIL"
	}
	fmt.Fprintf(a.stdout, "%s %-8s %d/%d passed %s\n",
		status, r.Suite, len(r.Results)-len(failed), len(r.Results), r.Elapsed.Round(time.Millisecond))
	for _, c := range failed {
		fmt.Fprintf(a.stdout, "    --- FAIL: %s/%s\n", c.Suite, c.Case)
		if c.Err != nil {
			fmt.Fprintf(a.stdout, "        error: %v\n", c.Err)
		}
		for _, msg := range c.Failures {
			fmt.Fprintf(a.stdout, "        %s\n", msg)
		}
	}
}

// appendSuiteJSON appends a suite result as a single line JSON object.
func appendSuiteJSON(b []byte, r *selftest.SuiteResult) []byte {
	b = append(b, `{"suite":`...)
	b = jsonenc.AppendString(b, r.Suite)
	b = append(b, `,"passed":`...)
	b = strconv.AppendBool(b, r.Passed())
	b = append(b, `,"elapsed_ms":`...)
	b = jsonenc.AppendFloat64(b, float64(r.Elapsed)/float64(time.Millisecond))
	b = append(b, `,"cases":[`...)
	for i := range r.Results {
		if i != 0 {
			b = append(b, ',')
		}
		b = appendCaseJSON(b, &r.Results[i])
	}
	b = append(b, "]}\n"...)
	return b
}

func appendCaseJSON(b []byte, r *selftest.Result) []byte {
	b = append(b, `{"case":`...)
	b = jsonenc.AppendString(b, r.Case)
	b = append(b, `,"passed":`...)
	b = strconv.AppendBool(b, r.Passed())
	b = append(b, `,"ticks":`...)
	b = strconv.AppendInt(b, r.Stats.TotalTicks, 10)
	b = append(b, `,"context_switches":`...)
	b = strconv.AppendUint(b, r.Stats.ContextSwitches, 10)
	if r.Err != nil {
		b = append(b, `,"error":`...)
		b = jsonenc.AppendString(b, r.Err.Error())
	}
	if len(r.Failures) != 0 {
		b = append(b, `,"failures":[`...)
		for i, msg := range r.Failures {
			if i != 0 {
				b = append(b, ',')
			}
			b = jsonenc.AppendString(b, msg)
		}
		b = append(b, ']')
	}
	b = append(b, '}')
	return b
}
