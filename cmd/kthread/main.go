// Command kthread runs the simulated kernel's self-test suites, and plays
// game matches on a simulated kernel.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joeycumines/logiface"
)

const version = "0.1.0"

// app holds the output streams shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}

	if len(args) == 0 {
		a.printUsage(stderr)
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		a.printUsage(stdout)
		return 0
	case "--version", "-v", "version":
		fmt.Fprintln(stdout, "kthread", version)
		return 0
	case "selftest":
		return a.cmdSelftest(ctx, args[1:])
	case "match":
		return a.cmdMatch(ctx, args[1:])
	default:
		fmt.Fprintf(stderr, "kthread: unknown command %q\n", args[0])
		fmt.Fprintln(stderr, "Run 'kthread help' for usage.")
		return 1
	}
}

func (a *app) printUsage(w io.Writer) {
	fmt.Fprint(w, `kthread - cooperative threads on a simulated single CPU

Usage:
  kthread <command> [flags]

Commands:
  selftest   run the self-test suites, one fresh kernel per case
  match      play one game match session, one thread per player
  version    print the version

Flags shared by selftest and match:
  -config file         TOML config file
  -log-backend name    stumpy (default), logrus or zerolog
  -log-level level     trace, debug, info, notice, warning, err, crit, disabled

Run 'kthread <command> -h' for the flags of a command.
`)
}

// setup loads the config file, applies the shared flags, and builds the
// logger, which writes to stderr.
func (a *app) setup(shared *sharedFlags) (config, *logiface.Logger[logiface.Event], error) {
	cfg, err := loadConfig(shared.config)
	if err != nil {
		return config{}, nil, err
	}
	shared.apply(&cfg)
	if err := cfg.validate(); err != nil {
		return config{}, nil, err
	}
	logger, err := newLogger(cfg.Log, a.stderr)
	if err != nil {
		return config{}, nil, err
	}
	return cfg, logger, nil
}
