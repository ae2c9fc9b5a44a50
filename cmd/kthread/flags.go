package main

import (
	"flag"
	"strconv"
	"strings"
)

type (
	// sharedFlags are registered by every subcommand. Set values override
	// the config file.
	sharedFlags struct {
		config     string
		logBackend string
		logLevel   string
		timerTicks int64
		kernelTick int64
	}

	// stringList is a repeatable string flag.
	stringList []string

	// intList is a comma-separated list of integers.
	intList []int
)

func (x *sharedFlags) register(flags *flag.FlagSet) {
	flags.StringVar(&x.config, "config", ``, "TOML config file")
	flags.StringVar(&x.logBackend, "log-backend", ``, "log backend: stumpy, logrus or zerolog")
	flags.StringVar(&x.logLevel, "log-level", ``, "log level")
	flags.Int64Var(&x.timerTicks, "timer-ticks", 0, "timer interrupt period, in ticks")
	flags.Int64Var(&x.kernelTick, "kernel-tick", 0, "ticks per interrupt enable")
}

func (x *sharedFlags) apply(cfg *config) {
	if x.logBackend != `` {
		cfg.Log.Backend = x.logBackend
	}
	if x.logLevel != `` {
		cfg.Log.Level = x.logLevel
	}
	if x.timerTicks != 0 {
		cfg.Kernel.TimerTicks = x.timerTicks
	}
	if x.kernelTick != 0 {
		cfg.Kernel.KernelTick = x.kernelTick
	}
}

func (x *stringList) String() string {
	return strings.Join(*x, ",")
}

func (x *stringList) Set(s string) error {
	*x = append(*x, s)
	return nil
}

func (x *intList) String() string {
	s := make([]string, len(*x))
	for i, v := range *x {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, ",")
}

func (x *intList) Set(s string) error {
	var values []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == `` {
			continue
		}
		v, err := strconv.Atoi(field)
		if err != nil {
			return err
		}
		values = append(values, v)
	}
	*x = append(*x, values...)
	return nil
}
