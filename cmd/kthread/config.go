package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joeycumines/go-kthread/kthread"
	"github.com/joeycumines/logiface"
)

type (
	// config is the TOML configuration file, see example.toml.
	config struct {
		Kernel   kernelConfig   `toml:"kernel"`
		Log      logConfig      `toml:"log"`
		Selftest selftestConfig `toml:"selftest"`
	}

	kernelConfig struct {
		TimerTicks int64 `toml:"timer_ticks"`
		KernelTick int64 `toml:"kernel_tick"`
		// RandomSeed enables the randomized timer, as the unset and zero
		// cases differ.
		RandomSeed *uint64 `toml:"random_seed"`
	}

	logConfig struct {
		Backend string    `toml:"backend"`
		Level   string    `toml:"level"`
		Rate    []logRate `toml:"rate"`
	}

	logRate struct {
		Window time.Duration `toml:"window"`
		Events int           `toml:"events"`
	}

	selftestConfig struct {
		Parallel int      `toml:"parallel"`
		Suites   []string `toml:"suites"`
	}
)

func defaultConfig() config {
	return config{
		Kernel: kernelConfig{
			TimerTicks: kthread.DefaultTimerTicks,
			KernelTick: kthread.DefaultKernelTick,
		},
		Log: logConfig{
			Backend: backendStumpy,
			Level:   logiface.LevelError.String(),
		},
		Selftest: selftestConfig{
			Parallel: 4,
		},
	}
}

// loadConfig decodes the file at path over the defaults. An empty path
// returns the defaults. Unknown keys are an error.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == `` {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.validate()
}

func (x *config) validate() error {
	var errs []error
	if x.Kernel.TimerTicks <= 0 {
		errs = append(errs, fmt.Errorf("kernel.timer_ticks must be positive: %d", x.Kernel.TimerTicks))
	}
	if x.Kernel.KernelTick <= 0 {
		errs = append(errs, fmt.Errorf("kernel.kernel_tick must be positive: %d", x.Kernel.KernelTick))
	}
	for i, r := range x.Log.Rate {
		if r.Window <= 0 || r.Events <= 0 {
			errs = append(errs, fmt.Errorf("log.rate[%d]: window and events must be positive", i))
		}
	}
	if x.Selftest.Parallel <= 0 {
		errs = append(errs, fmt.Errorf("selftest.parallel must be positive: %d", x.Selftest.Parallel))
	}
	return errors.Join(errs...)
}

// kernelOptions returns the options for every kernel the command runs.
func (x *config) kernelOptions(logger *logiface.Logger[logiface.Event]) []kthread.Option {
	opts := []kthread.Option{
		kthread.WithLogger(logger),
		kthread.WithTimerTicks(x.Kernel.TimerTicks),
		kthread.WithKernelTick(x.Kernel.KernelTick),
	}
	if x.Kernel.RandomSeed != nil {
		opts = append(opts, kthread.WithRandomTimer(*x.Kernel.RandomSeed))
	}
	if len(x.Log.Rate) != 0 {
		rates := make(map[time.Duration]int, len(x.Log.Rate))
		for _, r := range x.Log.Rate {
			rates[r.Window] = r.Events
		}
		opts = append(opts, kthread.WithLogRates(rates))
	}
	return opts
}
