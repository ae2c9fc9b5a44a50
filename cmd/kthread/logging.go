package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
)

const (
	backendStumpy  = "stumpy"
	backendLogrus  = "logrus"
	backendZerolog = "zerolog"
)

// newLogger builds the logger for the configured backend, writing to w.
// The logger is shared by kernels running in parallel.
func newLogger(cfg logConfig, w io.Writer) (*logiface.Logger[logiface.Event], error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	w = zerolog.SyncWriter(w)
	switch cfg.Backend {
	case ``, backendStumpy:
		return stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(w)),
			stumpy.L.WithLevel(level),
		).Logger(), nil
	case backendLogrus:
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(logrus.TraceLevel)
		l.SetFormatter(&logrus.JSONFormatter{})
		return lr.New(
			withLogrus(l),
			lr.WithLevel(level),
		).Logger(), nil
	case backendZerolog:
		return zl.New(
			withZerolog(zerolog.New(w).With().Timestamp().Logger()),
			zl.WithLevel(level),
		).Logger(), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
	}
}

// parseLevel accepts the short syslog keywords, as printed by
// logiface.Level.String, plus a few common aliases.
func parseLevel(s string) (logiface.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ``, `info`, `informational`:
		return logiface.LevelInformational, nil
	case `disabled`, `off`, `none`:
		return logiface.LevelDisabled, nil
	case `emerg`, `emergency`:
		return logiface.LevelEmergency, nil
	case `alert`:
		return logiface.LevelAlert, nil
	case `crit`, `critical`:
		return logiface.LevelCritical, nil
	case `err`, `error`:
		return logiface.LevelError, nil
	case `warning`, `warn`:
		return logiface.LevelWarning, nil
	case `notice`:
		return logiface.LevelNotice, nil
	case `debug`:
		return logiface.LevelDebug, nil
	case `trace`:
		return logiface.LevelTrace, nil
	default:
		return logiface.LevelDisabled, fmt.Errorf("unknown log level %q", s)
	}
}
