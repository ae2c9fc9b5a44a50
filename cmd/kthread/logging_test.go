package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_backends(t *testing.T) {
	for _, tc := range []struct {
		backend string
		message string
	}{
		{``, `"msg":"hello"`},
		{backendStumpy, `"msg":"hello"`},
		{backendLogrus, `"msg":"hello"`},
		{backendZerolog, `"message":"hello"`},
	} {
		t.Run(tc.backend, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(logConfig{Backend: tc.backend, Level: "info"}, &buf)
			require.NoError(t, err)

			logger.Debug().Log("hidden")
			assert.Zero(t, buf.Len())

			logger.Info().
				Str("suite", "alarm").
				Int64("tick", 510).
				Uint64("kernel", 3).
				Log("hello")
			out := buf.String()
			assert.Contains(t, out, tc.message)
			assert.Contains(t, out, `"suite":"alarm"`)
			// 64-bit integers fall back to decimal strings on every backend
			assert.Contains(t, out, `"tick":"510"`)
			assert.Contains(t, out, `"kernel":"3"`)

			buf.Reset()
			logger.Err().Err(errors.New("boom")).Log("failed")
			assert.Contains(t, buf.String(), "boom")

			buf.Reset()
			assert.NotPanics(t, func() {
				logger.Crit().Log("crit")
				logger.Alert().Log("alert")
				logger.Emerg().Log("emerg")
			})
			assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("\n")))
		})
	}
}

func TestNewLogger_disabled(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(logConfig{Level: "off"}, &buf)
	require.NoError(t, err)
	logger.Emerg().Log("nothing")
	assert.Zero(t, buf.Len())
}

func TestNewLogger_errors(t *testing.T) {
	_, err := newLogger(logConfig{Backend: "syslog"}, &bytes.Buffer{})
	assert.EqualError(t, err, `unknown log backend "syslog"`)

	_, err = newLogger(logConfig{Level: "loud"}, &bytes.Buffer{})
	assert.EqualError(t, err, `unknown log level "loud"`)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]logiface.Level{
		``:         logiface.LevelInformational,
		`INFO`:     logiface.LevelInformational,
		` warn `:   logiface.LevelWarning,
		`disabled`: logiface.LevelDisabled,
		`crit`:     logiface.LevelCritical,
		`err`:      logiface.LevelError,
		`trace`:    logiface.LevelTrace,
	} {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	// every level round trips through its String
	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		got, err := parseLevel(level.String())
		require.NoError(t, err, level)
		assert.Equal(t, level, got)
	}
}

func TestToLogrusLevel(t *testing.T) {
	for level := logiface.LevelEmergency; level <= logiface.LevelTrace; level++ {
		got, ok := toLogrusLevel(level)
		assert.True(t, ok, level)
		assert.NotEqual(t, logrus.PanicLevel, got, level)
	}
	_, ok := toLogrusLevel(logiface.LevelTrace + 1)
	assert.False(t, ok)
}

func TestToZerologLevel(t *testing.T) {
	assert.Equal(t, zerolog.ErrorLevel, toZerologLevel(logiface.LevelCritical))
	assert.Equal(t, zerolog.WarnLevel, toZerologLevel(logiface.LevelNotice))
	assert.Equal(t, zerolog.TraceLevel, toZerologLevel(logiface.LevelTrace))
	assert.Equal(t, zerolog.TraceLevel, toZerologLevel(logiface.LevelTrace+1))
	assert.Equal(t, zerolog.TraceLevel, toZerologLevel(logiface.Level(127)))
	assert.Equal(t, zerolog.PanicLevel, toZerologLevel(logiface.LevelEmergency))
}
