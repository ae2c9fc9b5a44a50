package main

import (
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

type (
	zerologEvent struct {
		z   *zerolog.Event
		lvl logiface.Level
		msg string
		logiface.UnimplementedEvent
	}

	zerologLogger struct {
		z zerolog.Logger
	}
)

var (
	zl = logiface.LoggerFactory[*zerologEvent]{}

	_ logiface.Event = (*zerologEvent)(nil)
)

// withZerolog configures a logiface logger to write through a zerolog
// logger.
func withZerolog(logger zerolog.Logger) logiface.Option[*zerologEvent] {
	l := zerologLogger{z: logger}
	return zl.WithOptions(
		zl.WithWriter(&l),
		zl.WithEventFactory(&l),
	)
}

func (x *zerologEvent) Level() logiface.Level {
	if x != nil {
		return x.lvl
	}
	return logiface.LevelDisabled
}

func (x *zerologEvent) AddField(key string, val any) {
	x.z.Interface(key, val)
}

func (x *zerologEvent) AddMessage(msg string) bool {
	x.msg = msg
	return true
}

func (x *zerologEvent) AddError(err error) bool {
	x.z.AnErr(zerolog.ErrorFieldName, err)
	return true
}

func (x *zerologEvent) AddString(key string, val string) bool {
	x.z.Str(key, val)
	return true
}

// NewEvent uses WithLevel for every level, which never exits or panics,
// unlike zerolog.Logger.Fatal and zerolog.Logger.Panic.
func (x *zerologLogger) NewEvent(level logiface.Level) *zerologEvent {
	return &zerologEvent{
		z:   x.z.WithLevel(toZerologLevel(level)),
		lvl: level,
	}
}

func (x *zerologLogger) Write(event *zerologEvent) error {
	if event.z == nil {
		return logiface.ErrDisabled
	}
	event.z.Msg(event.msg)
	return nil
}

func toZerologLevel(level logiface.Level) zerolog.Level {
	switch level {
	case logiface.LevelDebug:
		return zerolog.DebugLevel
	case logiface.LevelInformational:
		return zerolog.InfoLevel
	case logiface.LevelNotice, logiface.LevelWarning:
		return zerolog.WarnLevel
	case logiface.LevelError, logiface.LevelCritical:
		return zerolog.ErrorLevel
	case logiface.LevelAlert:
		return zerolog.FatalLevel
	case logiface.LevelEmergency:
		return zerolog.PanicLevel
	default:
		// trace, and every custom level past it
		return zerolog.TraceLevel
	}
}
