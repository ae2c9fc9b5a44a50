package main

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/sirupsen/logrus"
)

type (
	logrusEvent struct {
		entry *logrus.Entry
		lvl   logiface.Level
		logiface.UnimplementedEvent
	}

	logrusLogger struct {
		logrus *logrus.Logger
	}
)

var (
	lr = logiface.LoggerFactory[*logrusEvent]{}

	logrusEventPool = sync.Pool{New: func() any {
		return &logrusEvent{entry: &logrus.Entry{
			Data: make(logrus.Fields, 6),
		}}
	}}

	_ logiface.Event = (*logrusEvent)(nil)
)

// withLogrus configures a logiface logger to write through a logrus logger.
func withLogrus(logger *logrus.Logger) logiface.Option[*logrusEvent] {
	l := logrusLogger{logrus: logger}
	return lr.WithOptions(
		lr.WithWriter(&l),
		lr.WithEventFactory(&l),
		lr.WithEventReleaser(&l),
	)
}

func (x *logrusEvent) Level() logiface.Level {
	if x != nil {
		return x.lvl
	}
	return logiface.LevelDisabled
}

func (x *logrusEvent) AddField(key string, val any) {
	x.entry.Data[key] = val
}

func (x *logrusEvent) AddMessage(msg string) bool {
	x.entry.Message = msg
	return true
}

func (x *logrusEvent) AddError(err error) bool {
	x.entry.Data[logrus.ErrorKey] = err
	return true
}

func (x *logrusLogger) NewEvent(level logiface.Level) *logrusEvent {
	event := logrusEventPool.Get().(*logrusEvent)
	event.lvl = level
	event.entry.Logger = x.logrus
	return event
}

func (x *logrusLogger) ReleaseEvent(event *logrusEvent) {
	clear(event.entry.Data)
	*event.entry = logrus.Entry{Data: event.entry.Data}
	*event = logrusEvent{entry: event.entry}
	logrusEventPool.Put(event)
}

func (x *logrusLogger) Write(event *logrusEvent) error {
	level, ok := toLogrusLevel(event.Level())
	if !ok || !event.entry.Logger.IsLevelEnabled(level) {
		return logiface.ErrDisabled
	}

	// WithFields copies, so the pooled map stays with the event
	fields := event.entry.Data
	event.entry.Data = nil
	entry := event.entry.WithFields(fields)
	event.entry.Data = fields

	entry.Log(level, event.entry.Message)
	return nil
}

// toLogrusLevel maps logiface levels onto logrus levels. Nothing maps to
// logrus.PanicLevel, since logrus.Entry.Log panics at that level, which is
// the one behavioral difference from github.com/joeycumines/ilogrus, and the
// reason that package is not used directly.
func toLogrusLevel(level logiface.Level) (logrus.Level, bool) {
	switch level {
	case logiface.LevelTrace:
		return logrus.TraceLevel, true
	case logiface.LevelDebug:
		return logrus.DebugLevel, true
	case logiface.LevelInformational:
		return logrus.InfoLevel, true
	case logiface.LevelNotice, logiface.LevelWarning:
		return logrus.WarnLevel, true
	case logiface.LevelError, logiface.LevelCritical:
		return logrus.ErrorLevel, true
	case logiface.LevelAlert, logiface.LevelEmergency:
		return logrus.FatalLevel, true
	default:
		return logrus.PanicLevel, false
	}
}
