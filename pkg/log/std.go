package log

import (
	"bytes"
	stdlog "log"
)

type stdWriter struct {
	l     Logger
	level Level
}

func (w stdWriter) Write(p []byte) (int, error) {
	msg := string(bytes.TrimRight(p, "\r\n"))
	switch w.level {
	case DebugLevel:
		w.l.Debug(msg)
	case WarnLevel:
		w.l.Warn(msg)
	case ErrorLevel, FatalLevel:
		w.l.Error(msg)
	default:
		w.l.Info(msg)
	}
	return len(p), nil
}

// ToStdLogger returns a *log.Logger whose lines are emitted at level.
func ToStdLogger(l Logger, level Level) *stdlog.Logger {
	return stdlog.New(stdWriter{l: l, level: level}, "", 0)
}

// RedirectStdLog routes the standard library's default logger through l at
// info level. The returned func restores the previous writer and flags.
func RedirectStdLog(l Logger) func() {
	prevFlags := stdlog.Flags()
	prevPrefix := stdlog.Prefix()
	prevWriter := stdlog.Writer()
	stdlog.SetFlags(0)
	stdlog.SetPrefix("")
	stdlog.SetOutput(stdWriter{l: l.With(Component("stdlog")), level: InfoLevel})
	return func() {
		stdlog.SetFlags(prevFlags)
		stdlog.SetPrefix(prevPrefix)
		stdlog.SetOutput(prevWriter)
	}
}
