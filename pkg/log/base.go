package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"
)

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

// Fatal logs at FatalLevel, closes outputs and exits the process.
func (l *BaseLogger) Fatal(msg string, fields ...Field) {
	l.log(FatalLevel, msg, fields)
	l.exit()
}

func (l *BaseLogger) Debugf(msg string, args ...interface{}) { l.logf(DebugLevel, msg, args) }
func (l *BaseLogger) Infof(msg string, args ...interface{})  { l.logf(InfoLevel, msg, args) }
func (l *BaseLogger) Warnf(msg string, args ...interface{})  { l.logf(WarnLevel, msg, args) }
func (l *BaseLogger) Errorf(msg string, args ...interface{}) { l.logf(ErrorLevel, msg, args) }

func (l *BaseLogger) Fatalf(msg string, args ...interface{}) {
	l.logf(FatalLevel, msg, args)
	l.exit()
}

// exitFunc is swapped in tests.
var (
	osExit   = os.Exit
	exitFunc = osExit
)

func (l *BaseLogger) exit() {
	for _, out := range l.outputs {
		_ = out.Close()
	}
	exitFunc(1)
}

func (l *BaseLogger) WithField(key string, value interface{}) Logger {
	return l.with(Fields{key: value})
}

func (l *BaseLogger) WithFields(fields Fields) Logger { return l.with(fields) }

func (l *BaseLogger) WithError(err error) Logger { return l.with(Fields{"error": err}) }

func (l *BaseLogger) With(fields ...Field) Logger {
	m := make(Fields, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return l.with(m)
}

func (l *BaseLogger) WithContext(ctx context.Context) Logger {
	return l.with(ContextExtractor(ctx))
}

func (l *BaseLogger) WithComponent(component string) Logger {
	return l.with(Fields{ComponentKey: component})
}

// SetLevel changes the level of this logger and every logger derived from it.
func (l *BaseLogger) SetLevel(level Level) { l.level.Store(int32(level)) }

func (l *BaseLogger) GetLevel() Level { return Level(l.level.Load()) }

// with returns a child sharing level, formatter and outputs.
func (l *BaseLogger) with(extra Fields) Logger {
	if len(extra) == 0 {
		return l
	}
	merged := make(Fields, len(l.fields)+len(extra))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	child := &BaseLogger{
		level:            l.level,
		fields:           merged,
		formatter:        l.formatter,
		outputs:          l.outputs,
		redact:           l.redact,
		sampleInitial:    l.sampleInitial,
		sampleThereafter: l.sampleThereafter,
	}
	h := *l.slogLogger.Handler().(*bridgeHandler)
	h.logger = child
	child.slogLogger = slog.New(&h)
	return child
}

func (l *BaseLogger) log(level Level, msg string, fields []Field) {
	sl := levelToSlog(level)
	h := l.slogLogger.Handler()
	if !h.Enabled(context.Background(), sl) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), sl, msg, pcs[0])
	r.AddAttrs(recordAttrs(l.fields, fields)...)
	_ = h.Handle(context.Background(), r)
}

func (l *BaseLogger) logf(level Level, format string, args []interface{}) {
	sl := levelToSlog(level)
	h := l.slogLogger.Handler()
	if !h.Enabled(context.Background(), sl) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	r := slog.NewRecord(time.Now(), sl, msg, pcs[0])
	r.AddAttrs(recordAttrs(l.fields, nil)...)
	_ = h.Handle(context.Background(), r)
}

// Slog exposes the slog.Logger backed by this logger's pipeline.
func (l *BaseLogger) Slog() *slog.Logger { return l.slogLogger }

// nopLogger discards everything.
type nopLogger struct{}

// NewNopLogger returns a Logger that drops every entry. Useful in tests.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...Field)                 {}
func (nopLogger) Info(string, ...Field)                  {}
func (nopLogger) Warn(string, ...Field)                  {}
func (nopLogger) Error(string, ...Field)                 {}
func (nopLogger) Fatal(string, ...Field)                 {}
func (nopLogger) Debugf(string, ...interface{})          {}
func (nopLogger) Infof(string, ...interface{})           {}
func (nopLogger) Warnf(string, ...interface{})           {}
func (nopLogger) Errorf(string, ...interface{})          {}
func (nopLogger) Fatalf(string, ...interface{})          {}
func (n nopLogger) WithField(string, interface{}) Logger { return n }
func (n nopLogger) WithFields(Fields) Logger             { return n }
func (n nopLogger) WithError(error) Logger               { return n }
func (n nopLogger) With(...Field) Logger                 { return n }
func (n nopLogger) WithContext(context.Context) Logger   { return n }
func (n nopLogger) WithComponent(string) Logger          { return n }
func (nopLogger) SetLevel(Level)                         {}
func (nopLogger) GetLevel() Level                        { return FatalLevel }
