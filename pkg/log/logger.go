package log

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Level is a log severity. Higher is more severe.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if l < DebugLevel || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Fields is a map of field names to values.
type Fields map[string]interface{}

// Well-known context keys. Values stored under them with ContextWith are
// attached to entries by WithContext.
const (
	RequestIDKey = "request_id"
	TraceIDKey   = "trace_id"
	SpanIDKey    = "span_id"
	ComponentKey = "component"
	OperationKey = "operation"
	UserKey      = "user"
)

var contextKeys = [...]string{RequestIDKey, TraceIDKey, SpanIDKey, ComponentKey, OperationKey, UserKey}

// Entry represents a single log entry.
type Entry struct {
	Level     Level
	Message   string
	Fields    Fields
	Timestamp time.Time
	Caller    string
	Error     error
}

// Logger defines the core logging interface for TSN components.
type Logger interface {
	// Standard logging methods with structured context (Field-based API)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	// Printf-style variants. Their shape matches pebble.Logger, so a Logger can
	// be handed to the storage layer directly.
	Debugf(msg string, args ...interface{})
	Infof(msg string, args ...interface{})
	Warnf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
	Fatalf(msg string, args ...interface{})

	// Field creation methods
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger

	// With adds multiple fields to the logger (for new Field-based API)
	With(fields ...Field) Logger

	// WithContext adds request context to the Logger
	WithContext(ctx context.Context) Logger

	// WithComponent tags logs with a component name
	WithComponent(component string) Logger

	// SetLevel sets the minimum log level
	SetLevel(level Level)

	// GetLevel returns the current minimum log level
	GetLevel() Level
}

// Formatter defines the interface for formatting log entries.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Output defines the interface for log outputs.
type Output interface {
	Write(entry *Entry, formattedEntry []byte) error
	Close() error
}

// LoggerOption is a function that configures a logger.
type LoggerOption func(*BaseLogger)

// BaseLogger implements the Logger interface.
type BaseLogger struct {
	level      *atomic.Int32
	fields     Fields
	formatter  Formatter
	outputs    []Output
	slogLogger *slog.Logger

	redact           []string
	sampleInitial    int
	sampleThereafter int
}

type contextKey string

// ContextWith returns a copy of ctx carrying value under one of the
// well-known keys.
func ContextWith(ctx context.Context, key string, value interface{}) context.Context {
	return context.WithValue(ctx, contextKey(key), value)
}

// ContextExtractor returns the well-known values present in ctx.
func ContextExtractor(ctx context.Context) Fields {
	fields := Fields{}
	if ctx == nil {
		return fields
	}
	for _, k := range contextKeys {
		if v := ctx.Value(contextKey(k)); v != nil {
			fields[k] = v
		}
	}
	return fields
}

// NewLogger creates a new logger with the given options.
func NewLogger(options ...LoggerOption) Logger {
	logger := &BaseLogger{
		level:     new(atomic.Int32),
		fields:    Fields{},
		formatter: &JSONFormatter{},
		outputs:   []Output{},
	}

	logger.level.Store(int32(InfoLevel))
	for _, option := range options {
		option(logger)
	}

	if len(logger.outputs) == 0 {
		logger.outputs = append(logger.outputs, NewConsoleOutput())
	}

	logger.slogLogger = slog.New(newBridgeHandler(logger,
		redacting(logger.redact),
		sampling(logger.sampleInitial, logger.sampleThereafter)))

	return logger
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(l *BaseLogger) {
		l.level.Store(int32(level))
	}
}

// WithFormatter sets the log formatter.
func WithFormatter(formatter Formatter) LoggerOption {
	return func(l *BaseLogger) {
		l.formatter = formatter
	}
}

// WithRedactions masks the values of the given field keys.
func WithRedactions(keys ...string) LoggerOption {
	return func(l *BaseLogger) {
		l.redact = append(l.redact, keys...)
	}
}

// WithSampling keeps the first initial entries per message and level, then
// every thereafter-th.
func WithSampling(initial, thereafter int) LoggerOption {
	return func(l *BaseLogger) {
		l.sampleInitial, l.sampleThereafter = initial, thereafter
	}
}

// WithOutput adds an output to the logger.
func WithOutput(output Output) LoggerOption {
	return func(l *BaseLogger) {
		l.outputs = append(l.outputs, output)
	}
}
