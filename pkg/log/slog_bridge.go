package log

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
)

const redactedValue = "[REDACTED]"

// bridgeHandler lets slog records flow through a BaseLogger's formatter and
// outputs. Every BaseLogger logs through one of these.
type bridgeHandler struct {
	logger *BaseLogger
	attrs  []slog.Attr
	prefix string // group path, dot-terminated
	redact map[string]bool
	sample *sampler
}

type bridgeOption func(*bridgeHandler)

func redacting(keys []string) bridgeOption {
	return func(h *bridgeHandler) {
		if len(keys) == 0 {
			return
		}
		h.redact = make(map[string]bool, len(keys))
		for _, k := range keys {
			h.redact[k] = true
		}
	}
}

func sampling(initial, thereafter int) bridgeOption {
	return func(h *bridgeHandler) {
		if thereafter > 0 {
			h.sample = newSampler(initial, thereafter)
		}
	}
}

func newBridgeHandler(logger *BaseLogger, opts ...bridgeOption) *bridgeHandler {
	h := &bridgeHandler{logger: logger}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *bridgeHandler) Enabled(_ context.Context, level slog.Level) bool {
	return levelFromSlog(level) >= h.logger.GetLevel()
}

func (h *bridgeHandler) Handle(_ context.Context, r slog.Record) error {
	if h.sample != nil && !h.sample.allow(r.Level, r.Message) {
		return nil
	}
	entry := &Entry{
		Level:     levelFromSlog(r.Level),
		Message:   r.Message,
		Fields:    make(Fields, len(h.attrs)+r.NumAttrs()),
		Timestamp: r.Time,
		Caller:    callerOf(r.PC),
	}
	collect := func(a slog.Attr) bool {
		v := a.Value.Any()
		switch {
		case h.redact[a.Key]:
			v = redactedValue
		case a.Key == "error":
			if err, ok := v.(error); ok {
				entry.Error = err
			}
		}
		entry.Fields[h.prefix+a.Key] = v
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	b, err := h.logger.formatter.Format(entry)
	if err != nil {
		return err
	}
	for _, out := range h.logger.outputs {
		_ = out.Write(entry, b)
	}
	return nil
}

func (h *bridgeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)
	return &c
}

func (h *bridgeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func callerOf(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	f, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if f.File == "" {
		return ""
	}
	dir, file := filepath.Split(f.File)
	return filepath.Base(dir) + "/" + file + ":" + strconv.Itoa(f.Line)
}

// sampler passes the first initial entries of each (level, message) pair and
// then every thereafter-th one.
type sampler struct {
	mu         sync.Mutex
	initial    uint64
	thereafter uint64
	seen       map[sampleKey]uint64
}

type sampleKey struct {
	level slog.Level
	msg   string
}

func newSampler(initial, thereafter int) *sampler {
	return &sampler{
		initial:    uint64(max(initial, 0)),
		thereafter: uint64(max(thereafter, 1)),
		seen:       make(map[sampleKey]uint64),
	}
}

func (s *sampler) allow(level slog.Level, msg string) bool {
	k := sampleKey{level, msg}
	s.mu.Lock()
	n := s.seen[k]
	s.seen[k] = n + 1
	s.mu.Unlock()
	return n < s.initial || (n-s.initial)%s.thereafter == 0
}

// slog has no fatal level; it sits above error.
const slogFatal = slog.LevelError + 4

func levelToSlog(l Level) slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	case FatalLevel:
		return slogFatal
	}
	return slog.LevelInfo
}

func levelFromSlog(l slog.Level) Level {
	switch {
	case l >= slogFatal:
		return FatalLevel
	case l >= slog.LevelError:
		return ErrorLevel
	case l >= slog.LevelWarn:
		return WarnLevel
	case l >= slog.LevelInfo:
		return InfoLevel
	}
	return DebugLevel
}

// recordAttrs converts bound fields plus call-site fields to slog attrs.
func recordAttrs(bound Fields, fields []Field) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(bound)+len(fields))
	for k, v := range bound {
		attrs = append(attrs, slog.Any(k, v))
	}
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	return attrs
}
