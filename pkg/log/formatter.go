package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// JSONFormatter renders one JSON object per entry.
type JSONFormatter struct {
	// TimestampFormat defaults to time.RFC3339Nano.
	TimestampFormat string
	// DisableCaller omits the caller field.
	DisableCaller bool
}

func (f *JSONFormatter) Format(e *Entry) ([]byte, error) {
	layout := f.TimestampFormat
	if layout == "" {
		layout = time.RFC3339Nano
	}
	m := make(map[string]interface{}, len(e.Fields)+4)
	for k, v := range e.Fields {
		m[k] = jsonValue(v)
	}
	m["ts"] = e.Timestamp.Format(layout)
	m["level"] = e.Level.String()
	m["msg"] = e.Message
	if e.Caller != "" && !f.DisableCaller {
		m["caller"] = e.Caller
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func jsonValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case error:
		return t.Error()
	case time.Duration:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	return v
}

// TextFormatter renders "ts LEVEL msg key=value ..." lines with keys sorted.
type TextFormatter struct {
	TimestampFormat string
	DisableCaller   bool
}

func (f *TextFormatter) Format(e *Entry) ([]byte, error) {
	layout := f.TimestampFormat
	if layout == "" {
		layout = "2006-01-02T15:04:05.000Z07:00"
	}
	var buf bytes.Buffer
	buf.WriteString(e.Timestamp.Format(layout))
	buf.WriteByte(' ')
	lvl := e.Level.String()
	buf.WriteString(lvl)
	for i := len(lvl); i < 5; i++ {
		buf.WriteByte(' ')
	}
	buf.WriteByte(' ')
	buf.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteByte(' ')
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(textValue(e.Fields[k]))
	}
	if e.Caller != "" && !f.DisableCaller {
		buf.WriteString(" caller=")
		buf.WriteString(e.Caller)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func textValue(v interface{}) string {
	var s string
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		s = t
	case error:
		s = t.Error()
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(v)
	}
	if needsQuote(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' || r > '~' {
			return true
		}
	}
	return false
}
