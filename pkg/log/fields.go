package log

import (
	"fmt"
	"time"
)

// Field is a single structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field from any value.
func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

func Str(key, value string) Field                    { return Field{Key: key, Value: value} }
func Int(key string, value int) Field                { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field            { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field          { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field              { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field        { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }
func Time(key string, value time.Time) Field         { return Field{Key: key, Value: value} }

// Err attaches err under the "error" key. A nil error yields a nil value.
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Component tags entries with the emitting component.
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }

// Operation tags entries with the logical operation.
func Operation(name string) Field { return Field{Key: OperationKey, Value: name} }

// Stringer defers String() until the entry is formatted.
func Stringer(key string, v fmt.Stringer) Field { return Field{Key: key, Value: v} }
