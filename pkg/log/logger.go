package log

import (
	"fmt"
	"time"
)

// Logger is what every chronicler component writes diagnostics to. The
// message is a short constant phrase; variable data goes in fields.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key/value pair on a log line. Adapters switch on the
// dynamic type of Value, so prefer the typed constructors below.
type Field struct {
	Key   string
	Value interface{}
}

// ErrorKey is the key used by Err.
const ErrorKey = "error"

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Stringer defers formatting of v until the line is actually written,
// so disabled debug lines cost nothing. Used for triggers and states.
func Stringer(key string, v fmt.Stringer) Field { return Field{Key: key, Value: v} }

// Err attaches err under ErrorKey. A nil err is written as null.
func Err(err error) Field { return Field{Key: ErrorKey, Value: err} }

// Any falls back to reflection-based encoding in the adapter.
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }
