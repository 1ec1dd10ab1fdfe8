// Package logger is the structured logging layer: a small Logger/LogEvent
// contract, its zerolog implementation, a filter that masks credentials in
// logged values and per-request query statistics.
package logger

import "time"

// Logger creates leveled events. Implementations must be safe for concurrent use.
type Logger interface {
	Debug() LogEvent
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
	Fatal() LogEvent
	// WithContext returns the logger stored in a context.Context, or the receiver.
	WithContext(ctx any) Logger
	WithFields(fields map[string]any) Logger
}

// LogEvent accumulates fields until Msg or Msgf emits it.
type LogEvent interface {
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Strs(key string, values []string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Float64(key string, value float64) LogEvent
	Bool(key string, value bool) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
	Msg(msg string)
	Msgf(format string, args ...any)
}
