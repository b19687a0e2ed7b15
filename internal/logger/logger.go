// Package logger provides a small structured logging facade over log/slog.
// Components depend on the Logger interface so tests can swap in a silent
// or capturing implementation without touching slog directly.
package logger

import (
	"io"
	"log/slog"
	"time"
)

// LogLevel controls the minimum level a logger emits.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Field is a structured key/value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// String returns a string-valued field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int returns an int-valued field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 returns an int64-valued field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Uint64 returns a uint64-valued field.
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

// Bool returns a bool-valued field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Duration returns a duration-valued field.
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Any returns a field holding an arbitrary value.
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Error returns a field for an error under the conventional "error" key.
// A nil error produces an empty string value so log lines stay uniform.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger is the logging interface used throughout the worker.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger with the given fields attached to
	// every line it emits.
	With(fields ...Field) Logger
}

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	sl *slog.Logger
}

// NewSlogLogger creates a Logger writing text lines to w at the given level.
// Pass nil opts to use defaults.
func NewSlogLogger(w io.Writer, level LogLevel, opts *slog.HandlerOptions) Logger {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	opts.Level = toSlogLevel(level)
	return &slogLogger{sl: slog.New(slog.NewTextHandler(w, opts))}
}

// NewJSONLogger creates a Logger writing JSON lines to w at the given level.
func NewJSONLogger(w io.Writer, level LogLevel) Logger {
	return &slogLogger{sl: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: toSlogLevel(level),
	}))}
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func toArgs(fields []Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}

func (l *slogLogger) Debug(msg string, fields ...Field) { l.sl.Debug(msg, toArgs(fields)...) }
func (l *slogLogger) Info(msg string, fields ...Field)  { l.sl.Info(msg, toArgs(fields)...) }
func (l *slogLogger) Warn(msg string, fields ...Field)  { l.sl.Warn(msg, toArgs(fields)...) }
func (l *slogLogger) Error(msg string, fields ...Field) { l.sl.Error(msg, toArgs(fields)...) }

func (l *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{sl: l.sl.With(toArgs(fields)...)}
}
