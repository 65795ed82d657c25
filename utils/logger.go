package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger provides structured, leveled logging throughout the application.
type Logger struct {
	internal *slog.Logger
}

// NewLogger creates a Logger writing text records to stdout at the given level
// ("debug", "info", "warn", "error"; anything else means info).
func NewLogger(level string) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo is NewLogger with an explicit destination.
func NewLoggerTo(w io.Writer, level string) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &Logger{internal: slog.New(handler)}
}

// NopLogger discards everything. Handy in tests.
func NopLogger() *Logger {
	return NewLoggerTo(io.Discard, "error")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{internal: l.internal.With(args...)}
}

func (l *Logger) Info(msg string, args ...any) {
	l.internal.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.internal.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.internal.Error(msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.internal.Debug(msg, args...)
}
