package logger

import (
	"io"
	"log/slog"
	"os"
)

// Log is the global logger instance
var Log = slog.New(slog.NewTextHandler(io.Discard, nil))

// Setup initializes the global logger for the given environment.
// Production logs JSON at info level; every other environment logs text at debug level.
func Setup(env string) {
	SetupWithWriter(env, os.Stdout)
}

// SetupWithWriter is Setup with an explicit destination, used by the CLI and tests.
func SetupWithWriter(env string, w io.Writer) {
	var handler slog.Handler

	if env == "production" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

// With returns a child logger carrying the given attributes, e.g. a component name.
func With(args ...any) *slog.Logger {
	return Log.With(args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}
