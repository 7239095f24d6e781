package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	// Logger is the global slog logger instance. It falls back to the slog
	// default until Init is called so packages can log from tests.
	Logger = slog.Default()
)

// ParseLevel maps a LOG_LEVEL string onto a slog level, defaulting to info
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init initializes the global JSON logger on stdout at the given level
func Init(levelStr string) {
	InitWithWriter(os.Stdout, levelStr)
}

// InitWithWriter is Init with an explicit destination
func InitWithWriter(w io.Writer, levelStr string) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	}

	handler := slog.NewJSONHandler(w, opts)

	Logger = slog.New(handler)
	slog.SetDefault(Logger)

	Logger.Debug("Logger initialized", "level", opts.Level)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}
