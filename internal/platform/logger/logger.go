package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger at the given level writing to stdout.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// Fatal logs the message at error level and exits the process. Only main
// should call this; everything below main returns errors.
func Fatal(log *slog.Logger, msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}
