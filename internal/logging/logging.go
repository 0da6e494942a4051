package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New builds the process-wide slog.Logger writing text lines to stdout.
// Components derive their own loggers via With("component", ...).
func New(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", "codenews")
}

// parseLevel maps a config string to a slog level, defaulting to info so a
// typo never floods the log with debug output.
func parseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
