package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func New(logLevel string, json bool) *slog.Logger {
	return NewWithWriter(os.Stdout, logLevel, json)
}

func NewWithWriter(w io.Writer, logLevel string, json bool) *slog.Logger {
	level := parseLevel(logLevel)
	opts := &slog.HandlerOptions{Level: level, AddSource: true}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard is a logger for tests and quiet CLI commands.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(s string) slog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
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
