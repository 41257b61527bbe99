package logger

import (
	"log/slog"
	"strings"
)

// New builds the process logger. handler picks the output: Cloud Run JSON in
// the binaries, a discard or capture handler in tests.
func New(level string, handler func(level slog.Level) slog.Handler) *slog.Logger {
	return slog.New(handler(ParseLevel(level)))
}

// ParseLevel accepts debug, info, warn (or warning) and error in any case,
// with optional offsets such as "info+2". Anything else is info.
func ParseLevel(level string) slog.Level {
	s := strings.TrimSpace(level)
	if strings.EqualFold(s, "warning") {
		s = "warn"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
