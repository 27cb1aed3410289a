// Package log configures structured logging for the artvec pipelines.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output format.
type Format string

// Format values.
const (
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
)

// ParseFormat parses a format string, defaulting to pretty.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, string(FormatJSON)) {
		return FormatJSON
	}
	return FormatPretty
}

// New creates a slog.Logger writing to stdout with the given level and format.
func New(level string, format Format) *slog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter creates a slog.Logger writing to w. Tests use this to
// capture output.
func NewWithWriter(w io.Writer, level string, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = newTerminalHandler(w, opts)
	}
	return slog.New(handler)
}

// Configure builds a logger and installs it as the process default.
func Configure(level string, format Format) *slog.Logger {
	logger := New(level, format)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog.Level, defaulting to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
