package infra

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger so packages depend on the infra contract
// rather than on the logging module directly.
type Logger = zerolog.Logger

// NewLogger builds the service logger. Development gets debug level and a
// console writer; everything else writes JSON lines to stdout. LOG_LEVEL
// overrides the level in any environment.
func NewLogger(appEnv string) Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}

	var out io.Writer = os.Stdout
	if appEnv == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "productshot").
		Logger()
}

// NopLogger returns a logger that discards everything; components fall back
// to it when no logger is injected.
func NopLogger() Logger {
	return zerolog.New(io.Discard)
}

// OrNop dereferences l, or returns a discarding logger when l is nil.
func OrNop(l *Logger) Logger {
	if l == nil {
		return NopLogger()
	}
	return *l
}
