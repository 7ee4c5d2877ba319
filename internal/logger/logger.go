package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/Domenick1991/fitbooking/config"
	"github.com/rs/zerolog"
)

// New builds the process logger. It writes JSON unless cfg.Pretty is set.
func New(cfg config.LogConfig, service string) zerolog.Logger {
	return NewWithWriter(cfg, service, os.Stdout)
}

func NewWithWriter(cfg config.LogConfig, service string, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var w io.Writer = out
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// ParseLevel maps a config level name onto zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
