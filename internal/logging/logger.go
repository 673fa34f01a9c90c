// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package logging provides the process-wide zerolog logger for Clickboard.
//
// Every component logs through this package so that the dashboard session,
// the backend client and the local API share one output format and level:
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	logging.Info().Str("feature", name).Msg("Tracked click")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Analytics fetch failed")
//
// Analytics and tracking failures are reported here and nowhere else; they are
// never surfaced to the person looking at the dashboard.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error, fatal, panic, disabled.
	Level string

	// Format is json or console.
	Format string

	// Caller adds file:line to every entry.
	Caller bool

	// Timestamp adds the time field to every entry.
	Timestamp bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // logging must work before main calls Init
func init() {
	cfg := DefaultConfig()
	if os.Getenv("CLICKBOARD_QUIET_TESTS") == "1" {
		cfg.Level = "disabled"
	}
	configure(cfg)
}

// Init reconfigures the global logger. Safe to call more than once.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	configure(cfg)
}

// configure must be called with mu held.
func configure(cfg Config) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.ErrorFieldName = "error"
	zerolog.CallerFieldName = "caller"

	out := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	l := zerolog.New(out)
	if cfg.Timestamp {
		l = l.With().Timestamp().Logger()
	}
	if cfg.Caller {
		l = l.With().Caller().Logger()
	}
	log = l
}

var levels = map[string]zerolog.Level{
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"fatal":    zerolog.FatalLevel,
	"panic":    zerolog.PanicLevel,
	"disabled": zerolog.Disabled,
	"off":      zerolog.Disabled,
}

// parseLevel maps a level name to zerolog.Level. Unknown names mean info.
func parseLevel(level string) zerolog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func event(level zerolog.Level) *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.WithLevel(level)
}

// Debug starts a debug level event.
func Debug() *zerolog.Event { return event(zerolog.DebugLevel) }

// Info starts an info level event.
func Info() *zerolog.Event { return event(zerolog.InfoLevel) }

// Warn starts a warn level event.
func Warn() *zerolog.Event { return event(zerolog.WarnLevel) }

// Error starts an error level event.
func Error() *zerolog.Event { return event(zerolog.ErrorLevel) }

// NewTestLogger returns a JSON logger writing to w.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
