// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package log provides structured logging utilities.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the process-wide logger. Zero values fall back to
// PLAYBACKD_LOG_LEVEL, stdout and JSON output.
type Config struct {
	Level   string
	Output  io.Writer
	Service string
	Version string
	// Console switches to human-readable output for local runs.
	Console bool
}

var (
	mu         sync.RWMutex
	configured bool
	base       zerolog.Logger
)

// Configure installs the global logger once. Later calls are no-ops; use
// Reconfigure after the config file has been read.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if configured {
		return
	}
	base = build(cfg)
	configured = true
}

// Reconfigure replaces the global logger unconditionally.
func Reconfigure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	base = build(cfg)
	configured = true
}

func build(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(levelOf(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if cfg.Output != nil {
		out = cfg.Output
	}
	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	lc := zerolog.New(out).With().Timestamp()
	if cfg.Service != "" {
		lc = lc.Str("service", cfg.Service)
	}
	if cfg.Version != "" {
		lc = lc.Str("version", cfg.Version)
	}
	return lc.Logger()
}

// levelOf resolves the explicit level, then the environment, then info.
// Unparseable values are ignored.
func levelOf(explicit string) zerolog.Level {
	for _, v := range []string{explicit, os.Getenv("PLAYBACKD_LOG_LEVEL")} {
		if v == "" {
			continue
		}
		if lvl, err := zerolog.ParseLevel(v); err == nil {
			return lvl
		}
	}
	return zerolog.InfoLevel
}

func logger() zerolog.Logger {
	Configure(Config{})
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return logger().With().Str(FieldComponent, component).Logger()
}
