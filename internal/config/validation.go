// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidationError lists every problem found, not just the first.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks cfg for values the daemon cannot run with.
func Validate(cfg Config) error {
	v := &ValidationError{}
	add := func(format string, args ...any) {
		v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(cfg.ListenAddr) == "" {
		add("listenAddr must not be empty")
	}
	if err := checkURL(cfg.PublicBaseURL, true); err != nil {
		add("publicBaseURL: %v", err)
	}
	if cfg.Reader.ChunkSize <= 0 {
		add("reader.chunkSize must be positive, got %d", cfg.Reader.ChunkSize)
	}
	if cfg.Reader.LargeFileThreshold < 0 {
		add("reader.largeFileThreshold must not be negative")
	}
	if cfg.Progress.Interval <= 0 {
		add("progress.interval must be positive, got %s", cfg.Progress.Interval)
	}
	if err := checkURL(cfg.Transcode.BaseURL, false); err != nil {
		add("transcode.baseURL: %v", err)
	}
	if cfg.Transcode.RequestTimeout <= 0 {
		add("transcode.requestTimeout must be positive")
	}
	if cfg.Transcode.BreakerThreshold < 1 {
		add("transcode.breakerThreshold must be at least 1")
	}
	if cfg.Transcode.BreakerReset <= 0 {
		add("transcode.breakerReset must be positive")
	}

	switch strings.ToLower(cfg.History.Backend) {
	case "", "sqlite", "badger", "memory":
	case "redis":
		if cfg.History.RedisAddr == "" {
			add("history.redisAddr is required for the redis backend")
		}
	default:
		add("history.backend %q is not one of sqlite, badger, redis, memory", cfg.History.Backend)
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			add("telemetry.exporter must be grpc or http, got %q", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.Endpoint == "" {
			add("telemetry.endpoint is required when telemetry is enabled")
		}
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		add("telemetry.samplingRate must be within [0,1]")
	}
	if cfg.API.RateLimit < 0 {
		add("api.rateLimit must not be negative")
	}
	if cfg.API.RateLimit > 0 && cfg.API.RateWindow <= 0 {
		add("api.rateWindow must be positive when rateLimit is set")
	}

	if len(v.Problems) == 0 {
		return nil
	}
	return v
}

func checkURL(raw string, required bool) error {
	if raw == "" {
		if required {
			return errors.New("must not be empty")
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is missing")
	}
	return nil
}
