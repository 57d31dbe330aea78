// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load builds a Config from defaults, the optional YAML file at path, and
// PLAYBACKD_* environment variables, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	mergeEnv(&cfg)

	if cfg.DataDir != "" {
		if abs, err := filepath.Abs(cfg.DataDir); err == nil {
			cfg.DataDir = abs
		}
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// mergeFile decodes the file over cfg. Unknown keys and trailing documents
// are rejected.
func mergeFile(cfg *Config, path string) error {
	// #nosec G304 -- the config path is provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("config file contains multiple documents or trailing content")
	}
	return nil
}

func mergeEnv(cfg *Config) {
	p := EnvPrefix
	cfg.ListenAddr = ParseString(p+"LISTEN_ADDR", cfg.ListenAddr)
	cfg.PublicBaseURL = ParseString(p+"PUBLIC_BASE_URL", cfg.PublicBaseURL)
	cfg.DataDir = ParseString(p+"DATA_DIR", cfg.DataDir)
	cfg.Log.Level = ParseString(p+"LOG_LEVEL", cfg.Log.Level)

	cfg.Reader.ChunkSize = ParseInt64(p+"CHUNK_SIZE", cfg.Reader.ChunkSize)
	cfg.Reader.LargeFileThreshold = ParseInt64(p+"LARGE_FILE_THRESHOLD", cfg.Reader.LargeFileThreshold)
	cfg.Progress.Interval = ParseDuration(p+"PROGRESS_INTERVAL", cfg.Progress.Interval)

	cfg.Transcode.BaseURL = ParseString(p+"TRANSCODE_URL", cfg.Transcode.BaseURL)
	cfg.Transcode.RequestTimeout = ParseDuration(p+"TRANSCODE_TIMEOUT", cfg.Transcode.RequestTimeout)
	cfg.Transcode.StopTimeout = ParseDuration(p+"TRANSCODE_STOP_TIMEOUT", cfg.Transcode.StopTimeout)
	cfg.Transcode.BreakerThreshold = ParseInt(p+"BREAKER_THRESHOLD", cfg.Transcode.BreakerThreshold)
	cfg.Transcode.BreakerReset = ParseDuration(p+"BREAKER_RESET", cfg.Transcode.BreakerReset)

	cfg.History.Backend = ParseString(p+"HISTORY_BACKEND", cfg.History.Backend)
	cfg.History.RedisAddr = ParseString(p+"REDIS_ADDR", cfg.History.RedisAddr)
	cfg.History.RedisPassword = ParseString(p+"REDIS_PASSWORD", cfg.History.RedisPassword)
	cfg.History.RedisDB = ParseInt(p+"REDIS_DB", cfg.History.RedisDB)

	cfg.Telemetry.Enabled = ParseBool(p+"TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString(p+"OTLP_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString(p+"OTLP_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat(p+"TRACE_SAMPLING", cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = ParseString(p+"ENVIRONMENT", cfg.Telemetry.Environment)

	cfg.API.RateLimit = ParseInt(p+"RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.RateWindow = ParseDuration(p+"RATE_WINDOW", cfg.API.RateWindow)
}
