// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads playbackd settings with precedence ENV > file > defaults.
package config

import (
	"time"
)

// Config is the complete daemon configuration. Field names double as the
// YAML keys.
type Config struct {
	ListenAddr    string `yaml:"listenAddr"`
	PublicBaseURL string `yaml:"publicBaseURL"`
	DataDir       string `yaml:"dataDir"`

	Log       LogConfig       `yaml:"log"`
	Reader    ReaderConfig    `yaml:"reader"`
	Progress  ProgressConfig  `yaml:"progress"`
	Transcode TranscodeConfig `yaml:"transcode"`
	History   HistoryConfig   `yaml:"history"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	API       APIConfig       `yaml:"api"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// ReaderConfig tunes the chunked file reader.
type ReaderConfig struct {
	ChunkSize          int64 `yaml:"chunkSize"`
	LargeFileThreshold int64 `yaml:"largeFileThreshold"`
}

type ProgressConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// TranscodeConfig points at the external encoder. An empty BaseURL disables
// transcoding; sessions that need it fail with guidance.
type TranscodeConfig struct {
	BaseURL          string        `yaml:"baseURL"`
	RequestTimeout   time.Duration `yaml:"requestTimeout"`
	StopTimeout      time.Duration `yaml:"stopTimeout"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset"`
}

type HistoryConfig struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redisAddr,omitempty"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       int    `yaml:"redisDB,omitempty"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment,omitempty"`
}

// APIConfig limits player-facing ingress per client IP.
type APIConfig struct {
	RateLimit  int           `yaml:"rateLimit"`
	RateWindow time.Duration `yaml:"rateWindow"`
}

const (
	DefaultListenAddr         = ":8089"
	DefaultChunkSize          = 10 << 20
	DefaultLargeFileThreshold = 4 << 30
	DefaultProgressInterval   = 5 * time.Second
	DefaultTranscodeTimeout   = 15 * time.Second
	DefaultStopTimeout        = 5 * time.Second
	DefaultBreakerThreshold   = 3
	DefaultBreakerReset       = 30 * time.Second
	DefaultRateLimit          = 120
	DefaultRateWindow         = time.Minute
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:    DefaultListenAddr,
		PublicBaseURL: "http://127.0.0.1:8089",
		DataDir:       "/var/lib/playbackd",
		Log:           LogConfig{Level: "info"},
		Reader: ReaderConfig{
			ChunkSize:          DefaultChunkSize,
			LargeFileThreshold: DefaultLargeFileThreshold,
		},
		Progress: ProgressConfig{Interval: DefaultProgressInterval},
		Transcode: TranscodeConfig{
			RequestTimeout:   DefaultTranscodeTimeout,
			StopTimeout:      DefaultStopTimeout,
			BreakerThreshold: DefaultBreakerThreshold,
			BreakerReset:     DefaultBreakerReset,
		},
		History: HistoryConfig{Backend: "sqlite"},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		API: APIConfig{RateLimit: DefaultRateLimit, RateWindow: DefaultRateWindow},
	}
}
