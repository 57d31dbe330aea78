// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/playbackd/internal/log"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "PLAYBACKD_"

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "password") || strings.Contains(k, "token") || strings.Contains(k, "secret")
}

// lookup returns the raw value and whether it should override the default.
// Empty variables count as unset.
func lookup(logger zerolog.Logger, key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
		return "", false
	}
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitive(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", v)
	}
	ev.Msg("using environment variable")
	return v, true
}

// parseOr converts the variable with parse, falling back to def with a
// warning when the value is malformed.
func parseOr[T any](key string, def T, parse func(string) (T, error)) T {
	logger := xglog.WithComponent("config")
	raw, ok := lookup(logger, key)
	if !ok {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", raw).Err(err).
			Msg("invalid environment variable, using default")
		return def
	}
	return v
}

// ParseString reads a string variable or returns def.
func ParseString(key, def string) string {
	return parseOr(key, def, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer variable or returns def.
func ParseInt(key string, def int) int {
	return parseOr(key, def, strconv.Atoi)
}

// ParseInt64 reads a 64-bit integer variable or returns def.
func ParseInt64(key string, def int64) int64 {
	return parseOr(key, def, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
}

// ParseBool accepts the forms strconv.ParseBool does.
func ParseBool(key string, def bool) bool {
	return parseOr(key, def, strconv.ParseBool)
}

// ParseDuration reads a Go duration such as "5s".
func ParseDuration(key string, def time.Duration) time.Duration {
	return parseOr(key, def, time.ParseDuration)
}

// ParseFloat reads a float variable or returns def.
func ParseFloat(key string, def float64) float64 {
	return parseOr(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}
