// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultChunkSize), cfg.Reader.ChunkSize)
	assert.Equal(t, int64(DefaultLargeFileThreshold), cfg.Reader.LargeFileThreshold)
	assert.Equal(t, DefaultProgressInterval, cfg.Progress.Interval)
	assert.Equal(t, "sqlite", cfg.History.Backend)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeYAML(t, `
listenAddr: ":9000"
reader:
  chunkSize: 1048576
progress:
  interval: 2s
transcode:
  baseURL: http://encoder:8080
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, int64(1<<20), cfg.Reader.ChunkSize)
	assert.Equal(t, 2*time.Second, cfg.Progress.Interval)
	assert.Equal(t, "http://encoder:8080", cfg.Transcode.BaseURL)
	assert.Equal(t, DefaultBreakerThreshold, cfg.Transcode.BreakerThreshold)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeYAML(t, "listenAddr: \":9000\"\n")
	t.Setenv("PLAYBACKD_LISTEN_ADDR", ":9100")
	t.Setenv("PLAYBACKD_CHUNK_SIZE", "4096")
	t.Setenv("PLAYBACKD_PROGRESS_INTERVAL", "not-a-duration")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.ListenAddr)
	assert.Equal(t, int64(4096), cfg.Reader.ChunkSize)
	assert.Equal(t, DefaultProgressInterval, cfg.Progress.Interval, "malformed env falls back")
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeYAML(t, "listenAddr: \":9000\"\nbogus: 1\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict config parse error")
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeYAML(t, "listenAddr: \":9000\"\n---\nlistenAddr: \":9001\"\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Reader.ChunkSize = 0
	cfg.Progress.Interval = 0
	cfg.Transcode.BaseURL = "ftp://encoder"
	cfg.History.Backend = "redis"

	err := Validate(cfg)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 4)
}

func TestValidate_DefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestDiff_ReportsYAMLKeys(t *testing.T) {
	a := Default()
	b := a
	b.Progress.Interval = time.Second
	b.Transcode.BaseURL = "http://x:1"
	assert.Equal(t, []string{"progress.interval", "transcode.baseURL"}, Diff(a, b))
	assert.Empty(t, Diff(a, a))
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "playbackd.yaml")
	require.NoError(t, WriteFile(path, Default(), false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, withAbsDataDir(Default()), cfg)

	err = WriteFile(path, Default(), false)
	require.ErrorIs(t, err, ErrExists)
	require.NoError(t, WriteFile(path, Default(), true))
}

func withAbsDataDir(c Config) Config {
	if abs, err := filepath.Abs(c.DataDir); err == nil {
		c.DataDir = abs
	}
	return c
}

func TestHolder_ReloadKeepsOldOnInvalid(t *testing.T) {
	path := writeYAML(t, "progress:\n  interval: 3s\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	h := NewHolder(cfg, path)
	var seen []time.Duration
	h.OnReload(func(_, next Config) { seen = append(seen, next.Progress.Interval) })

	require.NoError(t, os.WriteFile(path, []byte("progress:\n  interval: 7s\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))
	assert.Equal(t, 7*time.Second, h.Get().Progress.Interval)

	require.NoError(t, os.WriteFile(path, []byte("progress:\n  interval: 0s\n"), 0o600))
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, 7*time.Second, h.Get().Progress.Interval)
	assert.Equal(t, []time.Duration{7 * time.Second}, seen)
}

func TestHolder_WatchReloadsOnChange(t *testing.T) {
	path := writeYAML(t, "progress:\n  interval: 3s\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	h := NewHolder(cfg, path)
	h.debounce = 20 * time.Millisecond
	reloaded := make(chan Config, 4)
	h.OnReload(func(_, next Config) {
		select {
		case reloaded <- next:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx) }()

	next := Default()
	next.Progress.Interval = 9 * time.Second
	require.Eventually(t, func() bool {
		// Rewrite until the watcher is registered and picks it up.
		_ = WriteFile(path, next, true)
		select {
		case got := <-reloaded:
			return got.Progress.Interval == 9*time.Second
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
