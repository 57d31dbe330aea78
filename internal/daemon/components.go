// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon assembles playbackd from its configuration and runs it.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/playbackd/internal/blobstore"
	"github.com/ManuGH/playbackd/internal/chunkread"
	"github.com/ManuGH/playbackd/internal/classify"
	"github.com/ManuGH/playbackd/internal/config"
	"github.com/ManuGH/playbackd/internal/history"
	xglog "github.com/ManuGH/playbackd/internal/log"
	"github.com/ManuGH/playbackd/internal/persistence/sqlite"
	"github.com/ManuGH/playbackd/internal/playback"
	"github.com/ManuGH/playbackd/internal/resilience"
	"github.com/ManuGH/playbackd/internal/transcode"
)

// ErrCorruptHistory is returned when the sqlite history fails its
// startup integrity check.
var ErrCorruptHistory = errors.New("history database failed integrity check")

// Components are the long-lived collaborators shared by all sessions.
// Stores and the blob registry live for the whole process; loader and
// transcoder settings are rebuilt from config on reload.
type Components struct {
	Blobs    *blobstore.Store
	History  history.Store
	Registry *playback.Registry

	logger zerolog.Logger

	mu        sync.Mutex
	transcode config.TranscodeConfig
	manager   *transcode.Manager
	retired   []*transcode.Manager
}

// Build creates the components for cfg. base bounds background session work.
func Build(base context.Context, cfg config.Config) (*Components, error) {
	c := &Components{
		Blobs:  blobstore.New(cfg.PublicBaseURL),
		logger: xglog.WithComponent("daemon"),
	}

	if err := checkHistoryIntegrity(cfg); err != nil {
		return nil, err
	}
	store, err := history.NewStore(history.Options{
		Backend:       cfg.History.Backend,
		Dir:           cfg.DataDir,
		RedisAddr:     cfg.History.RedisAddr,
		RedisPassword: cfg.History.RedisPassword,
		RedisDB:       cfg.History.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	c.History = store

	deps, err := c.DepsFor(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	c.Registry = playback.NewRegistry(base, deps)
	return c, nil
}

func checkHistoryIntegrity(cfg config.Config) error {
	backend := strings.ToLower(cfg.History.Backend)
	if (backend != "" && backend != history.BackendSqlite) || cfg.DataDir == "" {
		return nil
	}
	path := filepath.Join(cfg.DataDir, "history.sqlite")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	issues, err := sqlite.VerifyIntegrity(path, sqlite.CheckQuick)
	if err != nil {
		return fmt.Errorf("verify history: %w", err)
	}
	if len(issues) > 0 {
		return fmt.Errorf("%w: %s", ErrCorruptHistory, strings.Join(issues, "; "))
	}
	return nil
}

// DepsFor derives session collaborators from cfg. The transcode manager is
// replaced only when its settings change.
func (c *Components) DepsFor(cfg config.Config) (playback.Deps, error) {
	mgr, err := c.transcoderFor(cfg.Transcode)
	if err != nil {
		return playback.Deps{}, err
	}
	loaderLogger := xglog.WithComponent("chunkread")
	return playback.Deps{
		Classifier: classify.New(c.Blobs.URLPrefix()),
		Loader: chunkread.New(chunkread.OSFileSource{}, chunkread.Options{
			ChunkSize:          cfg.Reader.ChunkSize,
			LargeFileThreshold: cfg.Reader.LargeFileThreshold,
			Logger:             &loaderLogger,
		}),
		Transcoder:       mgr,
		Blobs:            c.Blobs,
		Sink:             c.History,
		ProgressInterval: cfg.Progress.Interval,
	}, nil
}

func (c *Components) transcoderFor(tc config.TranscodeConfig) (*transcode.Manager, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.manager != nil && c.transcode == tc {
		return c.manager, nil
	}

	var svc transcode.Service = transcode.Unconfigured{}
	if tc.BaseURL != "" {
		hs, err := transcode.NewHTTPService(tc.BaseURL, nil, tc.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("transcode service: %w", err)
		}
		svc = hs
	} else {
		c.logger.Warn().Str(xglog.FieldEvent, "transcode.unconfigured").
			Msg("no transcode service configured; unsupported formats will fail")
	}

	breaker := resilience.NewCircuitBreaker("transcode", tc.BreakerThreshold, tc.BreakerReset,
		resilience.WithFailureFilter(transcode.CountsAsOutage))
	mgr := transcode.NewManager(svc, transcode.ManagerOptions{Breaker: breaker, StopTimeout: tc.StopTimeout})

	if c.manager != nil {
		c.retired = append(c.retired, c.manager)
	}
	c.manager, c.transcode = mgr, tc
	return mgr, nil
}

// Apply installs collaborators derived from cfg for sessions opened from
// now on.
func (c *Components) Apply(cfg config.Config) error {
	deps, err := c.DepsFor(cfg)
	if err != nil {
		return err
	}
	c.Registry.UpdateDeps(deps)
	return nil
}

// Close stops every session, waits for pending transcode stops and closes
// the history store.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	if err := c.Registry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("registry: %w", err))
	}

	c.mu.Lock()
	managers := append([]*transcode.Manager{c.manager}, c.retired...)
	c.mu.Unlock()
	done := make(chan struct{})
	go func() {
		for _, m := range managers {
			if m != nil {
				m.Wait()
			}
		}
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("transcode stops: %w", ctx.Err()))
	}

	if err := c.History.Close(); err != nil {
		errs = append(errs, fmt.Errorf("history: %w", err))
	}
	return errors.Join(errs...)
}
