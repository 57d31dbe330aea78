// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/playbackd/internal/log"
)

const defaultDebounce = 500 * time.Millisecond

// Holder keeps the active configuration and swaps it atomically on reload.
// A reload that fails to load or validate leaves the old config in place.
type Holder struct {
	mu      sync.RWMutex
	current Config
	path    string
	logger  zerolog.Logger

	debounce time.Duration

	listenMu  sync.Mutex
	listeners []func(old, next Config)
}

func NewHolder(initial Config, path string) *Holder {
	return &Holder{
		current:  initial,
		path:     path,
		logger:   xglog.WithComponent("config"),
		debounce: defaultDebounce,
	}
}

func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

func (h *Holder) Path() string { return h.path }

// OnReload registers fn to run after every successful reload, in
// registration order.
func (h *Holder) OnReload(fn func(old, next Config)) {
	h.listenMu.Lock()
	h.listeners = append(h.listeners, fn)
	h.listenMu.Unlock()
}

func (h *Holder) Reload(_ context.Context) error {
	h.logger.Info().Str(xglog.FieldEvent, "config.reload_start").Msg("reloading configuration")

	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Str(xglog.FieldEvent, "config.reload_failed").
			Msg("new configuration rejected, keeping current")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	old := h.current
	h.current = next
	h.mu.Unlock()

	h.listenMu.Lock()
	listeners := append([]func(old, next Config){}, h.listeners...)
	h.listenMu.Unlock()
	for _, fn := range listeners {
		fn(old, next)
	}

	h.logger.Info().Str(xglog.FieldEvent, "config.reload_success").
		Strs("changed", Diff(old, next)).
		Msg("configuration reloaded")
	return nil
}

// Watch reloads on file changes until ctx is done. The parent directory is
// watched so that atomic replacements (rename over the file) are seen.
// With no config path it blocks until ctx is done.
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		h.logger.Info().Str(xglog.FieldEvent, "config.watcher_disabled").
			Msg("no config file, watcher disabled")
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	abs, err := filepath.Abs(h.path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.logger.Info().Str(xglog.FieldEvent, "config.watcher_started").Str(xglog.FieldPath, abs).
		Msg("watching config file")

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(xglog.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().Str(xglog.FieldEvent, "config.file_changed").Str("op", ev.Op.String()).
				Msg("config file changed")
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(h.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			_ = h.Reload(ctx)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			h.logger.Error().Err(err).Str(xglog.FieldEvent, "config.watcher_error").Msg("config watcher error")
		}
	}
}
