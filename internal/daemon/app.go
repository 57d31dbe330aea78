// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/playbackd/internal/config"
	xglog "github.com/ManuGH/playbackd/internal/log"
)

const defaultShutdownTimeout = 15 * time.Second

type AppOptions struct {
	Handler http.Handler
	// Listener overrides ListenAddr from the config when set.
	Listener net.Listener
	// ReloadSignal triggers a config reload; nil disables it.
	ReloadSignal    os.Signal
	ShutdownTimeout time.Duration
	// Logging is reapplied with the new level when a reload changes it.
	Logging xglog.Config
}

// App runs the HTTP server, the config watcher and the reload signal
// handler until its context ends, then drains sessions.
type App struct {
	holder *config.Holder
	comps  *Components
	opts   AppOptions
	logger zerolog.Logger
}

func NewApp(holder *config.Holder, comps *Components, opts AppOptions) *App {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	return &App{holder: holder, comps: comps, opts: opts, logger: xglog.WithComponent("daemon")}
}

// Run blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.holder.OnReload(a.applyReload)

	ln := a.opts.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.holder.Get().ListenAddr)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}
	srv := &http.Server{
		Handler:           a.opts.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.holder.Watch(gctx); err != nil {
			a.logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watcher_start_failed").
				Msg("config watcher unavailable")
		}
		return nil
	})

	if a.opts.ReloadSignal != nil {
		g.Go(func() error {
			ch := make(chan os.Signal, 1)
			signal.Notify(ch, a.opts.ReloadSignal)
			defer signal.Stop(ch)
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ch:
					a.logger.Info().Str(xglog.FieldEvent, "config.reload_signal").
						Str("signal", a.opts.ReloadSignal.String()).
						Msg("reload signal received")
					_ = a.holder.Reload(gctx)
				}
			}
		})
	}

	g.Go(func() error {
		a.logger.Info().Str(xglog.FieldEvent, "api.listening").Str("addr", ln.Addr().String()).
			Msg("API server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.opts.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	runErr := g.Wait()

	a.logger.Info().Str(xglog.FieldEvent, "daemon.draining").Msg("closing sessions")
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.opts.ShutdownTimeout)
	defer cancel()
	if err := a.comps.Close(sctx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

func (a *App) applyReload(old, next config.Config) {
	if err := a.comps.Apply(next); err != nil {
		a.logger.Error().Err(err).Str(xglog.FieldEvent, "config.apply_failed").
			Msg("reloaded config could not be applied to new sessions")
		return
	}
	if old.Log.Level != next.Log.Level {
		lc := a.opts.Logging
		lc.Level = next.Log.Level
		xglog.Reconfigure(lc)
	}
}
