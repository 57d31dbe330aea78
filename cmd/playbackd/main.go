// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/playbackd/internal/api"
	"github.com/ManuGH/playbackd/internal/config"
	"github.com/ManuGH/playbackd/internal/daemon"
	xglog "github.com/ManuGH/playbackd/internal/log"
	"github.com/ManuGH/playbackd/internal/telemetry"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "config" {
		os.Exit(runConfigCLI(os.Args[2:]))
	}
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("playbackd", flag.ContinueOnError)
	showVersion := fs.Bool("version", false, "print version and exit")
	configPath := fs.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "path to config file (YAML)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		return 0
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "playbackd", Version: version})
	logger := xglog.WithComponent("main")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "config.load_failed").Msg("invalid configuration")
		return 1
	}
	logCfg := xglog.Config{Level: cfg.Log.Level, Service: "playbackd", Version: version}
	xglog.Reconfigure(logCfg)
	logger = xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "playbackd",
		ServiceVersion: version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "telemetry.init_failed").Msg("telemetry setup failed")
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	// Sessions outlive request contexts; the app drains them on exit.
	comps, err := daemon.Build(context.Background(), cfg)
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "daemon.build_failed").Msg("startup failed")
		return 1
	}

	tracingService := ""
	if cfg.Telemetry.Enabled {
		tracingService = "playbackd"
	}
	handler := api.New(api.Options{
		Registry:       comps.Registry,
		Blobs:          comps.Blobs,
		History:        comps.History,
		RateLimit:      cfg.API.RateLimit,
		RateWindow:     cfg.API.RateWindow,
		TracingService: tracingService,
	}).Handler()

	app := daemon.NewApp(config.NewHolder(cfg, *configPath), comps, daemon.AppOptions{
		Handler:      handler,
		ReloadSignal: syscall.SIGHUP,
		Logging:      logCfg,
	})

	logger.Info().
		Str(xglog.FieldEvent, "daemon.start").
		Str("version", version).
		Str("listen", cfg.ListenAddr).
		Str("history", cfg.History.Backend).
		Bool("transcode", cfg.Transcode.BaseURL != "").
		Msg("starting playbackd")

	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "daemon.failed").Msg("playbackd stopped with error")
		return 1
	}
	logger.Info().Str(xglog.FieldEvent, "daemon.stopped").Msg("playbackd stopped")
	return 0
}
