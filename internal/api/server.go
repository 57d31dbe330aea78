// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes player resolution, assembled buffers and watch
// history to the embedded player over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/playbackd/internal/blobstore"
	"github.com/ManuGH/playbackd/internal/history"
	"github.com/ManuGH/playbackd/internal/playback"
)

const (
	defaultWaitTimeout = 10 * time.Second
	maxWaitTimeout     = 60 * time.Second
	maxBodyBytes       = 64 << 10
)

// Options configures the router.
type Options struct {
	Registry *playback.Registry
	Blobs    *blobstore.Store
	// History is optional; the history routes answer 404 without it.
	History history.Store

	// RateLimit is requests per RateWindow per client IP on /api/v1.
	// Zero disables limiting.
	RateLimit  int
	RateWindow time.Duration
	// TracingService names the server spans; empty disables tracing.
	TracingService string
}

type Server struct {
	opts Options
}

func New(opts Options) *Server {
	return &Server{opts: opts}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(observe)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	if s.opts.Blobs != nil {
		r.Mount("/blobs", s.opts.Blobs.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.opts.RateLimit > 0 && s.opts.RateWindow > 0 {
			r.Use(rateLimit(s.opts.RateLimit, s.opts.RateWindow))
		}
		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Use(validPlayerID)
			r.Get("/", s.handleGetPlayer)
			r.Delete("/", s.handleDeletePlayer)
			r.Put("/source", s.handlePutSource)
			r.Post("/events/error", s.handlePlayerError)
			r.Post("/events/progress", s.handleProgress)
			r.Post("/events/ended", s.handleEnded)
		})
		r.Get("/players", s.handleListPlayers)
		r.Get("/history", s.handleListHistory)
		r.Get("/history/entry", s.handleGetHistory)
	})

	if s.opts.TracingService != "" {
		return tracing(s.opts.TracingService)(r)
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"players": s.opts.Registry.Len(),
	})
}
