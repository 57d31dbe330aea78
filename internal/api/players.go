// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/playbackd/internal/domain/playback/model"
	xglog "github.com/ManuGH/playbackd/internal/log"
	"github.com/ManuGH/playbackd/internal/playback"
)

var playerIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

func validPlayerID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "playerID")
		if !playerIDPattern.MatchString(id) {
			writeBadRequest(w, "player id must be 1-64 characters of [A-Za-z0-9._-]")
			return
		}
		ctx := xglog.ContextWithPlayerID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeBadRequest(w, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

// lookup answers 404 itself when the player is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*playback.Resolver, bool) {
	id := chi.URLParam(r, "playerID")
	res, ok := s.opts.Registry.Get(id)
	if !ok {
		writeNotFound(w, "unknown player "+id)
		return nil, false
	}
	return res, true
}

type sourceRequest struct {
	Kind        model.SourceKind `json:"kind"`
	Ref         string           `json:"ref"`
	StartOffset float64          `json:"start_offset"`
	CloudBacked bool             `json:"cloud_backed"`
}

func (s *Server) handlePutSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	src, err := model.ParseSource(req.Kind, req.Ref, req.StartOffset, req.CloudBacked)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	res, err := s.opts.Registry.GetOrCreate(chi.URLParam(r, "playerID"))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "shutting_down", err.Error())
		return
	}
	snap, err := res.Open(r.Context(), src)
	switch {
	case errors.Is(err, playback.ErrResolverClosed):
		writeError(w, http.StatusServiceUnavailable, "shutting_down", err.Error())
		return
	case errors.Is(err, playback.ErrInvalidSource):
		writeBadRequest(w, err.Error())
		return
	}
	// Any other error is already reflected in the snapshot as FAILED.
	writeJSON(w, http.StatusOK, snap)
}

// waitPredicate parses ?wait=. It accepts a phase name or "settled".
func waitPredicate(raw string) (func(playback.Snapshot) bool, error) {
	if strings.EqualFold(raw, "settled") {
		return playback.Settled, nil
	}
	var phases []model.Phase
	for _, part := range strings.Split(raw, ",") {
		want := model.Phase(strings.ToUpper(strings.TrimSpace(part)))
		found := false
		for _, p := range model.AllPhases {
			if p == want {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown phase %q", part)
		}
		phases = append(phases, want)
	}
	return playback.PhaseIn(phases...), nil
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookup(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	raw := q.Get("wait")
	if raw == "" {
		writeJSON(w, http.StatusOK, res.Snapshot())
		return
	}

	pred, err := waitPredicate(raw)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	timeout := defaultWaitTimeout
	if t := q.Get("timeout"); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil || d <= 0 {
			writeBadRequest(w, "timeout must be a positive duration such as 5s")
			return
		}
		timeout = min(d, maxWaitTimeout)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	snap, err := res.WaitFor(ctx, pred)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		w.Header().Set("X-Wait-Timeout", "true")
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.opts.Registry.Remove(r.Context(), chi.URLParam(r, "playerID"))
	if !ok {
		writeNotFound(w, "unknown player "+chi.URLParam(r, "playerID"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListPlayers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"players": s.opts.Registry.IDs()})
}

type playerErrorRequest struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handlePlayerError(w http.ResponseWriter, r *http.Request) {
	var req playerErrorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.ReportPlayerError(r.Context(), playback.PlayerErrorCode(req.Code), req.Message))
}

type progressRequest struct {
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"emitted": res.ReportProgress(r.Context(), req.Position, req.Duration)})
}

func (s *Server) handleEnded(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reported": res.ReportEnded(r.Context())})
}
