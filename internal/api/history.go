// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"strconv"

	xglog "github.com/ManuGH/playbackd/internal/log"
)

const maxHistoryLimit = 500

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeNotFound(w, "history is disabled")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	entries, err := s.opts.History.List(r.Context(), limit)
	if err != nil {
		s.historyFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeNotFound(w, "history is disabled")
		return
	}
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		writeBadRequest(w, "ref is required")
		return
	}
	e, err := s.opts.History.Get(r.Context(), ref)
	if err != nil {
		s.historyFailed(w, r, err)
		return
	}
	if e == nil {
		writeNotFound(w, "no history for "+ref)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) historyFailed(w http.ResponseWriter, r *http.Request, err error) {
	logger := xglog.WithComponentFromContext(r.Context(), "api")
	logger.Error().Err(err).Str(xglog.FieldEvent, "history.read_failed").Msg("history read failed")
	writeError(w, http.StatusInternalServerError, "history_unavailable", "history store read failed")
}
