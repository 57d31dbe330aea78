// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package blobstore

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	xglog "github.com/ManuGH/playbackd/internal/log"
)

// Handler serves GET/HEAD /{handle} with Range support. Mount it under
// PathPrefix.
func (s *Store) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/{handle}", s.serve)
	r.Head("/{handle}", s.serve)
	return r
}

func (s *Store) serve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "handle")
	b, ok := s.get(id)
	if !ok {
		logger := xglog.WithContext(r.Context(), s.logger)
		logger.Debug().
			Str(xglog.FieldEvent, "blob.not_found").
			Str(xglog.FieldHandle, id).
			Msg("unknown or released handle")
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`W/"%s-%x"`, id, len(b.data))
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", b.mimeType)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	// ServeContent handles Range, Content-Length and Last-Modified.
	http.ServeContent(w, r, id, b.created, bytes.NewReader(b.data))
}
