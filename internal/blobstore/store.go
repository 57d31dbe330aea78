// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package blobstore publishes assembled in-memory buffers under opaque
// handle URLs the embedded player can fetch with range requests.
package blobstore

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/playbackd/internal/log"
	"github.com/ManuGH/playbackd/internal/metrics"
)

// PathPrefix is where Handler is expected to be mounted.
const PathPrefix = "/blobs/"

// Handle identifies one published buffer.
type Handle struct {
	ID       string
	URL      string
	MimeType string
	Size     int64
}

type blob struct {
	data     []byte
	mimeType string
	created  time.Time
}

// Store owns every published buffer until it is released.
type Store struct {
	mu      sync.RWMutex
	blobs   map[string]*blob
	baseURL string
	now     func() time.Time
	logger  zerolog.Logger
}

// New creates a store whose handle URLs are rooted at baseURL
// (e.g. "http://127.0.0.1:8089").
func New(baseURL string) *Store {
	return &Store{
		blobs:   make(map[string]*blob),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		logger:  xglog.WithComponent("blobstore"),
	}
}

// URLPrefix is the prefix every handle URL from this store starts with.
func (s *Store) URLPrefix() string {
	return s.baseURL + PathPrefix
}

// Publish takes ownership of data and returns its handle.
func (s *Store) Publish(data []byte, mimeType string) Handle {
	id := uuid.NewString()
	s.mu.Lock()
	s.blobs[id] = &blob{data: data, mimeType: mimeType, created: s.now()}
	s.mu.Unlock()

	metrics.BlobPublished(len(data))
	s.logger.Debug().
		Str(xglog.FieldEvent, "blob.published").
		Str(xglog.FieldHandle, id).
		Int(xglog.FieldSize, len(data)).
		Msg("buffer published")
	return Handle{ID: id, URL: s.URLPrefix() + id, MimeType: mimeType, Size: int64(len(data))}
}

// Release revokes a handle and drops the buffer. Unknown or already released
// ids are a no-op; the return value reports whether anything was freed.
func (s *Store) Release(id string) bool {
	s.mu.Lock()
	b, ok := s.blobs[id]
	if ok {
		delete(s.blobs, id)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	metrics.BlobReleased(len(b.data))
	s.logger.Debug().
		Str(xglog.FieldEvent, "blob.released").
		Str(xglog.FieldHandle, id).
		Msg("buffer released")
	return true
}

// Len reports how many buffers are currently published.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func (s *Store) get(id string) (*blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[id]
	return b, ok
}
