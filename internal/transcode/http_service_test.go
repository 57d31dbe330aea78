// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package transcode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTranscoder emulates the transcode service HTTP API.
type fakeTranscoder struct {
	mu       sync.Mutex
	live     map[string]bool
	started  []startRequest
	failWith int
}

func newFakeTranscoder(t *testing.T) (*fakeTranscoder, *httptest.Server) {
	t.Helper()
	f := &fakeTranscoder{live: map[string]bool{}}
	r := chi.NewRouter()
	r.Post(sessionsPath, func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.started = append(f.started, req)
		if f.failWith != 0 {
			http.Error(w, "encoder unavailable", f.failWith)
			return
		}
		f.live["42"] = true
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(startResponse{SessionID: "42", StreamURL: "/streams/42/index.m3u8", MimeType: "application/vnd.apple.mpegurl"})
	})
	r.Delete(sessionsPath+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.live[id] {
			http.NotFound(w, r)
			return
		}
		delete(f.live, id)
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestHTTPService_StartStop(t *testing.T) {
	fake, srv := newFakeTranscoder(t)
	svc, err := NewHTTPService(srv.URL+"/", srv.Client(), time.Second)
	require.NoError(t, err)

	sess, err := svc.Start(context.Background(), "/media/show.mkv", 12.5)
	require.NoError(t, err)
	assert.Equal(t, "42", sess.ID)
	assert.Equal(t, srv.URL+"/streams/42/index.m3u8", sess.StreamURL)
	require.Len(t, fake.started, 1)
	assert.Equal(t, startRequest{Path: "/media/show.mkv", StartSeconds: 12.5}, fake.started[0])

	require.NoError(t, svc.Stop(context.Background(), "42"))
	require.ErrorIs(t, svc.Stop(context.Background(), "42"), ErrNotFound)
}

func TestHTTPService_StartErrors(t *testing.T) {
	fake, srv := newFakeTranscoder(t)
	svc, err := NewHTTPService(srv.URL, srv.Client(), time.Second)
	require.NoError(t, err)

	fake.failWith = http.StatusUnprocessableEntity
	_, err = svc.Start(context.Background(), "/nope", 0)
	require.ErrorIs(t, err, ErrRejected)

	fake.failWith = http.StatusServiceUnavailable
	_, err = svc.Start(context.Background(), "/media/a.mkv", 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "encoder unavailable")
}

func TestNewHTTPService_RejectsBadURL(t *testing.T) {
	_, err := NewHTTPService("ftp://example", nil, 0)
	require.Error(t, err)
	_, err = NewHTTPService("http://127.0.0.1:9000", nil, 0)
	require.NoError(t, err)
}
