// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/playbackd/internal/blobstore"
	"github.com/ManuGH/playbackd/internal/chunkread"
	"github.com/ManuGH/playbackd/internal/domain/playback/model"
	"github.com/ManuGH/playbackd/internal/progress"
	"github.com/ManuGH/playbackd/internal/transcode"
)

// memFiles is an in-memory chunkread.FileSource.
type memFiles struct {
	mu      sync.Mutex
	sizes   map[string]int64
	failAt  map[string]int64
	reads   map[string][]chunkread.Range
	blockAt map[string]int64
	reached chan struct{}
	release chan struct{}
}

func newMemFiles() *memFiles {
	return &memFiles{
		sizes:   map[string]int64{},
		failAt:  map[string]int64{},
		reads:   map[string][]chunkread.Range{},
		blockAt: map[string]int64{},
	}
}

func (m *memFiles) Size(ctx context.Context, path string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	size, ok := m.sizes[path]
	if !ok {
		return 0, fmt.Errorf("stat %s: no such file", path)
	}
	return size, nil
}

func (m *memFiles) ReadChunk(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	m.mu.Lock()
	m.reads[path] = append(m.reads[path], chunkread.Range{Offset: offset, Length: length})
	fail, hasFail := m.failAt[path]
	block, hasBlock := m.blockAt[path]
	m.mu.Unlock()

	if hasBlock && block == offset {
		close(m.reached)
		// Ignores ctx on purpose: the completion arrives late.
		<-m.release
	}
	if hasFail && fail == offset {
		return nil, errors.New("input/output error")
	}
	return make([]byte, length), nil
}

func (m *memFiles) readsOf(path string) []chunkread.Range {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chunkread.Range(nil), m.reads[path]...)
}

// fakeTranscoder records starts and stops.
type fakeTranscoder struct {
	mu       sync.Mutex
	startErr error
	starts   []float64
	stops    []string
	nextID   int
	gate     chan struct{}
}

func (f *fakeTranscoder) Start(ctx context.Context, path string, startSeconds float64) (transcode.Session, error) {
	f.mu.Lock()
	f.starts = append(f.starts, startSeconds)
	gate := f.gate
	f.nextID++
	id := fmt.Sprintf("%d", 41+f.nextID)
	err := f.startErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return transcode.Session{}, fmt.Errorf("%w: %w", model.ErrTranscodeFailure, err)
	}
	return transcode.Session{ID: id, StreamURL: "http://transcoder/streams/" + id + "/index.m3u8", MimeType: "application/vnd.apple.mpegurl"}, nil
}

func (f *fakeTranscoder) StopAsync(ctx context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops = append(f.stops, id)
}

func (f *fakeTranscoder) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.starts)
}

func (f *fakeTranscoder) stopped() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stops...)
}

type recordingSink struct {
	mu      sync.Mutex
	samples []progress.Sample
	ended   []bool
}

func (s *recordingSink) Progress(ctx context.Context, ref string, sample progress.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
	return nil
}

func (s *recordingSink) Ended(ctx context.Context, ref string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = append(s.ended, completed)
	return nil
}

func (s *recordingSink) endedEvents() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.ended...)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	files      *memFiles
	transcoder *fakeTranscoder
	blobs      *blobstore.Store
	sink       *recordingSink
	clock      *manualClock
	resolver   *Resolver
}

func newHarness(t *testing.T, chunkSize int64) *harness {
	t.Helper()
	nop := zerolog.Nop()
	h := &harness{
		files:      newMemFiles(),
		transcoder: &fakeTranscoder{},
		blobs:      blobstore.New("http://127.0.0.1:8089"),
		sink:       &recordingSink{},
		clock:      &manualClock{now: time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)},
	}
	h.resolver = NewResolver(context.Background(), "living-room", Deps{
		Loader:           chunkread.New(h.files, chunkread.Options{ChunkSize: chunkSize, Logger: &nop}),
		Transcoder:       h.transcoder,
		Blobs:            h.blobs,
		Sink:             h.sink,
		ProgressInterval: 5 * time.Second,
		Clock:            h.clock,
	})
	return h
}

func (h *harness) shutdown(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.resolver.Shutdown(ctx))
}

func (h *harness) open(t *testing.T, src model.PlaybackSource) Snapshot {
	t.Helper()
	snap, err := h.resolver.Open(context.Background(), src)
	require.NoError(t, err)
	return snap
}

func (h *harness) waitPhase(t *testing.T, phases ...model.Phase) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := h.resolver.WaitFor(ctx, PhaseIn(phases...))
	require.NoError(t, err, "last phase %s", snap.Phase)
	return snap
}

func localSource(t *testing.T, path string) model.PlaybackSource {
	t.Helper()
	src, err := model.NewLocalSource(path, 0, false)
	require.NoError(t, err)
	return src
}
