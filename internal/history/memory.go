// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ManuGH/playbackd/internal/progress"
)

// MemoryStore keeps entries in a map. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Entry
	now  func() time.Time
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	return &MemoryStore{data: make(map[string]Entry), now: nowFunc(now)}
}

func (s *MemoryStore) Progress(_ context.Context, ref string, sample progress.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var prev *Entry
	if e, ok := s.data[ref]; ok {
		prev = &e
	}
	s.data[ref] = apply(prev, ref, sample)
	return nil
}

func (s *MemoryStore) Ended(_ context.Context, ref string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var prev *Entry
	if e, ok := s.data[ref]; ok {
		prev = &e
	}
	s.data[ref] = markEnded(prev, ref, completed, s.now())
	return nil
}

func (s *MemoryStore) Get(_ context.Context, ref string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[ref]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		out = append(out, e)
	}
	s.mu.RUnlock()

	sortRecent(out)
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.data = make(map[string]Entry)
	s.mu.Unlock()
	return nil
}

func sortRecent(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].UpdatedAt.Equal(entries[j].UpdatedAt) {
			return entries[i].Ref < entries[j].Ref
		}
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
}
