// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package history keeps the last known playback position per source so the
// library can offer "continue watching". Every backend implements
// progress.Sink.
package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/playbackd/internal/progress"
)

// Backend names accepted by NewStore.
const (
	BackendSqlite = "sqlite"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

var ErrUnknownBackend = errors.New("history: unknown backend")

// Entry is the persisted progress of one source.
type Entry struct {
	Ref       string    `json:"ref"`
	Position  float64   `json:"position"`
	Duration  float64   `json:"duration"`
	Percent   float64   `json:"percent"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a progress sink with read access for the API.
type Store interface {
	progress.Sink
	// Get returns (nil, nil) when ref has no entry.
	Get(ctx context.Context, ref string) (*Entry, error)
	// List returns the most recently updated entries first.
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Options configures NewStore.
type Options struct {
	Backend       string
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Now           func() time.Time
}

// NewStore builds the configured backend. sqlite is the default; an empty
// data dir degrades the file backends to memory.
func NewStore(opts Options) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = BackendSqlite
	}

	switch backend {
	case BackendSqlite:
		if opts.Dir == "" {
			return NewMemoryStore(opts.Now), nil
		}
		return NewSqliteStore(filepath.Join(opts.Dir, "history.sqlite"), opts.Now)
	case BackendBadger:
		if opts.Dir == "" {
			return NewMemoryStore(opts.Now), nil
		}
		return NewBadgerStore(filepath.Join(opts.Dir, "history.badger"), opts.Now)
	case BackendRedis:
		return NewRedisStore(RedisOptions{Addr: opts.RedisAddr, Password: opts.RedisPassword, DB: opts.RedisDB}, opts.Now)
	case BackendMemory:
		return NewMemoryStore(opts.Now), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: sqlite, badger, redis, memory)", ErrUnknownBackend, opts.Backend)
	}
}

// apply folds a progress sample into prev, which may be nil.
func apply(prev *Entry, ref string, s progress.Sample) Entry {
	e := Entry{Ref: ref}
	if prev != nil {
		e = *prev
	}
	e.Position = s.Position
	e.Duration = s.Duration
	e.Percent = s.Percent
	e.Completed = false
	e.UpdatedAt = s.Timestamp.UTC()
	return e
}

// markEnded records the end signal. A completed playback pins the
// position at the duration when it is known.
func markEnded(prev *Entry, ref string, completed bool, at time.Time) Entry {
	e := Entry{Ref: ref}
	if prev != nil {
		e = *prev
	}
	e.Completed = completed
	if completed && e.Duration > 0 {
		e.Position = e.Duration
		e.Percent = 100
	}
	e.UpdatedAt = at.UTC()
	return e
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func nowFunc(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
