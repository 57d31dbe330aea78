// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

var ErrRegistryClosed = errors.New("player registry closed")

// Registry maps player ids to their resolvers. Each id owns exactly one
// Resolver for as long as it is registered.
type Registry struct {
	base context.Context
	deps *atomic.Pointer[Deps]

	mu      sync.Mutex
	players map[string]*Resolver
	closed  bool

	// draining counts removed resolvers whose workers are still running.
	draining sync.WaitGroup
}

// NewRegistry creates an empty registry. base bounds all background work.
func NewRegistry(base context.Context, deps Deps) *Registry {
	p := &atomic.Pointer[Deps]{}
	d := deps.withDefaults()
	p.Store(&d)
	return &Registry{base: base, deps: p, players: make(map[string]*Resolver)}
}

// UpdateDeps swaps the collaborators used by sessions opened from now on.
// Sessions already running keep what they started with.
func (g *Registry) UpdateDeps(deps Deps) {
	d := deps.withDefaults()
	g.deps.Store(&d)
}

func (g *Registry) Deps() Deps {
	return *g.deps.Load()
}

func (g *Registry) Get(playerID string) (*Resolver, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.players[playerID]
	return r, ok
}

// GetOrCreate returns the resolver for playerID, registering one if needed.
func (g *Registry) GetOrCreate(playerID string) (*Resolver, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrRegistryClosed
	}
	if r, ok := g.players[playerID]; ok {
		return r, nil
	}
	r := newResolver(g.base, playerID, g.deps)
	g.players[playerID] = r
	return r, nil
}

// Remove unregisters the player and retires its resolver. Callers still
// holding the resolver get ErrResolverClosed from Open, and Shutdown waits
// for its background work.
func (g *Registry) Remove(ctx context.Context, playerID string) (Snapshot, bool) {
	g.mu.Lock()
	r, ok := g.players[playerID]
	if ok {
		delete(g.players, playerID)
		g.draining.Add(1)
	}
	g.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}

	snap := r.retire(ctx)
	go func() {
		defer g.draining.Done()
		r.workers.Wait()
	}()
	return snap, true
}

// IDs lists registered players in sorted order.
func (g *Registry) IDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.players))
	for id := range g.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// Shutdown closes every player and waits for their background work.
func (g *Registry) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	players := make([]*Resolver, 0, len(g.players))
	for _, r := range g.players {
		players = append(players, r)
	}
	g.players = make(map[string]*Resolver)
	g.mu.Unlock()

	eg, ctx := errgroup.WithContext(ctx)
	for _, r := range players {
		eg.Go(func() error { return r.Shutdown(ctx) })
	}
	eg.Go(func() error {
		done := make(chan struct{})
		go func() {
			g.draining.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	return eg.Wait()
}
