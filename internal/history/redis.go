// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuGH/playbackd/internal/progress"
)

const (
	redisEntryPrefix = "playbackd:history:"
	redisRecentKey   = "playbackd:history:recent"
)

// RedisOptions holds connection settings.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps entries as JSON strings plus a sorted set ordered by
// update time, so several daemons can share one history.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(opts RedisOptions, now func() time.Time) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, errors.New("history: redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("history: redis ping: %w", err)
	}
	return newRedisStoreWithClient(client, now), nil
}

func newRedisStoreWithClient(client *redis.Client, now func() time.Time) *RedisStore {
	return &RedisStore{client: client, now: nowFunc(now)}
}

func (s *RedisStore) update(ctx context.Context, ref string, fn func(prev *Entry) Entry) error {
	prev, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	e := fn(prev)
	buf, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisEntryPrefix+ref, buf, 0)
		p.ZAdd(ctx, redisRecentKey, redis.Z{Score: float64(e.UpdatedAt.UnixMilli()), Member: ref})
		return nil
	})
	return err
}

func (s *RedisStore) Progress(ctx context.Context, ref string, sample progress.Sample) error {
	return s.update(ctx, ref, func(prev *Entry) Entry { return apply(prev, ref, sample) })
}

func (s *RedisStore) Ended(ctx context.Context, ref string, completed bool) error {
	at := s.now()
	return s.update(ctx, ref, func(prev *Entry) Entry { return markEnded(prev, ref, completed, at) })
}

func (s *RedisStore) Get(ctx context.Context, ref string) (*Entry, error) {
	val, err := s.client.Get(ctx, redisEntryPrefix+ref).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(val, &e); err != nil {
		return nil, fmt.Errorf("history: decode %q: %w", ref, err)
	}
	return &e, nil
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]Entry, error) {
	refs, err := s.client.ZRevRange(ctx, redisRecentKey, 0, int64(clampLimit(limit)-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(refs))
	for _, ref := range refs {
		e, err := s.Get(ctx, ref)
		if err != nil {
			return nil, err
		}
		if e != nil {
			out = append(out, *e)
		}
	}
	sortRecent(out)
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
