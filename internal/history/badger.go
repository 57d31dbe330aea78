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

	"github.com/dgraph-io/badger/v4"

	"github.com/ManuGH/playbackd/internal/progress"
)

const badgerKeyPrefix = "hist:"

// BadgerStore keeps one JSON entry per key "hist:<ref>".
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

func NewBadgerStore(path string, now func() time.Time) (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions(path).WithLogger(nil), now)
}

// NewInMemoryBadgerStore runs badger without touching disk.
func NewInMemoryBadgerStore(now func() time.Time) (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil), now)
}

func openBadger(opts badger.Options, now func() time.Time) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("history: open badger: %w", err)
	}
	return &BadgerStore{db: db, now: nowFunc(now)}, nil
}

func badgerKey(ref string) []byte {
	return []byte(badgerKeyPrefix + ref)
}

func readEntry(txn *badger.Txn, ref string) (*Entry, error) {
	item, err := txn.Get(badgerKey(ref))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &e)
	}); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *BadgerStore) update(ref string, fn func(prev *Entry) Entry) error {
	return s.db.Update(func(txn *badger.Txn) error {
		prev, err := readEntry(txn, ref)
		if err != nil {
			return err
		}
		buf, err := json.Marshal(fn(prev))
		if err != nil {
			return err
		}
		return txn.Set(badgerKey(ref), buf)
	})
}

func (s *BadgerStore) Progress(_ context.Context, ref string, sample progress.Sample) error {
	return s.update(ref, func(prev *Entry) Entry { return apply(prev, ref, sample) })
}

func (s *BadgerStore) Ended(_ context.Context, ref string, completed bool) error {
	at := s.now()
	return s.update(ref, func(prev *Entry) Entry { return markEnded(prev, ref, completed, at) })
}

func (s *BadgerStore) Get(_ context.Context, ref string) (*Entry, error) {
	var out *Entry
	err := s.db.View(func(txn *badger.Txn) error {
		e, err := readEntry(txn, ref)
		out = e
		return err
	})
	return out, err
}

// List scans the whole prefix; history sizes are bounded by the library.
func (s *BadgerStore) List(_ context.Context, limit int) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRecent(out)
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
