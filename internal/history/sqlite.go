// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/playbackd/internal/persistence/sqlite"
	"github.com/ManuGH/playbackd/internal/progress"
)

const sqliteSchemaVersion = 1

// SqliteStore persists entries in a single table keyed by source ref.
type SqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSqliteStore(dbPath string, now func() time.Time) (*SqliteStore, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	s := &SqliteStore{db: db, now: nowFunc(now)}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return s, nil
}

func (s *SqliteStore) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version >= sqliteSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const schema = `
	CREATE TABLE IF NOT EXISTS playback_history (
		ref TEXT PRIMARY KEY,
		position REAL NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		percent REAL NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		updated_at_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_updated ON playback_history(updated_at_ms);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SqliteStore) put(ctx context.Context, e Entry) error {
	const q = `
	INSERT INTO playback_history (ref, position, duration, percent, completed, updated_at_ms)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(ref) DO UPDATE SET
		position = excluded.position,
		duration = excluded.duration,
		percent = excluded.percent,
		completed = excluded.completed,
		updated_at_ms = excluded.updated_at_ms
	`
	_, err := s.db.ExecContext(ctx, q, e.Ref, e.Position, e.Duration, e.Percent, e.Completed, e.UpdatedAt.UnixMilli())
	return err
}

func (s *SqliteStore) Progress(ctx context.Context, ref string, sample progress.Sample) error {
	prev, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	return s.put(ctx, apply(prev, ref, sample))
}

func (s *SqliteStore) Ended(ctx context.Context, ref string, completed bool) error {
	prev, err := s.Get(ctx, ref)
	if err != nil {
		return err
	}
	return s.put(ctx, markEnded(prev, ref, completed, s.now()))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (Entry, error) {
	var (
		e  Entry
		ms int64
	)
	if err := r.Scan(&e.Ref, &e.Position, &e.Duration, &e.Percent, &e.Completed, &ms); err != nil {
		return Entry{}, err
	}
	e.UpdatedAt = time.UnixMilli(ms).UTC()
	return e, nil
}

func (s *SqliteStore) Get(ctx context.Context, ref string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT ref, position, duration, percent, completed, updated_at_ms FROM playback_history WHERE ref = ?`, ref)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SqliteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ref, position, duration, percent, completed, updated_at_ms FROM playback_history
		 ORDER BY updated_at_ms DESC, ref ASC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}
