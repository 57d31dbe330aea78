// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "p.sqlite")
	db, err := Open(path, DefaultConfig())
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var busy int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busy))
	assert.Equal(t, 5000, busy)
}

func TestVerifyIntegrity_HealthyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.sqlite")
	db, err := Open(path, DefaultConfig())
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	issues, err := VerifyIntegrity(path, CheckQuick)
	require.NoError(t, err)
	assert.Nil(t, issues)
}

func TestVerifyIntegrity_DetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.sqlite")
	db, err := Open(path, DefaultConfig())
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)")
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		_, err = db.Exec("INSERT INTO t (v) VALUES (printf('%.200c', 'x'))")
		require.NoError(t, err)
	}
	_, err = db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	junk := make([]byte, 512)
	for i := range junk {
		junk[i] = 0xA5
	}
	_, err = f.WriteAt(junk, 4096)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	issues, err := VerifyIntegrity(path, CheckFull)
	if err != nil {
		// A damaged schema page can surface as a query error instead of rows.
		return
	}
	assert.NotEmpty(t, issues)
}
