// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
)

// CheckMode selects the integrity pragma.
type CheckMode string

const (
	CheckQuick CheckMode = "quick"
	CheckFull  CheckMode = "full"
)

// VerifyIntegrity opens path read-only and runs quick_check or
// integrity_check. A healthy database yields (nil, nil); otherwise the
// diagnostic rows are returned.
func VerifyIntegrity(path string, mode CheckMode) ([]string, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(2000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open for verify: %w", err)
	}
	defer func() { _ = db.Close() }()

	pragma := "PRAGMA quick_check;"
	if mode == CheckFull {
		pragma = "PRAGMA integrity_check;"
	}

	rows, err := db.Query(pragma)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", strings.TrimSuffix(pragma, ";"), err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("sqlite: scan integrity row: %w", err)
		}
		out = append(out, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: integrity rows: %w", err)
	}

	switch {
	case len(out) == 1 && strings.EqualFold(out[0], "ok"):
		return nil, nil
	case len(out) == 0:
		return []string{"integrity check returned no rows"}, nil
	default:
		return out, nil
	}
}
