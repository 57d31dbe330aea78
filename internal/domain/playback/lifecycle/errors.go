// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import "errors"

var (
	// ErrTerminalAbsorbing is returned for events delivered to a failed session.
	// The record is left untouched so the original failure cause survives.
	ErrTerminalAbsorbing = errors.New("session already failed")

	ErrIllegalTransition = errors.New("illegal transition")
	ErrMissingStream     = errors.New("playable transition without stream handle")
)
