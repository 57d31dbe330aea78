// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "errors"

// Error classes surfaced by collaborators. Adapters wrap their failures with
// one of these so the orchestrator can classify without string matching.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrReadFailure       = errors.New("read failure")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrTranscodeFailure  = errors.New("transcode failure")
	ErrCancelled         = errors.New("cancelled")
)
