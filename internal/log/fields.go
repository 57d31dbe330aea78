// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID  = "request_id"
	FieldPlayerID   = "player_id"
	FieldSessionID  = "session_id"
	FieldGeneration = "generation"
	FieldHandle     = "handle"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldReason    = "reason"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Source fields
	FieldPath       = "path"
	FieldSourceKind = "source_kind"
	FieldExtension  = "ext"
	FieldMimeType   = "mime_type"

	// I/O fields
	FieldOffset = "offset"
	FieldLength = "length"
	FieldSize   = "size"
)
