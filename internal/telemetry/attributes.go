// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Span attribute keys shared across playbackd.
const (
	PlayerIDKey    = "playback.player_id"
	SessionIDKey   = "playback.session_id"
	GenerationKey  = "playback.generation"
	SourceKindKey  = "playback.source_kind"
	ExtensionKey   = "playback.extension"
	PhaseKey       = "playback.phase"
	ReasonKey      = "playback.reason"
	FileSizeKey    = "chunkread.file_size"
	ChunkSizeKey   = "chunkread.chunk_size"
	ChunkCountKey  = "chunkread.chunk_count"
	StartOffsetKey = "transcode.start_offset"
	TranscodeIDKey = "transcode.session_id"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// SessionAttributes describes the playback session a span belongs to.
func SessionAttributes(playerID, sessionID string, generation uint64) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if playerID != "" {
		attrs = append(attrs, attribute.String(PlayerIDKey, playerID))
	}
	if sessionID != "" {
		attrs = append(attrs, attribute.String(SessionIDKey, sessionID))
	}
	return append(attrs, attribute.Int64(GenerationKey, int64(generation)))
}

// LoadAttributes describes a chunked load.
func LoadAttributes(size, chunkSize int64, chunks int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(FileSizeKey, size),
		attribute.Int64(ChunkSizeKey, chunkSize),
		attribute.Int(ChunkCountKey, chunks),
	}
}

// ErrorAttributes flags a span as failed with a bounded error type.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
