// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "time"

// HandleKind says what a stream handle points at.
type HandleKind string

const (
	HandleRemote    HandleKind = "remote"
	HandleBlob      HandleKind = "blob"
	HandleTranscode HandleKind = "transcode"
)

// StreamHandle is the one thing handed to the player.
type StreamHandle struct {
	URL      string     `json:"url"`
	MimeType string     `json:"mime_type"`
	Kind     HandleKind `json:"kind"`
}

// PlaybackState is the mutable session record. It is owned by exactly one
// resolver session and mutated only through lifecycle.Dispatch.
type PlaybackState struct {
	Generation uint64
	SessionID  string
	Source     PlaybackSource

	Phase  Phase
	Stream *StreamHandle

	Reason      ReasonCode
	ReasonDebug string
	LastError   error

	// TranscodeAttempted is sticky: once true it never reverts within a session.
	TranscodeAttempted bool

	BytesLoaded int64
	BytesTotal  int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPlaybackState initialises a record in PhaseIdle.
func NewPlaybackState(gen uint64, sessionID string, src PlaybackSource, now time.Time) *PlaybackState {
	return &PlaybackState{
		Generation: gen,
		SessionID:  sessionID,
		Source:     src,
		Phase:      PhaseIdle,
		Reason:     RNone,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
