// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package transcode talks to the external transcode service: one start per
// playback session at most, and a best-effort stop on every exit path.
package transcode

import (
	"context"
	"errors"
)

// Session is a live server-side transcode job.
type Session struct {
	ID        string
	StreamURL string
	MimeType  string
}

var (
	// ErrNotFound is returned by Stop for unknown or already stopped sessions.
	ErrNotFound = errors.New("transcode session not found")
	// ErrRejected marks a start the service refused for this input
	// (bad path, unreadable file). It does not indicate service health.
	ErrRejected = errors.New("transcode request rejected")
)

// Service is the external transcode collaborator.
type Service interface {
	Start(ctx context.Context, path string, startSeconds float64) (Session, error)
	Stop(ctx context.Context, sessionID string) error
}

// ErrUnconfigured is returned when no transcode service address is set.
var ErrUnconfigured = errors.New("no transcode service configured; set transcode.baseURL or use an external player")

// Unconfigured is the Service used when the daemon has no encoder.
// Every start fails and stops are no-ops.
type Unconfigured struct{}

func (Unconfigured) Start(context.Context, string, float64) (Session, error) {
	return Session{}, ErrUnconfigured
}

func (Unconfigured) Stop(context.Context, string) error { return nil }
