// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package playback resolves a player's source into exactly one playable
// stream handle and keeps that resolution consistent while I/O completions
// and player events arrive out of band.
package playback

import (
	"context"
	"time"

	"github.com/ManuGH/playbackd/internal/blobstore"
	"github.com/ManuGH/playbackd/internal/chunkread"
	"github.com/ManuGH/playbackd/internal/classify"
	"github.com/ManuGH/playbackd/internal/domain/playback/model"
	"github.com/ManuGH/playbackd/internal/progress"
	"github.com/ManuGH/playbackd/internal/transcode"
)

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// RealClock uses system time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

type Classifier interface {
	Classify(src model.PlaybackSource) classify.Output
}

type Loader interface {
	Load(ctx context.Context, path string, onProgress chunkread.ProgressFunc) (*chunkread.Buffer, error)
}

// Transcoder starts sessions synchronously and stops them fire-and-forget.
type Transcoder interface {
	Start(ctx context.Context, path string, startSeconds float64) (transcode.Session, error)
	StopAsync(ctx context.Context, sessionID string)
}

type Blobs interface {
	Publish(data []byte, mimeType string) blobstore.Handle
	Release(id string) bool
}

// Deps are the collaborators a session uses. A session captures the Deps in
// effect when it opens and keeps them until it ends.
type Deps struct {
	Classifier       Classifier
	Loader           Loader
	Transcoder       Transcoder
	Blobs            Blobs
	Sink             progress.Sink
	ProgressInterval time.Duration
	Clock            Clock
}

func (d Deps) withDefaults() Deps {
	if d.Classifier == nil {
		d.Classifier = classify.New()
	}
	if d.ProgressInterval <= 0 {
		d.ProgressInterval = progress.DefaultInterval
	}
	if d.Clock == nil {
		d.Clock = RealClock{}
	}
	return d
}
