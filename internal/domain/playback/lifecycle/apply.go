// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import (
	"time"

	"github.com/ManuGH/playbackd/internal/domain/playback/model"
)

// ApplyTransition mutates the session record according to the transition.
func ApplyTransition(rec *model.PlaybackState, tr Transition, ev Event, now time.Time) {
	rec.Phase = tr.To
	if tr.Reason != "" {
		rec.Reason = tr.Reason
		rec.ReasonDebug = tr.Detail
	}

	switch {
	case tr.To.IsPlayable():
		s := *ev.Stream
		rec.Stream = &s
	default:
		rec.Stream = nil
	}

	if tr.To == model.PhaseTranscodeStarting {
		rec.TranscodeAttempted = true
	}
	if tr.To == model.PhaseFailed && ev.Err != nil {
		rec.LastError = ev.Err
	}
	rec.UpdatedAt = now
}

// RecordLoadProgress updates the byte counters of a record in LOADING and
// reports whether it did. Other phases keep their counters.
func RecordLoadProgress(rec *model.PlaybackState, loaded, total int64) bool {
	if rec.Phase != model.PhaseLoading || total < 0 {
		return false
	}
	rec.BytesLoaded = min(max(loaded, 0), total)
	rec.BytesTotal = total
	return true
}
