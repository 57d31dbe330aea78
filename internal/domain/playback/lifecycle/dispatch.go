// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import (
	"fmt"
	"time"

	"github.com/ManuGH/playbackd/internal/domain/playback/model"
)

// Dispatch resolves the next transition from the tables and applies it.
// Phase, reason and stream of a PlaybackState change only here; load byte
// counters change only through RecordLoadProgress.
//
// Entering TRANSCODE_STARTING checks and sets TranscodeAttempted in the same
// step; a second attempt in one session is redirected to FAILED.
func Dispatch(rec *model.PlaybackState, ev Event, now time.Time) (Transition, error) {
	if rec.Phase.IsTerminal() && ev.Kind != EvClose {
		return Transition{From: rec.Phase, To: rec.Phase, Event: ev.Kind}, fmt.Errorf("%w: %s + %v", ErrTerminalAbsorbing, rec.Phase, ev.Kind)
	}

	decision, ok := DecisionFor(rec.Phase, ev.Kind)
	if !ok || !decision.Allowed {
		return illegalTransition(rec, rec.Phase, ev.Kind, now)
	}
	tr, ok := TransitionFor(rec.Phase, ev.Kind)
	if !ok {
		return illegalTransition(rec, rec.Phase, ev.Kind, now)
	}

	if ev.Reason != "" {
		tr.Reason = ev.Reason
	}
	if ev.Detail != "" {
		tr.Detail = sanitizeDetail(ev.Detail)
	} else if ev.Err != nil {
		tr.Detail = sanitizeDetail(ev.Err.Error())
	}
	if tr.To == model.PhaseFailed && tr.Reason == "" {
		tr.Reason, _ = ClassifyReason(ev.Err)
	}

	if tr.To == model.PhaseTranscodeStarting && rec.TranscodeAttempted {
		tr.To = model.PhaseFailed
		tr.Reason = model.RTranscodeExhausted
		tr.Detail = "transcode already attempted in this session"
	}

	if tr.To.IsPlayable() && ev.Stream == nil {
		return illegalTransition(rec, rec.Phase, ev.Kind, now)
	}

	ApplyTransition(rec, tr, ev, now)
	return tr, nil
}
