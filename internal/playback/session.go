// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"errors"

	"github.com/ManuGH/playbackd/internal/domain/playback/lifecycle"
	"github.com/ManuGH/playbackd/internal/domain/playback/model"
	xglog "github.com/ManuGH/playbackd/internal/log"
	"github.com/ManuGH/playbackd/internal/metrics"
)

// dispatchLocked is the only place a session record changes. After every
// transition it releases whatever the new phase no longer owns.
func (r *Resolver) dispatchLocked(s *session, ev lifecycle.Event) (lifecycle.Transition, error) {
	from := s.rec.Phase
	tr, err := lifecycle.Dispatch(s.rec, ev, s.deps.Clock.Now())
	logger := r.loggerFor(s)
	if err != nil {
		if errors.Is(err, lifecycle.ErrTerminalAbsorbing) {
			logger.Debug().Err(err).Str(xglog.FieldEvent, "playback.event_absorbed").Msg("event after failure ignored")
			return tr, err
		}
		logger.Error().Err(err).
			Str(xglog.FieldEvent, "playback.illegal_transition").
			Str(xglog.FieldOldState, string(from)).
			Stringer("lifecycle_event", ev.Kind).
			Msg("illegal lifecycle transition")
	}

	to := s.rec.Phase
	metrics.RecordTransition(string(from), string(to), string(tr.Reason))
	logger.Debug().
		Str(xglog.FieldEvent, "playback.transition").
		Str(xglog.FieldOldState, string(from)).
		Str(xglog.FieldNewState, string(to)).
		Stringer("lifecycle_event", ev.Kind).
		Msg("playback transition")

	if to.IsPlayable() {
		s.playable = true
	}
	r.releaseLocked(s)

	if to == model.PhaseFailed {
		logger.Warn().
			Str(xglog.FieldEvent, "playback.failed").
			Str(xglog.FieldReason, string(s.rec.Reason)).
			Str("detail", s.rec.ReasonDebug).
			Msg("playback failed")
	}
	r.notifyLocked()
	return tr, err
}

// releaseLocked frees resources the current phase does not own: the blob
// lives only in READY, the transcode session only in TRANSCODE_READY, and
// background work stops once the session is FAILED or IDLE.
func (r *Resolver) releaseLocked(s *session) {
	phase := s.rec.Phase
	if s.blobID != "" && phase != model.PhaseReady {
		s.deps.Blobs.Release(s.blobID)
		s.blobID = ""
	}
	if s.transcodeID != "" && phase != model.PhaseTranscodeReady {
		s.deps.Transcoder.StopAsync(s.ctx, s.transcodeID)
		s.transcodeID = ""
	}
	if phase == model.PhaseFailed || phase == model.PhaseIdle {
		s.cancel()
	}
}

// currentLocked reports whether s is still the live session.
func (r *Resolver) currentLocked(s *session) bool {
	return r.cur == s && r.token == s.token
}
