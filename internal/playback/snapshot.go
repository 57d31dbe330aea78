// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"time"

	"github.com/ManuGH/playbackd/internal/domain/playback/model"
)

// SourceView is the JSON form of a PlaybackSource.
type SourceView struct {
	Kind        model.SourceKind `json:"kind"`
	Ref         string           `json:"ref"`
	StartOffset float64          `json:"start_offset,omitempty"`
	CloudBacked bool             `json:"cloud_backed,omitempty"`
}

// Snapshot is a read-only copy of a player's current resolution.
type Snapshot struct {
	PlayerID           string              `json:"player_id"`
	Generation         uint64              `json:"generation"`
	SessionID          string              `json:"session_id,omitempty"`
	Phase              model.Phase         `json:"phase"`
	Indicator          model.Indicator     `json:"indicator"`
	Source             *SourceView         `json:"source,omitempty"`
	Stream             *model.StreamHandle `json:"stream,omitempty"`
	Reason             model.ReasonCode    `json:"reason,omitempty"`
	Message            string              `json:"message,omitempty"`
	Detail             string              `json:"detail,omitempty"`
	TranscodeAttempted bool                `json:"transcode_attempted"`
	BytesLoaded        int64               `json:"bytes_loaded,omitempty"`
	BytesTotal         int64               `json:"bytes_total,omitempty"`
	UpdatedAt          time.Time           `json:"updated_at,omitzero"`
}

func snapshotOf(playerID string, rec *model.PlaybackState) Snapshot {
	if rec == nil {
		return Snapshot{PlayerID: playerID, Phase: model.PhaseIdle, Indicator: model.IndicatorIdle}
	}
	s := Snapshot{
		PlayerID:           playerID,
		Generation:         rec.Generation,
		SessionID:          rec.SessionID,
		Phase:              rec.Phase,
		Indicator:          rec.Phase.Indicator(),
		TranscodeAttempted: rec.TranscodeAttempted,
		BytesLoaded:        rec.BytesLoaded,
		BytesTotal:         rec.BytesTotal,
		UpdatedAt:          rec.UpdatedAt,
	}
	if !rec.Source.IsZero() {
		s.Source = &SourceView{
			Kind:        rec.Source.Kind(),
			Ref:         rec.Source.Ref(),
			StartOffset: rec.Source.StartOffset(),
			CloudBacked: rec.Source.CloudBacked(),
		}
	}
	if rec.Stream != nil {
		h := *rec.Stream
		s.Stream = &h
	}
	if rec.Reason != model.RNone {
		s.Reason = rec.Reason
	}
	// Cancellation and close are silent; only failures carry a message.
	if rec.Phase == model.PhaseFailed {
		s.Message = rec.Reason.Message()
		s.Detail = rec.ReasonDebug
	}
	return s
}

// PhaseIn is a WaitFor predicate matching any of phases.
func PhaseIn(phases ...model.Phase) func(Snapshot) bool {
	return func(s Snapshot) bool {
		for _, p := range phases {
			if s.Phase == p {
				return true
			}
		}
		return false
	}
}

// Settled matches snapshots that are not waiting on I/O.
func Settled(s Snapshot) bool {
	return !s.Phase.IsPending()
}
