// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

// Phase is the resolution state of a playback session.
type Phase string

const (
	PhaseIdle              Phase = "IDLE"
	PhaseClassifying       Phase = "CLASSIFYING"
	PhaseDirectReady       Phase = "DIRECT_READY"
	PhaseLoading           Phase = "LOADING"
	PhaseReady             Phase = "READY"
	PhaseTranscodeStarting Phase = "TRANSCODE_STARTING"
	PhaseTranscodeReady    Phase = "TRANSCODE_READY"
	PhaseFailed            Phase = "FAILED"
)

// AllPhases lists every phase in declaration order.
var AllPhases = []Phase{
	PhaseIdle,
	PhaseClassifying,
	PhaseDirectReady,
	PhaseLoading,
	PhaseReady,
	PhaseTranscodeStarting,
	PhaseTranscodeReady,
	PhaseFailed,
}

// IsPlayable reports whether the player holds a stream handle it can render.
func (p Phase) IsPlayable() bool {
	return p == PhaseDirectReady || p == PhaseReady || p == PhaseTranscodeReady
}

// IsTerminal reports whether no further resolution happens in this session.
func (p Phase) IsTerminal() bool {
	return p == PhaseFailed
}

// IsPending reports whether the resolution is still working towards a handle.
func (p Phase) IsPending() bool {
	return p == PhaseClassifying || p == PhaseLoading || p == PhaseTranscodeStarting
}

// Indicator is the user-visible status derived from a phase.
type Indicator string

const (
	IndicatorIdle        Indicator = "idle"
	IndicatorLoading     Indicator = "loading"
	IndicatorTranscoding Indicator = "transcoding"
	IndicatorPlaying     Indicator = "playing"
	IndicatorError       Indicator = "error"
)

// Indicator maps the phase onto the loading/transcoding/error panel the UI shows.
func (p Phase) Indicator() Indicator {
	switch p {
	case PhaseClassifying, PhaseLoading:
		return IndicatorLoading
	case PhaseTranscodeStarting:
		return IndicatorTranscoding
	case PhaseDirectReady, PhaseReady, PhaseTranscodeReady:
		return IndicatorPlaying
	case PhaseFailed:
		return IndicatorError
	default:
		return IndicatorIdle
	}
}
