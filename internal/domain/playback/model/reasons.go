// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

// ReasonCode is the canonical cause attached to a transition.
type ReasonCode string

const (
	RNone               ReasonCode = "R_NONE"
	RSourceUnavailable  ReasonCode = "R_SOURCE_UNAVAILABLE"
	RReadFailure        ReasonCode = "R_READ_FAILURE"
	RUnsupportedFormat  ReasonCode = "R_UNSUPPORTED_FORMAT"
	RTranscodeFailure   ReasonCode = "R_TRANSCODE_FAILURE"
	RTranscodeExhausted ReasonCode = "R_TRANSCODE_EXHAUSTED"
	RPlayerFatal        ReasonCode = "R_PLAYER_FATAL"
	RCancelled          ReasonCode = "R_CANCELLED"
	RClientClose        ReasonCode = "R_CLIENT_CLOSE"
	RSuperseded         ReasonCode = "R_SUPERSEDED"
	RInvariantBreach    ReasonCode = "R_INTERNAL_INVARIANT_BREACH"
	RUnknown            ReasonCode = "R_UNKNOWN"
)

// Message returns the single human-readable sentence shown on the error panel.
func (r ReasonCode) Message() string {
	switch r {
	case RSourceUnavailable:
		return "The file could not be opened. It may have been moved, deleted, or is not readable."
	case RReadFailure:
		return "Reading the file failed part way through."
	case RUnsupportedFormat:
		return "This video format is not supported by the player."
	case RTranscodeFailure, RTranscodeExhausted:
		return "This video needs conversion but the transcoder could not play it. " +
			"Configure an external encoder (FFmpeg) for the transcode service, or open the file in an external player such as MPV or VLC."
	case RPlayerFatal:
		return "Playback stopped because the player reported an unrecoverable error."
	case RInvariantBreach:
		return "Playback stopped because of an internal error."
	case RNone, RCancelled, RClientClose, RSuperseded:
		return ""
	default:
		return "Playback failed for an unknown reason."
	}
}
