// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import "github.com/ManuGH/playbackd/internal/domain/playback/model"

// Transition is a single allowed edge in the lifecycle state machine.
type Transition struct {
	From   model.Phase
	To     model.Phase
	Event  EventKind
	Reason model.ReasonCode
	Detail string
}

// Decision records whether a transition is allowed and why it is forbidden.
type Decision struct {
	Allowed bool
	Reason  string
}

var transitionsTable = []Transition{
	// Resolution path
	{From: model.PhaseIdle, To: model.PhaseClassifying, Event: EvSourceReceived},
	{From: model.PhaseClassifying, To: model.PhaseDirectReady, Event: EvClassifiedDirect},
	{From: model.PhaseClassifying, To: model.PhaseLoading, Event: EvClassifiedUnknown},
	{From: model.PhaseClassifying, To: model.PhaseTranscodeStarting, Event: EvClassifiedTranscode, Reason: model.RUnsupportedFormat},
	{From: model.PhaseLoading, To: model.PhaseReady, Event: EvLoadSucceeded},

	// Single transcode fallback
	{From: model.PhaseLoading, To: model.PhaseTranscodeStarting, Event: EvFallbackRequested, Reason: model.RReadFailure},
	{From: model.PhaseReady, To: model.PhaseTranscodeStarting, Event: EvFallbackRequested, Reason: model.RUnsupportedFormat},
	{From: model.PhaseTranscodeStarting, To: model.PhaseTranscodeReady, Event: EvTranscodeStarted},

	// Terminal failures
	{From: model.PhaseClassifying, To: model.PhaseFailed, Event: EvFail},
	{From: model.PhaseDirectReady, To: model.PhaseFailed, Event: EvFail},
	{From: model.PhaseLoading, To: model.PhaseFailed, Event: EvFail},
	{From: model.PhaseReady, To: model.PhaseFailed, Event: EvFail},
	{From: model.PhaseTranscodeStarting, To: model.PhaseFailed, Event: EvFail},
	{From: model.PhaseTranscodeReady, To: model.PhaseFailed, Event: EvFail},

	// Supersession or explicit close
	{From: model.PhaseClassifying, To: model.PhaseIdle, Event: EvClose, Reason: model.RClientClose},
	{From: model.PhaseDirectReady, To: model.PhaseIdle, Event: EvClose, Reason: model.RClientClose},
	{From: model.PhaseLoading, To: model.PhaseIdle, Event: EvClose, Reason: model.RClientClose},
	{From: model.PhaseReady, To: model.PhaseIdle, Event: EvClose, Reason: model.RClientClose},
	{From: model.PhaseTranscodeStarting, To: model.PhaseIdle, Event: EvClose, Reason: model.RClientClose},
	{From: model.PhaseTranscodeReady, To: model.PhaseIdle, Event: EvClose, Reason: model.RClientClose},
	{From: model.PhaseFailed, To: model.PhaseIdle, Event: EvClose, Reason: model.RClientClose},
}

// TransitionFor returns the allowed transition for a given phase+event.
func TransitionFor(from model.Phase, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}
