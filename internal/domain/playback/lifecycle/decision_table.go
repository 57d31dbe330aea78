// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import "github.com/ManuGH/playbackd/internal/domain/playback/model"

const (
	ForbiddenTerminalAbsorbing = "terminal_absorbing"
	ForbiddenOutOfOrder        = "out_of_order"
	ForbiddenAlreadyInState    = "already_in_state"
	ForbiddenRequiresSource    = "requires_source"
	ForbiddenNoFallbackEdge    = "no_fallback_edge"
)

func allowed() Decision        { return Decision{Allowed: true} }
func forbid(r string) Decision { return Decision{Allowed: false, Reason: r} }

// decisionTable defines an explicit decision for every Phase×Event combination.
var decisionTable = map[model.Phase]map[EventKind]Decision{
	model.PhaseIdle: {
		EvSourceReceived:      allowed(),
		EvClassifiedDirect:    forbid(ForbiddenOutOfOrder),
		EvClassifiedUnknown:   forbid(ForbiddenOutOfOrder),
		EvClassifiedTranscode: forbid(ForbiddenOutOfOrder),
		EvLoadSucceeded:       forbid(ForbiddenOutOfOrder),
		EvFallbackRequested:   forbid(ForbiddenRequiresSource),
		EvTranscodeStarted:    forbid(ForbiddenOutOfOrder),
		EvFail:                forbid(ForbiddenRequiresSource),
		EvClose:               forbid(ForbiddenAlreadyInState),
	},
	model.PhaseClassifying: {
		EvSourceReceived:      forbid(ForbiddenAlreadyInState),
		EvClassifiedDirect:    allowed(),
		EvClassifiedUnknown:   allowed(),
		EvClassifiedTranscode: allowed(),
		EvLoadSucceeded:       forbid(ForbiddenOutOfOrder),
		EvFallbackRequested:   forbid(ForbiddenOutOfOrder),
		EvTranscodeStarted:    forbid(ForbiddenOutOfOrder),
		EvFail:                allowed(),
		EvClose:               allowed(),
	},
	model.PhaseDirectReady: {
		EvSourceReceived:      forbid(ForbiddenAlreadyInState),
		EvClassifiedDirect:    forbid(ForbiddenAlreadyInState),
		EvClassifiedUnknown:   forbid(ForbiddenAlreadyInState),
		EvClassifiedTranscode: forbid(ForbiddenAlreadyInState),
		EvLoadSucceeded:       forbid(ForbiddenOutOfOrder),
		EvFallbackRequested:   forbid(ForbiddenNoFallbackEdge),
		EvTranscodeStarted:    forbid(ForbiddenOutOfOrder),
		EvFail:                allowed(),
		EvClose:               allowed(),
	},
	model.PhaseLoading: {
		EvSourceReceived:      forbid(ForbiddenAlreadyInState),
		EvClassifiedDirect:    forbid(ForbiddenAlreadyInState),
		EvClassifiedUnknown:   forbid(ForbiddenAlreadyInState),
		EvClassifiedTranscode: forbid(ForbiddenAlreadyInState),
		EvLoadSucceeded:       allowed(),
		EvFallbackRequested:   allowed(),
		EvTranscodeStarted:    forbid(ForbiddenOutOfOrder),
		EvFail:                allowed(),
		EvClose:               allowed(),
	},
	model.PhaseReady: {
		EvSourceReceived:      forbid(ForbiddenAlreadyInState),
		EvClassifiedDirect:    forbid(ForbiddenAlreadyInState),
		EvClassifiedUnknown:   forbid(ForbiddenAlreadyInState),
		EvClassifiedTranscode: forbid(ForbiddenAlreadyInState),
		EvLoadSucceeded:       forbid(ForbiddenAlreadyInState),
		EvFallbackRequested:   allowed(),
		EvTranscodeStarted:    forbid(ForbiddenOutOfOrder),
		EvFail:                allowed(),
		EvClose:               allowed(),
	},
	model.PhaseTranscodeStarting: {
		EvSourceReceived:      forbid(ForbiddenAlreadyInState),
		EvClassifiedDirect:    forbid(ForbiddenAlreadyInState),
		EvClassifiedUnknown:   forbid(ForbiddenAlreadyInState),
		EvClassifiedTranscode: forbid(ForbiddenAlreadyInState),
		EvLoadSucceeded:       forbid(ForbiddenOutOfOrder),
		EvFallbackRequested:   forbid(ForbiddenAlreadyInState),
		EvTranscodeStarted:    allowed(),
		EvFail:                allowed(),
		EvClose:               allowed(),
	},
	model.PhaseTranscodeReady: {
		EvSourceReceived:      forbid(ForbiddenAlreadyInState),
		EvClassifiedDirect:    forbid(ForbiddenAlreadyInState),
		EvClassifiedUnknown:   forbid(ForbiddenAlreadyInState),
		EvClassifiedTranscode: forbid(ForbiddenAlreadyInState),
		EvLoadSucceeded:       forbid(ForbiddenOutOfOrder),
		EvFallbackRequested:   forbid(ForbiddenNoFallbackEdge),
		EvTranscodeStarted:    forbid(ForbiddenAlreadyInState),
		EvFail:                allowed(),
		EvClose:               allowed(),
	},
	model.PhaseFailed: {
		EvSourceReceived:      forbid(ForbiddenTerminalAbsorbing),
		EvClassifiedDirect:    forbid(ForbiddenTerminalAbsorbing),
		EvClassifiedUnknown:   forbid(ForbiddenTerminalAbsorbing),
		EvClassifiedTranscode: forbid(ForbiddenTerminalAbsorbing),
		EvLoadSucceeded:       forbid(ForbiddenTerminalAbsorbing),
		EvFallbackRequested:   forbid(ForbiddenTerminalAbsorbing),
		EvTranscodeStarted:    forbid(ForbiddenTerminalAbsorbing),
		EvFail:                forbid(ForbiddenTerminalAbsorbing),
		EvClose:               allowed(),
	},
}

// DecisionFor returns the explicit decision for phase×event.
func DecisionFor(from model.Phase, ev EventKind) (Decision, bool) {
	m, ok := decisionTable[from]
	if !ok {
		return Decision{}, false
	}
	d, ok := m[ev]
	return d, ok
}

// ForbiddenTransitionReason documents why a transition is disallowed.
func ForbiddenTransitionReason(from model.Phase, ev EventKind) string {
	decision, ok := DecisionFor(from, ev)
	if !ok || decision.Allowed {
		return ""
	}
	return decision.Reason
}
