// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import (
	"fmt"

	"github.com/ManuGH/playbackd/internal/domain/playback/model"
)

// EventKind is a domain event in the playback resolution lifecycle.
type EventKind int

const (
	EvUnknown EventKind = iota
	EvSourceReceived
	EvClassifiedDirect
	EvClassifiedUnknown
	EvClassifiedTranscode
	EvLoadSucceeded
	EvFallbackRequested
	EvTranscodeStarted
	EvFail
	EvClose
)

var eventNames = map[EventKind]string{
	EvUnknown:             "unknown",
	EvSourceReceived:      "source_received",
	EvClassifiedDirect:    "classified_direct",
	EvClassifiedUnknown:   "classified_unknown",
	EvClassifiedTranscode: "classified_transcode",
	EvLoadSucceeded:       "load_succeeded",
	EvFallbackRequested:   "fallback_requested",
	EvTranscodeStarted:    "transcode_started",
	EvFail:                "fail",
	EvClose:               "close",
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event carries optional domain metadata for a transition.
type Event struct {
	Kind   EventKind
	Reason model.ReasonCode
	Detail string
	Err    error
	// Stream is required when the event enters a playable phase.
	Stream *model.StreamHandle
}
