// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build debug

package lifecycle

import (
	"fmt"
	"time"

	"github.com/ManuGH/playbackd/internal/domain/playback/model"
)

func illegalTransition(rec *model.PlaybackState, from model.Phase, ev EventKind, now time.Time) (Transition, error) {
	panic(fmt.Sprintf("illegal transition: %s + %v", from, ev))
}
