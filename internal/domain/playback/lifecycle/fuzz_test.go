// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"testing"

	"github.com/ManuGH/playbackd/internal/domain/playback/model"
)

// Any event order keeps at most one entry into TRANSCODE_STARTING per
// session and never exposes a stream outside playable phases.
func FuzzDispatchSequences(f *testing.F) {
	f.Add([]byte{1, 3, 5, 6, 7})
	f.Add([]byte{1, 4, 7, 6, 6, 7})
	f.Add([]byte{1, 3, 6, 6, 8, 9, 1})

	f.Fuzz(func(t *testing.T, seq []byte) {
		src, err := model.NewLocalSource("/media/clip.avi", 0, false)
		if err != nil {
			t.Fatal(err)
		}
		rec := model.NewPlaybackState(1, "fuzz", src, t0)
		transcodeEntries := 0
		for _, b := range seq {
			ev := Event{Kind: EventKind(int(b)%9 + 1), Stream: stream(model.HandleBlob)}
			if ev.Kind == EvClose {
				// Close ends the session; start counting again for the next one.
				_, _ = Dispatch(rec, ev, t0)
				rec.TranscodeAttempted = false
				transcodeEntries = 0
				continue
			}
			tr, _ := Dispatch(rec, ev, t0)
			if tr.To == model.PhaseTranscodeStarting && rec.Phase == model.PhaseTranscodeStarting {
				transcodeEntries++
			}
			if transcodeEntries > 1 {
				t.Fatalf("transcode started twice: seq=%v", seq)
			}
			if rec.Stream != nil && !rec.Phase.IsPlayable() {
				t.Fatalf("stream leaked into %s", rec.Phase)
			}
		}
	})
}
