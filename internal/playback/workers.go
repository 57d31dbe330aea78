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

// spawnLoadLocked runs the chunked load for s in the background.
func (r *Resolver) spawnLoadLocked(s *session) {
	path := s.rec.Source.Ref()
	r.workers.Add(1)
	go func() {
		defer r.workers.Done()
		buf, err := s.deps.Loader.Load(s.ctx, path, func(loaded, total int64) {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.currentLocked(s) && lifecycle.RecordLoadProgress(s.rec, loaded, total) {
				r.notifyLocked()
			}
		})

		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.currentLocked(s) || s.rec.Phase != model.PhaseLoading {
			metrics.RecordLateCompletion("load")
			logger := r.loggerFor(s)
			logger.Debug().Str(xglog.FieldEvent, "playback.late_load").Msg("discarding load completion for superseded session")
			return
		}
		if err != nil {
			r.onLoadFailedLocked(s, err)
			return
		}

		h := s.deps.Blobs.Publish(buf.Data, buf.MimeType)
		s.blobID = h.ID
		lifecycle.RecordLoadProgress(s.rec, h.Size, h.Size)
		_, _ = r.dispatchLocked(s, lifecycle.Event{
			Kind:   lifecycle.EvLoadSucceeded,
			Stream: &model.StreamHandle{URL: h.URL, MimeType: h.MimeType, Kind: model.HandleBlob},
		})
	}()
}

func (r *Resolver) onLoadFailedLocked(s *session, err error) {
	if errors.Is(err, model.ErrReadFailure) && s.rec.Source.TranscodeEligible() {
		tr, derr := r.dispatchLocked(s, lifecycle.Event{Kind: lifecycle.EvFallbackRequested, Err: err})
		if derr == nil && tr.To == model.PhaseTranscodeStarting {
			r.spawnTranscodeLocked(s, s.rec.Source.StartOffset())
		}
		return
	}
	_, _ = r.dispatchLocked(s, lifecycle.Event{Kind: lifecycle.EvFail, Err: err})
}

// spawnTranscodeLocked issues the single transcode start for s.
func (r *Resolver) spawnTranscodeLocked(s *session, offset float64) {
	path := s.rec.Source.Ref()
	r.workers.Add(1)
	go func() {
		defer r.workers.Done()
		sess, err := s.deps.Transcoder.Start(s.ctx, path, offset)

		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.currentLocked(s) || s.rec.Phase != model.PhaseTranscodeStarting {
			metrics.RecordLateCompletion("transcode")
			logger := r.loggerFor(s)
			logger.Debug().Str(xglog.FieldEvent, "playback.late_transcode").Msg("discarding transcode completion for superseded session")
			if err == nil {
				s.deps.Transcoder.StopAsync(s.ctx, sess.ID)
			}
			return
		}
		if err != nil {
			_, _ = r.dispatchLocked(s, lifecycle.Event{Kind: lifecycle.EvFail, Err: err})
			return
		}

		s.transcodeID = sess.ID
		mime := sess.MimeType
		if mime == "" {
			mime = "video/mp4"
		}
		_, _ = r.dispatchLocked(s, lifecycle.Event{
			Kind:   lifecycle.EvTranscodeStarted,
			Stream: &model.StreamHandle{URL: sess.StreamURL, MimeType: mime, Kind: model.HandleTranscode},
		})
	}()
}
