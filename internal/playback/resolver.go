// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/playbackd/internal/classify"
	"github.com/ManuGH/playbackd/internal/domain/playback/lifecycle"
	"github.com/ManuGH/playbackd/internal/domain/playback/model"
	xglog "github.com/ManuGH/playbackd/internal/log"
	"github.com/ManuGH/playbackd/internal/metrics"
	"github.com/ManuGH/playbackd/internal/progress"
)

var (
	ErrInvalidSource  = errors.New("invalid playback source")
	ErrResolverClosed = errors.New("resolver closed")
)

// session holds every resource one playback session owns. All fields are
// guarded by Resolver.mu.
type session struct {
	token    uint64
	rec      *model.PlaybackState
	deps     Deps
	ctx      context.Context
	cancel   context.CancelFunc
	reporter *progress.Reporter

	blobID      string
	transcodeID string
	playable    bool
}

// Resolver runs the resolution state machine for one player. At most one
// session is active at a time; opening a new source supersedes the old one.
type Resolver struct {
	playerID string
	deps     *atomic.Pointer[Deps]
	base     context.Context
	logger   zerolog.Logger

	mu      sync.Mutex
	token   uint64
	cur     *session
	changed chan struct{}
	closed  bool

	workers sync.WaitGroup
}

// NewResolver creates a resolver. base bounds the lifetime of background
// work; cancelling it aborts in-flight loads and transcode starts.
func NewResolver(base context.Context, playerID string, deps Deps) *Resolver {
	p := &atomic.Pointer[Deps]{}
	d := deps.withDefaults()
	p.Store(&d)
	return newResolver(base, playerID, p)
}

func newResolver(base context.Context, playerID string, deps *atomic.Pointer[Deps]) *Resolver {
	return &Resolver{
		playerID: playerID,
		deps:     deps,
		base:     base,
		logger:   xglog.WithComponent("playback").With().Str(xglog.FieldPlayerID, playerID).Logger(),
		changed:  make(chan struct{}),
	}
}

func (r *Resolver) PlayerID() string { return r.playerID }

// Open starts resolving src, superseding any current session first.
func (r *Resolver) Open(ctx context.Context, src model.PlaybackSource) (Snapshot, error) {
	if src.IsZero() {
		return Snapshot{}, ErrInvalidSource
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Snapshot{}, ErrResolverClosed
	}
	ended := r.endSessionLocked(model.RSuperseded)

	deps := *r.deps.Load()
	r.token++
	s := &session{
		token:    r.token,
		deps:     deps,
		reporter: progress.NewReporter(deps.Sink, src.Ref(), deps.ProgressInterval, deps.Clock.Now),
	}
	s.rec = model.NewPlaybackState(s.token, uuid.NewString(), src, deps.Clock.Now())
	sctx := xglog.ContextWithPlayerID(r.base, r.playerID)
	sctx = xglog.ContextWithSessionID(sctx, s.rec.SessionID)
	if reqID := xglog.RequestIDFromContext(ctx); reqID != "" {
		sctx = xglog.ContextWithRequestID(sctx, reqID)
	}
	s.ctx, s.cancel = context.WithCancel(sctx)
	r.cur = s

	if _, err := r.dispatchLocked(s, lifecycle.Event{Kind: lifecycle.EvSourceReceived}); err != nil {
		snap := snapshotOf(r.playerID, s.rec)
		r.mu.Unlock()
		r.finishEnded(ctx, ended)
		return snap, err
	}
	metrics.IncActiveSessions()

	r.classifyLocked(s)
	snap := snapshotOf(r.playerID, s.rec)
	r.mu.Unlock()

	r.finishEnded(ctx, ended)
	return snap, nil
}

// classifyLocked takes the session out of CLASSIFYING.
func (r *Resolver) classifyLocked(s *session) {
	src := s.rec.Source
	out := s.deps.Classifier.Classify(src)
	metrics.RecordClassification(string(out.Category), string(out.Reason))
	logger := r.loggerFor(s)
	logger.Debug().
		Str(xglog.FieldEvent, "playback.classified").
		Str(xglog.FieldSourceKind, string(src.Kind())).
		Str(xglog.FieldExtension, src.Ext()).
		Str("category", string(out.Category)).
		Str(xglog.FieldReason, string(out.Reason)).
		Msg("source classified")

	switch {
	case out.Category == classify.DirectPlay:
		stream := &model.StreamHandle{URL: src.Ref(), MimeType: remoteMimeType(src.Ref()), Kind: model.HandleRemote}
		_, _ = r.dispatchLocked(s, lifecycle.Event{Kind: lifecycle.EvClassifiedDirect, Stream: stream})

	case out.Category == classify.NeedsTranscode && src.TranscodeEligible():
		tr, err := r.dispatchLocked(s, lifecycle.Event{
			Kind:   lifecycle.EvClassifiedTranscode,
			Detail: "container " + src.Ext() + " is on the transcode-first list",
		})
		if err == nil && tr.To == model.PhaseTranscodeStarting {
			r.spawnTranscodeLocked(s, src.StartOffset())
		}

	case src.Kind() == model.KindLocalPath:
		// Unknown containers, and denied ones that cannot be transcoded,
		// get a direct chunked load.
		if _, err := r.dispatchLocked(s, lifecycle.Event{Kind: lifecycle.EvClassifiedUnknown}); err == nil {
			r.spawnLoadLocked(s)
		}

	default:
		_, _ = r.dispatchLocked(s, lifecycle.Event{
			Kind:   lifecycle.EvFail,
			Reason: model.RUnsupportedFormat,
			Err:    fmt.Errorf("%w: cannot resolve %s source", model.ErrUnsupportedFormat, src.Kind()),
		})
	}
}

// ReportPlayerError handles an error event from the player. Errors outside a
// playable phase are ignored.
func (r *Resolver) ReportPlayerError(ctx context.Context, code PlayerErrorCode, message string) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.cur
	if s == nil || !s.rec.Phase.IsPlayable() {
		metrics.RecordPlayerError(code.Class(), false)
		r.logger.Debug().
			Str(xglog.FieldEvent, "playback.player_error_ignored").
			Int("code", int(code)).
			Msg("player error outside playable phase")
		return r.snapshotLocked()
	}
	metrics.RecordPlayerError(code.Class(), true)

	detail := fmt.Sprintf("player error %d (%s)", int(code), code.Class())
	if message != "" {
		detail += ": " + message
	}

	switch {
	case !code.IsFormatClass():
		_, _ = r.dispatchLocked(s, lifecycle.Event{
			Kind:   lifecycle.EvFail,
			Reason: model.RPlayerFatal,
			Detail: detail,
			Err:    lifecycle.NewReasonError(model.RPlayerFatal, detail, nil),
		})

	case s.rec.Phase == model.PhaseReady && s.rec.Source.TranscodeEligible():
		// Resume where the viewer was when the codec failed.
		offset := s.rec.Source.StartOffset()
		if pos, ok := s.reporter.LastPosition(); ok {
			offset = pos
		}
		tr, err := r.dispatchLocked(s, lifecycle.Event{
			Kind:   lifecycle.EvFallbackRequested,
			Detail: detail,
			Err:    fmt.Errorf("%w: %s", model.ErrUnsupportedFormat, detail),
		})
		if err == nil && tr.To == model.PhaseTranscodeStarting {
			r.spawnTranscodeLocked(s, offset)
		}

	case s.rec.Phase == model.PhaseTranscodeReady:
		_, _ = r.dispatchLocked(s, lifecycle.Event{
			Kind:   lifecycle.EvFail,
			Reason: model.RTranscodeExhausted,
			Detail: detail,
			Err:    fmt.Errorf("%w: transcoded stream failed: %s", model.ErrTranscodeFailure, detail),
		})

	default:
		_, _ = r.dispatchLocked(s, lifecycle.Event{
			Kind:   lifecycle.EvFail,
			Reason: model.RUnsupportedFormat,
			Detail: detail,
			Err:    fmt.Errorf("%w: %s", model.ErrUnsupportedFormat, detail),
		})
	}
	return r.snapshotLocked()
}

// ReportProgress feeds a raw position sample to the throttle. It reports
// whether a progress event was emitted.
func (r *Resolver) ReportProgress(ctx context.Context, position, duration float64) bool {
	r.mu.Lock()
	s := r.cur
	if s == nil || !s.rec.Phase.IsPlayable() {
		r.mu.Unlock()
		return false
	}
	reporter := s.reporter
	r.mu.Unlock()

	_, emitted := reporter.Observe(s.ctx, position, duration)
	return emitted
}

// ReportEnded records that the player reached end of stream.
func (r *Resolver) ReportEnded(ctx context.Context) bool {
	r.mu.Lock()
	s := r.cur
	if s == nil || !s.rec.Phase.IsPlayable() {
		r.mu.Unlock()
		return false
	}
	reporter := s.reporter
	r.mu.Unlock()

	return reporter.End(s.ctx, true)
}

// Close ends the current session and returns the player to IDLE.
func (r *Resolver) Close(ctx context.Context) Snapshot {
	r.mu.Lock()
	ended := r.endSessionLocked(model.RClientClose)
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.finishEnded(ctx, ended)
	return snap
}

// retire closes the current session and makes every later Open fail with
// ErrResolverClosed.
func (r *Resolver) retire(ctx context.Context) Snapshot {
	r.mu.Lock()
	r.closed = true
	ended := r.endSessionLocked(model.RClientClose)
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.finishEnded(ctx, ended)
	return snap
}

// Shutdown closes the current session, refuses further opens and waits for
// background work to drain or ctx to expire.
func (r *Resolver) Shutdown(ctx context.Context) error {
	r.retire(ctx)

	done := make(chan struct{})
	go func() {
		r.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// WaitFor blocks until pred holds for the current snapshot or ctx ends.
func (r *Resolver) WaitFor(ctx context.Context, pred func(Snapshot) bool) (Snapshot, error) {
	for {
		r.mu.Lock()
		snap := r.snapshotLocked()
		ch := r.changed
		r.mu.Unlock()

		if pred(snap) {
			return snap, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

func (r *Resolver) snapshotLocked() Snapshot {
	if r.cur == nil {
		return snapshotOf(r.playerID, nil)
	}
	return snapshotOf(r.playerID, r.cur.rec)
}

// endSessionLocked moves a live session to IDLE and invalidates its token.
// It returns the session whose end event still has to be reported.
func (r *Resolver) endSessionLocked(reason model.ReasonCode) *session {
	s := r.cur
	if s == nil || s.rec.Phase == model.PhaseIdle {
		return nil
	}
	r.token++
	_, _ = r.dispatchLocked(s, lifecycle.Event{Kind: lifecycle.EvClose, Reason: reason})
	metrics.DecActiveSessions()
	if s.playable {
		return s
	}
	return nil
}

// finishEnded reports the end of a session that reached playback, outside
// the lock because the sink may do I/O.
func (r *Resolver) finishEnded(ctx context.Context, s *session) {
	if s == nil {
		return
	}
	s.reporter.End(context.WithoutCancel(ctx), false)
}

func (r *Resolver) notifyLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *Resolver) loggerFor(s *session) zerolog.Logger {
	return xglog.WithContext(s.ctx, r.logger).With().Uint64(xglog.FieldGeneration, s.token).Logger()
}

func remoteMimeType(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return classify.MimeTypeFor("")
	}
	return classify.MimeTypeFor(path.Ext(u.Path))
}
