// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package progress turns high-frequency player position updates into
// bounded-rate progress events for the history collaborator.
package progress

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	xglog "github.com/ManuGH/playbackd/internal/log"
	"github.com/ManuGH/playbackd/internal/metrics"
)

const DefaultInterval = 5 * time.Second

// Sample is one emitted progress event.
type Sample struct {
	Timestamp time.Time
	Position  float64
	Duration  float64
	Percent   float64
}

// Sink receives emitted progress and the end-of-playback signal.
type Sink interface {
	Progress(ctx context.Context, ref string, s Sample) error
	Ended(ctx context.Context, ref string, completed bool) error
}

// Reporter throttles one playback session's samples to at most one per
// interval. The limiter holds a single token, so there is no burst.
type Reporter struct {
	// emit orders sink writes so no progress lands after the end event.
	emit sync.Mutex

	mu      sync.Mutex
	sink    Sink
	ref     string
	limiter *rate.Limiter
	now     func() time.Time
	lastPos float64
	hasPos  bool
	ended   bool
	logger  zerolog.Logger
}

// NewReporter creates a reporter for the source identified by ref.
// now may be nil for wall-clock time.
func NewReporter(sink Sink, ref string, interval time.Duration, now func() time.Time) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Reporter{
		sink:    sink,
		ref:     ref,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		now:     now,
		logger:  xglog.WithComponent("progress"),
	}
}

// Observe consumes a raw sample and reports whether it was emitted.
func (r *Reporter) Observe(ctx context.Context, position, duration float64) (Sample, bool) {
	if !validSeconds(position) || !validSeconds(duration) {
		return Sample{}, false
	}

	r.emit.Lock()
	defer r.emit.Unlock()

	r.mu.Lock()
	if r.ended {
		r.mu.Unlock()
		return Sample{}, false
	}
	r.lastPos, r.hasPos = position, true
	now := r.now()
	if !r.limiter.AllowN(now, 1) {
		r.mu.Unlock()
		metrics.RecordProgressSample(false)
		return Sample{}, false
	}
	r.mu.Unlock()

	s := Sample{Timestamp: now, Position: position, Duration: duration, Percent: percent(position, duration)}
	metrics.RecordProgressSample(true)
	if r.sink != nil {
		if err := r.sink.Progress(ctx, r.ref, s); err != nil {
			logger := xglog.WithContext(ctx, r.logger)
			logger.Warn().Err(err).
				Str(xglog.FieldEvent, "progress.sink_failed").
				Msg("progress sink rejected sample")
		}
	}
	return s, true
}

// End reports playback end once. Later calls return false and do nothing.
func (r *Reporter) End(ctx context.Context, completed bool) bool {
	r.mu.Lock()
	if r.ended {
		r.mu.Unlock()
		return false
	}
	r.ended = true
	r.mu.Unlock()

	r.emit.Lock()
	defer r.emit.Unlock()
	if r.sink != nil {
		if err := r.sink.Ended(ctx, r.ref, completed); err != nil {
			logger := xglog.WithContext(ctx, r.logger)
			logger.Warn().Err(err).
				Str(xglog.FieldEvent, "progress.sink_failed").
				Bool("completed", completed).
				Msg("progress sink rejected end event")
		}
	}
	return true
}

// LastPosition is the most recent raw position, emitted or not.
func (r *Reporter) LastPosition() (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPos, r.hasPos
}

func validSeconds(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func percent(position, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	p := position / duration * 100
	return math.Max(0, math.Min(100, p))
}
