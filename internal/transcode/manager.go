// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package transcode

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/playbackd/internal/domain/playback/model"
	xglog "github.com/ManuGH/playbackd/internal/log"
	"github.com/ManuGH/playbackd/internal/metrics"
	"github.com/ManuGH/playbackd/internal/resilience"
	"github.com/ManuGH/playbackd/internal/telemetry"
)

const defaultStopTimeout = 5 * time.Second

// Manager fronts the transcode Service. It keeps no per-session state: the
// caller decides when a start is allowed and owns the returned session.
type Manager struct {
	svc         Service
	breaker     *resilience.CircuitBreaker
	stopTimeout time.Duration
	logger      zerolog.Logger

	stops sync.WaitGroup
}

type ManagerOptions struct {
	// Breaker is optional; without one every start reaches the service.
	Breaker     *resilience.CircuitBreaker
	StopTimeout time.Duration
}

func NewManager(svc Service, opts ManagerOptions) *Manager {
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = defaultStopTimeout
	}
	return &Manager{
		svc:         svc,
		breaker:     opts.Breaker,
		stopTimeout: opts.StopTimeout,
		logger:      xglog.WithComponent("transcode"),
	}
}

// CountsAsOutage reports whether a start error says something about service
// health. Rejections of a specific input do not.
func CountsAsOutage(err error) bool {
	return !errors.Is(err, ErrRejected) && !errors.Is(err, ErrUnconfigured)
}

// Start requests one transcode session. It never retries; every error is
// wrapped as model.ErrTranscodeFailure.
func (m *Manager) Start(ctx context.Context, path string, startSeconds float64) (Session, error) {
	ctx, span := telemetry.Tracer("playbackd.transcode").Start(ctx, "transcode.start")
	defer span.End()
	span.SetAttributes(attribute.Float64(telemetry.StartOffsetKey, startSeconds))

	logger := xglog.WithContext(ctx, m.logger)

	var sess Session
	call := func(ctx context.Context) error {
		var err error
		sess, err = m.svc.Start(ctx, path, startSeconds)
		return err
	}
	var err error
	if m.breaker != nil {
		err = m.breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}

	if err != nil {
		result := "error"
		if errors.Is(err, ErrRejected) || errors.Is(err, resilience.ErrCircuitOpen) {
			result = "rejected"
		}
		metrics.RecordTranscodeRequest("start", result)
		span.SetAttributes(telemetry.ErrorAttributes(result)...)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, context.Canceled) {
			return Session{}, fmt.Errorf("%w: %w", model.ErrCancelled, err)
		}
		logger.Warn().Err(err).
			Str(xglog.FieldEvent, "transcode.start_failed").
			Str(xglog.FieldPath, path).
			Msg("transcode start failed")
		return Session{}, fmt.Errorf("%w: %w", model.ErrTranscodeFailure, err)
	}

	metrics.RecordTranscodeRequest("start", "ok")
	metrics.IncLiveTranscodes()
	span.SetAttributes(attribute.String(telemetry.TranscodeIDKey, sess.ID))
	logger.Info().
		Str(xglog.FieldEvent, "transcode.started").
		Str("transcode_id", sess.ID).
		Str(xglog.FieldPath, path).
		Float64("start_seconds", startSeconds).
		Msg("transcode session started")
	return sess, nil
}

// Stop ends a session. Errors are logged, never returned; unknown or already
// stopped sessions are a no-op.
func (m *Manager) Stop(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.stopTimeout)
	defer cancel()

	logger := xglog.WithContext(ctx, m.logger).With().Str("transcode_id", sessionID).Logger()
	err := m.svc.Stop(ctx, sessionID)
	switch {
	case err == nil:
		metrics.RecordTranscodeRequest("stop", "ok")
		metrics.DecLiveTranscodes()
		logger.Debug().Str(xglog.FieldEvent, "transcode.stopped").Msg("transcode session stopped")
	case errors.Is(err, ErrNotFound):
		metrics.RecordTranscodeRequest("stop", "not_found")
		metrics.DecLiveTranscodes()
		logger.Debug().Str(xglog.FieldEvent, "transcode.stop_noop").Msg("transcode session already gone")
	default:
		metrics.RecordTranscodeRequest("stop", "error")
		logger.Warn().Err(err).Str(xglog.FieldEvent, "transcode.stop_failed").Msg("transcode stop failed")
	}
}

// StopAsync issues Stop in the background. Wait blocks until every pending
// background stop has returned.
func (m *Manager) StopAsync(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	m.stops.Add(1)
	go func() {
		defer m.stops.Done()
		m.Stop(ctx, sessionID)
	}()
}

func (m *Manager) Wait() {
	m.stops.Wait()
}
