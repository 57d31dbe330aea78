// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transcodeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playbackd_transcode_requests_total",
		Help: "Transcode service calls by operation and result",
	}, []string{"op", "result"})

	liveTranscodeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playbackd_transcode_sessions_live",
		Help: "Transcode sessions started and not yet stopped",
	})

	progressTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playbackd_progress_samples_total",
		Help: "Raw player progress samples by throttle outcome",
	}, []string{"outcome"})
)

// RecordTranscodeRequest counts one start or stop call.
func RecordTranscodeRequest(op, result string) {
	transcodeRequestsTotal.WithLabelValues(
		normalizeLabel(op, "start", "stop"),
		normalizeLabel(result, "ok", "error", "rejected", "not_found"),
	).Inc()
}

func IncLiveTranscodes() { liveTranscodeSessions.Inc() }
func DecLiveTranscodes() { liveTranscodeSessions.Dec() }

// RecordProgressSample counts a raw progress sample as emitted or dropped.
func RecordProgressSample(emitted bool) {
	outcome := "dropped"
	if emitted {
		outcome = "emitted"
	}
	progressTotal.WithLabelValues(outcome).Inc()
}
