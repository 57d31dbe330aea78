// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	classifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playbackd_classify_total",
		Help: "Source classification outcomes by category and reason",
	}, []string{"category", "reason"})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playbackd_transitions_total",
		Help: "Playback lifecycle transitions by source phase, target phase and reason",
	}, []string{"from", "to", "reason"})

	playerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playbackd_player_errors_total",
		Help: "Player-reported errors by class and whether they were acted upon",
	}, []string{"class", "handled"})

	lateCompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playbackd_late_completions_total",
		Help: "Completions discarded because their session had been superseded",
	}, []string{"kind"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playbackd_active_sessions",
		Help: "Players currently holding a non-idle playback session",
	})
)

// RecordClassification increments the classification counter.
func RecordClassification(category, reason string) {
	classifyTotal.WithLabelValues(
		normalizeLabel(category, "direct", "transcode", "unknown"),
		normalizeLabel(reason, "remote_reference", "generated_handle", "denied_container", "unproven_container", "invalid_reference"),
	).Inc()
}

// RecordTransition counts one applied lifecycle transition.
func RecordTransition(from, to, reason string) {
	transitionsTotal.WithLabelValues(normalizePhase(from), normalizePhase(to), normalizeReason(reason)).Inc()
}

// RecordPlayerError counts one player error report.
func RecordPlayerError(class string, handled bool) {
	h := "false"
	if handled {
		h = "true"
	}
	playerErrorsTotal.WithLabelValues(normalizeLabel(class, "aborted", "network", "decode", "src_not_supported", "unknown"), h).Inc()
}

// RecordLateCompletion counts a discarded stale completion (load, transcode).
func RecordLateCompletion(kind string) {
	lateCompletionsTotal.WithLabelValues(normalizeLabel(kind, "load", "transcode")).Inc()
}

func IncActiveSessions() { activeSessions.Inc() }
func DecActiveSessions() { activeSessions.Dec() }

func normalizePhase(phase string) string {
	return normalizeLabel(strings.ToUpper(strings.TrimSpace(phase)),
		"IDLE", "CLASSIFYING", "DIRECT_READY", "LOADING", "READY", "TRANSCODE_STARTING", "TRANSCODE_READY", "FAILED")
}

func normalizeReason(reason string) string {
	r := strings.ToUpper(strings.TrimSpace(reason))
	if r == "" {
		return "R_NONE"
	}
	if strings.HasPrefix(r, "R_") && len(r) <= 40 {
		return r
	}
	return "unknown"
}

// normalizeLabel bounds label cardinality to the allowed values.
func normalizeLabel(v string, allowed ...string) string {
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	if strings.TrimSpace(v) != "" {
		lv := strings.ToLower(strings.TrimSpace(v))
		for _, a := range allowed {
			if lv == strings.ToLower(a) {
				return a
			}
		}
	}
	return "unknown"
}
