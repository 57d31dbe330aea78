// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "playbackd_breaker_state",
		Help: "Breaker state per component: 0 closed, 1 half-open, 2 open",
	}, []string{"component"})

	breakerOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playbackd_breaker_opened_total",
		Help: "Times a breaker opened, by cause",
	}, []string{"component", "cause"})

	breakerRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playbackd_breaker_rejected_total",
		Help: "Calls refused without reaching the protected service",
	}, []string{"component"})
)

func breakerStateCode(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// SetBreakerState publishes the current breaker state for component.
func SetBreakerState(component, state string) {
	breakerState.WithLabelValues(component).Set(breakerStateCode(state))
}

func RecordBreakerOpened(component, cause string) {
	breakerOpened.WithLabelValues(component, cause).Inc()
}

func RecordBreakerRejected(component string) {
	breakerRejected.WithLabelValues(component).Inc()
}
