// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playbackd_http_request_duration_seconds",
		Help:    "HTTP request latencies by method, route pattern and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playbackd_http_requests_in_flight",
		Help: "HTTP requests currently being served",
	})

	httpRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playbackd_http_rate_limited_total",
		Help: "Requests rejected by the ingress rate limiter",
	})
)

// ObserveHTTPRequest records one finished request. route must be the router
// pattern, never the raw path.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func IncHTTPInFlight() { httpRequestsInFlight.Inc() }
func DecHTTPInFlight() { httpRequestsInFlight.Dec() }

func RecordRateLimited() { httpRateLimited.Inc() }
