// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chunkReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playbackd_chunk_reads_total",
		Help: "Chunk read calls by result",
	}, []string{"result"})

	chunkBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playbackd_chunk_bytes_total",
		Help: "Bytes assembled from chunk reads",
	})

	loadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playbackd_load_duration_seconds",
		Help:    "Duration of full chunked loads by result",
		Buckets: prometheus.ExponentialBuckets(0.01, 2.0, 14), // 10ms to ~80s
	}, []string{"result"})

	largeFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playbackd_large_files_total",
		Help: "Loads whose source exceeded the large-file advisory threshold",
	})

	blobsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playbackd_blobs_active",
		Help: "Assembled buffers currently published as stream handles",
	})

	blobBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playbackd_blob_bytes",
		Help: "Bytes held by published assembled buffers",
	})
)

// RecordChunkRead counts one chunk read and the bytes it produced.
func RecordChunkRead(result string, n int) {
	chunkReadsTotal.WithLabelValues(normalizeLabel(result, "ok", "error", "cancelled")).Inc()
	if n > 0 {
		chunkBytesTotal.Add(float64(n))
	}
}

// ObserveLoad records the outcome and duration of one chunked load.
func ObserveLoad(result string, d time.Duration) {
	loadDuration.WithLabelValues(normalizeLabel(result, "ok", "error", "cancelled")).Observe(d.Seconds())
}

func IncLargeFiles() { largeFilesTotal.Inc() }

// BlobPublished tracks a newly published buffer of size n.
func BlobPublished(n int) {
	blobsActive.Inc()
	blobBytes.Add(float64(n))
}

// BlobReleased tracks the release of a buffer of size n.
func BlobReleased(n int) {
	blobsActive.Dec()
	blobBytes.Sub(float64(n))
}
