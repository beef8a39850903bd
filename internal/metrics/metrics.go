// Package metrics exposes the booth's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "photobooth"

var (
	// captureTriggersTotal counts capture requests by outcome.
	captureTriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_triggers_total",
			Help:      "Total number of capture requests",
		},
		[]string{"source", "result"}, // source: http, button; result: started, busy, throttled, unavailable
	)

	// capturesTotal counts finished capture cycles.
	capturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Total number of finished capture cycles",
		},
		[]string{"template", "status"}, // status: published, failed, cancelled
	)

	// captureDuration is a histogram of full cycle duration, countdowns included.
	captureDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capture_duration_seconds",
			Help:      "Duration of capture cycles in seconds",
			Buckets:   []float64{.5, 1, 2, 3, 5, 8, 13, 20, 30, 60},
		},
		[]string{"template"},
	)

	// captureInProgress is 1 while a cycle runs.
	captureInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "capture_in_progress",
			Help:      "Whether a capture cycle is running",
		},
	)

	// artifactsTotal counts pipeline requests by branch.
	artifactsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_total",
			Help:      "Total number of artifact pipeline requests",
		},
		[]string{"kind", "status"}, // kind: print, pdf; status: success, invalid, error
	)

	// artifactDuration is a histogram of print dispatch and PDF generation time.
	artifactDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "artifact_duration_seconds",
			Help:      "Duration of print dispatch and PDF generation in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	// artifactBytes is a histogram of persisted image sizes.
	artifactBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of persisted artifact images in bytes",
			Buckets:   prometheus.ExponentialBuckets(64*1024, 2, 10), // 64KiB .. 32MiB
		},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		captureTriggersTotal,
		capturesTotal,
		captureDuration,
		captureInProgress,
		artifactsTotal,
		artifactDuration,
		artifactBytes,
	}
)

// RecordTrigger records a capture request and what became of it.
func RecordTrigger(source, result string) {
	captureTriggersTotal.WithLabelValues(source, result).Inc()
}

// RecordCaptureStart marks a cycle as running.
func RecordCaptureStart() {
	captureInProgress.Set(1)
}

// RecordCaptureEnd records a finished cycle.
func RecordCaptureEnd(template, status string, durationSeconds float64) {
	captureInProgress.Set(0)
	capturesTotal.WithLabelValues(template, status).Inc()
	captureDuration.WithLabelValues(template).Observe(durationSeconds)
}

// RecordArtifact records one pipeline request.
func RecordArtifact(kind, status string, durationSeconds float64) {
	artifactsTotal.WithLabelValues(kind, status).Inc()
	if durationSeconds > 0 {
		artifactDuration.WithLabelValues(kind).Observe(durationSeconds)
	}
}

// RecordArtifactBytes records the size of a persisted image.
func RecordArtifactBytes(n int) {
	artifactBytes.Observe(float64(n))
}
