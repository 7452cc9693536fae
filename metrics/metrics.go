// Package metrics exports pipeline instrumentation to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "livecam"

var (
	FramesPresented = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_presented_total",
		Help:      "Frames decoded and pushed to the display.",
	})

	// FramesSkipped is labelled by reason: profile, acquire, decode or display.
	FramesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_skipped_total",
		Help:      "Loop iterations that did not update the display.",
	}, []string{"reason"})

	TilesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tiles_dropped_total",
		Help:      "Decoded tiles dropped by the frame buffer overflow guard.",
	})

	FPS = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fps",
		Help:      "Most recent live view frame rate sample.",
	})

	// Captures is labelled by outcome.
	Captures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captures_total",
		Help:      "Still capture attempts.",
	}, []string{"outcome"})

	CaptureSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "capture_seconds",
		Help:      "Live view interruption caused by a still capture.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
