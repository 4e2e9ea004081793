package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "piv",
		Name:      "jobs_processed_total",
		Help:      "Total number of credential jobs processed, by outcome",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "piv",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline work by stage; the worker records each whole Process call under stage \"process\"",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	CompressionAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "piv",
		Name:      "compression_attempts",
		Help:      "Number of encode attempts spent by the TargetSize strategy per job",
		Buckets:   prometheus.LinearBuckets(1, 1, 10),
	})

	OutputBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "piv",
		Name:      "output_bytes",
		Help:      "Size in bytes of the encoded JPEG 2000 credential image",
		Buckets:   prometheus.ExponentialBuckets(2048, 2, 8),
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "piv",
		Name:      "queue_depth",
		Help:      "Number of pending credential jobs in queue",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "piv",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "piv",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
