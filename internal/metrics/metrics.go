package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vodhub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Uploads
	UploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vodhub_uploads_total",
			Help: "Total number of accepted video uploads",
		},
	)

	UploadRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodhub_uploads_rejected_total",
			Help: "Uploads rejected before entering the pipeline",
		},
		[]string{"reason"},
	)

	UploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vodhub_upload_size_bytes",
			Help:    "Size of uploaded videos in bytes",
			Buckets: prometheus.ExponentialBuckets(1024*1024, 2, 10), // 1MB to 512MB
		},
	)

	// Pipeline
	JobsQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vodhub_jobs_queue_depth",
			Help: "Number of transcode jobs waiting in the queue",
		},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vodhub_jobs_in_progress",
			Help: "Number of transcode jobs currently running",
		},
	)

	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodhub_jobs_completed_total",
			Help: "Terminal transcode job outcomes",
		},
		[]string{"status"},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vodhub_job_duration_seconds",
			Help:    "End-to-end transcode job duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		},
	)

	EncodeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodhub_encode_failures_total",
			Help: "Individual rendition encode failures (dropped rungs)",
		},
		[]string{"height"},
	)

	// Streaming
	BytesStreamedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vodhub_bytes_streamed_total",
			Help: "Total bytes served by the streaming endpoint",
		},
	)

	RangeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodhub_range_requests_total",
			Help: "Streaming requests by kind (full, partial, invalid)",
		},
		[]string{"kind"},
	)
)
