// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodforge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vodforge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Job metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodforge_jobs_total",
			Help: "Total number of transcoding jobs by outcome",
		},
		[]string{"result"},
	)

	JobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vodforge_jobs_in_flight",
			Help: "Number of transcoding jobs currently running",
		},
	)

	JobsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vodforge_jobs_rejected_total",
			Help: "Jobs rejected because the same id was already running",
		},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vodforge_step_duration_seconds",
			Help:    "Pipeline step duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"step"},
	)

	StepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodforge_step_failures_total",
			Help: "Pipeline step failures",
		},
		[]string{"step", "mandatory"},
	)
)

// Media metrics
var (
	TierEncodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vodforge_tier_encode_duration_seconds",
			Help:    "Time spent encoding one ladder tier",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"tier"},
	)

	SpriteFramesMasked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vodforge_sprite_frames_masked_total",
			Help: "Sprite frames replaced by a black placeholder",
		},
	)
)

// Transfer metrics
var (
	UploadedFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vodforge_uploaded_files_total",
			Help: "Files handed to the storage gateway",
		},
		[]string{"status"},
	)

	UploadedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vodforge_uploaded_bytes_total",
			Help: "Bytes handed to the storage gateway",
		},
	)

	DownloadedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vodforge_downloaded_bytes_total",
			Help: "Source bytes fetched from the storage gateway",
		},
	)
)

// NewTimer starts a timer that reports into o when ObserveDuration is called.
func NewTimer(o prometheus.Observer) *prometheus.Timer {
	return prometheus.NewTimer(o)
}
