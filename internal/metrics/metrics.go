package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeGenerated = "generated"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeCached    = "cached"
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
)

// Metrics holds all Prometheus metrics for a resource generation run
type Metrics struct {
	// Run metrics
	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram

	// Task metrics
	Tasks *prometheus.CounterVec

	// Image service metrics
	Uploads           *prometheus.CounterVec
	TransformRequests *prometheus.CounterVec
	TransformLatency  *prometheus.HistogramVec

	// Fingerprint cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// config.xml metrics
	ConfigWrites *prometheus.CounterVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resgen_runs_total",
				Help: "Total number of generation runs",
			},
			[]string{"success"},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "resgen_run_duration_seconds",
				Help:    "Generation run duration in seconds",
				Buckets: []float64{0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 120.0, 300.0},
			},
		),

		Tasks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resgen_tasks_total",
				Help: "Total number of output images by outcome",
			},
			[]string{"platform", "category", "outcome"},
		),

		Uploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resgen_uploads_total",
				Help: "Total number of source uploads by outcome",
			},
			[]string{"outcome"},
		),
		TransformRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resgen_transform_requests_total",
				Help: "Total number of transform requests sent to the image service",
			},
			[]string{"platform", "success"},
		),
		TransformLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resgen_transform_latency_seconds",
				Help:    "Transform request latency in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"platform"},
		),

		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "resgen_cache_hits_total",
				Help: "Total number of fingerprint cache hits",
			},
		),
		CacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "resgen_cache_misses_total",
				Help: "Total number of fingerprint cache misses",
			},
		),

		ConfigWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resgen_config_writes_total",
				Help: "Total number of config.xml merges by whether the file was rewritten",
			},
			[]string{"changed"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resgen_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "stage"},
		),
	}
}

// RecordRun records a finished run
func (m *Metrics) RecordRun(success bool, duration time.Duration) {
	m.Runs.WithLabelValues(boolLabel(success)).Inc()
	m.RunDuration.Observe(duration.Seconds())
}

// RecordTask records the final outcome of one output image
func (m *Metrics) RecordTask(platform, category, outcome string) {
	m.Tasks.WithLabelValues(platform, category, outcome).Inc()
}

// RecordUpload records a source upload attempt or cache short-circuit
func (m *Metrics) RecordUpload(outcome string) {
	m.Uploads.WithLabelValues(outcome).Inc()
}

// RecordTransform records one transform request
func (m *Metrics) RecordTransform(platform string, success bool, duration time.Duration) {
	m.TransformRequests.WithLabelValues(platform, boolLabel(success)).Inc()
	m.TransformLatency.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordCacheLookup records a fingerprint cache lookup
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// RecordConfigWrite records a config.xml merge
func (m *Metrics) RecordConfigWrite(changed bool) {
	m.ConfigWrites.WithLabelValues(boolLabel(changed)).Inc()
}

// RecordError records a structured error
func (m *Metrics) RecordError(code, stage string) {
	m.Errors.WithLabelValues(code, stage).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
