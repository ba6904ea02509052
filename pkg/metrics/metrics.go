// Package metrics exposes Prometheus instrumentation for ensemble runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metrics for the application
type Registry struct {
	// Ensemble Metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	StageDuration   *prometheus.HistogramVec
	OverlayClusters prometheus.Gauge
	CoarseEdges     prometheus.Gauge
	ResultClusters  prometheus.Gauge
	Quality         *prometheus.GaugeVec

	// Job Metrics
	JobsTotal   *prometheus.CounterVec
	JobsRunning prometheus.Gauge

	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initEnsembleMetrics()
	r.initJobMetrics()
	r.initHTTPMetrics()

	return r
}

func (r *Registry) initEnsembleMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ensemble_runs_total",
			Help: "Total number of ensemble runs",
		},
		[]string{"status"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ensemble_run_duration_seconds",
			Help:    "Ensemble run duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
	)

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ensemble_stage_duration_seconds",
			Help:    "Duration of each ensemble stage in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0, 10.0},
		},
		[]string{"stage"},
	)

	r.OverlayClusters = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ensemble_overlay_clusters",
			Help: "Number of clusters in the last overlay partition",
		},
	)

	r.CoarseEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ensemble_coarse_edges",
			Help: "Number of edges in the last contracted graph",
		},
	)

	r.ResultClusters = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ensemble_result_clusters",
			Help: "Number of clusters in the last ensemble result",
		},
	)

	r.Quality = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ensemble_quality",
			Help: "Quality score of the last partition produced in each role",
		},
		[]string{"role"},
	)
}

func (r *Registry) initJobMetrics() {
	r.JobsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ensemble_jobs_total",
			Help: "Total number of finished ensemble jobs",
		},
		[]string{"status"},
	)

	r.JobsRunning = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ensemble_jobs_running",
			Help: "Number of ensemble jobs currently running",
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ensemble_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ensemble_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordRun records a finished ensemble run.
func (r *Registry) RecordRun(status string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		r.RunDuration.Observe(duration.Seconds())
	}
}

// RecordStage records the duration of one ensemble stage.
func (r *Registry) RecordStage(stage string, duration time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordJob records a finished job.
func (r *Registry) RecordJob(status string) {
	r.JobsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}
