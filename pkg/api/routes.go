package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gilchrisn/ensemble-clustering/pkg/metrics"
)

// SetupRoutes registers the API under /api/v1 and the Prometheus endpoint
// at /metrics.
func SetupRoutes(router *mux.Router, handlers *Handlers, m *metrics.Registry) {
	api := router.PathPrefix("/api/v1").Subrouter()

	// Dataset management endpoints
	datasets := api.PathPrefix("/datasets").Subrouter()
	datasets.HandleFunc("", handlers.ListDatasets).Methods(http.MethodGet)
	datasets.HandleFunc("", handlers.UploadDataset).Methods(http.MethodPost)
	datasets.HandleFunc("/{datasetId}", handlers.GetDataset).Methods(http.MethodGet)
	datasets.HandleFunc("/{datasetId}", handlers.DeleteDataset).Methods(http.MethodDelete)
	datasets.HandleFunc("/{datasetId}/ground-truth", handlers.SetGroundTruth).Methods(http.MethodPut)
	datasets.HandleFunc("/{datasetId}/jobs", handlers.SubmitJob).Methods(http.MethodPost)
	datasets.HandleFunc("/{datasetId}/jobs", handlers.ListJobs).Methods(http.MethodGet)

	// Job management endpoints
	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("/{jobId}", handlers.GetJob).Methods(http.MethodGet)
	jobs.HandleFunc("/{jobId}/cancel", handlers.CancelJob).Methods(http.MethodPost)
	jobs.HandleFunc("/{jobId}/partition", handlers.GetPartition).Methods(http.MethodGet)

	api.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/strategies", handlers.ListStrategies).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.HandlerFor(m.GetPrometheusRegistry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// NewRouter builds the router with the middleware stack and CORS applied.
func NewRouter(handlers *Handlers, m *metrics.Registry, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, handlers, m)

	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(MetricsMiddleware(m))

	return NewCORS(allowedOrigins).Handler(router)
}
