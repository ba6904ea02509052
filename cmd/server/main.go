// Command server serves ensemble clustering jobs over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/ensemble-clustering/pkg/api"
	"github.com/gilchrisn/ensemble-clustering/pkg/clusterer"
	"github.com/gilchrisn/ensemble-clustering/pkg/metrics"
	"github.com/gilchrisn/ensemble-clustering/pkg/service"
)

func main() {
	cfg := LoadConfig()

	zerolog.TimeFieldFormat = time.RFC3339
	if level, err := zerolog.ParseLevel(cfg.Server.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().
		Str("address", cfg.Server.Address).
		Int("max_workers", cfg.Jobs.MaxWorkers).
		Dur("job_timeout", cfg.Jobs.JobTimeout).
		Msg("Starting ensemble clustering server")

	registry := clusterer.NewRegistry()
	m := metrics.NewRegistry()
	datasetService := service.NewDatasetService()
	jobService := service.NewJobService(datasetService, registry, m, service.Options{
		MaxConcurrentJobs: cfg.Jobs.MaxWorkers,
		JobTimeout:        cfg.Jobs.JobTimeout,
		JobTTL:            cfg.Jobs.ResultTTL,
		CleanupInterval:   cfg.Jobs.CleanupInterval,
	})
	defer jobService.Close()

	handlers := api.NewHandlers(datasetService, jobService, registry)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(handlers, m, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server shutdown complete")
}
