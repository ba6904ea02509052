package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/ensemble-clustering/pkg/clusterer"
	"github.com/gilchrisn/ensemble-clustering/pkg/ensemble"
	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/metrics"
	"github.com/gilchrisn/ensemble-clustering/pkg/models"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
	"github.com/gilchrisn/ensemble-clustering/pkg/quality"
)

var validate = validator.New()

// ErrInvalidParameters is wrapped by Submit errors caused by the request.
var ErrInvalidParameters = errors.New("invalid parameters")

// Options configures a JobService.
type Options struct {
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	JobTTL            time.Duration
	CleanupInterval   time.Duration
}

// DefaultOptions returns the default job service options.
func DefaultOptions() Options {
	return Options{
		MaxConcurrentJobs: 4,
		JobTimeout:        10 * time.Minute,
		JobTTL:            time.Hour,
		CleanupInterval:   5 * time.Minute,
	}
}

// JobOutput is the partition computed by a completed job, with the original
// node labels of the dataset.
type JobOutput struct {
	Partition *partition.Partition
	Labels    []string
}

// JobService handles background job processing
type JobService struct {
	jobs           map[string]*models.Job
	outputs        map[string]*JobOutput
	cancels        map[string]context.CancelFunc
	workers        chan struct{}
	registry       *clusterer.Registry
	datasetService *DatasetService
	metrics        *metrics.Registry
	opts           Options
	mutex          sync.RWMutex
	done           chan struct{}
	closeOnce      sync.Once
}

// NewJobService creates a new job service. m may be nil.
func NewJobService(datasetService *DatasetService, registry *clusterer.Registry, m *metrics.Registry, opts Options) *JobService {
	defaults := DefaultOptions()
	if opts.MaxConcurrentJobs <= 0 {
		opts.MaxConcurrentJobs = defaults.MaxConcurrentJobs
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = defaults.JobTimeout
	}
	if opts.JobTTL <= 0 {
		opts.JobTTL = defaults.JobTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaults.CleanupInterval
	}

	service := &JobService{
		jobs:           make(map[string]*models.Job),
		outputs:        make(map[string]*JobOutput),
		cancels:        make(map[string]context.CancelFunc),
		workers:        make(chan struct{}, opts.MaxConcurrentJobs),
		registry:       registry,
		datasetService: datasetService,
		metrics:        m,
		opts:           opts,
		done:           make(chan struct{}),
	}

	// Start cleanup goroutine
	go service.cleanupLoop()

	return service
}

// Close stops the cleanup loop and cancels all unfinished jobs.
func (s *JobService) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mutex.Lock()
		defer s.mutex.Unlock()
		for _, cancel := range s.cancels {
			cancel()
		}
	})
}

// ValidateParameters checks request parameters and strategy names.
func (s *JobService) ValidateParameters(params models.JobParameters) error {
	if err := validate.Struct(params); err != nil {
		return err
	}
	for _, name := range append(append([]string(nil), params.BaseClusterers...), params.FinalClusterer) {
		if !s.registry.Has(name) {
			return fmt.Errorf("unknown clustering strategy: %s", name)
		}
	}
	return nil
}

// Submit creates and queues a new ensemble job
func (s *JobService) Submit(datasetID string, params models.JobParameters) (*models.Job, error) {
	if err := s.ValidateParameters(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	dataset, err := s.datasetService.Get(datasetID)
	if err != nil {
		return nil, err
	}
	if len(params.Dissimilarities) > 0 && !dataset.HasGroundTruth {
		return nil, fmt.Errorf("%w: dataset %s has no ground truth", ErrInvalidParameters, datasetID)
	}

	now := time.Now()
	job := &models.Job{
		ID:         uuid.New().String(),
		DatasetID:  datasetID,
		Parameters: params,
		Status:     models.JobStatusQueued,
		Progress: models.JobProgress{
			Percentage: 0,
			Message:    "Queued",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)

	s.mutex.Lock()
	s.jobs[job.ID] = job
	s.cancels[job.ID] = cancel
	snapshot := *job
	s.mutex.Unlock()

	log.Info().
		Str("job_id", job.ID).
		Str("dataset_id", datasetID).
		Strs("base_clusterers", params.BaseClusterers).
		Str("final_clusterer", params.FinalClusterer).
		Msg("Job submitted")

	// Start processing in background
	go s.processJob(ctx, job.ID)

	return &snapshot, nil
}

// Get retrieves a job by ID
func (s *JobService) Get(jobID string) (*models.Job, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	snapshot := *job
	return &snapshot, nil
}

// Output retrieves the partition of a completed job
func (s *JobService) Output(jobID string) (*JobOutput, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	output, exists := s.outputs[jobID]
	if !exists {
		return nil, fmt.Errorf("output of job %s: %w", jobID, ErrNotFound)
	}
	return output, nil
}

// List returns all jobs for a dataset, oldest first
func (s *JobService) List(datasetID string) []*models.Job {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var jobs []*models.Job
	for _, job := range s.jobs {
		if job.DatasetID == datasetID {
			snapshot := *job
			jobs = append(jobs, &snapshot)
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs
}

// Cancel cancels a queued or running job. Finished jobs are left unchanged.
func (s *JobService) Cancel(jobID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if job.Status.Finished() {
		return nil
	}

	if cancel, ok := s.cancels[jobID]; ok {
		cancel()
	}
	s.finish(job, models.JobStatusCancelled, "Cancelled")

	log.Info().
		Str("job_id", jobID).
		Msg("Job cancelled")

	return nil
}

// processJob processes a job in the background
func (s *JobService) processJob(ctx context.Context, jobID string) {
	defer s.release(jobID)

	// Acquire worker slot
	select {
	case s.workers <- struct{}{}:
		defer func() { <-s.workers }()
	case <-ctx.Done():
		s.failJob(jobID, ctx.Err())
		return
	}

	s.mutex.Lock()
	job, exists := s.jobs[jobID]
	if !exists || job.Status.Finished() {
		s.mutex.Unlock()
		return
	}
	startTime := time.Now()
	job.Status = models.JobStatusRunning
	job.Progress = models.JobProgress{Percentage: 0, Message: "Starting..."}
	job.StartedAt = &startTime
	job.UpdatedAt = startTime
	params := job.Parameters
	datasetID := job.DatasetID
	s.mutex.Unlock()

	if s.metrics != nil {
		s.metrics.JobsRunning.Inc()
		defer s.metrics.JobsRunning.Dec()
	}

	log.Info().
		Str("job_id", jobID).
		Str("dataset_id", datasetID).
		Msg("Job processing started")

	parsed, truth, err := s.datasetService.Graph(datasetID)
	if err != nil {
		s.failJob(jobID, fmt.Errorf("failed to get dataset: %w", err))
		return
	}

	e, err := s.buildEnsemble(jobID, params)
	if err != nil {
		s.failJob(jobID, err)
		return
	}
	e.Progress = func(stage string, percentage int) {
		s.updateJobProgress(jobID, percentage, "Finished "+stage)
	}

	result, err := e.RunDetailed(ctx, parsed.Graph)
	if err != nil {
		s.failJob(jobID, fmt.Errorf("ensemble execution failed: %w", err))
		return
	}

	summary, err := summarize(parsed.Graph, result, truth, params, time.Since(startTime))
	if err != nil {
		s.failJob(jobID, err)
		return
	}
	s.completeJob(jobID, summary, &JobOutput{
		Partition: result.Partition,
		Labels:    parsed.Labels,
	})
}

// buildEnsemble turns job parameters into a configured ensemble.
func (s *JobService) buildEnsemble(jobID string, params models.JobParameters) (*ensemble.Ensemble, error) {
	cfg := ensemble.NewConfig()
	cfg.Set("ensemble.base_clusterers", params.BaseClusterers)
	cfg.Set("ensemble.final_clusterer", params.FinalClusterer)
	cfg.Set("ensemble.quality_measure", params.QualityMeasure)
	if params.Seed != nil {
		cfg.Set("algorithm.random_seed", *params.Seed)
	}
	if params.MaxIterations != nil {
		cfg.Set("labelprop.max_iterations", *params.MaxIterations)
		cfg.Set("louvain.max_iterations", *params.MaxIterations)
	}
	if params.MaxLevels != nil {
		cfg.Set("louvain.max_levels", *params.MaxLevels)
	}
	if params.Resolution != nil {
		cfg.Set("louvain.resolution", *params.Resolution)
	}

	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	logger := log.Logger.With().Str("job_id", jobID).Logger()
	return settings.Build(s.registry, logger, s.metrics)
}

// summarize builds the job result reported to clients.
func summarize(g *graph.Graph, result *ensemble.RunResult, truth *partition.Partition, params models.JobParameters, elapsed time.Duration) (*models.JobResult, error) {
	summary := &models.JobResult{
		NumClusters:      result.Partition.NumberOfClusters(),
		OverlayClusters:  result.Overlay.NumberOfClusters(),
		CoarseNodes:      result.CoarseNodes,
		CoarseEdges:      result.CoarseEdges,
		ProcessingTimeMS: elapsed.Milliseconds(),
		StageTimesMS:     make(map[string]int64, len(result.Durations)),
	}
	for stage, d := range result.Durations {
		summary.StageTimesMS[stage] = d.Milliseconds()
	}
	if params.QualityMeasure != "" {
		q := result.Quality
		summary.Quality = &q
		summary.BaseQualities = result.BaseQualities
	}

	if truth != nil && len(params.Dissimilarities) > 0 {
		summary.Dissimilarity = make(map[string]float64, len(params.Dissimilarities))
		for _, name := range params.Dissimilarities {
			m, err := quality.DissimilarityByName(name)
			if err != nil {
				return nil, err
			}
			summary.Dissimilarity[name] = m.Dissimilarity(g, result.Partition, truth)
		}
	}
	return summary, nil
}

func (s *JobService) updateJobProgress(jobID string, percentage int, message string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists || job.Status != models.JobStatusRunning {
		return
	}
	job.Progress.Percentage = percentage
	job.Progress.Message = message
	job.UpdatedAt = time.Now()

	log.Debug().
		Str("job_id", jobID).
		Int("percentage", percentage).
		Str("message", message).
		Msg("Job progress updated")
}

// completeJob marks a job as completed with results
func (s *JobService) completeJob(jobID string, result *models.JobResult, output *JobOutput) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists || job.Status.Finished() {
		return
	}

	job.Result = result
	s.outputs[jobID] = output
	s.finish(job, models.JobStatusCompleted, "Complete")
	job.Progress.Percentage = 100

	log.Info().
		Str("job_id", jobID).
		Int("clusters", result.NumClusters).
		Int64("processing_time_ms", result.ProcessingTimeMS).
		Msg("Job completed successfully")
}

// failJob marks a job as failed unless it already finished, e.g. by Cancel.
func (s *JobService) failJob(jobID string, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists || job.Status.Finished() {
		return
	}

	status, message := models.JobStatusFailed, "Failed"
	if errors.Is(err, context.Canceled) {
		status, message = models.JobStatusCancelled, "Cancelled"
	}
	job.Error = err.Error()
	s.finish(job, status, message)

	log.Error().
		Str("job_id", jobID).
		Err(err).
		Msg("Job failed")
}

// finish must be called with the mutex held.
func (s *JobService) finish(job *models.Job, status models.JobStatus, message string) {
	now := time.Now()
	job.Status = status
	job.Progress.Message = message
	job.CompletedAt = &now
	job.UpdatedAt = now
	if s.metrics != nil {
		s.metrics.RecordJob(string(status))
	}
}

// release drops the cancel function of a finished job.
func (s *JobService) release(jobID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if cancel, ok := s.cancels[jobID]; ok {
		cancel()
		delete(s.cancels, jobID)
	}
}

// cleanupLoop periodically cleans up old jobs and results
func (s *JobService) cleanupLoop() {
	ticker := time.NewTicker(s.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(time.Now())
		case <-s.done:
			return
		}
	}
}

// cleanup removes finished jobs last updated before now minus the TTL.
func (s *JobService) cleanup(now time.Time) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := now.Add(-s.opts.JobTTL)
	cleaned := 0

	for jobID, job := range s.jobs {
		if job.Status.Finished() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, jobID)
			delete(s.outputs, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Info().
			Int("cleaned_jobs", cleaned).
			Msg("Job cleanup completed")
	}
	return cleaned
}
