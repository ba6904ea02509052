// Package api exposes the dataset and job services over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/ensemble-clustering/pkg/clusterer"
	"github.com/gilchrisn/ensemble-clustering/pkg/models"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
	"github.com/gilchrisn/ensemble-clustering/pkg/service"
)

// maxUploadSize bounds request bodies carrying graphs or partitions.
const maxUploadSize = 100 << 20

// Handlers contains HTTP request handlers
type Handlers struct {
	datasetService *service.DatasetService
	jobService     *service.JobService
	registry       *clusterer.Registry
}

// NewHandlers creates new API handlers
func NewHandlers(datasetService *service.DatasetService, jobService *service.JobService, registry *clusterer.Registry) *Handlers {
	return &Handlers{
		datasetService: datasetService,
		jobService:     jobService,
		registry:       registry,
	}
}

// uploadBody returns the graph payload of r: the "file" part of a
// multipart form, or the raw body otherwise.
func uploadBody(r *http.Request) (io.ReadCloser, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, fmt.Errorf("invalid multipart form: %w", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file: %w", err)
		}
		return file, nil
	}
	return r.Body, nil
}

// UploadDataset handles dataset upload
func (h *Handlers) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	body, err := uploadBody(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	defer body.Close()

	name := r.FormValue("name")
	if name == "" {
		name = "Unnamed Dataset"
	}
	format := models.GraphFormat(r.FormValue("format"))

	dataset, err := h.datasetService.Upload(name, format, body)
	if err != nil {
		log.Error().Err(err).Msg("Dataset upload failed")
		WriteErrorResponse(w, http.StatusBadRequest, "Dataset upload failed", err)
		return
	}

	WriteSuccessResponse(w, "Dataset uploaded successfully", models.UploadResponse{
		DatasetID: dataset.ID,
		Dataset:   *dataset,
	})
}

// ListDatasets lists all datasets
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Datasets retrieved successfully", h.datasetService.List())
}

// GetDataset retrieves a specific dataset
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.datasetService.Get(mux.Vars(r)["datasetId"])
	if err != nil {
		writeServiceError(w, "Dataset not found", err)
		return
	}
	WriteSuccessResponse(w, "Dataset retrieved successfully", dataset)
}

// DeleteDataset deletes a dataset
func (h *Handlers) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.datasetService.Delete(mux.Vars(r)["datasetId"]); err != nil {
		writeServiceError(w, "Failed to delete dataset", err)
		return
	}
	WriteSuccessResponse(w, "Dataset deleted successfully", nil)
}

// SetGroundTruth attaches a reference partition to a dataset
func (h *Handlers) SetGroundTruth(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	datasetID := mux.Vars(r)["datasetId"]

	if err := h.datasetService.SetGroundTruth(datasetID, r.Body); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeServiceError(w, "Dataset not found", err)
			return
		}
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid ground truth", err)
		return
	}
	WriteSuccessResponse(w, "Ground truth attached", nil)
}

// SubmitJob starts an ensemble run on a dataset
func (h *Handlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	var params models.JobParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.jobService.ValidateParameters(params); err != nil {
		writeServiceError(w, "Invalid job parameters", fmt.Errorf("%w: %w", service.ErrInvalidParameters, err))
		return
	}

	job, err := h.jobService.Submit(datasetID, params)
	if err != nil {
		writeServiceError(w, "Failed to submit job", err)
		return
	}

	WriteAcceptedResponse(w, "Job submitted", models.SubmitResponse{
		JobID: job.ID,
		Job:   *job,
	})
}

// ListJobs lists the jobs of a dataset
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]
	if _, err := h.datasetService.Get(datasetID); err != nil {
		writeServiceError(w, "Dataset not found", err)
		return
	}
	WriteSuccessResponse(w, "Jobs retrieved successfully", h.jobService.List(datasetID))
}

// GetJob retrieves job status
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobService.Get(mux.Vars(r)["jobId"])
	if err != nil {
		writeServiceError(w, "Job not found", err)
		return
	}
	WriteSuccessResponse(w, "Job retrieved successfully", job)
}

// CancelJob cancels a running job
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	if err := h.jobService.Cancel(mux.Vars(r)["jobId"]); err != nil {
		writeServiceError(w, "Failed to cancel job", err)
		return
	}
	WriteSuccessResponse(w, "Job cancelled successfully", nil)
}

// GetPartition returns the node assignment of a completed job. Nodes
// removed from the graph are omitted.
func (h *Handlers) GetPartition(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	output, err := h.jobService.Output(jobID)
	if err != nil {
		writeServiceError(w, "Partition not available", err)
		return
	}

	p := output.Partition
	assignments := make([]models.Assignment, 0, len(output.Labels))
	for u, label := range output.Labels {
		if c := p.ClusterOf(u); c != partition.None {
			assignments = append(assignments, models.Assignment{Node: label, Cluster: c})
		}
	}

	WriteSuccessResponse(w, "Partition retrieved successfully", models.PartitionResponse{
		JobID:       jobID,
		NumClusters: p.NumberOfClusters(),
		Assignments: assignments,
	})
}

// HealthCheck returns service health status
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Service is healthy", map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// ListStrategies returns the registered clustering strategies
func (h *Handlers) ListStrategies(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Strategies retrieved successfully", map[string]interface{}{
		"clusterers":      h.registry.List(),
		"qualityMeasures": []string{"modularity", "coverage"},
		"dissimilarities": []string{"jaccard", "rand", "nmi"},
	})
}
