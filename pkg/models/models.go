// Package models holds the types shared by the job service and the HTTP API.
package models

import (
	"time"
)

// Dataset represents an uploaded graph
type Dataset struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Format         GraphFormat     `json:"format"`
	Status         DatasetStatus   `json:"status"`
	Metadata       DatasetMetadata `json:"metadata"`
	HasGroundTruth bool            `json:"hasGroundTruth"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type GraphFormat string

const (
	FormatEdgeList GraphFormat = "edgelist"
	FormatGraphML  GraphFormat = "graphml"
)

type DatasetStatus string

const (
	DatasetStatusReady   DatasetStatus = "ready"
	DatasetStatusDeleted DatasetStatus = "deleted"
)

type DatasetMetadata struct {
	NodeCount   int     `json:"nodeCount"`
	EdgeCount   int     `json:"edgeCount"`
	TotalWeight float64 `json:"totalWeight"`
	Directed    bool    `json:"directed"`
}

// Job represents an ensemble clustering job
type Job struct {
	ID          string        `json:"id"`
	DatasetID   string        `json:"datasetId"`
	Parameters  JobParameters `json:"parameters"`
	Status      JobStatus     `json:"status"`
	Progress    JobProgress   `json:"progress"`
	Result      *JobResult    `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// JobParameters selects the ensemble composition. Strategy names are checked
// against the clusterer registry when the job is submitted.
type JobParameters struct {
	BaseClusterers []string `json:"baseClusterers" validate:"required,min=1,max=64,dive,required"`
	FinalClusterer string   `json:"finalClusterer" validate:"required"`
	QualityMeasure string   `json:"qualityMeasure,omitempty" validate:"omitempty,oneof=modularity coverage"`

	Seed          *int64   `json:"seed,omitempty"`
	MaxIterations *int     `json:"maxIterations,omitempty" validate:"omitempty,min=1"`
	MaxLevels     *int     `json:"maxLevels,omitempty" validate:"omitempty,min=1"`
	Resolution    *float64 `json:"resolution,omitempty" validate:"omitempty,gt=0"`

	// Dissimilarity measures evaluated against the dataset's ground truth.
	Dissimilarities []string `json:"dissimilarities,omitempty" validate:"omitempty,dive,oneof=jaccard rand nmi"`
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Finished reports whether the status is terminal.
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

type JobProgress struct {
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

type JobResult struct {
	NumClusters      int                `json:"numClusters"`
	OverlayClusters  int                `json:"overlayClusters"`
	CoarseNodes      int                `json:"coarseNodes"`
	CoarseEdges      int                `json:"coarseEdges"`
	Quality          *float64           `json:"quality,omitempty"`
	BaseQualities    []float64          `json:"baseQualities,omitempty"`
	Dissimilarity    map[string]float64 `json:"dissimilarity,omitempty"`
	ProcessingTimeMS int64              `json:"processingTimeMS"`
	StageTimesMS     map[string]int64   `json:"stageTimesMS"`
}

// API Response types
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type UploadResponse struct {
	DatasetID string  `json:"datasetId"`
	Dataset   Dataset `json:"dataset"`
}

type SubmitResponse struct {
	JobID string `json:"jobId"`
	Job   Job    `json:"job"`
}

// Assignment is one node of a job's output partition.
type Assignment struct {
	Node    string `json:"node"`
	Cluster int    `json:"cluster"`
}

type PartitionResponse struct {
	JobID       string       `json:"jobId"`
	NumClusters int          `json:"numClusters"`
	Assignments []Assignment `json:"assignments"`
}
