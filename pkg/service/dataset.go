// Package service runs ensemble clustering jobs over uploaded graphs.
package service

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/ensemble-clustering/pkg/graphio"
	"github.com/gilchrisn/ensemble-clustering/pkg/models"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// ErrNotFound is wrapped by errors for unknown datasets and jobs.
var ErrNotFound = errors.New("not found")

type datasetEntry struct {
	dataset *models.Dataset
	parsed  *graphio.ParseResult
	truth   *partition.Partition
}

// DatasetService stores parsed graphs in memory
type DatasetService struct {
	datasets map[string]*datasetEntry
	mutex    sync.RWMutex
}

// NewDatasetService creates a new dataset service
func NewDatasetService() *DatasetService {
	return &DatasetService{
		datasets: make(map[string]*datasetEntry),
	}
}

// Upload parses a graph from r and stores it under a fresh id. Edge lists
// are read as undirected graphs.
func (s *DatasetService) Upload(name string, format models.GraphFormat, r io.Reader) (*models.Dataset, error) {
	var (
		parsed *graphio.ParseResult
		err    error
	)
	switch format {
	case models.FormatEdgeList, "":
		format = models.FormatEdgeList
		parsed, err = graphio.ReadEdgeList(r, false)
	case models.FormatGraphML:
		parsed, err = graphio.ReadGraphML(r)
	default:
		return nil, fmt.Errorf("unsupported graph format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}

	g := parsed.Graph
	now := time.Now()
	dataset := &models.Dataset{
		ID:     uuid.New().String(),
		Name:   name,
		Format: format,
		Status: models.DatasetStatusReady,
		Metadata: models.DatasetMetadata{
			NodeCount:   g.NumberOfNodes(),
			EdgeCount:   g.NumberOfEdges(),
			TotalWeight: g.TotalEdgeWeight(),
			Directed:    g.IsDirected(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mutex.Lock()
	s.datasets[dataset.ID] = &datasetEntry{dataset: dataset, parsed: parsed}
	s.mutex.Unlock()
	result := *dataset

	log.Info().
		Str("dataset_id", dataset.ID).
		Str("name", name).
		Int("nodes", dataset.Metadata.NodeCount).
		Int("edges", dataset.Metadata.EdgeCount).
		Msg("Dataset uploaded")

	return &result, nil
}

// SetGroundTruth attaches a reference partition read from r, one cluster id
// per node id. It must be proper for the dataset's graph.
func (s *DatasetService) SetGroundTruth(datasetID string, r io.Reader) error {
	truth, err := graphio.ReadPartition(r)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, err := s.entry(datasetID)
	if err != nil {
		return err
	}
	if err := truth.Validate(entry.parsed.Graph); err != nil {
		return fmt.Errorf("ground truth: %w", err)
	}
	entry.truth = truth
	entry.dataset.HasGroundTruth = true
	entry.dataset.UpdatedAt = time.Now()
	return nil
}

// Get retrieves a dataset by ID
func (s *DatasetService) Get(datasetID string) (*models.Dataset, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, err := s.entry(datasetID)
	if err != nil {
		return nil, err
	}
	dataset := *entry.dataset
	return &dataset, nil
}

// Graph returns the parsed graph of a dataset and its ground truth, which
// may be nil. Callers must not modify either.
func (s *DatasetService) Graph(datasetID string) (*graphio.ParseResult, *partition.Partition, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, err := s.entry(datasetID)
	if err != nil {
		return nil, nil, err
	}
	return entry.parsed, entry.truth, nil
}

// List returns all datasets ordered by creation time
func (s *DatasetService) List() []*models.Dataset {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	datasets := make([]*models.Dataset, 0, len(s.datasets))
	for _, entry := range s.datasets {
		dataset := *entry.dataset
		datasets = append(datasets, &dataset)
	}
	sort.Slice(datasets, func(i, j int) bool {
		return datasets[i].CreatedAt.Before(datasets[j].CreatedAt)
	})
	return datasets
}

// Delete removes a dataset
func (s *DatasetService) Delete(datasetID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, err := s.entry(datasetID)
	if err != nil {
		return err
	}
	entry.dataset.Status = models.DatasetStatusDeleted
	delete(s.datasets, datasetID)

	log.Info().Str("dataset_id", datasetID).Msg("Dataset deleted")
	return nil
}

// entry must be called with the mutex held.
func (s *DatasetService) entry(datasetID string) (*datasetEntry, error) {
	entry, exists := s.datasets[datasetID]
	if !exists {
		return nil, fmt.Errorf("dataset %s: %w", datasetID, ErrNotFound)
	}
	return entry, nil
}
