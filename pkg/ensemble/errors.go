package ensemble

import (
	"errors"

	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// EmptyEnsembleError is returned when an ensemble is run without any base
// clusterer.
type EmptyEnsembleError struct{}

func (e *EmptyEnsembleError) Error() string {
	return "ensemble: no base clusterers configured"
}

// ErrNoFinalClusterer is returned when an ensemble is run without a final
// clusterer.
var ErrNoFinalClusterer = errors.New("ensemble: no final clusterer configured")

// errNoPartition reports a clusterer that returned neither a partition nor
// an error.
var errNoPartition = &partition.InvalidPartitionError{Node: partition.None, Reason: "clusterer returned no partition"}
