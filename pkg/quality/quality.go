// Package quality provides scalar scores for partitions: quality measures
// that rate a partition of one graph, and dissimilarity measures that compare
// two partitions of the same graph.
package quality

import (
	"fmt"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// Measure scores a partition of g. Implementations must be deterministic for
// a fixed (partition, graph) pair.
type Measure interface {
	Quality(p *partition.Partition, g *graph.Graph) float64
}

// DissimilarityMeasure compares two partitions of the same graph.
// Implementations must be symmetric in a and b.
type DissimilarityMeasure interface {
	Dissimilarity(g *graph.Graph, a, b *partition.Partition) float64
}

// MeasureFunc adapts a function to the Measure interface.
type MeasureFunc func(p *partition.Partition, g *graph.Graph) float64

func (f MeasureFunc) Quality(p *partition.Partition, g *graph.Graph) float64 { return f(p, g) }

// MeasureByName returns the quality measure registered under name.
func MeasureByName(name string) (Measure, error) {
	switch name {
	case "modularity":
		return NewModularity(), nil
	case "coverage":
		return Coverage{}, nil
	}
	return nil, fmt.Errorf("unknown quality measure: %s", name)
}

// DissimilarityByName returns the dissimilarity measure registered under name.
func DissimilarityByName(name string) (DissimilarityMeasure, error) {
	switch name {
	case "jaccard":
		return JaccardMeasure{}, nil
	case "rand":
		return RandMeasure{}, nil
	case "nmi":
		return NMIDistance{}, nil
	}
	return nil, fmt.Errorf("unknown dissimilarity measure: %s", name)
}
