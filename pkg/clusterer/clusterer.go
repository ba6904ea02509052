// Package clusterer defines the Clusterer capability and the community
// detection heuristics used as base and final clusterers of an ensemble.
package clusterer

import (
	"context"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// Clusterer produces a partition of g. Implementations must be re-entrant:
// the same value may be run concurrently on different (or the same,
// read-only) graphs and must not carry state from one call to the next.
type Clusterer interface {
	Run(ctx context.Context, g *graph.Graph) (*partition.Partition, error)
}

// Func adapts a function to the Clusterer interface.
type Func func(ctx context.Context, g *graph.Graph) (*partition.Partition, error)

func (f Func) Run(ctx context.Context, g *graph.Graph) (*partition.Partition, error) {
	return f(ctx, g)
}

// labelSet accumulates weights per label, remembering first-seen order so
// that ties are resolved independently of map iteration order.
type labelSet struct {
	weight map[int]float64
	order  []int
}

func newLabelSet() *labelSet {
	return &labelSet{weight: make(map[int]float64)}
}

func (s *labelSet) add(label int, w float64) {
	if _, ok := s.weight[label]; !ok {
		s.order = append(s.order, label)
	}
	s.weight[label] += w
}

func (s *labelSet) reset() {
	for _, l := range s.order {
		delete(s.weight, l)
	}
	s.order = s.order[:0]
}
