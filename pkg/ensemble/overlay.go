package ensemble

import (
	"fmt"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// Overlay returns the finest partition that agrees with every base
// partition: two nodes share an overlay cluster iff they share a cluster in
// each of bases. Overlay ids are dense and assigned in order of first
// appearance while scanning live nodes in ascending id order.
func Overlay(g *graph.Graph, bases []*partition.Partition) (*partition.Partition, error) {
	if len(bases) == 0 {
		return nil, &EmptyEnsembleError{}
	}
	for i, p := range bases {
		if err := p.Validate(g); err != nil {
			return nil, fmt.Errorf("base partition %d: %w", i, err)
		}
	}

	// Composite keys are folded one partition at a time: the pair
	// (overlay so far, next base) identifies the same classes as the full
	// tuple of cluster ids.
	overlay := partition.AllToOne(g)
	for _, next := range bases {
		ids := make(map[[2]int]int)
		combined := partition.New(g.UpperNodeIDBound())
		g.ForNodes(func(u int) {
			key := [2]int{overlay.ClusterOf(u), next.ClusterOf(u)}
			id, ok := ids[key]
			if !ok {
				id = len(ids)
				ids[key] = id
			}
			combined.Set(u, id)
		})
		combined.SetUpperBound(len(ids))
		overlay = combined
	}

	return overlay, nil
}
