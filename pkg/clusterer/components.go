package clusterer

import (
	"context"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// ConnectedComponents assigns one cluster per connected component. Edge
// directions are ignored.
type ConnectedComponents struct{}

func (ConnectedComponents) Run(ctx context.Context, g *graph.Graph) (*partition.Partition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := partition.New(g.UpperNodeIDBound())
	for c, component := range topo.ConnectedComponents(g.ToGonum()) {
		for _, n := range component {
			p.Set(int(n.ID()), c)
		}
	}
	// gonum returns components in map order
	p.Compact()
	return p, nil
}
