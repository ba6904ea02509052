package quality

import (
	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// Modularity computes Newman's modularity at resolution Gamma:
//
//	Q = sum_c [ I_c/m - Gamma * (D_c/2m)^2 ]
//
// where I_c is the edge weight inside cluster c (self-loops counted once),
// D_c the summed weighted degree of its members and m the total edge weight.
type Modularity struct {
	Gamma float64
}

// NewModularity returns the standard modularity (Gamma = 1).
func NewModularity() *Modularity {
	return &Modularity{Gamma: 1.0}
}

func (m *Modularity) Quality(p *partition.Partition, g *graph.Graph) float64 {
	total := g.TotalEdgeWeight()
	if total == 0 {
		return 0.0
	}

	internal := make(map[int]float64)
	degree := make(map[int]float64)

	g.ForNodes(func(u int) {
		degree[p.ClusterOf(u)] += g.Degree(u)
	})
	g.ForEdges(func(u, v int, w float64) {
		if c := p.ClusterOf(u); c == p.ClusterOf(v) {
			internal[c] += w
		}
	})

	m2 := 2.0 * total
	modularity := 0.0
	for c, d := range degree {
		modularity += internal[c]/total - m.Gamma*(d/m2)*(d/m2)
	}
	return modularity
}

// Coverage is the fraction of edge weight that lies inside clusters.
type Coverage struct{}

func (Coverage) Quality(p *partition.Partition, g *graph.Graph) float64 {
	total := g.TotalEdgeWeight()
	if total == 0 {
		return 0.0
	}
	internal := 0.0
	g.ForEdges(func(u, v int, w float64) {
		if p.InSameCluster(u, v) {
			internal += w
		}
	})
	return internal / total
}
