package centrality

import (
	"gonum.org/v1/gonum/graph/network"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
)

// PageRank computes PageRank scores indexed by node id using gonum. Edge
// weights and self-loops are ignored; undirected edges count in both
// directions. Removed nodes score 0.
func PageRank(g *graph.Graph, damping, tolerance float64) []float64 {
	scores := make([]float64, g.UpperNodeIDBound())
	if g.NumberOfNodes() == 0 {
		return scores
	}

	for id, score := range network.PageRank(g.ToGonumDirected(), damping, tolerance) {
		scores[id] = score
	}
	return scores
}
