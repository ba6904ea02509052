// Package coarsening contracts a graph along a partition: every cluster
// becomes one coarse node and edge weights between clusters are summed.
package coarsening

import (
	"fmt"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// Contraction is a coarse graph together with the maps between fine and
// coarse node ids.
type Contraction struct {
	Coarse       *graph.Graph
	FineToCoarse []int   // fine node -> coarse node, partition.None for holes
	CoarseToFine [][]int // coarse node -> fine nodes in ascending order
}

// Contract builds the coarse graph of g induced by p. Coarse node ids are
// assigned in order of first appearance while scanning fine node ids; coarse
// edges are created in order of first appearance while scanning fine edges.
// Intra-cluster edges become self-loops on the coarse node, so the total edge
// weight is conserved. Runs in O(n + m).
func Contract(g *graph.Graph, p *partition.Partition, workers int) (*Contraction, error) {
	if err := graph.RequireUndirected(g, "contract"); err != nil {
		return nil, err
	}
	if err := p.Validate(g); err != nil {
		return nil, err
	}

	relabel := make(map[int]int)
	g.ForNodes(func(u int) {
		c := p.ClusterOf(u)
		if _, ok := relabel[c]; !ok {
			relabel[c] = len(relabel)
		}
	})

	fineToCoarse := make([]int, g.UpperNodeIDBound())
	for i := range fineToCoarse {
		fineToCoarse[i] = partition.None
	}
	g.ParallelForNodes(workers, func(u int) {
		fineToCoarse[u] = relabel[p.ClusterOf(u)]
	})

	numCoarse := len(relabel)
	coarseToFine := make([][]int, numCoarse)
	g.ForNodes(func(u int) {
		c := fineToCoarse[u]
		coarseToFine[c] = append(coarseToFine[c], u)
	})

	// Calculate super-edge weights, keeping first-seen order
	edgeIndex := make(map[[2]int]int)
	var keys [][2]int
	var weights []float64
	g.ForEdges(func(u, v int, w float64) {
		cu, cv := fineToCoarse[u], fineToCoarse[v]
		if cu > cv {
			cu, cv = cv, cu
		}
		key := [2]int{cu, cv}
		i, ok := edgeIndex[key]
		if !ok {
			i = len(keys)
			edgeIndex[key] = i
			keys = append(keys, key)
			weights = append(weights, 0)
		}
		weights[i] += w
	})

	coarse := graph.New(numCoarse, false)
	for i, key := range keys {
		if err := coarse.AddEdge(key[0], key[1], weights[i]); err != nil {
			return nil, fmt.Errorf("failed to add coarse edge %d-%d: %w", key[0], key[1], err)
		}
	}

	return &Contraction{
		Coarse:       coarse,
		FineToCoarse: fineToCoarse,
		CoarseToFine: coarseToFine,
	}, nil
}

// Project lifts a partition of the coarse graph onto the fine node set:
// every fine node receives the cluster of the coarse node representing it.
func (c *Contraction) Project(coarse *partition.Partition) (*partition.Partition, error) {
	if err := coarse.Validate(c.Coarse); err != nil {
		return nil, fmt.Errorf("coarse partition: %w", err)
	}

	fine := partition.New(len(c.FineToCoarse))
	for u, cu := range c.FineToCoarse {
		if cu != partition.None {
			fine.Set(u, coarse.ClusterOf(cu))
		}
	}
	fine.SetUpperBound(coarse.UpperBound())
	return fine, nil
}
