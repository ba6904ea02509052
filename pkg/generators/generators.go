// Package generators creates random graphs and clusterings for experiments
// and tests. Generators are seeded explicitly and are not safe for
// concurrent use.
package generators

import (
	"fmt"
	"math/rand"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// GraphGenerator creates random undirected, unit-weight graphs.
type GraphGenerator struct {
	rng *rand.Rand
}

func NewGraphGenerator(seed int64) *GraphGenerator {
	return &GraphGenerator{rng: rand.New(rand.NewSource(seed))}
}

// RandomGraph returns an Erdős–Rényi graph G(n, p).
func (gg *GraphGenerator) RandomGraph(n int, p float64) *graph.Graph {
	g := graph.New(n, false)
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if gg.rng.Float64() < p {
				mustAddEdge(g, u, v)
			}
		}
	}
	return g
}

// ClusteredRandomGraph splits n nodes into k contiguous blocks of near-equal
// size and connects pairs inside a block with probability pin and pairs
// across blocks with probability pout. With pin = 1 and pout = 0 the result
// is k disjoint cliques.
func (gg *GraphGenerator) ClusteredRandomGraph(n, k int, pin, pout float64) *graph.Graph {
	return gg.PlantedPartitionGraph(EqualBlocks(n, k), pin, pout)
}

// PlantedPartitionGraph generates a graph on the node set of planted where
// nodes in the same cluster are adjacent with probability pin and nodes in
// different clusters with probability pout.
func (gg *GraphGenerator) PlantedPartitionGraph(planted *partition.Partition, pin, pout float64) *graph.Graph {
	n := planted.NumberOfNodes()
	g := graph.New(n, false)
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			p := pout
			if planted.InSameCluster(u, v) {
				p = pin
			}
			if gg.rng.Float64() < p {
				mustAddEdge(g, u, v)
			}
		}
	}
	return g
}

// mustAddEdge adds a unit edge between two nodes the generator created.
// Both endpoints are live and u != v, so AddEdge has nothing to reject.
func mustAddEdge(g *graph.Graph, u, v int) {
	if err := g.AddEdge(u, v, graph.DefaultEdgeWeight); err != nil {
		panic(fmt.Sprintf("generators: adding edge (%d, %d): %v", u, v, err))
	}
}

// EqualBlocks assigns n nodes to k contiguous clusters of near-equal size.
func EqualBlocks(n, k int) *partition.Partition {
	p := partition.New(n)
	for u := 0; u < n; u++ {
		p.Set(u, u*k/n)
	}
	p.SetUpperBound(k)
	return p
}

// ClusteringGenerator creates random partitions.
type ClusteringGenerator struct {
	rng *rand.Rand
}

func NewClusteringGenerator(seed int64) *ClusteringGenerator {
	return &ClusteringGenerator{rng: rand.New(rand.NewSource(seed))}
}

// RandomClustering assigns every live node of g to one of k clusters
// uniformly at random. Some of the k ids may stay unused.
func (cg *ClusteringGenerator) RandomClustering(g *graph.Graph, k int) *partition.Partition {
	p := partition.New(g.UpperNodeIDBound())
	g.ForNodes(func(u int) {
		p.Set(u, cg.rng.Intn(k))
	})
	p.SetUpperBound(k)
	return p
}

// SingletonClustering puts every node in its own cluster.
func (cg *ClusteringGenerator) SingletonClustering(g *graph.Graph) *partition.Partition {
	return partition.Singleton(g)
}

// OneClustering puts every node in the same cluster.
func (cg *ClusteringGenerator) OneClustering(g *graph.Graph) *partition.Partition {
	return partition.AllToOne(g)
}
