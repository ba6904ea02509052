package quality

import (
	"math"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// pairCounts holds pair-counting statistics over the live nodes of a graph.
type pairCounts struct {
	n           int
	s11         float64 // pairs together in both partitions
	s10         float64 // together in a only
	s01         float64 // together in b only
	contingency map[[2]int]int
	sizesA      map[int]int
	sizesB      map[int]int
}

func choose2(x int) float64 {
	return float64(x) * float64(x-1) / 2.0
}

// countPairs builds the contingency table of a and b in O(n).
func countPairs(g *graph.Graph, a, b *partition.Partition) pairCounts {
	pc := pairCounts{
		contingency: make(map[[2]int]int),
		sizesA:      make(map[int]int),
		sizesB:      make(map[int]int),
	}

	g.ForNodes(func(u int) {
		ca, cb := a.ClusterOf(u), b.ClusterOf(u)
		pc.contingency[[2]int{ca, cb}]++
		pc.sizesA[ca]++
		pc.sizesB[cb]++
		pc.n++
	})

	for _, nij := range pc.contingency {
		pc.s11 += choose2(nij)
	}
	sameA, sameB := 0.0, 0.0
	for _, s := range pc.sizesA {
		sameA += choose2(s)
	}
	for _, s := range pc.sizesB {
		sameB += choose2(s)
	}
	pc.s10 = sameA - pc.s11
	pc.s01 = sameB - pc.s11
	return pc
}

// JaccardMeasure is 1 - s11/(s11+s10+s01) over node pairs.
type JaccardMeasure struct{}

func (JaccardMeasure) Dissimilarity(g *graph.Graph, a, b *partition.Partition) float64 {
	pc := countPairs(g, a, b)
	denom := pc.s11 + pc.s10 + pc.s01
	if denom == 0 {
		// both partitions are all singletons
		return 0.0
	}
	return 1.0 - pc.s11/denom
}

// RandMeasure is 1 - (s11+s00)/C(n,2) over node pairs.
type RandMeasure struct{}

func (RandMeasure) Dissimilarity(g *graph.Graph, a, b *partition.Partition) float64 {
	pc := countPairs(g, a, b)
	pairs := choose2(pc.n)
	if pairs == 0 {
		return 0.0
	}
	s00 := pairs - pc.s11 - pc.s10 - pc.s01
	return 1.0 - (pc.s11+s00)/pairs
}

// NMIDistance is 1 - normalized mutual information, normalised by the mean
// entropy of the two partitions.
type NMIDistance struct{}

func (NMIDistance) Dissimilarity(g *graph.Graph, a, b *partition.Partition) float64 {
	pc := countPairs(g, a, b)
	if pc.n == 0 {
		return 0.0
	}

	n := float64(pc.n)
	mi := 0.0
	for key, nij := range pc.contingency {
		ni := float64(pc.sizesA[key[0]])
		nj := float64(pc.sizesB[key[1]])
		mi += float64(nij) / n * math.Log2(float64(nij)*n/(ni*nj))
	}

	avgEntropy := (entropy(pc.sizesA, n) + entropy(pc.sizesB, n)) / 2
	// Handle edge case where both clusterings have only one cluster
	if avgEntropy == 0 {
		return 0.0
	}

	nmi := mi / avgEntropy
	if nmi > 1 {
		nmi = 1
	}
	return 1.0 - nmi
}

func entropy(sizes map[int]int, n float64) float64 {
	h := 0.0
	for _, s := range sizes {
		p := float64(s) / n
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}
