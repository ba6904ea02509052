package graph

import (
	"math"

	"gonum.org/v1/gonum/graph/simple"
)

// ToGonum converts the graph into a gonum weighted undirected graph. Node ids
// are preserved. Self-loops cannot be represented by gonum simple graphs and
// are dropped; parallel edges are merged by summing their weights.
func (g *Graph) ToGonum() *simple.WeightedUndirectedGraph {
	ug := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	g.ForNodes(func(u int) {
		ug.AddNode(simple.Node(int64(u)))
	})

	g.ForEdges(func(u, v int, w float64) {
		if u == v {
			return
		}
		if existing, ok := ug.Weight(int64(u), int64(v)); ok {
			w += existing
		}
		ug.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(int64(u)),
			T: simple.Node(int64(v)),
			W: w,
		})
	})
	return ug
}

// ToGonumDirected converts the graph into an unweighted gonum directed graph.
// Undirected edges become a pair of opposite arcs; self-loops are dropped.
func (g *Graph) ToGonumDirected() *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	g.ForNodes(func(u int) {
		dg.AddNode(simple.Node(int64(u)))
	})

	g.ForEdges(func(u, v int, _ float64) {
		if u == v {
			return
		}
		dg.SetEdge(dg.NewEdge(simple.Node(int64(u)), simple.Node(int64(v))))
		if !g.directed {
			dg.SetEdge(dg.NewEdge(simple.Node(int64(v)), simple.Node(int64(u))))
		}
	})
	return dg
}
