package graph

import (
	"fmt"
	"math"
)

// DefaultEdgeWeight is the weight used by unweighted inputs.
const DefaultEdgeWeight = 1.0

// Graph represents a weighted graph using simple adjacency arrays.
// Node ids are dense zero-based indices; removed nodes leave holes, so
// UpperNodeIDBound may exceed NumberOfNodes.
type Graph struct {
	Adjacency   [][]int     `json:"-"`            // adjacency[u] = neighbors of u (out-neighbors if directed)
	Weights     [][]float64 `json:"-"`            // weights[u][i] = weight of edge u -> adjacency[u][i]
	Degrees     []float64   `json:"degrees"`      // weighted degree, self-loops counted twice
	TotalWeight float64     `json:"total_weight"` // sum of all edge weights, each edge once

	alive    []bool
	numNodes int
	numEdges int
	directed bool
}

// New creates a graph with n live nodes and no edges.
func New(n int, directed bool) *Graph {
	g := &Graph{
		Adjacency: make([][]int, n),
		Weights:   make([][]float64, n),
		Degrees:   make([]float64, n),
		alive:     make([]bool, n),
		numNodes:  n,
		directed:  directed,
	}
	for i := range g.alive {
		g.alive[i] = true
	}
	return g
}

// AddNode appends a new node and returns its id.
func (g *Graph) AddNode() int {
	u := len(g.alive)
	g.Adjacency = append(g.Adjacency, nil)
	g.Weights = append(g.Weights, nil)
	g.Degrees = append(g.Degrees, 0)
	g.alive = append(g.alive, true)
	g.numNodes++
	return u
}

// RemoveNode deletes u and its incident edges. The id is not reused.
func (g *Graph) RemoveNode(u int) error {
	if !g.HasNode(u) {
		return fmt.Errorf("node %d does not exist", u)
	}

	for _, v := range append([]int(nil), g.Adjacency[u]...) {
		g.removeEdge(u, v)
	}
	if g.directed {
		for x := range g.Adjacency {
			if x == u || !g.alive[x] {
				continue
			}
			for g.HasEdge(x, u) {
				g.removeEdge(x, u)
			}
		}
	}

	g.alive[u] = false
	g.numNodes--
	return nil
}

// AddEdge adds a weighted edge between u and v.
func (g *Graph) AddEdge(u, v int, weight float64) error {
	if !g.HasNode(u) || !g.HasNode(v) {
		return fmt.Errorf("node index out of range: u=%d, v=%d, upperBound=%d", u, v, g.UpperNodeIDBound())
	}
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("edge weight must be finite and non-negative: %f", weight)
	}

	g.Adjacency[u] = append(g.Adjacency[u], v)
	g.Weights[u] = append(g.Weights[u], weight)
	g.Degrees[u] += weight

	if g.directed {
		g.Degrees[v] += weight
	} else if u != v {
		g.Adjacency[v] = append(g.Adjacency[v], u)
		g.Weights[v] = append(g.Weights[v], weight)
		g.Degrees[v] += weight
	} else {
		// Self-loop: count weight twice for degree
		g.Degrees[u] += weight
	}

	g.TotalWeight += weight
	g.numEdges++
	return nil
}

// removeEdge drops one u -> v entry (and its mirror when undirected).
func (g *Graph) removeEdge(u, v int) {
	i := indexOf(g.Adjacency[u], v)
	if i < 0 {
		return
	}
	w := g.Weights[u][i]
	g.Adjacency[u] = append(g.Adjacency[u][:i], g.Adjacency[u][i+1:]...)
	g.Weights[u] = append(g.Weights[u][:i], g.Weights[u][i+1:]...)
	g.Degrees[u] -= w

	switch {
	case g.directed:
		g.Degrees[v] -= w
	case u != v:
		j := indexOf(g.Adjacency[v], u)
		g.Adjacency[v] = append(g.Adjacency[v][:j], g.Adjacency[v][j+1:]...)
		g.Weights[v] = append(g.Weights[v][:j], g.Weights[v][j+1:]...)
		g.Degrees[v] -= w
	default:
		g.Degrees[u] -= w
	}

	g.TotalWeight -= w
	g.numEdges--
}

func indexOf(xs []int, x int) int {
	for i, y := range xs {
		if y == x {
			return i
		}
	}
	return -1
}

// HasNode reports whether u is a live node.
func (g *Graph) HasNode(u int) bool {
	return u >= 0 && u < len(g.alive) && g.alive[u]
}

// HasEdge reports whether an edge u -> v exists.
func (g *Graph) HasEdge(u, v int) bool {
	if !g.HasNode(u) {
		return false
	}
	return indexOf(g.Adjacency[u], v) >= 0
}

// Weight returns the summed weight of all edges between u and v, 0 if none.
func (g *Graph) Weight(u, v int) float64 {
	if !g.HasNode(u) {
		return 0
	}
	w := 0.0
	for i, x := range g.Adjacency[u] {
		if x == v {
			w += g.Weights[u][i]
		}
	}
	return w
}

// Degree returns the weighted degree of u.
func (g *Graph) Degree(u int) float64 {
	if !g.HasNode(u) {
		return 0
	}
	return g.Degrees[u]
}

func (g *Graph) NumberOfNodes() int    { return g.numNodes }
func (g *Graph) NumberOfEdges() int    { return g.numEdges }
func (g *Graph) UpperNodeIDBound() int { return len(g.alive) }
func (g *Graph) IsDirected() bool      { return g.directed }

// TotalEdgeWeight returns the sum of all edge weights, self-loops included once.
func (g *Graph) TotalEdgeWeight() float64 { return g.TotalWeight }

// ForNodes calls fn for every live node in ascending id order.
func (g *Graph) ForNodes(fn func(u int)) {
	for u, ok := range g.alive {
		if ok {
			fn(u)
		}
	}
}

// Nodes returns the live node ids in ascending order.
func (g *Graph) Nodes() []int {
	nodes := make([]int, 0, g.numNodes)
	g.ForNodes(func(u int) { nodes = append(nodes, u) })
	return nodes
}

// ForNeighborsOf calls fn for each edge leaving u. A self-loop is reported once.
func (g *Graph) ForNeighborsOf(u int, fn func(v int, w float64)) {
	if !g.HasNode(u) {
		return
	}
	for i, v := range g.Adjacency[u] {
		fn(v, g.Weights[u][i])
	}
}

// ForEdges calls fn exactly once per edge. Undirected edges are reported
// with u <= v.
func (g *Graph) ForEdges(fn func(u, v int, w float64)) {
	g.ForNodes(func(u int) {
		for i, v := range g.Adjacency[u] {
			if g.directed || v >= u {
				fn(u, v, g.Weights[u][i])
			}
		}
	})
}

// Clone creates a deep copy of the graph
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		Adjacency:   make([][]int, len(g.Adjacency)),
		Weights:     make([][]float64, len(g.Weights)),
		Degrees:     append([]float64(nil), g.Degrees...),
		TotalWeight: g.TotalWeight,
		alive:       append([]bool(nil), g.alive...),
		numNodes:    g.numNodes,
		numEdges:    g.numEdges,
		directed:    g.directed,
	}
	for i := range g.Adjacency {
		clone.Adjacency[i] = append([]int(nil), g.Adjacency[i]...)
		clone.Weights[i] = append([]float64(nil), g.Weights[i]...)
	}
	return clone
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	for u := range g.Adjacency {
		if len(g.Adjacency[u]) != len(g.Weights[u]) {
			return fmt.Errorf("adjacency and weights arrays inconsistent for node %d", u)
		}
		if !g.alive[u] && len(g.Adjacency[u]) > 0 {
			return fmt.Errorf("removed node %d still has edges", u)
		}
		for i, v := range g.Adjacency[u] {
			if !g.HasNode(v) {
				return fmt.Errorf("invalid neighbor %d for node %d", v, u)
			}
			if g.Weights[u][i] < 0 {
				return fmt.Errorf("negative weight %f for edge %d-%d", g.Weights[u][i], u, v)
			}
		}
	}
	return nil
}

// RequireUndirected returns an UnsupportedGraphError naming op if g is directed.
func RequireUndirected(g *Graph, op string) error {
	if g.IsDirected() {
		return &UnsupportedGraphError{Operation: op}
	}
	return nil
}
