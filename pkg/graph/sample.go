package graph

import "fmt"

// BFSSample runs a breadth-first search from source and returns the
// subgraph induced by the first k nodes reached, source included. The
// sample keeps the node ids of g; nodes outside it are removed.
func (g *Graph) BFSSample(source, k int) (*Graph, error) {
	if !g.HasNode(source) {
		return nil, fmt.Errorf("source node %d does not exist", source)
	}
	if k < 1 {
		return nil, fmt.Errorf("sample size must be positive, got %d", k)
	}

	visited := make([]bool, g.UpperNodeIDBound())
	visited[source] = true
	found := 1
	queue := []int{source}
	for len(queue) > 0 && found < k {
		u := queue[0]
		queue = queue[1:]
		g.ForNeighborsOf(u, func(v int, _ float64) {
			if !visited[v] && found < k {
				visited[v] = true
				found++
				queue = append(queue, v)
			}
		})
	}

	// The sample has no edges yet, so unvisited ids are dropped directly.
	sample := New(g.UpperNodeIDBound(), g.directed)
	for u := range sample.alive {
		if !visited[u] {
			sample.alive[u] = false
			sample.numNodes--
		}
	}
	var err error
	g.ForEdges(func(u, v int, w float64) {
		if err == nil && visited[u] && visited[v] {
			err = sample.AddEdge(u, v, w)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build sample: %w", err)
	}
	return sample, nil
}
