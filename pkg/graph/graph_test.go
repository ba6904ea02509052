package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangleWithLoop(t *testing.T) *Graph {
	t.Helper()
	g := New(3, false)
	require.NoError(t, g.AddEdge(0, 1, 1.0))
	require.NoError(t, g.AddEdge(1, 2, 2.0))
	require.NoError(t, g.AddEdge(2, 0, 3.0))
	require.NoError(t, g.AddEdge(2, 2, 0.5))
	return g
}

func TestAddEdge(t *testing.T) {
	g := triangleWithLoop(t)

	assert.Equal(t, 3, g.NumberOfNodes())
	assert.Equal(t, 4, g.NumberOfEdges())
	assert.InDelta(t, 6.5, g.TotalEdgeWeight(), 1e-12)
	assert.InDelta(t, 2.0, g.Weight(1, 2), 1e-12)
	assert.InDelta(t, 2.0, g.Weight(2, 1), 1e-12)
	assert.InDelta(t, 0.5, g.Weight(2, 2), 1e-12)
	// self-loop counts twice towards the degree
	assert.InDelta(t, 6.0, g.Degree(2), 1e-12)
	assert.NoError(t, g.Validate())

	t.Run("OutOfRange", func(t *testing.T) {
		assert.Error(t, g.AddEdge(0, 7, 1.0))
	})
	t.Run("NegativeWeight", func(t *testing.T) {
		assert.Error(t, g.AddEdge(0, 1, -1.0))
	})
}

func TestForEdgesVisitsEachEdgeOnce(t *testing.T) {
	g := triangleWithLoop(t)

	count := 0
	sum := 0.0
	g.ForEdges(func(u, v int, w float64) {
		assert.LessOrEqual(t, u, v)
		count++
		sum += w
	})
	assert.Equal(t, g.NumberOfEdges(), count)
	assert.InDelta(t, g.TotalEdgeWeight(), sum, 1e-12)
}

func TestRemoveNodeLeavesHole(t *testing.T) {
	g := triangleWithLoop(t)
	require.NoError(t, g.RemoveNode(2))

	assert.Equal(t, 2, g.NumberOfNodes())
	assert.Equal(t, 3, g.UpperNodeIDBound())
	assert.False(t, g.HasNode(2))
	assert.Equal(t, 1, g.NumberOfEdges())
	assert.InDelta(t, 1.0, g.TotalEdgeWeight(), 1e-12)
	assert.Equal(t, []int{0, 1}, g.Nodes())
	assert.NoError(t, g.Validate())

	u := g.AddNode()
	assert.Equal(t, 3, u)
	assert.Error(t, g.RemoveNode(2))
}

func TestDirected(t *testing.T) {
	g := New(2, true)
	require.NoError(t, g.AddEdge(0, 1, 1.0))

	assert.True(t, g.HasEdge(0, 1))
	assert.False(t, g.HasEdge(1, 0))

	err := RequireUndirected(g, "contract")
	var unsupported *UnsupportedGraphError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "contract", unsupported.Operation)
	assert.NoError(t, RequireUndirected(New(1, false), "contract"))
}

func TestClone(t *testing.T) {
	g := triangleWithLoop(t)
	c := g.Clone()
	require.NoError(t, c.AddEdge(0, 0, 1.0))

	assert.Equal(t, 4, g.NumberOfEdges())
	assert.Equal(t, 5, c.NumberOfEdges())
}

func TestParallelSumMatchesSequential(t *testing.T) {
	g := New(1000, false)
	for u := 0; u+1 < 1000; u++ {
		require.NoError(t, g.AddEdge(u, u+1, float64(u%7)+0.25))
	}
	require.NoError(t, g.RemoveNode(500))

	seq := 0.0
	g.ForNodes(func(u int) { seq += g.Degree(u) })

	for _, workers := range []int{1, 2, 3, 8, 64} {
		par := g.ParallelSumForNodes(workers, func(u int) float64 { return g.Degree(u) })
		assert.InDelta(t, seq, par, 1e-9, "workers=%d", workers)
	}
}

func TestParallelForNodesWritesOwnIndex(t *testing.T) {
	g := New(257, false)
	require.NoError(t, g.RemoveNode(10))

	out := make([]int, g.UpperNodeIDBound())
	g.ParallelForNodes(4, func(u int) { out[u] = u + 1 })

	for u := range out {
		if u == 10 {
			assert.Zero(t, out[u])
			continue
		}
		assert.Equal(t, u+1, out[u])
	}
}

func TestToGonum(t *testing.T) {
	g := triangleWithLoop(t)
	require.NoError(t, g.AddEdge(0, 1, 4.0))

	ug := g.ToGonum()
	assert.Equal(t, 3, ug.Nodes().Len())
	w, ok := ug.Weight(0, 1)
	require.True(t, ok)
	assert.InDelta(t, 5.0, w, 1e-12)
	assert.Equal(t, 3, ug.Edges().Len())
}

func TestToGonumDirected(t *testing.T) {
	g := triangleWithLoop(t)
	dg := g.ToGonumDirected()
	assert.Equal(t, 3, dg.Nodes().Len())
	assert.Equal(t, 6, dg.Edges().Len())
	assert.True(t, dg.HasEdgeFromTo(0, 1))
	assert.True(t, dg.HasEdgeFromTo(1, 0))

	d := New(2, true)
	require.NoError(t, d.AddEdge(0, 1, 1.0))
	dd := d.ToGonumDirected()
	assert.True(t, dd.HasEdgeFromTo(0, 1))
	assert.False(t, dd.HasEdgeFromTo(1, 0))
}

func TestBFSSample(t *testing.T) {
	// path 0-1-2-3-4 with a chord 1-3 and a loop on 2
	g := New(5, false)
	require.NoError(t, g.AddEdge(0, 1, 1.0))
	require.NoError(t, g.AddEdge(1, 2, 1.0))
	require.NoError(t, g.AddEdge(2, 3, 1.0))
	require.NoError(t, g.AddEdge(3, 4, 1.0))
	require.NoError(t, g.AddEdge(1, 3, 2.0))
	require.NoError(t, g.AddEdge(2, 2, 0.5))

	sample, err := g.BFSSample(1, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, sample.NumberOfNodes())
	assert.Equal(t, 5, sample.UpperNodeIDBound())
	for _, u := range []int{0, 1, 2} {
		assert.True(t, sample.HasNode(u), "node %d", u)
	}
	assert.False(t, sample.HasNode(3))
	assert.False(t, sample.HasNode(4))
	// induced edges 0-1, 1-2 and the loop on 2
	assert.Equal(t, 3, sample.NumberOfEdges())
	assert.InDelta(t, 0.5, sample.Weight(2, 2), 1e-12)
	assert.NoError(t, sample.Validate())

	t.Run("WholeComponent", func(t *testing.T) {
		all, err := g.BFSSample(4, 100)
		require.NoError(t, err)
		assert.Equal(t, g.NumberOfNodes(), all.NumberOfNodes())
		assert.Equal(t, g.NumberOfEdges(), all.NumberOfEdges())
		assert.InDelta(t, g.TotalEdgeWeight(), all.TotalEdgeWeight(), 1e-12)
	})

	t.Run("SourceOnly", func(t *testing.T) {
		one, err := g.BFSSample(0, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, one.NumberOfNodes())
		assert.Equal(t, 0, one.NumberOfEdges())
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := g.BFSSample(9, 3)
		assert.Error(t, err)
		_, err = g.BFSSample(0, 0)
		assert.Error(t, err)

		holed := g.Clone()
		require.NoError(t, holed.RemoveNode(2))
		_, err = holed.BFSSample(2, 3)
		assert.Error(t, err)
	})
}
