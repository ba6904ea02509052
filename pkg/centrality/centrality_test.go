package centrality

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/ensemble-clustering/pkg/algebraic"
	"github.com/gilchrisn/ensemble-clustering/pkg/generators"
	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
)

// dominantEigenvector returns the unit eigenvector of the largest eigenvalue
// of g's adjacency matrix, with non-negative entries.
func dominantEigenvector(t *testing.T, g *graph.Graph) []float64 {
	t.Helper()
	_, vec, err := algebraic.AdjacencyEigenvector(g, 0, false)
	require.NoError(t, err)

	result := make([]float64, vec.Len())
	for i := range result {
		result[i] = math.Abs(vec.AtVec(i))
	}
	return result
}

func TestEigenvectorMatchesDenseSolver(t *testing.T) {
	// triangle with a pendant node and a weighted self-loop
	g := graph.New(4, false)
	require.NoError(t, g.AddEdge(0, 1, 1.0))
	require.NoError(t, g.AddEdge(1, 2, 2.0))
	require.NoError(t, g.AddEdge(2, 0, 1.0))
	require.NoError(t, g.AddEdge(2, 3, 1.0))
	require.NoError(t, g.AddEdge(3, 3, 0.5))

	opts := DefaultOptions()
	opts.Tolerance = 1e-14
	opts.MaxIterations = 10000
	scores, err := Eigenvector(g, opts)
	require.NoError(t, err)

	expected := dominantEigenvector(t, g)
	for u := range expected {
		assert.InDelta(t, expected[u], scores[u], 1e-5, "node %d", u)
	}
}

func TestEigenvectorRandomGraph(t *testing.T) {
	g := generators.NewGraphGenerator(3).RandomGraph(50, 0.2)

	sequential, err := Eigenvector(g, Options{Tolerance: 1e-12, MaxIterations: 5000, Workers: 1})
	require.NoError(t, err)
	parallel, err := Eigenvector(g, Options{Tolerance: 1e-12, MaxIterations: 5000, Workers: 8})
	require.NoError(t, err)

	norm := 0.0
	for u := range sequential {
		assert.InDelta(t, sequential[u], parallel[u], 1e-5)
		assert.GreaterOrEqual(t, sequential[u], 0.0)
		norm += sequential[u] * sequential[u]
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestEigenvectorHoles(t *testing.T) {
	g := graph.New(4, false)
	require.NoError(t, g.AddEdge(0, 1, 1.0))
	require.NoError(t, g.AddEdge(1, 3, 1.0))
	require.NoError(t, g.AddEdge(3, 0, 1.0))
	require.NoError(t, g.RemoveNode(2))

	scores, err := Eigenvector(g, DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, scores[2])
	assert.InDelta(t, 1/math.Sqrt(3), scores[0], 1e-9)
}

func TestEigenvectorZeroOptions(t *testing.T) {
	g := generators.NewGraphGenerator(6).RandomGraph(30, 0.3)

	scores, err := Eigenvector(g, Options{})
	require.NoError(t, err)
	expected, err := Eigenvector(g, DefaultOptions())
	require.NoError(t, err)
	assert.InDeltaSlice(t, expected, scores, 1e-6)
}

func TestEigenvectorErrors(t *testing.T) {
	t.Run("Directed", func(t *testing.T) {
		_, err := Eigenvector(graph.New(2, true), DefaultOptions())
		var unsupported *graph.UnsupportedGraphError
		assert.True(t, errors.As(err, &unsupported))
	})

	t.Run("NoEdges", func(t *testing.T) {
		_, err := Eigenvector(graph.New(3, false), DefaultOptions())
		var unstable *NumericInstabilityError
		require.True(t, errors.As(err, &unstable))
		assert.Equal(t, 1, unstable.Iterations)
	})

	t.Run("IterationCap", func(t *testing.T) {
		g := generators.NewGraphGenerator(1).RandomGraph(30, 0.3)
		_, err := Eigenvector(g, Options{Tolerance: 1e-15, MaxIterations: 2})
		var unstable *NumericInstabilityError
		require.True(t, errors.As(err, &unstable))
		assert.Equal(t, 2, unstable.Iterations)
	})
}

func TestPageRank(t *testing.T) {
	g := generators.NewGraphGenerator(2).RandomGraph(40, 0.15)
	require.NoError(t, g.RemoveNode(5))

	scores := PageRank(g, 0.85, 1e-8)
	require.Len(t, scores, 40)

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Zero(t, scores[5])
	assert.Empty(t, PageRank(graph.New(0, false), 0.85, 1e-8))
}
