package algebraic

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/ensemble-clustering/pkg/centrality"
	"github.com/gilchrisn/ensemble-clustering/pkg/generators"
	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
)

// twoTriangles builds two disjoint triangles, one of them weighted, with a
// self-loop on node 0.
func twoTriangles(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(6, false)
	require.NoError(t, g.AddEdge(0, 1, 1.0))
	require.NoError(t, g.AddEdge(1, 2, 1.0))
	require.NoError(t, g.AddEdge(2, 0, 1.0))
	require.NoError(t, g.AddEdge(0, 0, 3.0))
	require.NoError(t, g.AddEdge(3, 4, 2.0))
	require.NoError(t, g.AddEdge(4, 5, 2.0))
	require.NoError(t, g.AddEdge(5, 3, 2.0))
	return g
}

func TestAdjacencyMatrix(t *testing.T) {
	g := twoTriangles(t)

	a, err := AdjacencyMatrix(g)
	require.NoError(t, err)
	sym, err := SymmetricAdjacencyMatrix(g)
	require.NoError(t, err)

	assert.True(t, mat.Equal(a, sym))
	assert.Equal(t, 3.0, a.At(0, 0))
	assert.Equal(t, 2.0, a.At(4, 3))
	assert.Equal(t, 2.0, a.At(3, 4))
	assert.Zero(t, a.At(0, 3))

	t.Run("Directed", func(t *testing.T) {
		d := graph.New(3, true)
		require.NoError(t, d.AddEdge(0, 1, 1.5))
		require.NoError(t, d.AddEdge(1, 2, 1.0))

		a, err := AdjacencyMatrix(d)
		require.NoError(t, err)
		assert.Equal(t, 1.5, a.At(0, 1))
		assert.Zero(t, a.At(1, 0))

		_, err = SymmetricAdjacencyMatrix(d)
		var unsupported *graph.UnsupportedGraphError
		assert.True(t, errors.As(err, &unsupported))
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := AdjacencyMatrix(graph.New(0, false))
		assert.ErrorIs(t, err, ErrEmptyGraph)
	})
}

func TestLaplacianMatrix(t *testing.T) {
	g := twoTriangles(t)

	l, err := LaplacianMatrix(g)
	require.NoError(t, err)

	n := l.SymmetricDim()
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += l.At(i, j)
		}
		assert.InDelta(t, 0.0, sum, 1e-12, "row %d", i)
	}
	assert.Equal(t, 2.0, l.At(0, 0))
	assert.Equal(t, 4.0, l.At(3, 3))
	assert.Equal(t, -2.0, l.At(3, 4))

	t.Run("Components", func(t *testing.T) {
		values, vectors, err := LaplacianEigenvectors(g, -1, true)
		require.NoError(t, err)
		require.Len(t, values, 6)
		require.Len(t, vectors, 6)

		zeros := 0
		for _, v := range values {
			if math.Abs(v) < 1e-9 {
				zeros++
			}
		}
		assert.Equal(t, 2, zeros)
		assert.LessOrEqual(t, values[0], values[5])
	})

	t.Run("Directed", func(t *testing.T) {
		_, err := LaplacianMatrix(graph.New(2, true))
		var unsupported *graph.UnsupportedGraphError
		assert.True(t, errors.As(err, &unsupported))
	})
}

func TestAdjacencyEigenvectorMatchesCentrality(t *testing.T) {
	g := generators.NewGraphGenerator(4).RandomGraph(40, 0.25)

	value, vec, err := AdjacencyEigenvector(g, 0, false)
	require.NoError(t, err)

	opts := centrality.DefaultOptions()
	opts.Tolerance = 1e-13
	opts.MaxIterations = 20000
	scores, err := centrality.Eigenvector(g, opts)
	require.NoError(t, err)

	for u := range scores {
		assert.InDelta(t, scores[u], math.Abs(vec.AtVec(u)), 1e-5, "node %d", u)
	}

	// A v = lambda v
	a, err := SymmetricAdjacencyMatrix(g)
	require.NoError(t, err)
	var av mat.VecDense
	av.MulVec(a, vec)
	for u := 0; u < vec.Len(); u++ {
		assert.InDelta(t, value*vec.AtVec(u), av.AtVec(u), 1e-8)
	}
}

func TestSymmetricEigenvectors(t *testing.T) {
	m := mat.NewSymDense(3, []float64{
		2, 0, 0,
		0, 5, 0,
		0, 0, -1,
	})

	values, vectors, err := SymmetricEigenvectors(m, 1, false)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 2}, values, 1e-12)
	require.Len(t, vectors, 2)
	assert.InDelta(t, 1.0, vectors[0].AtVec(1), 1e-12)
	assert.InDelta(t, 1.0, vectors[1].AtVec(0), 1e-12)

	values, _, err = SymmetricEigenvectors(m, 0, true)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1}, values, 1e-12)

	values, _, err = SymmetricEigenvectors(m, 10, false)
	require.NoError(t, err)
	assert.Len(t, values, 3)

	t.Run("IndexOutOfRange", func(t *testing.T) {
		_, _, err := LaplacianEigenvector(twoTriangles(t), 6, false)
		assert.Error(t, err)
		_, _, err = AdjacencyEigenvector(twoTriangles(t), -1, false)
		assert.Error(t, err)
	})
}

func TestPageRankMatrix(t *testing.T) {
	// a 6-cycle with two chords
	g := graph.New(6, false)
	for u := 0; u < 6; u++ {
		require.NoError(t, g.AddEdge(u, (u+1)%6, 1.0))
	}
	require.NoError(t, g.AddEdge(0, 3, 1.0))
	require.NoError(t, g.AddEdge(1, 4, 1.0))

	m, err := PageRankMatrix(g, 0.85)
	require.NoError(t, err)

	for u := 0; u < 6; u++ {
		assert.InDelta(t, 1.0, mat.Sum(m.ColView(u)), 1e-12, "column %d", u)
	}

	pr := mat.NewVecDense(6, centrality.PageRank(g, 0.85, 1e-12))
	var next mat.VecDense
	next.MulVec(m, pr)
	for u := 0; u < 6; u++ {
		assert.InDelta(t, pr.AtVec(u), next.AtVec(u), 1e-6, "node %d", u)
	}

	t.Run("Dangling", func(t *testing.T) {
		d := graph.New(3, true)
		require.NoError(t, d.AddEdge(0, 1, 1.0))
		require.NoError(t, d.AddEdge(1, 0, 1.0))

		m, err := PageRankMatrix(d, 0.5)
		require.NoError(t, err)
		for u := 0; u < 3; u++ {
			assert.InDelta(t, 1.0, mat.Sum(m.ColView(u)), 1e-12)
			assert.InDelta(t, 1.0/3, m.At(u, 2), 1e-12)
		}
	})

	t.Run("BadDamping", func(t *testing.T) {
		_, err := PageRankMatrix(g, 1.5)
		assert.Error(t, err)
	})
}
