// Package algebraic converts graphs into matrices and computes their
// spectra. Matrices are indexed by node id up to UpperNodeIDBound; rows and
// columns of removed nodes are zero.
package algebraic

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
)

// ErrEmptyGraph is returned for graphs without node ids, which have no
// matrix representation.
var ErrEmptyGraph = errors.New("algebraic: graph has no nodes")

func checkSize(g *graph.Graph) error {
	if g.UpperNodeIDBound() == 0 {
		return ErrEmptyGraph
	}
	return nil
}

// AdjacencyMatrix returns the weighted adjacency matrix of g. For directed
// graphs entry (u, v) holds the weight of u -> v. Parallel edges are summed
// and a self-loop contributes its weight once to the diagonal.
func AdjacencyMatrix(g *graph.Graph) (*mat.Dense, error) {
	if err := checkSize(g); err != nil {
		return nil, err
	}
	z := g.UpperNodeIDBound()
	a := mat.NewDense(z, z, nil)
	g.ForEdges(func(u, v int, w float64) {
		a.Set(u, v, a.At(u, v)+w)
		if !g.IsDirected() && u != v {
			a.Set(v, u, a.At(v, u)+w)
		}
	})
	return a, nil
}

// SymmetricAdjacencyMatrix is AdjacencyMatrix for undirected graphs, stored
// symmetrically.
func SymmetricAdjacencyMatrix(g *graph.Graph) (*mat.SymDense, error) {
	if err := graph.RequireUndirected(g, "symmetric adjacency matrix"); err != nil {
		return nil, err
	}
	if err := checkSize(g); err != nil {
		return nil, err
	}
	a := mat.NewSymDense(g.UpperNodeIDBound(), nil)
	g.ForEdges(func(u, v int, w float64) {
		a.SetSym(u, v, a.At(u, v)+w)
	})
	return a, nil
}

// LaplacianMatrix returns D - A for an undirected graph. Self-loops are
// ignored, so every row sums to zero.
func LaplacianMatrix(g *graph.Graph) (*mat.SymDense, error) {
	if err := graph.RequireUndirected(g, "laplacian matrix"); err != nil {
		return nil, err
	}
	if err := checkSize(g); err != nil {
		return nil, err
	}
	l := mat.NewSymDense(g.UpperNodeIDBound(), nil)
	g.ForEdges(func(u, v int, w float64) {
		if u == v {
			return
		}
		l.SetSym(u, v, l.At(u, v)-w)
		l.SetSym(u, u, l.At(u, u)+w)
		l.SetSym(v, v, l.At(v, v)+w)
	})
	return l, nil
}

// PageRankMatrix returns the column-stochastic Google matrix of g with the
// given damping factor: column u holds the probabilities of moving from u,
// following edges in proportion to their weight with probability damping
// and teleporting to a uniformly chosen live node otherwise. Nodes without
// outgoing weight teleport uniformly. The stationary vector of the matrix
// is the PageRank of g.
func PageRankMatrix(g *graph.Graph, damping float64) (*mat.Dense, error) {
	if damping < 0 || damping > 1 {
		return nil, fmt.Errorf("damping factor must be in [0, 1], got %f", damping)
	}
	a, err := AdjacencyMatrix(g)
	if err != nil {
		return nil, err
	}

	z := g.UpperNodeIDBound()
	n := float64(g.NumberOfNodes())
	nodes := g.Nodes()
	m := mat.NewDense(z, z, nil)
	for _, u := range nodes {
		out := 0.0
		for _, v := range nodes {
			out += a.At(u, v)
		}
		for _, v := range nodes {
			step := 1 / n
			if out > 0 {
				step = a.At(u, v) / out
			}
			m.Set(v, u, damping*step+(1-damping)/n)
		}
	}
	return m, nil
}

// SymmetricEigenvectors returns eigenvalues of m with their unit
// eigenvectors, largest eigenvalue first, or smallest first when reverse is
// set. cutoff+1 pairs are returned; a negative cutoff returns all of them.
// Each eigenvector is oriented so its entries sum to a non-negative value.
func SymmetricEigenvectors(m mat.Symmetric, cutoff int, reverse bool) ([]float64, []*mat.VecDense, error) {
	n := m.SymmetricDim()
	var es mat.EigenSym
	if !es.Factorize(m, true) {
		return nil, nil, errors.New("algebraic: eigendecomposition did not converge")
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if reverse {
			return values[order[i]] < values[order[j]]
		}
		return values[order[i]] > values[order[j]]
	})

	count := n
	if cutoff >= 0 && cutoff+1 < n {
		count = cutoff + 1
	}
	outValues := make([]float64, count)
	outVectors := make([]*mat.VecDense, count)
	for i := 0; i < count; i++ {
		col := order[i]
		v := mat.VecDenseCopyOf(vectors.ColView(col))
		if mat.Sum(v) < 0 {
			v.ScaleVec(-1, v)
		}
		outValues[i] = values[col]
		outVectors[i] = v
	}
	return outValues, outVectors, nil
}

// AdjacencyEigenvectors returns the spectrum of g's adjacency matrix as in
// SymmetricEigenvectors. g must be undirected.
func AdjacencyEigenvectors(g *graph.Graph, cutoff int, reverse bool) ([]float64, []*mat.VecDense, error) {
	a, err := SymmetricAdjacencyMatrix(g)
	if err != nil {
		return nil, nil, err
	}
	return SymmetricEigenvectors(a, cutoff, reverse)
}

// LaplacianEigenvectors returns the spectrum of g's Laplacian as in
// SymmetricEigenvectors. g must be undirected.
func LaplacianEigenvectors(g *graph.Graph, cutoff int, reverse bool) ([]float64, []*mat.VecDense, error) {
	l, err := LaplacianMatrix(g)
	if err != nil {
		return nil, nil, err
	}
	return SymmetricEigenvectors(l, cutoff, reverse)
}

// AdjacencyEigenvector returns the i-th eigenpair of g's adjacency matrix in
// the order of AdjacencyEigenvectors.
func AdjacencyEigenvector(g *graph.Graph, i int, reverse bool) (float64, *mat.VecDense, error) {
	values, vectors, err := AdjacencyEigenvectors(g, i, reverse)
	return pick(values, vectors, i, err)
}

// LaplacianEigenvector returns the i-th eigenpair of g's Laplacian in the
// order of LaplacianEigenvectors.
func LaplacianEigenvector(g *graph.Graph, i int, reverse bool) (float64, *mat.VecDense, error) {
	values, vectors, err := LaplacianEigenvectors(g, i, reverse)
	return pick(values, vectors, i, err)
}

func pick(values []float64, vectors []*mat.VecDense, i int, err error) (float64, *mat.VecDense, error) {
	if err != nil {
		return 0, nil, err
	}
	if i < 0 || i >= len(values) {
		return 0, nil, fmt.Errorf("eigenpair index %d out of range [0, %d)", i, len(values))
	}
	return values[i], vectors[i], nil
}
