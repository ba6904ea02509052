// Package centrality computes node centrality scores.
package centrality

import (
	"math"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
)

// MinLength is the smallest vector length accepted during normalisation.
const MinLength = 1e-16

// Options configures Eigenvector. Non-positive Tolerance and MaxIterations
// fall back to DefaultOptions.
type Options struct {
	// Tolerance bounds the change in vector length between two iterations
	// at which the iteration is considered converged.
	Tolerance     float64
	MaxIterations int
	Workers       int
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Tolerance:     1e-9,
		MaxIterations: 1000,
	}
}

// Eigenvector computes eigenvector centrality by power iteration. The result
// is indexed by node id, has unit L2 length and holds 0 for removed nodes.
// Each iteration is a parallel matrix-vector product followed by a parallel
// reduction of the squared length.
func Eigenvector(g *graph.Graph, opts Options) ([]float64, error) {
	if err := graph.RequireUndirected(g, "eigenvector centrality"); err != nil {
		return nil, err
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultOptions().MaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultOptions().Tolerance
	}

	z := g.UpperNodeIDBound()
	scores := make([]float64, z)
	values := make([]float64, z)
	g.ForNodes(func(u int) { scores[u] = 1.0 })

	length, oldLength := 0.0, 0.0
	for iteration := 1; iteration <= opts.MaxIterations; iteration++ {
		oldLength = length

		g.ParallelForNodes(opts.Workers, func(u int) {
			sum := 0.0
			g.ForNeighborsOf(u, func(v int, w float64) {
				sum += w * scores[v]
			})
			values[u] = sum
		})

		length = math.Sqrt(g.ParallelSumForNodes(opts.Workers, func(u int) float64 {
			return values[u] * values[u]
		}))
		if length < MinLength {
			return nil, &NumericInstabilityError{
				Operation:  "eigenvector centrality",
				Iterations: iteration,
				Reason:     "vector length is zero",
			}
		}

		g.ParallelForNodes(opts.Workers, func(u int) {
			scores[u] = values[u] / length
		})

		if math.Abs(length-oldLength) <= opts.Tolerance {
			return scores, nil
		}
	}

	return nil, &NumericInstabilityError{
		Operation:  "eigenvector centrality",
		Iterations: opts.MaxIterations,
		Reason:     "did not converge",
	}
}
