package clusterer

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// LabelPropagation performs weighted asynchronous label propagation.
// Every node starts in its own cluster and repeatedly adopts the label with
// the highest incident edge weight among its neighbors, self-loops included,
// so contracted graphs keep the size of their coarse nodes. A node keeps its
// label when it is among the best. Nodes are visited in a shuffled order
// drawn from Seed; each Run starts from a fresh generator, so repeated runs
// on the same graph are identical.
type LabelPropagation struct {
	MaxIterations int
	// UpdateThreshold stops the iteration once a sweep changes at most this
	// many labels.
	UpdateThreshold int
	Seed            int64
	Logger          zerolog.Logger
}

// NewLabelPropagation returns label propagation with default limits.
func NewLabelPropagation(seed int64) *LabelPropagation {
	return &LabelPropagation{
		MaxIterations:   100,
		UpdateThreshold: 0,
		Seed:            seed,
		Logger:          zerolog.Nop(),
	}
}

func (lp *LabelPropagation) Run(ctx context.Context, g *graph.Graph) (*partition.Partition, error) {
	rng := rand.New(rand.NewSource(lp.Seed))

	labels := make([]int, g.UpperNodeIDBound())
	for i := range labels {
		labels[i] = partition.None
	}
	g.ForNodes(func(u int) { labels[u] = u })

	nodes := g.Nodes()
	counts := newLabelSet()
	candidates := make([]int, 0, 8)

	iterations := 0
	for iterations < lp.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iterations++

		rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })

		updated := 0
		for _, u := range nodes {
			counts.reset()
			g.ForNeighborsOf(u, func(v int, w float64) {
				counts.add(labels[v], w)
			})
			if len(counts.order) == 0 {
				continue
			}

			best := -1.0
			for _, l := range counts.order {
				if counts.weight[l] > best {
					best = counts.weight[l]
				}
			}

			current := labels[u]
			if w, ok := counts.weight[current]; ok && w == best {
				continue
			}

			candidates = candidates[:0]
			for _, l := range counts.order {
				if counts.weight[l] == best {
					candidates = append(candidates, l)
				}
			}
			labels[u] = candidates[rng.Intn(len(candidates))]
			updated++
		}

		lp.Logger.Debug().
			Int("iteration", iterations).
			Int("updated", updated).
			Msg("Label propagation sweep")

		if updated <= lp.UpdateThreshold {
			break
		}
	}

	p := partition.FromSlice(labels)
	k := p.Compact()

	lp.Logger.Debug().
		Int("iterations", iterations).
		Int("clusters", k).
		Msg("Label propagation completed")

	return p, nil
}
