package clusterer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/ensemble-clustering/pkg/coarsening"
	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// Louvain optimises modularity by local node moves followed by aggregation
// of the found communities into super-nodes, level after level.
type Louvain struct {
	MaxLevels     int
	MaxIterations int
	Resolution    float64
	// MinGain is the modularity gain (scaled by m) a move must exceed.
	MinGain float64
	Seed    int64
	Workers int
	Logger  zerolog.Logger
}

// NewLouvain returns Louvain with default limits.
func NewLouvain(seed int64) *Louvain {
	return &Louvain{
		MaxLevels:     10,
		MaxIterations: 100,
		Resolution:    1.0,
		MinGain:       1e-12,
		Seed:          seed,
		Logger:        zerolog.Nop(),
	}
}

// community holds the local-moving state of one level.
type community struct {
	nodeToComm []int
	tot        []float64
}

func (l *Louvain) Run(ctx context.Context, g *graph.Graph) (*partition.Partition, error) {
	if err := graph.RequireUndirected(g, "louvain"); err != nil {
		return nil, err
	}
	startTime := time.Now()
	rng := rand.New(rand.NewSource(l.Seed))

	// Level 0 works on the graph with holes removed.
	compact := partition.New(g.UpperNodeIDBound())
	i := 0
	g.ForNodes(func(u int) {
		compact.Set(u, i)
		i++
	})
	base, err := coarsening.Contract(g, compact, l.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to build level graph: %w", err)
	}

	levels := []*coarsening.Contraction{base}
	current := base.Coarse
	var comm *community

	for level := 0; level < l.MaxLevels; level++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var moves int
		comm, moves = l.oneLevel(current, rng)

		l.Logger.Debug().
			Int("level", level).
			Int("nodes", current.NumberOfNodes()).
			Int("moves", moves).
			Msg("Louvain level completed")

		if moves == 0 {
			break
		}

		levelPartition := partition.FromSlice(comm.nodeToComm)
		if levelPartition.Compact() == current.NumberOfNodes() {
			break
		}
		contraction, err := coarsening.Contract(current, levelPartition, l.Workers)
		if err != nil {
			return nil, fmt.Errorf("aggregation failed at level %d: %w", level, err)
		}
		levels = append(levels, contraction)
		current = contraction.Coarse
		comm = nil

		if current.NumberOfNodes() == 1 {
			break
		}
	}

	// Final communities on the top-level graph
	top := partition.New(current.UpperNodeIDBound())
	current.ForNodes(func(u int) {
		if comm != nil {
			top.Set(u, comm.nodeToComm[u])
		} else {
			top.Set(u, u)
		}
	})

	result := top
	for j := len(levels) - 1; j >= 0; j-- {
		result, err = levels[j].Project(result)
		if err != nil {
			return nil, fmt.Errorf("projection failed: %w", err)
		}
	}
	k := result.Compact()

	l.Logger.Debug().
		Int("levels", len(levels)).
		Int("communities", k).
		Dur("runtime", time.Since(startTime)).
		Msg("Louvain algorithm completed")

	return result, nil
}

// oneLevel performs local moving on g until no node moves or MaxIterations
// sweeps have run. Returns the state and the total number of moves.
func (l *Louvain) oneLevel(g *graph.Graph, rng *rand.Rand) (*community, int) {
	n := g.UpperNodeIDBound()
	comm := &community{
		nodeToComm: make([]int, n),
		tot:        make([]float64, n),
	}
	for u := 0; u < n; u++ {
		comm.nodeToComm[u] = u
		comm.tot[u] = g.Degree(u)
	}

	m2 := 2.0 * g.TotalEdgeWeight()
	if m2 == 0 {
		return comm, 0
	}

	nodes := g.Nodes()
	neighborComms := newLabelSet()
	totalMoves := 0

	for iteration := 0; iteration < l.MaxIterations; iteration++ {
		rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
		moves := 0

		for _, u := range nodes {
			ku := g.Degree(u)
			oldComm := comm.nodeToComm[u]

			neighborComms.reset()
			neighborComms.add(oldComm, 0)
			g.ForNeighborsOf(u, func(v int, w float64) {
				if v != u {
					neighborComms.add(comm.nodeToComm[v], w)
				}
			})

			// Remove from old community
			comm.tot[oldComm] -= ku

			bestComm := oldComm
			bestGain := neighborComms.weight[oldComm] - l.Resolution*comm.tot[oldComm]*ku/m2
			for _, c := range neighborComms.order {
				gain := neighborComms.weight[c] - l.Resolution*comm.tot[c]*ku/m2
				if gain > bestGain+l.MinGain {
					bestComm = c
					bestGain = gain
				}
			}

			comm.tot[bestComm] += ku
			comm.nodeToComm[u] = bestComm
			if bestComm != oldComm {
				moves++
			}
		}

		totalMoves += moves
		if moves == 0 {
			break
		}
	}

	return comm, totalMoves
}
