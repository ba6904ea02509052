// Package partition implements the clustering data model: a total assignment
// of graph nodes to run-scoped cluster ids.
package partition

import (
	"fmt"
	"strings"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
)

// None marks a node without a cluster (unassigned entries and graph holes).
const None = -1

// Partition maps node id -> cluster id. Cluster ids are opaque tokens from
// the dense range [0, UpperBound()); they are only meaningful within the run
// that produced them.
type Partition struct {
	data       []int
	upperBound int
}

// New creates a partition over z node ids with every entry unassigned.
func New(z int) *Partition {
	data := make([]int, z)
	for i := range data {
		data[i] = None
	}
	return &Partition{data: data}
}

// FromSlice wraps an existing assignment. The upper bound is derived from the data.
func FromSlice(data []int) *Partition {
	p := &Partition{data: append([]int(nil), data...)}
	p.SetUpperBoundFromData()
	return p
}

// Singleton puts every live node of g into its own cluster.
func Singleton(g *graph.Graph) *Partition {
	p := New(g.UpperNodeIDBound())
	g.ForNodes(func(u int) { p.data[u] = u })
	p.upperBound = g.UpperNodeIDBound()
	return p
}

// AllToOne puts every live node of g into cluster 0.
func AllToOne(g *graph.Graph) *Partition {
	p := New(g.UpperNodeIDBound())
	g.ForNodes(func(u int) { p.data[u] = 0 })
	p.upperBound = 1
	return p
}

// Set assigns node u to cluster c, growing the upper bound if needed.
func (p *Partition) Set(u, c int) {
	p.data[u] = c
	if c >= p.upperBound {
		p.upperBound = c + 1
	}
}

// ClusterOf returns the cluster of u, or None when u is unassigned or out of range.
func (p *Partition) ClusterOf(u int) int {
	if u < 0 || u >= len(p.data) {
		return None
	}
	return p.data[u]
}

// NumberOfNodes returns the number of entries (node ids) the partition covers.
func (p *Partition) NumberOfNodes() int { return len(p.data) }

// UpperBound returns the exclusive upper bound of valid cluster ids.
func (p *Partition) UpperBound() int { return p.upperBound }

func (p *Partition) SetUpperBound(ub int) { p.upperBound = ub }

// SetUpperBoundFromData sets the upper bound to max(cluster id) + 1.
func (p *Partition) SetUpperBoundFromData() {
	ub := 0
	for _, c := range p.data {
		if c >= ub {
			ub = c + 1
		}
	}
	p.upperBound = ub
}

// NumberOfClusters returns the number of distinct cluster ids in use.
func (p *Partition) NumberOfClusters() int {
	seen := make(map[int]struct{})
	for _, c := range p.data {
		if c != None {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}

// IsProper reports whether every live node of g has a cluster id in
// [0, UpperBound()).
func (p *Partition) IsProper(g *graph.Graph) bool {
	return p.Validate(g) == nil
}

// Validate checks the partition against g and describes the first violation.
func (p *Partition) Validate(g *graph.Graph) error {
	if p == nil {
		return &InvalidPartitionError{Node: None, Reason: "no partition"}
	}
	if len(p.data) != g.UpperNodeIDBound() {
		return &InvalidPartitionError{
			Node:   None,
			Reason: fmt.Sprintf("partition covers %d node ids but graph upper bound is %d", len(p.data), g.UpperNodeIDBound()),
		}
	}

	var err error
	g.ForNodes(func(u int) {
		if err != nil {
			return
		}
		c := p.data[u]
		switch {
		case c == None:
			err = &InvalidPartitionError{Node: u, Reason: "node has no cluster"}
		case c < 0 || c >= p.upperBound:
			err = &InvalidPartitionError{
				Node:   u,
				Reason: fmt.Sprintf("cluster id %d outside [0, %d)", c, p.upperBound),
			}
		}
	})
	return err
}

// Compact relabels clusters to 0..k-1 in order of first appearance and
// returns k.
func (p *Partition) Compact() int {
	relabel := make(map[int]int)
	for u, c := range p.data {
		if c == None {
			continue
		}
		id, ok := relabel[c]
		if !ok {
			id = len(relabel)
			relabel[c] = id
		}
		p.data[u] = id
	}
	p.upperBound = len(relabel)
	return len(relabel)
}

// Subsets returns the members of every non-empty cluster, keyed by cluster id.
func (p *Partition) Subsets() map[int][]int {
	subsets := make(map[int][]int)
	for u, c := range p.data {
		if c != None {
			subsets[c] = append(subsets[c], u)
		}
	}
	return subsets
}

// ClusterSizes returns cluster id -> number of members.
func (p *Partition) ClusterSizes() map[int]int {
	sizes := make(map[int]int)
	for _, c := range p.data {
		if c != None {
			sizes[c]++
		}
	}
	return sizes
}

// InSameCluster reports whether u and v are assigned to the same cluster.
func (p *Partition) InSameCluster(u, v int) bool {
	cu := p.ClusterOf(u)
	return cu != None && cu == p.ClusterOf(v)
}

// EquivalentTo reports whether p and other group the nodes identically,
// ignoring cluster labels.
func (p *Partition) EquivalentTo(other *Partition) bool {
	if len(p.data) != len(other.data) {
		return false
	}
	forward := make(map[int]int)
	backward := make(map[int]int)
	for u, a := range p.data {
		b := other.data[u]
		if (a == None) != (b == None) {
			return false
		}
		if a == None {
			continue
		}
		if x, ok := forward[a]; ok && x != b {
			return false
		}
		if y, ok := backward[b]; ok && y != a {
			return false
		}
		forward[a] = b
		backward[b] = a
	}
	return true
}

// Slice returns a copy of the raw assignment.
func (p *Partition) Slice() []int {
	return append([]int(nil), p.data...)
}

// Clone returns a deep copy.
func (p *Partition) Clone() *Partition {
	return &Partition{data: append([]int(nil), p.data...), upperBound: p.upperBound}
}

func (p *Partition) String() string {
	var b strings.Builder
	b.WriteString("{")
	for u, c := range p.data {
		if u > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d:%d", u, c)
	}
	b.WriteString("}")
	return b.String()
}
