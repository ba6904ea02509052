package clusterer

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Strategy names understood by the registry.
const (
	StrategyLabelPropagation = "labelprop"
	StrategyLouvain          = "louvain"
	StrategyComponents       = "components"
)

// Params carries the tunables a Factory may use.
type Params struct {
	Seed            int64
	MaxIterations   int
	UpdateThreshold int
	MaxLevels       int
	Resolution      float64
	Workers         int
	Logger          zerolog.Logger
}

// Factory instantiates a clusterer from parameters.
type Factory func(params Params) Clusterer

// Registry manages available clustering strategies
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry with the built-in strategies registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}

	r.Register(StrategyLabelPropagation, func(p Params) Clusterer {
		lp := NewLabelPropagation(p.Seed)
		if p.MaxIterations > 0 {
			lp.MaxIterations = p.MaxIterations
		}
		lp.UpdateThreshold = p.UpdateThreshold
		lp.Logger = p.Logger
		return lp
	})
	r.Register(StrategyLouvain, func(p Params) Clusterer {
		l := NewLouvain(p.Seed)
		if p.MaxIterations > 0 {
			l.MaxIterations = p.MaxIterations
		}
		if p.MaxLevels > 0 {
			l.MaxLevels = p.MaxLevels
		}
		if p.Resolution > 0 {
			l.Resolution = p.Resolution
		}
		l.Workers = p.Workers
		l.Logger = p.Logger
		return l
	})
	r.Register(StrategyComponents, func(Params) Clusterer {
		return ConnectedComponents{}
	})

	return r
}

// Register adds or replaces a strategy.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Build instantiates the named strategy.
func (r *Registry) Build(name string, params Params) (Clusterer, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown clustering strategy: %s", name)
	}
	return f(params), nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// List returns all strategy names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
