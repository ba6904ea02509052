// Package ensemble implements ensemble community detection. Several base
// clusterers run on the input graph, their agreement is captured by an
// overlay partition, the graph is contracted along that overlay and a final
// clusterer runs on the coarse graph. The coarse result is projected back
// onto the original nodes.
package ensemble

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/ensemble-clustering/pkg/clusterer"
	"github.com/gilchrisn/ensemble-clustering/pkg/coarsening"
	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/metrics"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
	"github.com/gilchrisn/ensemble-clustering/pkg/quality"
)

// Stage names used for timings and metrics.
const (
	StageBase     = "base"
	StageOverlay  = "overlay"
	StageContract = "contract"
	StageFinal    = "final"
	StageProject  = "project"
)

// Ensemble combines base clusterers and a final clusterer. It holds no
// per-run state and may be run repeatedly, also concurrently, as long as its
// clusterers allow that.
type Ensemble struct {
	bases   []clusterer.Clusterer
	final   clusterer.Clusterer
	quality quality.Measure

	// Workers bounds the number of base clusterers running at once and the
	// parallelism of the contraction. Values < 1 mean unbounded.
	Workers int
	Logger  zerolog.Logger
	Metrics *metrics.Registry
	// Progress, if set, is called after each stage with the stage name and
	// the percentage of the run completed so far.
	Progress func(stage string, percentage int)
}

var stageProgress = map[string]int{
	StageBase:     60,
	StageOverlay:  70,
	StageContract: 80,
	StageFinal:    95,
	StageProject:  100,
}

// New creates an empty ensemble.
func New() *Ensemble {
	return &Ensemble{Logger: zerolog.Nop()}
}

// AddBaseClusterer appends a base clusterer.
func (e *Ensemble) AddBaseClusterer(c clusterer.Clusterer) *Ensemble {
	e.bases = append(e.bases, c)
	return e
}

// SetFinalClusterer sets the clusterer run on the contracted graph.
func (e *Ensemble) SetFinalClusterer(c clusterer.Clusterer) *Ensemble {
	e.final = c
	return e
}

// SetQualityMeasure sets the measure used to score intermediate and final
// partitions. Scores are reported only and never change the result.
func (e *Ensemble) SetQualityMeasure(m quality.Measure) *Ensemble {
	e.quality = m
	return e
}

// NumberOfBaseClusterers returns the number of configured base clusterers.
func (e *Ensemble) NumberOfBaseClusterers() int { return len(e.bases) }

// RunResult describes one ensemble run.
type RunResult struct {
	Partition *partition.Partition
	Bases     []*partition.Partition
	Overlay   *partition.Partition
	// Coarse is the final clusterer's partition of the contracted graph.
	Coarse      *partition.Partition
	CoarseNodes int
	CoarseEdges int
	Durations   map[string]time.Duration

	// Quality scores, set only when a quality measure is configured.
	BaseQualities  []float64
	OverlayQuality float64
	Quality        float64
}

// Run executes the ensemble on g and returns the projected partition.
func (e *Ensemble) Run(ctx context.Context, g *graph.Graph) (*partition.Partition, error) {
	result, err := e.RunDetailed(ctx, g)
	if err != nil {
		return nil, err
	}
	return result.Partition, nil
}

// RunDetailed executes the ensemble on g. The run is all or nothing: the
// first error from any stage aborts it and is returned.
func (e *Ensemble) RunDetailed(ctx context.Context, g *graph.Graph) (*RunResult, error) {
	startTime := time.Now()
	result, err := e.run(ctx, g)

	status := "success"
	if err != nil {
		status = "failure"
		e.Logger.Error().Err(err).Msg("Ensemble run failed")
	}
	if e.Metrics != nil {
		e.Metrics.RecordRun(status, time.Since(startTime))
	}
	return result, err
}

func (e *Ensemble) run(ctx context.Context, g *graph.Graph) (*RunResult, error) {
	if len(e.bases) == 0 {
		return nil, &EmptyEnsembleError{}
	}
	if e.final == nil {
		return nil, ErrNoFinalClusterer
	}
	if err := graph.RequireUndirected(g, "ensemble"); err != nil {
		return nil, err
	}

	result := &RunResult{Durations: make(map[string]time.Duration)}
	startTime := time.Now()

	e.Logger.Info().
		Int("nodes", g.NumberOfNodes()).
		Int("edges", g.NumberOfEdges()).
		Int("base_clusterers", len(e.bases)).
		Msg("Starting ensemble run")

	// Base clusterers
	stageStart := time.Now()
	bases, err := e.runBases(ctx, g)
	if err != nil {
		return nil, err
	}
	result.Bases = bases
	e.finishStage(result, StageBase, stageStart)

	// Overlay
	stageStart = time.Now()
	overlay, err := Overlay(g, bases)
	if err != nil {
		return nil, fmt.Errorf("overlay failed: %w", err)
	}
	result.Overlay = overlay
	e.finishStage(result, StageOverlay, stageStart)

	// Contraction
	stageStart = time.Now()
	contraction, err := coarsening.Contract(g, overlay, e.Workers)
	if err != nil {
		return nil, fmt.Errorf("contraction failed: %w", err)
	}
	result.CoarseNodes = contraction.Coarse.NumberOfNodes()
	result.CoarseEdges = contraction.Coarse.NumberOfEdges()
	e.finishStage(result, StageContract, stageStart)

	e.Logger.Debug().
		Int("overlay_clusters", overlay.NumberOfClusters()).
		Int("coarse_nodes", result.CoarseNodes).
		Int("coarse_edges", result.CoarseEdges).
		Msg("Contracted graph built")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Final clusterer
	stageStart = time.Now()
	coarse, err := e.final.Run(ctx, contraction.Coarse)
	if err != nil {
		return nil, fmt.Errorf("final clusterer failed: %w", err)
	}
	if coarse == nil {
		return nil, fmt.Errorf("final clusterer: %w", errNoPartition)
	}
	result.Coarse = coarse
	e.finishStage(result, StageFinal, stageStart)

	// Projection
	stageStart = time.Now()
	projected, err := contraction.Project(coarse)
	if err != nil {
		return nil, fmt.Errorf("projection failed: %w", err)
	}
	projected.Compact()
	result.Partition = projected
	e.finishStage(result, StageProject, stageStart)

	e.score(g, result)

	e.Logger.Info().
		Int("clusters", projected.NumberOfClusters()).
		Dur("runtime", time.Since(startTime)).
		Msg("Ensemble run completed")

	return result, nil
}

// runBases runs every base clusterer on g. Each writes only its own slot.
func (e *Ensemble) runBases(ctx context.Context, g *graph.Graph) ([]*partition.Partition, error) {
	bases := make([]*partition.Partition, len(e.bases))

	eg, egCtx := errgroup.WithContext(ctx)
	if e.Workers > 0 {
		eg.SetLimit(e.Workers)
	}
	for i, c := range e.bases {
		i, c := i, c
		eg.Go(func() error {
			p, err := c.Run(egCtx, g)
			if err != nil {
				return fmt.Errorf("base clusterer %d failed: %w", i, err)
			}
			if p == nil {
				return fmt.Errorf("base clusterer %d: %w", i, errNoPartition)
			}
			bases[i] = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return bases, nil
}

func (e *Ensemble) finishStage(result *RunResult, stage string, start time.Time) {
	d := time.Since(start)
	result.Durations[stage] = d
	if e.Metrics != nil {
		e.Metrics.RecordStage(stage, d)
	}
	if e.Progress != nil {
		e.Progress(stage, stageProgress[stage])
	}
}

// score computes the reported qualities and updates the gauges.
func (e *Ensemble) score(g *graph.Graph, result *RunResult) {
	if e.Metrics != nil {
		e.Metrics.OverlayClusters.Set(float64(result.Overlay.NumberOfClusters()))
		e.Metrics.CoarseEdges.Set(float64(result.CoarseEdges))
		e.Metrics.ResultClusters.Set(float64(result.Partition.NumberOfClusters()))
	}
	if e.quality == nil {
		return
	}

	result.BaseQualities = make([]float64, len(result.Bases))
	for i, p := range result.Bases {
		result.BaseQualities[i] = e.quality.Quality(p, g)
	}
	result.OverlayQuality = e.quality.Quality(result.Overlay, g)
	result.Quality = e.quality.Quality(result.Partition, g)

	e.Logger.Debug().
		Floats64("base_qualities", result.BaseQualities).
		Float64("overlay_quality", result.OverlayQuality).
		Float64("quality", result.Quality).
		Msg("Ensemble quality")

	if e.Metrics != nil {
		e.Metrics.Quality.WithLabelValues("overlay").Set(result.OverlayQuality)
		e.Metrics.Quality.WithLabelValues("result").Set(result.Quality)
	}
}

// Run is a convenience wrapper that runs a one-off ensemble of bases and
// final on g. qm may be nil.
func Run(ctx context.Context, g *graph.Graph, bases []clusterer.Clusterer, final clusterer.Clusterer, qm quality.Measure) (*partition.Partition, error) {
	e := New()
	for _, c := range bases {
		e.AddBaseClusterer(c)
	}
	e.SetFinalClusterer(final)
	e.SetQualityMeasure(qm)
	return e.Run(ctx, g)
}
