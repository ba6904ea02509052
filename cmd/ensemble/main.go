// Command ensemble runs ensemble community detection on a graph file and
// writes the resulting partition, one cluster id per node id.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/ensemble-clustering/pkg/clusterer"
	"github.com/gilchrisn/ensemble-clustering/pkg/ensemble"
	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
	"github.com/gilchrisn/ensemble-clustering/pkg/graphio"
	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
	"github.com/gilchrisn/ensemble-clustering/pkg/quality"
)

type options struct {
	configFile  string
	input       string
	format      string
	output      string
	report      string
	truth       string
	bases       string
	final       string
	seed        int64
	labelOutput bool
}

// Report is the YAML summary of one run.
type Report struct {
	Input           string             `yaml:"input"`
	Nodes           int                `yaml:"nodes"`
	Edges           int                `yaml:"edges"`
	BaseClusterers  []string           `yaml:"base_clusterers"`
	FinalClusterer  string             `yaml:"final_clusterer"`
	Seed            int64              `yaml:"seed"`
	Clusters        int                `yaml:"clusters"`
	OverlayClusters int                `yaml:"overlay_clusters"`
	CoarseNodes     int                `yaml:"coarse_nodes"`
	CoarseEdges     int                `yaml:"coarse_edges"`
	QualityMeasure  string             `yaml:"quality_measure,omitempty"`
	Quality         *float64           `yaml:"quality,omitempty"`
	BaseQualities   []float64          `yaml:"base_qualities,omitempty"`
	Dissimilarity   map[string]float64 `yaml:"dissimilarity,omitempty"`
	StageTimesMS    map[string]int64   `yaml:"stage_times_ms"`
	TotalTimeMS     int64              `yaml:"total_time_ms"`
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	flag.StringVar(&opts.input, "input", "", "input graph file (required)")
	flag.StringVar(&opts.format, "format", "", "input format: edgelist or graphml (default: from extension)")
	flag.StringVar(&opts.output, "output", "", "partition output file (default: stdout)")
	flag.StringVar(&opts.report, "report", "", "YAML run report file")
	flag.StringVar(&opts.truth, "truth", "", "ground truth partition for dissimilarity scores")
	flag.StringVar(&opts.bases, "bases", "", "comma separated base clusterers, overrides the configuration")
	flag.StringVar(&opts.final, "final", "", "final clusterer, overrides the configuration")
	flag.Int64Var(&opts.seed, "seed", 0, "random seed, overrides the configuration when non-zero")
	flag.BoolVar(&opts.labelOutput, "labels", false, "write \"label cluster\" lines instead of one id per line")
	flag.Parse()

	if opts.input == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -input <graph_file> [options]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ensemble: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg := ensemble.NewConfig()
	if opts.configFile != "" {
		if err := cfg.LoadFromFile(opts.configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if opts.bases != "" {
		cfg.Set("ensemble.base_clusterers", strings.Split(opts.bases, ","))
	}
	if opts.final != "" {
		cfg.Set("ensemble.final_clusterer", opts.final)
	}
	if opts.seed != 0 {
		cfg.Set("algorithm.random_seed", opts.seed)
	}

	logger := cfg.CreateLogger()

	parsed, err := readGraph(opts.input, opts.format)
	if err != nil {
		return err
	}
	g := parsed.Graph
	logger.Info().
		Str("input", opts.input).
		Int("nodes", g.NumberOfNodes()).
		Int("edges", g.NumberOfEdges()).
		Msg("Graph loaded")

	var truth *partition.Partition
	if opts.truth != "" {
		if truth, err = readTruth(opts.truth); err != nil {
			return err
		}
		if err := truth.Validate(g); err != nil {
			return fmt.Errorf("ground truth: %w", err)
		}
	}

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	e, err := settings.Build(clusterer.NewRegistry(), logger, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := e.RunDetailed(ctx, g)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := writeOutput(opts, parsed, result.Partition, stdout); err != nil {
		return err
	}

	if opts.report != "" {
		report, err := buildReport(opts.input, settings, g, result, truth, elapsed)
		if err != nil {
			return err
		}
		if err := writeReport(opts.report, report); err != nil {
			return err
		}
	}

	logger.Info().
		Int("clusters", result.Partition.NumberOfClusters()).
		Dur("runtime", elapsed).
		Msg("Done")
	return nil
}

func readGraph(path, format string) (*graphio.ParseResult, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".graphml", ".xml":
			format = "graphml"
		default:
			format = "edgelist"
		}
	}

	switch format {
	case "edgelist":
		return graphio.ReadEdgeListFile(path, false)
	case "graphml":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open graph file: %w", err)
		}
		defer f.Close()
		return graphio.ReadGraphML(f)
	default:
		return nil, fmt.Errorf("unsupported graph format: %s", format)
	}
}

func readTruth(path string) (*partition.Partition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ground truth: %w", err)
	}
	defer f.Close()
	return graphio.ReadPartition(f)
}

func writeOutput(opts options, parsed *graphio.ParseResult, p *partition.Partition, stdout io.Writer) error {
	if opts.output == "" {
		return writeClusters(stdout, opts.labelOutput, parsed, p)
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeClusters(f, opts.labelOutput, parsed, p); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

func writeClusters(w io.Writer, labelOutput bool, parsed *graphio.ParseResult, p *partition.Partition) error {
	if !labelOutput {
		return graphio.WritePartition(w, p)
	}
	for u, label := range parsed.Labels {
		if c := p.ClusterOf(u); c != partition.None {
			if _, err := fmt.Fprintf(w, "%s %d\n", label, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildReport(input string, s *ensemble.Settings, g *graph.Graph, result *ensemble.RunResult, truth *partition.Partition, elapsed time.Duration) (*Report, error) {
	report := &Report{
		Input:           input,
		Nodes:           g.NumberOfNodes(),
		Edges:           g.NumberOfEdges(),
		BaseClusterers:  s.BaseClusterers,
		FinalClusterer:  s.FinalClusterer,
		Seed:            s.RandomSeed,
		Clusters:        result.Partition.NumberOfClusters(),
		OverlayClusters: result.Overlay.NumberOfClusters(),
		CoarseNodes:     result.CoarseNodes,
		CoarseEdges:     result.CoarseEdges,
		QualityMeasure:  s.QualityMeasure,
		StageTimesMS:    make(map[string]int64, len(result.Durations)),
		TotalTimeMS:     elapsed.Milliseconds(),
	}
	for stage, d := range result.Durations {
		report.StageTimesMS[stage] = d.Milliseconds()
	}
	if s.QualityMeasure != "" {
		q := result.Quality
		report.Quality = &q
		report.BaseQualities = result.BaseQualities
	}
	if truth != nil {
		report.Dissimilarity = make(map[string]float64)
		for _, name := range []string{"jaccard", "rand", "nmi"} {
			m, err := quality.DissimilarityByName(name)
			if err != nil {
				return nil, err
			}
			report.Dissimilarity[name] = m.Dissimilarity(g, result.Partition, truth)
		}
	}
	return report, nil
}

func writeReport(path string, report *Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
