package ensemble

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/ensemble-clustering/pkg/clusterer"
	"github.com/gilchrisn/ensemble-clustering/pkg/generators"
	"github.com/gilchrisn/ensemble-clustering/pkg/quality"
)

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, []string{"labelprop", "labelprop", "louvain"}, cfg.BaseClusterers())
	assert.Equal(t, "labelprop", cfg.FinalClusterer())
	assert.Equal(t, "modularity", cfg.QualityMeasure())
	assert.Equal(t, 1.0, cfg.LouvainResolution())
	assert.True(t, cfg.Parallel())
	assert.Equal(t, "info", cfg.LogLevel())

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s.Workers, 1)
}

func TestConfigSequential(t *testing.T) {
	cfg := NewConfig()
	cfg.Set("performance.parallel", false)
	cfg.Set("performance.num_workers", 16)

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Workers)
}

func TestConfigValidation(t *testing.T) {
	cases := map[string]struct {
		key   string
		value interface{}
	}{
		"NoBases":           {"ensemble.base_clusterers", []string{}},
		"NoFinal":           {"ensemble.final_clusterer", ""},
		"UnknownQuality":    {"ensemble.quality_measure", "conductance"},
		"ZeroResolution":    {"louvain.resolution", 0.0},
		"ZeroIterations":    {"labelprop.max_iterations", 0},
		"NegativeThreshold": {"labelprop.update_threshold", -1},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Set(tc.key, tc.value)
			_, err := cfg.Settings()
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ensemble.yaml")
	content := `
ensemble:
  base_clusterers: [louvain, labelprop, labelprop, labelprop]
  final_clusterer: louvain
  quality_measure: coverage
algorithm:
  random_seed: 17
louvain:
  resolution: 0.8
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, []string{"louvain", "labelprop", "labelprop", "labelprop"}, cfg.BaseClusterers())
	assert.Equal(t, "louvain", cfg.FinalClusterer())
	assert.Equal(t, int64(17), cfg.RandomSeed())
	assert.Equal(t, 0.8, cfg.LouvainResolution())
	assert.Equal(t, 100, cfg.LabelPropMaxIterations())
	assert.Equal(t, "debug", cfg.LogLevel())
}

func TestSettingsBuild(t *testing.T) {
	cfg := NewConfig()
	cfg.Set("algorithm.random_seed", int64(40))
	cfg.Set("louvain.resolution", 0.5)
	s, err := cfg.Settings()
	require.NoError(t, err)

	e, err := s.Build(clusterer.NewRegistry(), cfg.CreateLogger(), nil)
	require.NoError(t, err)
	require.Equal(t, 3, e.NumberOfBaseClusterers())

	lp, ok := e.bases[1].(*clusterer.LabelPropagation)
	require.True(t, ok)
	assert.Equal(t, int64(41), lp.Seed)

	lv, ok := e.bases[2].(*clusterer.Louvain)
	require.True(t, ok)
	assert.Equal(t, int64(42), lv.Seed)
	assert.Equal(t, 0.5, lv.Resolution)

	final, ok := e.final.(*clusterer.LabelPropagation)
	require.True(t, ok)
	assert.Equal(t, int64(43), final.Seed)
	assert.IsType(t, &quality.Modularity{}, e.quality)
}

func TestSettingsBuildUnknownStrategy(t *testing.T) {
	cfg := NewConfig()
	cfg.Set("ensemble.base_clusterers", []string{"labelprop", "spectral"})
	s, err := cfg.Settings()
	require.NoError(t, err)

	_, err = s.Build(clusterer.NewRegistry(), cfg.CreateLogger(), nil)
	assert.ErrorContains(t, err, "spectral")
}

func TestNewFromConfigRuns(t *testing.T) {
	cfg := NewConfig()
	cfg.Set("algorithm.random_seed", int64(3))
	cfg.Set("logging.level", "disabled")

	e, err := NewFromConfig(cfg, clusterer.NewRegistry(), nil)
	require.NoError(t, err)

	g := generators.NewGraphGenerator(9).ClusteredRandomGraph(42, 3, 1.0, 0.0)
	p, err := e.Run(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, 3, p.NumberOfClusters())
}
