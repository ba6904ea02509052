package ensemble

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/gilchrisn/ensemble-clustering/pkg/clusterer"
	"github.com/gilchrisn/ensemble-clustering/pkg/metrics"
	"github.com/gilchrisn/ensemble-clustering/pkg/quality"
)

var validate = validator.New()

// Config manages ensemble configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Ensemble composition
	v.SetDefault("ensemble.base_clusterers", []string{
		clusterer.StrategyLabelPropagation,
		clusterer.StrategyLabelPropagation,
		clusterer.StrategyLouvain,
	})
	v.SetDefault("ensemble.final_clusterer", clusterer.StrategyLabelPropagation)
	v.SetDefault("ensemble.quality_measure", "modularity")

	// Algorithm parameters
	v.SetDefault("algorithm.random_seed", time.Now().UnixNano())
	v.SetDefault("labelprop.max_iterations", 100)
	v.SetDefault("labelprop.update_threshold", 0)
	v.SetDefault("louvain.max_levels", 10)
	v.SetDefault("louvain.max_iterations", 100)
	v.SetDefault("louvain.resolution", 1.0)

	// Performance parameters
	v.SetDefault("performance.parallel", true)
	v.SetDefault("performance.num_workers", runtime.NumCPU())

	// Logging parameters
	v.SetDefault("logging.level", "info")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) BaseClusterers() []string { return c.v.GetStringSlice("ensemble.base_clusterers") }
func (c *Config) FinalClusterer() string   { return c.v.GetString("ensemble.final_clusterer") }
func (c *Config) QualityMeasure() string   { return c.v.GetString("ensemble.quality_measure") }
func (c *Config) RandomSeed() int64        { return c.v.GetInt64("algorithm.random_seed") }

func (c *Config) LabelPropMaxIterations() int   { return c.v.GetInt("labelprop.max_iterations") }
func (c *Config) LabelPropUpdateThreshold() int { return c.v.GetInt("labelprop.update_threshold") }

func (c *Config) LouvainMaxLevels() int      { return c.v.GetInt("louvain.max_levels") }
func (c *Config) LouvainMaxIterations() int  { return c.v.GetInt("louvain.max_iterations") }
func (c *Config) LouvainResolution() float64 { return c.v.GetFloat64("louvain.resolution") }

func (c *Config) Parallel() bool  { return c.v.GetBool("performance.parallel") }
func (c *Config) NumWorkers() int { return c.v.GetInt("performance.num_workers") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "ensemble").Logger()
}

// Settings is a validated snapshot of a Config.
type Settings struct {
	BaseClusterers           []string `validate:"required,min=1,dive,required"`
	FinalClusterer           string   `validate:"required"`
	QualityMeasure           string   `validate:"omitempty,oneof=modularity coverage"`
	RandomSeed               int64
	LabelPropMaxIterations   int     `validate:"gte=1"`
	LabelPropUpdateThreshold int     `validate:"gte=0"`
	LouvainMaxLevels         int     `validate:"gte=1"`
	LouvainMaxIterations     int     `validate:"gte=1"`
	LouvainResolution        float64 `validate:"gt=0"`
	Workers                  int     `validate:"gte=1"`
}

// Settings snapshots and validates the configuration.
func (c *Config) Settings() (*Settings, error) {
	s := &Settings{
		BaseClusterers:           c.BaseClusterers(),
		FinalClusterer:           c.FinalClusterer(),
		QualityMeasure:           c.QualityMeasure(),
		RandomSeed:               c.RandomSeed(),
		LabelPropMaxIterations:   c.LabelPropMaxIterations(),
		LabelPropUpdateThreshold: c.LabelPropUpdateThreshold(),
		LouvainMaxLevels:         c.LouvainMaxLevels(),
		LouvainMaxIterations:     c.LouvainMaxIterations(),
		LouvainResolution:        c.LouvainResolution(),
		Workers:                  c.NumWorkers(),
	}
	if !c.Parallel() {
		s.Workers = 1
	}
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("invalid ensemble configuration: %w", err)
	}
	return s, nil
}

// params returns the clusterer parameters for the named strategy.
func (s *Settings) params(strategy string, seed int64, logger zerolog.Logger) clusterer.Params {
	p := clusterer.Params{
		Seed:       seed,
		MaxLevels:  s.LouvainMaxLevels,
		Resolution: s.LouvainResolution,
		Workers:    s.Workers,
		Logger:     logger,
	}
	switch strategy {
	case clusterer.StrategyLabelPropagation:
		p.MaxIterations = s.LabelPropMaxIterations
		p.UpdateThreshold = s.LabelPropUpdateThreshold
	case clusterer.StrategyLouvain:
		p.MaxIterations = s.LouvainMaxIterations
	}
	return p
}

// Build instantiates the ensemble described by s. Base clusterer i is
// seeded with RandomSeed+i and the final clusterer with
// RandomSeed+len(BaseClusterers), so a fixed seed gives reproducible runs.
func (s *Settings) Build(registry *clusterer.Registry, logger zerolog.Logger, m *metrics.Registry) (*Ensemble, error) {
	e := New()
	e.Workers = s.Workers
	e.Logger = logger
	e.Metrics = m

	for i, name := range s.BaseClusterers {
		c, err := registry.Build(name, s.params(name, s.RandomSeed+int64(i), logger))
		if err != nil {
			return nil, fmt.Errorf("base clusterer %d: %w", i, err)
		}
		e.AddBaseClusterer(c)
	}

	final, err := registry.Build(s.FinalClusterer, s.params(s.FinalClusterer, s.RandomSeed+int64(len(s.BaseClusterers)), logger))
	if err != nil {
		return nil, fmt.Errorf("final clusterer: %w", err)
	}
	e.SetFinalClusterer(final)

	if s.QualityMeasure != "" {
		qm, err := quality.MeasureByName(s.QualityMeasure)
		if err != nil {
			return nil, err
		}
		e.SetQualityMeasure(qm)
	}

	return e, nil
}

// NewFromConfig validates cfg and builds the configured ensemble with a
// logger created from cfg.
func NewFromConfig(cfg *Config, registry *clusterer.Registry, m *metrics.Registry) (*Ensemble, error) {
	s, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	return s.Build(registry, cfg.CreateLogger(), m)
}
