package config

import (
	"runtime"

	"github.com/kbukum/gatherkit/validation"
)

// Engine tuning defaults.
const (
	// DefaultLeafTargetFactor is the number of leaf tasks per worker a
	// parallel evaluation aims for.
	DefaultLeafTargetFactor = 4
	// DefaultBatchUnit is the arithmetic growth step used when splitting
	// sources of unknown size.
	DefaultBatchUnit = 1 << 10
	// DefaultMaxBatch caps a single split-off batch.
	DefaultMaxBatch = 1 << 25
)

// EngineConfig tunes the evaluation engine.
type EngineConfig struct {
	// Parallelism is the number of concurrently running leaf tasks.
	// Zero means runtime.GOMAXPROCS(0).
	Parallelism int `yaml:"parallelism" mapstructure:"parallelism" validate:"gte=0"`
	// LeafTargetFactor sets the leaf size to size / (parallelism * factor).
	LeafTargetFactor int `yaml:"leaf_target_factor" mapstructure:"leaf_target_factor" validate:"gte=1,lte=64"`
	// BatchUnit and MaxBatch bound splitting of iterator-backed sources.
	BatchUnit int `yaml:"batch_unit" mapstructure:"batch_unit" validate:"gte=1"`
	MaxBatch  int `yaml:"max_batch" mapstructure:"max_batch" validate:"gtefield=BatchUnit"`
	// Debug enables state-reuse checks in the parallel evaluator.
	Debug bool `yaml:"debug" mapstructure:"debug"`
}

// DefaultEngineConfig returns an EngineConfig with defaults applied.
func DefaultEngineConfig() EngineConfig {
	var c EngineConfig
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero values with the engine defaults.
func (c *EngineConfig) ApplyDefaults() {
	if c.Parallelism == 0 {
		c.Parallelism = runtime.GOMAXPROCS(0)
	}
	if c.LeafTargetFactor == 0 {
		c.LeafTargetFactor = DefaultLeafTargetFactor
	}
	if c.BatchUnit == 0 {
		c.BatchUnit = DefaultBatchUnit
	}
	if c.MaxBatch == 0 {
		c.MaxBatch = DefaultMaxBatch
	}
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	return validation.Validate(c)
}
