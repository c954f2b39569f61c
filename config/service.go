package config

import (
	"fmt"
	"time"

	"github.com/kbukum/gatherkit/logger"
	"github.com/kbukum/gatherkit/observability"
)

// Config is the top-level configuration of a gatherkit application.
//
// Example config.yml:
//
//	name: indexer
//	environment: production
//	engine:
//	  parallelism: 8
//	logging:
//	  level: info
//	  format: json
type Config struct {
	Name          string              `yaml:"name" mapstructure:"name"`
	Environment   string              `yaml:"environment" mapstructure:"environment"`
	Version       string              `yaml:"version" mapstructure:"version"`
	Engine        EngineConfig        `yaml:"engine" mapstructure:"engine"`
	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// ObservabilityConfig enables and points the OpenTelemetry exporters.
type ObservabilityConfig struct {
	Tracing        bool          `yaml:"tracing" mapstructure:"tracing"`
	Metrics        bool          `yaml:"metrics" mapstructure:"metrics"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval"`
}

// ApplyDefaults applies default values to the configuration.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Engine.Debug = true
	}
	c.Engine.ApplyDefaults()
	c.Logging.ApplyDefaults()
	if c.Engine.Debug {
		if c.Logging.Components == nil {
			c.Logging.Components = make(map[string]string)
		}
		if _, ok := c.Logging.Components[logger.ComponentGather]; !ok {
			c.Logging.Components[logger.ComponentGather] = "debug"
		}
	}
	if c.Observability.Endpoint == "" {
		c.Observability.Endpoint = "localhost:4318"
	}
	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
	if c.Observability.MetricInterval == 0 {
		c.Observability.MetricInterval = 15 * time.Second
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("config.engine: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// TracerConfig derives the tracer settings.
func (c *Config) TracerConfig() observability.TracerConfig {
	return observability.TracerConfig{
		ServiceName:    c.Name,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		Endpoint:       c.Observability.Endpoint,
		Insecure:       c.Observability.Insecure,
		SampleRate:     c.Observability.SampleRate,
	}
}

// MeterConfig derives the meter settings.
func (c *Config) MeterConfig() observability.MeterConfig {
	return observability.MeterConfig{
		ServiceName:    c.Name,
		ServiceVersion: c.Version,
		Environment:    c.Environment,
		Endpoint:       c.Observability.Endpoint,
		Insecure:       c.Observability.Insecure,
		Interval:       c.Observability.MetricInterval,
	}
}
