package logger

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatPretty  = "pretty"
)

// Config contains logging configuration.
//
//	logging:
//	  level: info
//	  format: json
//	  components:
//	    gather: debug
type Config struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
	// Components overrides the level of individual component loggers.
	Components map[string]string `yaml:"components" mapstructure:"components"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	c.Timestamp = true
}

var validLevels = []string{"trace", "debug", "info", "warn", "error", "disabled"}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	if !slices.Contains(validLevels, c.Level) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", validLevels, c.Level)
	}
	if formats := []string{FormatJSON, FormatConsole, FormatPretty}; !slices.Contains(formats, c.Format) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", formats, c.Format)
	}
	for name, level := range c.Components {
		if !slices.Contains(validLevels, level) {
			return fmt.Errorf("logging.components.%s must be one of %v (got: %s)", name, validLevels, level)
		}
	}
	return nil
}

// componentLevels parses the component overrides of a validated config.
func (c *Config) componentLevels() map[string]zerolog.Level {
	levels := make(map[string]zerolog.Level, len(c.Components))
	for name, level := range c.Components {
		if l, err := zerolog.ParseLevel(level); err == nil {
			levels[name] = l
		}
	}
	return levels
}
