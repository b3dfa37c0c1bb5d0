package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the file read when no path is given on the command line.
const DefaultPath = "arbor.yaml"

// Config holds the settings of the arbor command.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// Stopwatches is the number of stopwatch machines spawned by the demo run.
	Stopwatches int           `yaml:"stopwatches"`
	Tick        time.Duration `yaml:"tick"`
	Duration    time.Duration `yaml:"duration"`

	HTTP HTTPConfig `yaml:"http"`
}

// HTTPConfig configures the introspection server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogLevel:    "info",
		Stopwatches: 3,
		Tick:        100 * time.Millisecond,
		Duration:    2 * time.Second,
		HTTP:        HTTPConfig{Addr: "127.0.0.1:8080"},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the runtime cannot work with.
func (c Config) Validate() error {
	switch {
	case c.Stopwatches < 0:
		return fmt.Errorf("invalid config: stopwatches must not be negative, got %d", c.Stopwatches)
	case c.Tick <= 0:
		return fmt.Errorf("invalid config: tick must be positive, got %s", c.Tick)
	case c.Duration < 0:
		return fmt.Errorf("invalid config: duration must not be negative, got %s", c.Duration)
	}
	return nil
}
