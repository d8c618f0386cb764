// Package config provides configuration loading and validation for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Variant names.
const (
	VariantLocked = "locked"
	VariantUnsync = "unsync"
)

// Config holds all simulation configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Run       RunConfig       `yaml:"run"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the walk parameters. Cells and Particles usually come
// from the command line.
type WorldConfig struct {
	Cells     int     `yaml:"cells"`      // N, number of cells
	Particles int     `yaml:"particles"`  // K, number of particles
	RightBias float64 `yaml:"right_bias"` // p, a particle moves left when m <= p
	Variant   string  `yaml:"variant"`    // locked | unsync
}

// RunConfig holds run timing.
type RunConfig struct {
	Ticks            int    `yaml:"ticks"`             // Snapshot ticks before stopping
	SnapshotInterval string `yaml:"snapshot_interval"` // Time between snapshots
	StepInterval     string `yaml:"step_interval"`     // Pause between particle steps
	Seed             int64  `yaml:"seed"`              // 0 = time-based
}

// TelemetryConfig holds reporting parameters.
type TelemetryConfig struct {
	Console   bool   `yaml:"console"`    // Print snapshot lines to stdout
	LogStats  bool   `yaml:"log_stats"`  // Emit snapshot stats via slog
	LogLevel  string `yaml:"log_level"`  // debug | info | warn | error
	OutputDir string `yaml:"output_dir"` // CSV/JSON output (empty = disabled)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SnapshotInterval time.Duration
	StepInterval     time.Duration
	Duration         time.Duration // Ticks * SnapshotInterval
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is not
// validated; callers apply overrides first and then call Validate.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks every parameter and computes derived values.
// It must succeed before any simulation state is created.
func (c *Config) Validate() error {
	if c.World.Cells <= 0 {
		return fmt.Errorf("cells must be > 0, got %d: %w", c.World.Cells, ErrInvalid)
	}
	if c.World.Particles <= 0 {
		return fmt.Errorf("particles must be > 0, got %d: %w", c.World.Particles, ErrInvalid)
	}
	// NaN fails both comparisons, so test the accepted range instead.
	if !(c.World.RightBias >= 0 && c.World.RightBias <= 1) {
		return fmt.Errorf("right_bias must be in [0,1], got %v: %w", c.World.RightBias, ErrInvalid)
	}
	switch c.World.Variant {
	case VariantLocked, VariantUnsync:
	default:
		return fmt.Errorf("unknown variant %q: %w", c.World.Variant, ErrInvalid)
	}
	if c.Run.Ticks <= 0 {
		return fmt.Errorf("ticks must be > 0, got %d: %w", c.Run.Ticks, ErrInvalid)
	}

	snap, err := parsePositive("snapshot_interval", c.Run.SnapshotInterval)
	if err != nil {
		return err
	}
	step, err := parsePositive("step_interval", c.Run.StepInterval)
	if err != nil {
		return err
	}

	c.Derived.SnapshotInterval = snap
	c.Derived.StepInterval = step
	c.Derived.Duration = time.Duration(c.Run.Ticks) * snap
	return nil
}

func parsePositive(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %v: %w", name, err, ErrInvalid)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be > 0, got %s: %w", name, d, ErrInvalid)
	}
	return d, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
