package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := MustLoad("")
	cfg.World.Cells = 5
	cfg.World.Particles = 10
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.Ticks != 60 {
		t.Errorf("expected 60 ticks, got %d", cfg.Run.Ticks)
	}
	if cfg.World.Variant != VariantLocked {
		t.Errorf("expected locked variant, got %q", cfg.World.Variant)
	}
	if cfg.Run.SnapshotInterval != "1s" || cfg.Run.StepInterval != "100ms" {
		t.Errorf("unexpected intervals %q %q", cfg.Run.SnapshotInterval, cfg.Run.StepInterval)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte("world:\n  variant: unsync\nrun:\n  ticks: 3\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.World.Variant != VariantUnsync {
		t.Errorf("expected unsync, got %q", cfg.World.Variant)
	}
	if cfg.Run.Ticks != 3 {
		t.Errorf("expected 3 ticks, got %d", cfg.Run.Ticks)
	}
	// Untouched fields keep defaults
	if cfg.Run.StepInterval != "100ms" {
		t.Errorf("expected default step interval, got %q", cfg.Run.StepInterval)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"p zero", func(c *Config) { c.World.RightBias = 0 }, true},
		{"p one", func(c *Config) { c.World.RightBias = 1 }, true},
		{"zero cells", func(c *Config) { c.World.Cells = 0 }, false},
		{"negative particles", func(c *Config) { c.World.Particles = -1 }, false},
		{"p above one", func(c *Config) { c.World.RightBias = 1.5 }, false},
		{"p negative", func(c *Config) { c.World.RightBias = -0.1 }, false},
		{"p NaN", func(c *Config) { c.World.RightBias = math.NaN() }, false},
		{"bad variant", func(c *Config) { c.World.Variant = "striped" }, false},
		{"zero ticks", func(c *Config) { c.Run.Ticks = 0 }, false},
		{"bad interval", func(c *Config) { c.Run.SnapshotInterval = "soon" }, false},
		{"zero step", func(c *Config) { c.Run.StepInterval = "0s" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestValidateDerived(t *testing.T) {
	cfg := validConfig(t)
	cfg.Run.Ticks = 2
	cfg.Run.SnapshotInterval = "250ms"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Derived.SnapshotInterval != 250*time.Millisecond {
		t.Errorf("snapshot interval = %s", cfg.Derived.SnapshotInterval)
	}
	if cfg.Derived.StepInterval != 100*time.Millisecond {
		t.Errorf("step interval = %s", cfg.Derived.StepInterval)
	}
	if cfg.Derived.Duration != 500*time.Millisecond {
		t.Errorf("duration = %s", cfg.Derived.Duration)
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg := validConfig(t)
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.World.Cells != 5 || got.World.Particles != 10 {
		t.Errorf("roundtrip lost world params: %+v", got.World)
	}
}
