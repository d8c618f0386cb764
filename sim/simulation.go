// Package sim wires the world, the walkers and the snapshot scheduler into a
// single bounded run and checks particle conservation at the end.
package sim

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/cells/config"
	"github.com/pthm-cable/cells/particle"
	"github.com/pthm-cable/cells/telemetry"
	"github.com/pthm-cable/cells/world"
)

// perfWindow is the number of scheduler ticks averaged by the perf collector.
const perfWindow = 60

// Options configures a Simulation beyond the validated config.
type Options struct {
	RunID    string             // Empty = random UUID
	Seed     int64              // Overrides cfg.Run.Seed when non-zero
	Reporter telemetry.Reporter // Receives snapshots and the summary
	Logger   *slog.Logger       // nil = slog.Default()

	// World replaces the world built from the config. It must have
	// cfg.World.Cells cells and all particles in cell 0.
	World world.World
}

// Simulation is one run: K walkers mutating a shared world while the
// scheduler snapshots it.
type Simulation struct {
	cfg    *config.Config
	runID  string
	seed   int64
	logger *slog.Logger

	world    world.World
	walkers  []*particle.Walker
	reporter telemetry.Reporter

	stop      atomic.Bool
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
}

// NewWorld builds the world for a variant name.
func NewWorld(variant string, cells, particles int) (world.World, error) {
	switch variant {
	case config.VariantLocked:
		return world.NewLocked(cells, particles)
	case config.VariantUnsync:
		return world.NewUnsync(cells, particles)
	default:
		return nil, fmt.Errorf("unknown variant %q: %w", variant, config.ErrInvalid)
	}
}

// New creates a simulation from a validated config. Walkers are created
// here but not started.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	w := opts.World
	if w == nil {
		var err error
		w, err = NewWorld(cfg.World.Variant, cfg.World.Cells, cfg.World.Particles)
		if err != nil {
			return nil, err
		}
	}
	if w.Len() != cfg.World.Cells {
		return nil, fmt.Errorf("world has %d cells, config %d: %w", w.Len(), cfg.World.Cells, config.ErrInvalid)
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Run.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", runID)

	reporter := opts.Reporter
	if reporter == nil {
		reporter = telemetry.Multi{}
	}

	s := &Simulation{
		cfg:       cfg,
		runID:     runID,
		seed:      seed,
		logger:    logger,
		world:     w,
		reporter:  reporter,
		collector: telemetry.NewCollector(runID, cfg.World.Variant, cfg.World.Particles),
		perf:      telemetry.NewPerfCollector(perfWindow),
	}

	s.walkers = make([]*particle.Walker, cfg.World.Particles)
	for i := range s.walkers {
		s.walkers[i] = particle.New(i, w, particle.NewRNG(seed, i),
			cfg.World.RightBias, cfg.Derived.StepInterval)
	}

	return s, nil
}

// RunID returns the run identifier.
func (s *Simulation) RunID() string {
	return s.runID
}

// Seed returns the effective RNG seed.
func (s *Simulation) Seed() int64 {
	return s.seed
}

// World returns the shared world.
func (s *Simulation) World() world.World {
	return s.world
}
