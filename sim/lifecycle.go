package sim

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/cells/config"
	"github.com/pthm-cable/cells/particle"
	"github.com/pthm-cable/cells/telemetry"
)

// Run starts every walker, drives the snapshot schedule, stops the walkers,
// waits for all of them and reports the conservation summary.
//
// A lost total is reported in the Summary, never returned as an error. The
// returned error is a walker contract violation or a reporter failure.
// Cancelling ctx ends the run early; the walkers still get joined and the
// summary is still produced.
func (s *Simulation) Run(ctx context.Context) (telemetry.Summary, error) {
	s.logger.Info("starting simulation",
		"variant", s.cfg.World.Variant,
		"cells", s.cfg.World.Cells,
		"particles", s.cfg.World.Particles,
		"right_bias", s.cfg.World.RightBias,
		"ticks", s.cfg.Run.Ticks,
		"duration", s.cfg.Derived.Duration,
		"seed", s.seed,
	)

	group, gctx := errgroup.WithContext(ctx)
	for _, w := range s.walkers {
		group.Go(func() error {
			return runWalker(gctx, w, s)
		})
	}

	// A failing walker cancels gctx, which also ends the schedule.
	schedErr := s.schedule(gctx)

	s.Stop()
	walkErr := group.Wait()

	summary, verifyErr := s.verify()
	if verifyErr != nil {
		return summary, errors.Join(walkErr, schedErr, verifyErr)
	}

	s.logger.Debug("scheduler perf", "perf", s.perf.Stats())
	s.logConservation(summary)

	reportErr := s.reporter.ReportSummary(summary)
	if reportErr != nil {
		reportErr = fmt.Errorf("report summary: %w", reportErr)
	}

	return summary, errors.Join(walkErr, schedErr, reportErr)
}

// runWalker runs one walker and drops cancellation-shaped exits, which are
// a normal way to stop.
func runWalker(ctx context.Context, w *particle.Walker, s *Simulation) error {
	err := w.Run(ctx, &s.stop)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Stop sets the run-stop flag. Walkers finish within one step interval.
func (s *Simulation) Stop() {
	s.stop.Store(true)
}

// verify reads every cell after all walkers have stopped and builds the
// summary.
func (s *Simulation) verify() (telemetry.Summary, error) {
	final := make([]int, s.world.Len())
	for i := range final {
		c, err := s.world.Read(i)
		if err != nil {
			return telemetry.Summary{}, fmt.Errorf("final read: %w", err)
		}
		final[i] = c
	}

	steps := 0
	for _, w := range s.walkers {
		steps += w.Steps()
	}
	return s.collector.Flush(final, steps), nil
}

func (s *Simulation) logConservation(summary telemetry.Summary) {
	switch {
	case summary.Conserved:
		s.logger.Info("particle total conserved", "total", summary.Final, "steps", summary.Steps)
	case s.cfg.World.Variant == config.VariantLocked:
		s.logger.Error("particle total changed under per-cell locking",
			"initial", summary.Initial, "final", summary.Final)
	default:
		s.logger.Warn("particle total changed without synchronization",
			"initial", summary.Initial, "final", summary.Final,
			"torn_snapshots", summary.TornSnapshots)
	}
}
