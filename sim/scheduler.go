package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/pthm-cable/cells/telemetry"
)

// schedule takes cfg.Run.Ticks snapshots, one per snapshot interval, on the
// calling goroutine. It returns early without error if ctx is cancelled.
func (s *Simulation) schedule(ctx context.Context) error {
	interval := s.cfg.Derived.SnapshotInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for tick := 1; tick <= s.cfg.Run.Ticks; tick++ {
		select {
		case <-ctx.Done():
			s.logger.Info("snapshot schedule interrupted", "tick", tick-1)
			return nil
		case <-ticker.C:
		}

		second := int(time.Duration(tick) * interval / time.Second)
		if err := s.snapshot(tick, second); err != nil {
			return err
		}
	}
	return nil
}

// snapshot reads every cell once and hands the result to the reporter.
func (s *Simulation) snapshot(tick, second int) error {
	s.perf.StartTick()
	defer s.perf.EndTick()

	s.perf.StartPhase(telemetry.PhaseSnapshot)
	counts := s.world.Snapshot()

	s.perf.StartPhase(telemetry.PhaseReport)
	snap := telemetry.NewSnapshot(tick, second, counts)
	s.collector.Record(snap)

	if s.cfg.Telemetry.LogStats {
		s.logger.Info("snapshot", "snapshot", snap)
	}
	if err := s.reporter.ReportSnapshot(snap); err != nil {
		return fmt.Errorf("report snapshot %d: %w", tick, err)
	}
	return nil
}
