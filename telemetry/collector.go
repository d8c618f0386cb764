package telemetry

import (
	"log/slog"
	"time"
)

// Summary is the end-of-run conservation report.
type Summary struct {
	RunID   string `json:"run_id"`
	Variant string `json:"variant"`

	Initial   int   `json:"initial"`   // K
	Final     int   `json:"final"`     // Sum of all cells after every walker stopped
	Conserved bool  `json:"conserved"` // Final == Initial
	Cells     []int `json:"cells"`

	NegativeCells int `json:"negative_cells"`
	Steps         int `json:"steps"` // Transfers performed by all walkers

	// Snapshot history
	Snapshots     int `json:"snapshots"`
	TornSnapshots int `json:"torn_snapshots"` // Snapshots whose total != K
	MinObserved   int `json:"min_observed_total"`
	MaxObserved   int `json:"max_observed_total"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// Collector accumulates snapshots over a run and produces the Summary.
// It is used from the scheduler goroutine only.
type Collector struct {
	runID    string
	variant  string
	expected int
	started  time.Time

	snapshots   int
	torn        int
	minObserved int
	maxObserved int
}

// NewCollector creates a collector for a run with expected particles.
func NewCollector(runID, variant string, expected int) *Collector {
	return &Collector{
		runID:    runID,
		variant:  variant,
		expected: expected,
		started:  time.Now(),
	}
}

// Record adds a snapshot to the run history.
func (c *Collector) Record(s Snapshot) {
	total := s.Stats.Total
	if c.snapshots == 0 || total < c.minObserved {
		c.minObserved = total
	}
	if c.snapshots == 0 || total > c.maxObserved {
		c.maxObserved = total
	}
	if total != c.expected {
		c.torn++
	}
	c.snapshots++
}

// Flush produces the Summary from the final cell counts.
func (c *Collector) Flush(final []int, steps int) Summary {
	stats := ComputeStats(final)
	return Summary{
		RunID:         c.runID,
		Variant:       c.variant,
		Initial:       c.expected,
		Final:         stats.Total,
		Conserved:     stats.Total == c.expected,
		Cells:         final,
		NegativeCells: stats.NegativeCells,
		Steps:         steps,
		Snapshots:     c.snapshots,
		TornSnapshots: c.torn,
		MinObserved:   c.minObserved,
		MaxObserved:   c.maxObserved,
		Elapsed:       time.Since(c.started),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.String("variant", s.Variant),
		slog.Int("initial", s.Initial),
		slog.Int("final", s.Final),
		slog.Bool("conserved", s.Conserved),
		slog.Int("negative_cells", s.NegativeCells),
		slog.Int("steps", s.Steps),
		slog.Int("snapshots", s.Snapshots),
		slog.Int("torn_snapshots", s.TornSnapshots),
		slog.Int("min_observed_total", s.MinObserved),
		slog.Int("max_observed_total", s.MaxObserved),
		slog.Duration("elapsed", s.Elapsed),
	)
}
