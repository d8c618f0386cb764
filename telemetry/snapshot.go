package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Snapshot is one periodic read of every cell count.
type Snapshot struct {
	Tick   int   // 1-based scheduler tick
	Second int   // Elapsed whole seconds at this tick
	Counts []int // Counts in index order
	Stats  Stats
}

// NewSnapshot builds a snapshot and computes its stats.
func NewSnapshot(tick, second int, counts []int) Snapshot {
	return Snapshot{
		Tick:   tick,
		Second: second,
		Counts: counts,
		Stats:  ComputeStats(counts),
	}
}

// SnapshotRecord is the CSV row form of a Snapshot.
type SnapshotRecord struct {
	RunID    string  `csv:"run_id"`
	Tick     int     `csv:"tick"`
	Second   int     `csv:"second"`
	Total    int     `csv:"total"`
	Occupied int     `csv:"occupied"`
	Negative int     `csv:"negative_cells"`
	Mean     float64 `csv:"mean"`
	StdDev   float64 `csv:"std_dev"`
	Median   float64 `csv:"median"`
	Cells    string  `csv:"cells"`
}

// ToRecord converts the snapshot to its CSV row.
func (s Snapshot) ToRecord(runID string) SnapshotRecord {
	return SnapshotRecord{
		RunID:    runID,
		Tick:     s.Tick,
		Second:   s.Second,
		Total:    s.Stats.Total,
		Occupied: s.Stats.Occupied,
		Negative: s.Stats.NegativeCells,
		Mean:     s.Stats.Mean,
		StdDev:   s.Stats.StdDev,
		Median:   s.Stats.Median,
		Cells:    FormatCounts(s.Counts),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", s.Tick),
		slog.Int("second", s.Second),
		slog.String("cells", FormatCounts(s.Counts)),
		slog.Any("stats", s.Stats),
	)
}

// SaveSummary writes a run summary as indented JSON.
func SaveSummary(summary Summary, path string) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// LoadSummary reads a summary written by SaveSummary.
func LoadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}

	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}

	return &summary, nil
}
