package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/cells/config"
)

// OutputManager writes a run's snapshots to CSV and its summary to JSON.
// It implements Reporter.
type OutputManager struct {
	dir          string
	runID        string
	snapshotFile *os.File

	// Track if headers have been written
	snapshotHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir, runID string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "snapshots.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating snapshots.csv: %w", err)
	}

	return &OutputManager{dir: dir, runID: runID, snapshotFile: f}, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// ReportSnapshot appends a snapshot row to snapshots.csv.
func (om *OutputManager) ReportSnapshot(s Snapshot) error {
	if om == nil {
		return nil
	}

	records := []SnapshotRecord{s.ToRecord(om.runID)}

	if !om.snapshotHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.snapshotFile); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		om.snapshotHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.snapshotFile); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}

	return nil
}

// ReportSummary writes summary.json.
func (om *OutputManager) ReportSummary(s Summary) error {
	if om == nil {
		return nil
	}
	return SaveSummary(s, filepath.Join(om.dir, "summary.json"))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes the output files.
func (om *OutputManager) Close() error {
	if om == nil || om.snapshotFile == nil {
		return nil
	}
	return om.snapshotFile.Close()
}
