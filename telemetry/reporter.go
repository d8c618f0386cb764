// Package telemetry turns cell-count snapshots and the end-of-run
// conservation check into reports: console lines, slog records, CSV rows and
// a JSON summary.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Reporter receives snapshots during a run and one summary at the end.
type Reporter interface {
	ReportSnapshot(Snapshot) error
	ReportSummary(Summary) error
}

// Multi fans out to several reporters. Every reporter is called even when
// an earlier one fails; the errors are joined.
type Multi []Reporter

func (m Multi) ReportSnapshot(s Snapshot) error {
	var errs []error
	for _, r := range m {
		if err := r.ReportSnapshot(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) ReportSummary(s Summary) error {
	var errs []error
	for _, r := range m {
		if err := r.ReportSummary(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogReporter emits snapshots at Debug and the summary through slog.
type LogReporter struct {
	Logger *slog.Logger
}

func (l LogReporter) ReportSnapshot(s Snapshot) error {
	l.Logger.Debug("snapshot reported", "tick", s.Tick, "counts", s.Counts)
	return nil
}

// ReportSummary logs at Info when the total was conserved and Warn otherwise.
func (l LogReporter) ReportSummary(s Summary) error {
	level := slog.LevelInfo
	if !s.Conserved {
		level = slog.LevelWarn
	}
	l.Logger.Log(context.Background(), level, "run complete", "summary", s)
	return nil
}

// Console prints human-readable lines:
//
//	[1s] 7 2 1
//	initial particles: 10
//	final particles: 10
//	total conserved: true
type Console struct {
	W io.Writer
}

func (c Console) ReportSnapshot(s Snapshot) error {
	_, err := fmt.Fprintf(c.W, "[%ds] %s\n", s.Second, FormatCounts(s.Counts))
	return err
}

func (c Console) ReportSummary(s Summary) error {
	_, err := fmt.Fprintf(c.W, "initial particles: %d\nfinal particles: %d\ntotal conserved: %t\n",
		s.Initial, s.Final, s.Conserved)
	if err != nil {
		return err
	}
	if !s.Conserved {
		_, err = fmt.Fprintf(c.W, "warning: total changed by %+d\n", s.Final-s.Initial)
	}
	return err
}
