package telemetry

import (
	"log/slog"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Stats summarises the particle distribution of one snapshot.
type Stats struct {
	Total         int     // Sum of all counts
	Occupied      int     // Cells with a positive count
	NegativeCells int     // Cells below zero (only possible without locks)
	Mean          float64 // Mean particle position
	StdDev        float64 // Population std-dev of positions
	Median        float64 // Median particle position
}

// ComputeStats calculates totals and position moments from cell counts.
// Positions are weighted by count; cells with count <= 0 carry no weight.
func ComputeStats(counts []int) Stats {
	var s Stats
	positions := make([]float64, 0, len(counts))
	weights := make([]float64, 0, len(counts))

	for i, c := range counts {
		s.Total += c
		switch {
		case c > 0:
			s.Occupied++
			positions = append(positions, float64(i))
			weights = append(weights, float64(c))
		case c < 0:
			s.NegativeCells++
		}
	}

	if len(positions) == 0 {
		return s
	}

	s.Mean, s.StdDev = stat.PopMeanStdDev(positions, weights)
	// positions are ascending, as Quantile requires
	s.Median = stat.Quantile(0.5, stat.Empirical, positions, weights)
	return s
}

// FormatCounts joins counts with single spaces.
func FormatCounts(counts []int) string {
	var b strings.Builder
	for i, c := range counts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(c))
	}
	return b.String()
}

// LogValue implements slog.LogValuer for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("total", s.Total),
		slog.Int("occupied", s.Occupied),
		slog.Int("negative_cells", s.NegativeCells),
		slog.Float64("mean", s.Mean),
		slog.Float64("std_dev", s.StdDev),
		slog.Float64("median", s.Median),
	)
}
