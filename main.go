package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/pthm-cable/cells/config"
	"github.com/pthm-cable/cells/sim"
	"github.com/pthm-cable/cells/telemetry"
)

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitLostTotal = 2 // Locked world failed the conservation check
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cells", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: cells [flags] N K p")
		fmt.Fprintln(stderr, "  N  number of cells (> 0)")
		fmt.Fprintln(stderr, "  K  number of particles (> 0)")
		fmt.Fprintln(stderr, "  p  probability threshold in [0,1]; a particle moves right when a draw exceeds p")
		fs.PrintDefaults()
	}

	// CLI flags
	configPath := fs.String("config", "", "Path to config.yaml (empty = use defaults)")
	variant := fs.String("variant", "", "World variant: locked or unsync (empty = use config)")
	ticks := fs.Int("ticks", 0, "Number of snapshots before stopping (0 = use config)")
	interval := fs.Duration("interval", 0, "Time between snapshots (0 = use config)")
	step := fs.Duration("step", 0, "Pause between particle steps (0 = use config)")
	seed := fs.Int64("seed", 0, "RNG seed (0 = use config, then time-based)")
	outputDir := fs.String("output-dir", "", "Output directory for snapshots.csv, summary.json and config.yaml")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (empty = use config)")
	logStats := fs.Bool("log-stats", false, "Emit every snapshot via slog")
	quiet := fs.Bool("quiet", false, "Do not print snapshot lines to stdout")

	if err := fs.Parse(args); err != nil {
		return exitError
	}

	cfg, err := loadConfig(*configPath, fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		fs.Usage()
		return exitError
	}

	// Apply CLI overrides
	if *variant != "" {
		cfg.World.Variant = *variant
	}
	if *ticks > 0 {
		cfg.Run.Ticks = *ticks
	}
	if *interval > 0 {
		cfg.Run.SnapshotInterval = interval.String()
	}
	if *step > 0 {
		cfg.Run.StepInterval = step.String()
	}
	if *seed != 0 {
		cfg.Run.Seed = *seed
	}
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if *logLevel != "" {
		cfg.Telemetry.LogLevel = *logLevel
	}
	if *logStats {
		cfg.Telemetry.LogStats = true
	}
	if *quiet {
		cfg.Telemetry.Console = false
	}

	// Structured logs go to stderr while stdout carries the console lines.
	logOut := stdout
	if cfg.Telemetry.Console {
		logOut = stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: parseLevel(cfg.Telemetry.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, closeOutput, err := build(cfg, stdout, logger)
	if err != nil {
		logger.Error("failed to create simulation", "error", err)
		return exitError
	}
	defer closeOutput()

	if cfg.Telemetry.Console {
		fmt.Fprintf(stdout, "starting simulation: %d particles, %d cells, %s variant\n",
			cfg.World.Particles, cfg.World.Cells, cfg.World.Variant)
		fmt.Fprintf(stdout, "duration: %s, snapshot every %s\n",
			cfg.Derived.Duration, cfg.Derived.SnapshotInterval)
	}

	summary, err := s.Run(ctx)
	if err != nil {
		logger.Error("simulation failed", "error", err)
		return exitError
	}
	if !summary.Conserved && cfg.World.Variant == config.VariantLocked {
		return exitLostTotal
	}
	return exitOK
}

// loadConfig loads the YAML config and applies the positional N K p.
func loadConfig(path string, positional []string) (*config.Config, error) {
	if len(positional) != 3 {
		return nil, fmt.Errorf("expected 3 arguments (N K p), got %d", len(positional))
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	n, err := strconv.Atoi(positional[0])
	if err != nil {
		return nil, fmt.Errorf("N: %w", err)
	}
	k, err := strconv.Atoi(positional[1])
	if err != nil {
		return nil, fmt.Errorf("K: %w", err)
	}
	p, err := strconv.ParseFloat(positional[2], 64)
	if err != nil {
		return nil, fmt.Errorf("p: %w", err)
	}

	cfg.World.Cells = n
	cfg.World.Particles = k
	cfg.World.RightBias = p
	return cfg, nil
}

// build creates the simulation and its reporters. The returned close
// function flushes file output.
func build(cfg *config.Config, stdout io.Writer, logger *slog.Logger) (*sim.Simulation, func(), error) {
	runID := uuid.NewString()

	om, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir, runID)
	if err != nil {
		return nil, nil, err
	}
	closeOutput := func() {
		if err := om.Close(); err != nil {
			logger.Error("closing output", "error", err)
		}
	}

	reporters := telemetry.Multi{telemetry.LogReporter{Logger: logger}}
	if cfg.Telemetry.Console {
		reporters = append(reporters, telemetry.Console{W: stdout})
	}
	if om != nil {
		if err := om.WriteConfig(cfg); err != nil {
			closeOutput()
			return nil, nil, err
		}
		reporters = append(reporters, om)
		logger.Info("writing output", "dir", om.Dir())
	}

	s, err := sim.New(cfg, sim.Options{RunID: runID, Reporter: reporters, Logger: logger})
	if err != nil {
		closeOutput()
		return nil, nil, err
	}
	return s, closeOutput, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
