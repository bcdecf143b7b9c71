package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/pyre/config"
	"github.com/pthm-cable/pyre/sim"
	"github.com/pthm-cable/pyre/systems"
	"github.com/pthm-cable/pyre/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster runs)")
	listSystems := flag.Bool("list-systems", false, "List simulation systems and exit")

	flag.Parse()

	if *listSystems {
		for _, info := range systems.NewSystemRegistry().All() {
			fmt.Printf("%-12s %-14s %s\n", info.ID, info.Name, info.Description)
		}
		return
	}

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()

	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	s, err := sim.New(cfg, sim.Options{
		Seed:     rngSeed,
		Output:   output,
		LogStats: *logStats,
	})
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	if err := s.SpawnScenario(cfg.Scenario, cfg.World.ExtentM); err != nil {
		slog.Error("failed to spawn scenario", "error", err)
		os.Exit(1)
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"steps_per_update", *stepsPerUpdate,
		"frame_rate_hz", cfg.Scenario.FrameRateHz,
	)

	dt := cfg.Derived.FrameDT32
	for {
		for i := 0; i < *stepsPerUpdate; i++ {
			s.Step(dt)
		}

		if *maxTicks > 0 && int(s.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", s.Tick())
			return
		}
	}
}
