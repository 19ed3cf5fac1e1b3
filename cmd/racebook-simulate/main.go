package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/racebook/internal/race"
	"github.com/lox/racebook/internal/simulator"
)

type CLI struct {
	Races   int   `default:"100000" help:"Number of races to simulate"`
	Seed    int64 `default:"0" help:"Base seed for per-race seeds (0 for time-based)"`
	Verbose bool  `short:"v" help:"Verbose logging"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli)

	if cli.Seed == 0 {
		cli.Seed = time.Now().UnixNano()
	}

	var logger *log.Logger
	if cli.Verbose {
		logger = log.NewWithOptions(os.Stderr, log.Options{Level: log.DebugLevel})
	} else {
		logger = log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})
	}

	fmt.Printf("Simulating %d races (seed: %d)\n\n", cli.Races, cli.Seed)

	sim := simulator.New(simulator.Config{
		Races:  cli.Races,
		Seed:   cli.Seed,
		Logger: logger,
	})

	startTime := time.Now()
	results, err := sim.Run()
	if err != nil {
		logger.Fatal("Simulation failed", "error", err)
	}
	duration := time.Since(startTime)

	printResults(results, duration)
	ctx.Exit(0)
}

func printResults(results *simulator.Results, duration time.Duration) {
	racesPerSec := float64(results.Races) / duration.Seconds()
	fmt.Printf("=== RESULTS ===\n")
	fmt.Printf("Races: %d in %v (%.0f races/sec)\n\n", results.Races, duration.Round(time.Millisecond), racesPerSec)

	fmt.Printf("First place wins by runner:\n")
	for id, wins := range results.FirstWins {
		share := uint64(wins) * race.Precision / uint64(results.Races)
		fmt.Printf("  %d  wins=%-8d observed=%-5s expected=%s\n",
			id, wins, formatShare(share), formatShare(race.WinProbability(id)))
	}

	fmt.Printf("\nExacta frequencies (pairs with configured odds):\n")
	fmt.Printf("  %-7s %-8s %-10s %-12s %s\n", "pair", "count", "observed", "theoretical", "multiplier")
	for _, pc := range results.PairCounts() {
		fmt.Printf("  (%d,%d)   %-8d %-10s %-12s %dx\n",
			pc.First, pc.Second, pc.Count, formatShare(pc.Observed), formatShare(pc.Theoretical), pc.Multiplier)
	}
}

// formatShare renders a fixed-point probability as a percentage.
func formatShare(p uint64) string {
	return fmt.Sprintf("%d.%02d%%", p/100, p%100)
}
