// Package simulator runs repeated race cycles against a fresh engine and
// compares observed winning-exacta frequencies with the theoretical
// fixed-point probability table. The probability model never feeds the draw,
// so the two can only be reconciled empirically.
package simulator

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/racebook/internal/race"
	"github.com/lox/racebook/internal/store"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// Config holds configuration for running simulations
type Config struct {
	Races  int
	Seed   int64
	Logger *log.Logger
}

// PairCount tallies one ordered pair's observed and theoretical rates.
type PairCount struct {
	First       int
	Second      int
	Count       int
	Observed    uint64 // frequency scaled by race.Precision
	Theoretical uint64 // race.ExactaProbability, same scale
	Multiplier  uint64
}

// Results aggregates a simulation run.
type Results struct {
	Races      int
	FirstWins  [race.NumRunners]int // wins by runner id
	ExactaHits map[race.ExactaPair]int
}

// Simulator drives repeated race cycles.
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	return &Simulator{config: config}
}

// Run executes the simulation and returns aggregate results. Per-race seeds
// are drawn from a PCG stream derived from the base seed, so the whole run is
// reproducible from Config.Seed.
func (s *Simulator) Run() (*Results, error) {
	if s.config.Races <= 0 {
		return nil, fmt.Errorf("simulator: races must be positive, got %d", s.config.Races)
	}

	logger := s.config.Logger
	if logger == nil {
		logger = log.Default()
	}

	const owner = "simulator"
	engine := race.NewEngine(owner, store.NewMemoryStore(), logger, quartz.NewReal())
	seeds := seedStream(s.config.Seed)

	results := &Results{
		Races:      s.config.Races,
		ExactaHits: make(map[race.ExactaPair]int),
	}

	for i := 0; i < s.config.Races; i++ {
		if err := engine.StartRace(owner, seeds()); err != nil {
			return nil, fmt.Errorf("simulator: start race %d: %w", i+1, err)
		}
		outcome, err := engine.RunRace()
		if err != nil {
			return nil, fmt.Errorf("simulator: run race %d: %w", i+1, err)
		}
		if _, err := engine.Settle(); err != nil {
			return nil, fmt.Errorf("simulator: settle race %d: %w", i+1, err)
		}
		if err := engine.Reset(owner); err != nil {
			return nil, fmt.Errorf("simulator: reset race %d: %w", i+1, err)
		}

		results.FirstWins[outcome.Rankings[0]]++
		results.ExactaHits[outcome.WinningExacta]++
	}

	logger.Info("Simulation complete", "races", results.Races)
	return results, nil
}

// PairCounts returns per-pair tallies for every pair with a configured
// multiplier, in probability-table order.
func (r *Results) PairCounts() []PairCount {
	table := race.ProbabilityTable(race.NewOddsTable())
	counts := make([]PairCount, len(table))
	for i, entry := range table {
		pair := race.ExactaPair{First: entry.First, Second: entry.Second}
		hits := r.ExactaHits[pair]
		counts[i] = PairCount{
			First:       entry.First,
			Second:      entry.Second,
			Count:       hits,
			Observed:    uint64(hits) * race.Precision / uint64(r.Races),
			Theoretical: entry.Probability,
			Multiplier:  entry.Multiplier,
		}
	}
	return counts
}

// seedStream returns a generator of per-race seeds. It mirrors how rand/v2
// wants two well-mixed 64-bit seeds for its PCG source.
func seedStream(seed int64) func() uint64 {
	u := uint64(seed)
	rng := rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
	return rng.Uint64
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
