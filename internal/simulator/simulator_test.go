package simulator

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/racebook/internal/race"
)

func runSim(t *testing.T, races int, seed int64) *Results {
	t.Helper()
	sim := New(Config{
		Races:  races,
		Seed:   seed,
		Logger: log.New(io.Discard),
	})
	results, err := sim.Run()
	require.NoError(t, err)
	return results
}

func TestSimulatorRejectsNonPositiveRaces(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Races: 0, Seed: 1}).Run()
	require.Error(t, err)
}

func TestSimulatorDeterministic(t *testing.T) {
	t.Parallel()

	first := runSim(t, 500, 7)
	second := runSim(t, 500, 7)

	assert.Equal(t, first.FirstWins, second.FirstWins)
	assert.Equal(t, first.ExactaHits, second.ExactaHits)
}

func TestSimulatorCountsAddUp(t *testing.T) {
	t.Parallel()

	const races = 2000
	results := runSim(t, races, 99)

	var wins int
	for _, w := range results.FirstWins {
		wins += w
	}
	assert.Equal(t, races, wins, "every race has exactly one winner")

	var hits int
	for _, h := range results.ExactaHits {
		hits += h
	}
	assert.Equal(t, races, hits, "every race has exactly one winning exacta")
}

func TestSimulatorDistributionTracksStrengths(t *testing.T) {
	t.Parallel()

	const races = 20000
	results := runSim(t, races, 1)

	// The strongest runner wins far more often than the weakest
	assert.Greater(t, results.FirstWins[0], results.FirstWins[5])

	// Observed win rate for runner 0 should land near its 2857/10000
	// share; the tolerance is many standard deviations wide.
	observed := uint64(results.FirstWins[0]) * race.Precision / races
	assert.Greater(t, observed, uint64(2500))
	assert.Less(t, observed, uint64(3250))
}

func TestPairCountsCoverOddsTable(t *testing.T) {
	t.Parallel()

	results := runSim(t, 500, 3)
	counts := results.PairCounts()

	require.Len(t, counts, race.NumRunners*(race.NumRunners-1))
	for _, pc := range counts {
		assert.NotZero(t, pc.Multiplier, "pair (%d,%d)", pc.First, pc.Second)
		assert.NotZero(t, pc.Theoretical, "pair (%d,%d)", pc.First, pc.Second)
		assert.Equal(t, race.ExactaProbability(pc.First, pc.Second), pc.Theoretical)
	}
}
