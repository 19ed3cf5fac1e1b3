package race

// ProbabilityEntry pairs an ordered pick with its theoretical probability
// (scaled by Precision) and configured multiplier.
type ProbabilityEntry struct {
	First       int
	Second      int
	Probability uint64
	Multiplier  uint64
}

// ExactaProbability returns the fixed-point probability of the ordered pair
// finishing first and second:
//
//	P(i then j) = (S[i] / sum(S)) * (S[j] / (sum(S) - S[i]))
//
// scaled by Precision, with floor division at every step. It returns 0 for
// out-of-range ids or first == second. This is a display and audit quantity;
// the outcome draw samples raw strengths directly and never consumes it.
func ExactaProbability(first, second int) uint64 {
	if !validRunner(first) || !validRunner(second) || first == second {
		return 0
	}

	sFirst := runnerStrengths[first]
	sSecond := runnerStrengths[second]

	pFirst := sFirst * Precision / TotalStrength

	remaining := TotalStrength - sFirst
	pSecondGivenFirst := sSecond * Precision / remaining

	return pFirst * pSecondGivenFirst / Precision
}

// WinProbability returns the fixed-point probability of a runner finishing
// first, which is just its normalized strength share. Returns 0 for
// out-of-range ids.
func WinProbability(id int) uint64 {
	if !validRunner(id) {
		return 0
	}
	return runnerStrengths[id] * Precision / TotalStrength
}

// ProbabilityTable enumerates every ordered pair with a configured multiplier,
// in ascending (first, second) order. Pairs whose multiplier is 0 are omitted
// rather than zero-filled.
func ProbabilityTable(odds *OddsTable) []ProbabilityEntry {
	table := make([]ProbabilityEntry, 0, NumRunners*(NumRunners-1))
	for first := 0; first < NumRunners; first++ {
		for second := 0; second < NumRunners; second++ {
			if first == second {
				continue
			}
			mult := odds.Lookup(first, second)
			if mult == 0 {
				continue
			}
			table = append(table, ProbabilityEntry{
				First:       first,
				Second:      second,
				Probability: ExactaProbability(first, second),
				Multiplier:  mult,
			})
		}
	}
	return table
}
