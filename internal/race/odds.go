package race

// canonicalOdds holds the hand-tuned exacta multipliers, indexed
// [first][second]. The diagonal and any unlisted pair stay zero, which
// settlement treats as "no payout defined".
var canonicalOdds = [NumRunners][NumRunners]uint64{
	0: {5: 60, 4: 30, 3: 10, 2: 3, 1: 2},
	1: {5: 175, 4: 125, 3: 20, 2: 5, 0: 3},
	2: {5: 100, 4: 80, 3: 8, 1: 6, 0: 4},
	3: {5: 500, 4: 250, 2: 12, 1: 15, 0: 8},
	4: {5: 1000, 3: 300, 2: 100, 1: 150, 0: 40},
	5: {4: 1500, 3: 600, 2: 200, 1: 250, 0: 80},
}

// OddsTable maps every ordered (first, second) pair to its payout multiplier.
// It is populated once at construction and never remapped afterwards.
type OddsTable struct {
	multipliers [NumRunners][NumRunners]uint64
}

// NewOddsTable returns the canonical odds table.
func NewOddsTable() *OddsTable {
	return &OddsTable{multipliers: canonicalOdds}
}

// Lookup returns the multiplier for the ordered pair, or 0 for the diagonal,
// out-of-range ids, and pairs with no configured payout.
func (t *OddsTable) Lookup(first, second int) uint64 {
	if !validRunner(first) || !validRunner(second) {
		return 0
	}
	return t.multipliers[first][second]
}
