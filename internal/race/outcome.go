package race

// ExactaPair is an ordered (first place, second place) pick.
type ExactaPair struct {
	First  int `json:"first"`
	Second int `json:"second"`
}

// Outcome is the immutable result of a single race draw.
type Outcome struct {
	RaceID        uint64
	Rankings      []int    // runner ids in finish order
	FinishTimes   []uint64 // parallel to Rankings
	WinningExacta ExactaPair
	TotalPot      uint64 // pot size at the moment of the draw
	Seed          uint64
}

// drawFinishOrder runs the weighted draw without replacement over the full
// field. For each position it re-sums the strengths of the runners still in
// the pool, takes one generator step for the selection draw, and scans the
// runners in ascending id order selecting the first whose cumulative strength
// exceeds the draw. The ascending scan order is part of the observable
// contract: changing it changes which runner a given draw value selects.
// A second generator step produces the position's finish time.
func drawFinishOrder(runners []Runner, rng *lcg) (rankings []int, finishTimes []uint64) {
	available := make([]bool, len(runners))
	for i := range available {
		available[i] = true
	}

	rankings = make([]int, 0, len(runners))
	finishTimes = make([]uint64, 0, len(runners))

	for position := 0; position < len(runners); position++ {
		var remaining uint64
		for i, r := range runners {
			if available[i] {
				remaining += r.Strength
			}
		}
		if remaining == 0 {
			// Cannot happen with the canonical strength vector, but a
			// zero-strength pool must not divide below.
			break
		}

		draw := rng.next() % remaining

		selected := 0
		var cumulative uint64
		for i, r := range runners {
			if !available[i] {
				continue
			}
			cumulative += r.Strength
			if draw < cumulative {
				selected = i
				break
			}
		}

		available[selected] = false
		rankings = append(rankings, selected)

		variation := rng.next() % 5
		finishTimes = append(finishTimes, 50+2*uint64(position)+variation)
	}

	return rankings, finishTimes
}
