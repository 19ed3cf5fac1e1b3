package race

import (
	"reflect"
	"testing"
)

func TestLCGKnownSequence(t *testing.T) {
	t.Parallel()

	// Reference values for seed 12345, computed from
	// next = (state*1103515245 + 12345) mod 2^31.
	g := newLCG(12345)
	expected := []uint64{1406932606, 654583775, 1449466924, 229283573, 1109335178}

	for i, want := range expected {
		got := g.next()
		if got != want {
			t.Fatalf("step %d: got %d, expected %d", i, got, want)
		}
	}
}

func TestLCGStateStaysBelowModulus(t *testing.T) {
	t.Parallel()

	g := newLCG(^uint64(0)) // worst-case seed, must still reduce correctly
	for i := 0; i < 1000; i++ {
		if v := g.next(); v >= lcgModulus {
			t.Fatalf("step %d: state %d escaped the modulus", i, v)
		}
	}
}

func TestDrawFinishOrderKnownSeed(t *testing.T) {
	t.Parallel()

	rankings, finishTimes := drawFinishOrder(newRunners(), newLCG(12345))

	// Hand-traced: draw 16 of 21 selects runner 3, then draw 4 of 18
	// selects runner 0, then draw 2 of 12 selects runner 1.
	if rankings[0] != 3 || rankings[1] != 0 || rankings[2] != 1 {
		t.Errorf("rankings = %v, expected to start [3 0 1]", rankings)
	}
	if finishTimes[0] != 50 {
		t.Errorf("finishTimes[0] = %d, expected 50", finishTimes[0])
	}
	if finishTimes[1] != 55 {
		t.Errorf("finishTimes[1] = %d, expected 55", finishTimes[1])
	}
}

func TestDrawFinishOrderDeterministic(t *testing.T) {
	t.Parallel()

	runners := newRunners()

	r1, t1 := drawFinishOrder(runners, newLCG(42))
	r2, t2 := drawFinishOrder(runners, newLCG(42))

	if !reflect.DeepEqual(r1, r2) {
		t.Errorf("same seed produced different rankings: %v vs %v", r1, r2)
	}
	if !reflect.DeepEqual(t1, t2) {
		t.Errorf("same seed produced different finish times: %v vs %v", t1, t2)
	}
}

func TestDrawFinishOrderCompleteField(t *testing.T) {
	t.Parallel()

	runners := newRunners()

	for seed := uint64(0); seed < 200; seed++ {
		rankings, finishTimes := drawFinishOrder(runners, newLCG(seed))

		if len(rankings) != NumRunners {
			t.Fatalf("seed %d: %d rankings, expected %d", seed, len(rankings), NumRunners)
		}
		if len(finishTimes) != NumRunners {
			t.Fatalf("seed %d: %d finish times, expected %d", seed, len(finishTimes), NumRunners)
		}

		seen := make(map[int]bool, NumRunners)
		for _, id := range rankings {
			if !validRunner(id) {
				t.Fatalf("seed %d: invalid runner id %d in rankings", seed, id)
			}
			if seen[id] {
				t.Fatalf("seed %d: runner %d appears twice in %v", seed, id, rankings)
			}
			seen[id] = true
		}

		for position, ft := range finishTimes {
			lo := 50 + 2*uint64(position)
			if ft < lo || ft > lo+4 {
				t.Errorf("seed %d position %d: finish time %d outside [%d,%d]",
					seed, position, ft, lo, lo+4)
			}
		}
	}
}
