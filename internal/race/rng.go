package race

// Linear congruential generator parameters (same as glibc rand).
const (
	lcgMultiplier uint64 = 1103515245
	lcgIncrement  uint64 = 12345
	lcgModulus    uint64 = 1 << 31
)

// lcg is the deterministic generator behind the outcome draw. A single
// instance threads through a whole race, consumed strictly in selection-draw,
// time-draw order for each position, so equal seeds reproduce bit-identical
// outcomes.
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	return &lcg{state: seed}
}

// next advances the generator and returns the new state. Multiply and add
// wrap in uint64 before the modulus reduction.
func (g *lcg) next() uint64 {
	g.state = (g.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return g.state
}
