package race

const (
	// Precision for fixed-point arithmetic (4 decimal places)
	Precision uint64 = 10000

	// NumRunners is the number of runners in every race
	NumRunners = 6

	// TotalStrength is the sum of the canonical strength vector (6+5+4+3+2+1)
	TotalStrength uint64 = 21
)

// runnerStrengths is the canonical strength vector, strictly decreasing by id
var runnerStrengths = [NumRunners]uint64{6, 5, 4, 3, 2, 1}

// runnerNames are the display names for the canonical field
var runnerNames = [NumRunners]string{
	"Thunder Bolt",
	"Silver Arrow",
	"Golden Star",
	"Dark Knight",
	"Wild Spirit",
	"Lucky Charm",
}

// Runner is an immutable participant in the race. NormalizedShare is the
// runner's strength as a fixed-point fraction of TotalStrength; the six shares
// are independent floor divisions and are not required to sum to Precision.
// BaseSpeed is part of the published model but unused by sampling.
type Runner struct {
	ID              int
	Name            string
	Strength        uint64
	NormalizedShare uint64
	BaseSpeed       uint64
}

// newRunners builds the canonical six-runner field.
func newRunners() []Runner {
	runners := make([]Runner, NumRunners)
	for i := 0; i < NumRunners; i++ {
		strength := runnerStrengths[i]
		runners[i] = Runner{
			ID:              i,
			Name:            runnerNames[i],
			Strength:        strength,
			NormalizedShare: strength * Precision / TotalStrength,
			BaseSpeed:       14 + strength,
		}
	}
	return runners
}

// validRunner reports whether id identifies one of the six runners.
func validRunner(id int) bool {
	return id >= 0 && id < NumRunners
}
