package race

// State is the lifecycle phase of the active race. Exactly one race is live
// at a time; every mutating operation is gated on the current state.
type State int

const (
	// StateAccepting means wagers may be placed.
	StateAccepting State = iota
	// StateRunning means the race has started and awaits its draw.
	StateRunning
	// StateFinished means the outcome is known and settlement is pending.
	StateFinished
	// StateClosed means payouts are distributed; only reset is legal.
	StateClosed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateAccepting:
		return "accepting"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
