package race

import "time"

// Wager is an exacta wager recorded against the active race. Wagers are
// immutable once placed and cleared as a collection when the race is reset.
type Wager struct {
	Bettor     string
	Amount     uint64
	FirstPick  int
	SecondPick int
	PlacedAt   time.Time
}

// Payout records a winning wager's settlement.
type Payout struct {
	Bettor      string
	WagerAmount uint64
	Multiplier  uint64
	Amount      uint64 // WagerAmount * Multiplier
	Exacta      ExactaPair
}
