package race

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Engine is a single race book: it gates every operation on the race
// lifecycle, records wagers against the pot, runs the deterministic outcome
// draw, and settles winning wagers against the odds table. It is an explicit,
// constructible value so multiple independent instances can coexist. All
// public operations are serialized behind one mutex; nothing suspends
// mid-operation, so every call is an atomic state transition.
type Engine struct {
	mu sync.Mutex

	owner    string
	runners  []Runner
	odds     *OddsTable
	balances BalanceStore
	events   EventBus
	logger   *log.Logger
	clock    quartz.Clock

	state   State
	raceID  uint64
	seed    uint64
	pot     uint64
	wagers  []Wager
	payouts []Payout
	history []Outcome
	latest  *Outcome
}

// NewEngine creates an engine owned by the given account, storing balances in
// store. The clock stamps wager placement times; pass quartz.NewReal()
// outside tests.
func NewEngine(owner string, store BalanceStore, logger *log.Logger, clock quartz.Clock) *Engine {
	return &Engine{
		owner:    owner,
		runners:  newRunners(),
		odds:     NewOddsTable(),
		balances: store,
		events:   NewEventBus(),
		logger:   logger.WithPrefix("race"),
		clock:    clock,
		state:    StateAccepting,
	}
}

// EventBus returns the event bus for subscribing to race events.
func (e *Engine) EventBus() EventBus {
	return e.events
}

// Deposit credits an account. Only the owner may credit deposits; bettors
// cannot mint their own funds.
func (e *Engine) Deposit(caller, account string, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return ErrNotOwner
	}
	if err := e.credit(account, amount); err != nil {
		return err
	}

	e.logger.Debug("Deposit credited", "account", account, "amount", amount)
	e.events.Publish(NewDepositedEvent(account, amount))
	return nil
}

// Withdraw debits the caller's own balance.
func (e *Engine) Withdraw(caller string, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.debit(caller, amount); err != nil {
		return err
	}

	e.logger.Debug("Withdrawal debited", "account", caller, "amount", amount)
	e.events.Publish(NewWithdrawnEvent(caller, amount))
	return nil
}

// Balance returns the balance for an account.
func (e *Engine) Balance(account string) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances.Balance(account)
}

// PlaceWager records an exacta wager on behalf of a bettor. Wagers are
// relayed by the owner rather than self-service; that trust model is part of
// the engine's contract. The check order is significant for deterministic
// error reporting: authorization, lifecycle, pick range, pick distinctness,
// amount, balance. On success the stake is debited, the wager recorded and
// the pot grown, atomically with respect to other operations.
func (e *Engine) PlaceWager(caller, bettor string, firstPick, secondPick int, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return ErrNotOwner
	}
	if e.state != StateAccepting {
		return ErrBettingClosed
	}
	if !validRunner(firstPick) || !validRunner(secondPick) {
		return ErrInvalidRunner
	}
	if firstPick == secondPick {
		return ErrSamePick
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	if err := e.debit(bettor, amount); err != nil {
		return err
	}

	e.wagers = append(e.wagers, Wager{
		Bettor:     bettor,
		Amount:     amount,
		FirstPick:  firstPick,
		SecondPick: secondPick,
		PlacedAt:   e.clock.Now(),
	})
	e.pot += amount

	e.logger.Info("Wager placed",
		"bettor", bettor,
		"first", firstPick,
		"second", secondPick,
		"amount", amount,
		"pot", e.pot)
	e.events.Publish(NewWagerPlacedEvent(bettor, firstPick, secondPick, amount))
	return nil
}

// StartRace closes wagering and records the seed for the draw. Owner only;
// requires the accepting state. The race id increments monotonically across
// cycles.
func (e *Engine) StartRace(caller string, seed uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return ErrNotOwner
	}
	if e.state != StateAccepting {
		return ErrBettingClosed
	}

	e.seed = seed
	e.raceID++
	e.state = StateRunning

	e.logger.Info("Race started", "raceID", e.raceID, "seed", seed, "wagers", len(e.wagers))
	e.events.Publish(NewRaceStartedEvent(e.raceID, seed, len(e.wagers)))
	return nil
}

// RunRace performs the weighted draw and produces the race outcome. Requires
// the running state. The outcome is stored as latest, appended to history and
// immutable afterwards.
func (e *Engine) RunRace() (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning {
		return Outcome{}, ErrRaceNotRunning
	}

	rankings, finishTimes := drawFinishOrder(e.runners, newLCG(e.seed))

	outcome := Outcome{
		RaceID:        e.raceID,
		Rankings:      rankings,
		FinishTimes:   finishTimes,
		WinningExacta: ExactaPair{First: rankings[0], Second: rankings[1]},
		TotalPot:      e.pot,
		Seed:          e.seed,
	}

	e.latest = &outcome
	e.history = append(e.history, outcome)
	e.state = StateFinished

	e.logger.Info("Race finished",
		"raceID", outcome.RaceID,
		"rankings", outcome.Rankings,
		"exacta", outcome.WinningExacta)
	e.events.Publish(NewRaceFinishedEvent(outcome.RaceID, rankings[0], rankings[1], rankings[2]))

	return copyOutcome(outcome), nil
}

// Settle scans every recorded wager in placement order and credits each exact
// match with amount * multiplier. Losing stakes stay in the pot; they were
// debited at placement. The state guard makes settlement run exactly once per
// race: a second call fails without re-crediting. Requires the finished
// state; transitions to closed.
func (e *Engine) Settle() ([]Payout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateFinished {
		return nil, ErrRaceNotFinished
	}

	winning := e.latest.WinningExacta
	multiplier := e.odds.Lookup(winning.First, winning.Second)

	settled := make([]Payout, 0)
	for _, w := range e.wagers {
		if w.FirstPick != winning.First || w.SecondPick != winning.Second {
			continue
		}

		amount := w.Amount * multiplier
		if err := e.credit(w.Bettor, amount); err != nil {
			return nil, err
		}

		payout := Payout{
			Bettor:      w.Bettor,
			WagerAmount: w.Amount,
			Multiplier:  multiplier,
			Amount:      amount,
			Exacta:      winning,
		}
		settled = append(settled, payout)
		e.payouts = append(e.payouts, payout)

		e.logger.Info("Payout distributed",
			"bettor", w.Bettor,
			"amount", amount,
			"multiplier", multiplier)
		e.events.Publish(NewPayoutDistributedEvent(w.Bettor, amount, multiplier))
	}

	e.state = StateClosed
	return settled, nil
}

// Reset clears the per-race collections and re-opens wagering for the next
// cycle. Owner only; requires the closed state — there is no implicit
// auto-reset.
func (e *Engine) Reset(caller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return ErrNotOwner
	}
	if e.state != StateClosed {
		return ErrRaceNotClosed
	}

	e.wagers = nil
	e.payouts = nil
	e.pot = 0
	e.seed = 0
	e.state = StateAccepting

	e.logger.Info("Race reset", "nextRaceID", e.raceID+1)
	return nil
}

// SetOwner transfers engine ownership. Owner only.
func (e *Engine) SetOwner(caller, newOwner string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return ErrNotOwner
	}
	e.owner = newOwner
	return nil
}

// Owner returns the owning account.
func (e *Engine) Owner() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// RaceID returns the current race id.
func (e *Engine) RaceID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.raceID
}

// Pot returns the total staked on the active race.
func (e *Engine) Pot() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pot
}

// Runners returns the six-runner field.
func (e *Engine) Runners() []Runner {
	e.mu.Lock()
	defer e.mu.Unlock()
	runners := make([]Runner, len(e.runners))
	copy(runners, e.runners)
	return runners
}

// Runner returns a runner by id.
func (e *Engine) Runner(id int) (Runner, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !validRunner(id) {
		return Runner{}, ErrInvalidRunner
	}
	return e.runners[id], nil
}

// Wagers returns the wagers recorded against the active race, in placement
// order.
func (e *Engine) Wagers() []Wager {
	e.mu.Lock()
	defer e.mu.Unlock()
	wagers := make([]Wager, len(e.wagers))
	copy(wagers, e.wagers)
	return wagers
}

// Payouts returns the payouts recorded for the current race.
func (e *Engine) Payouts() []Payout {
	e.mu.Lock()
	defer e.mu.Unlock()
	payouts := make([]Payout, len(e.payouts))
	copy(payouts, e.payouts)
	return payouts
}

// LatestOutcome returns the most recent race outcome, or false if no race has
// run yet.
func (e *Engine) LatestOutcome() (Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.latest == nil {
		return Outcome{}, false
	}
	return copyOutcome(*e.latest), true
}

// History returns all race outcomes, oldest first.
func (e *Engine) History() []Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	history := make([]Outcome, len(e.history))
	for i, o := range e.history {
		history[i] = copyOutcome(o)
	}
	return history
}

// Multiplier returns the payout multiplier for an ordered pair.
func (e *Engine) Multiplier(first, second int) uint64 {
	return e.odds.Lookup(first, second)
}

// Probability returns the theoretical fixed-point probability for an ordered
// pair.
func (e *Engine) Probability(first, second int) uint64 {
	return ExactaProbability(first, second)
}

// ProbabilityTable returns probability and multiplier for every pair with a
// configured payout.
func (e *Engine) ProbabilityTable() []ProbabilityEntry {
	return ProbabilityTable(e.odds)
}

// copyOutcome deep-copies an outcome so callers cannot alias engine state.
func copyOutcome(o Outcome) Outcome {
	rankings := make([]int, len(o.Rankings))
	copy(rankings, o.Rankings)
	finishTimes := make([]uint64, len(o.FinishTimes))
	copy(finishTimes, o.FinishTimes)
	o.Rankings = rankings
	o.FinishTimes = finishTimes
	return o
}
