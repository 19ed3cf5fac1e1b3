package race

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/racebook/internal/store"
)

const testOwner = "operator"

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := log.New(io.Discard)
	return NewEngine(testOwner, store.NewMemoryStore(), logger, quartz.NewReal())
}

func mustDeposit(t *testing.T, e *Engine, account string, amount uint64) {
	t.Helper()
	if err := e.Deposit(testOwner, account, amount); err != nil {
		t.Fatalf("Deposit(%s, %d) failed: %v", account, amount, err)
	}
}

func balanceOf(t *testing.T, e *Engine, account string) uint64 {
	t.Helper()
	balance, err := e.Balance(account)
	if err != nil {
		t.Fatalf("Balance(%s) failed: %v", account, err)
	}
	return balance
}

func TestDepositAndWithdraw(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	if err := e.Deposit("mallory", "mallory", 100); !errors.Is(err, ErrNotOwner) {
		t.Errorf("non-owner deposit: got %v, expected ErrNotOwner", err)
	}

	mustDeposit(t, e, "alice", 1000)
	if got := balanceOf(t, e, "alice"); got != 1000 {
		t.Errorf("balance after deposit = %d, expected 1000", got)
	}

	if err := e.Withdraw("alice", 2000); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("over-withdrawal: got %v, expected ErrInsufficientBalance", err)
	}
	if got := balanceOf(t, e, "alice"); got != 1000 {
		t.Errorf("balance mutated by failed withdrawal: %d", got)
	}

	if err := e.Withdraw("alice", 400); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if got := balanceOf(t, e, "alice"); got != 600 {
		t.Errorf("balance after withdrawal = %d, expected 600", got)
	}
}

func TestPlaceWagerDebitsAndGrowsPot(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	mustDeposit(t, e, "alice", 1000)

	if err := e.PlaceWager(testOwner, "alice", 3, 0, 100); err != nil {
		t.Fatalf("PlaceWager failed: %v", err)
	}

	if got := balanceOf(t, e, "alice"); got != 900 {
		t.Errorf("balance after wager = %d, expected 900", got)
	}
	if got := e.Pot(); got != 100 {
		t.Errorf("pot = %d, expected 100", got)
	}

	wagers := e.Wagers()
	if len(wagers) != 1 {
		t.Fatalf("%d wagers recorded, expected 1", len(wagers))
	}
	w := wagers[0]
	if w.Bettor != "alice" || w.FirstPick != 3 || w.SecondPick != 0 || w.Amount != 100 {
		t.Errorf("wager recorded wrong: %+v", w)
	}
	if w.PlacedAt.IsZero() {
		t.Error("wager has no placement timestamp")
	}
}

func TestPlaceWagerCheckOrder(t *testing.T) {
	t.Parallel()

	// The engine checks authorization, lifecycle, pick range, pick
	// distinctness, amount, then balance. Each case here fails several
	// checks at once and must report the earliest one.
	e := newTestEngine(t)
	mustDeposit(t, e, "alice", 50)

	// Non-owner caller with garbage picks: authorization wins
	if err := e.PlaceWager("mallory", "alice", 9, 9, 0); !errors.Is(err, ErrNotOwner) {
		t.Errorf("got %v, expected ErrNotOwner", err)
	}

	// Out-of-range picks beat same-pick and amount checks
	if err := e.PlaceWager(testOwner, "alice", 9, 9, 0); !errors.Is(err, ErrInvalidRunner) {
		t.Errorf("got %v, expected ErrInvalidRunner", err)
	}
	if err := e.PlaceWager(testOwner, "alice", 0, -1, 0); !errors.Is(err, ErrInvalidRunner) {
		t.Errorf("got %v, expected ErrInvalidRunner", err)
	}

	// Same pick beats amount check
	if err := e.PlaceWager(testOwner, "alice", 2, 2, 0); !errors.Is(err, ErrSamePick) {
		t.Errorf("got %v, expected ErrSamePick", err)
	}

	// Zero amount beats balance check
	if err := e.PlaceWager(testOwner, "alice", 0, 1, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("got %v, expected ErrInvalidAmount", err)
	}

	if err := e.PlaceWager(testOwner, "alice", 0, 1, 100); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("got %v, expected ErrInsufficientBalance", err)
	}

	// Once the race starts, lifecycle beats every pick and amount check
	if err := e.StartRace(testOwner, 1); err != nil {
		t.Fatalf("StartRace failed: %v", err)
	}
	if err := e.PlaceWager(testOwner, "alice", 9, 9, 0); !errors.Is(err, ErrBettingClosed) {
		t.Errorf("got %v, expected ErrBettingClosed", err)
	}

	// Nothing above should have touched the balance or the pot
	if got := balanceOf(t, e, "alice"); got != 50 {
		t.Errorf("balance mutated by rejected wagers: %d", got)
	}
	if got := e.Pot(); got != 0 {
		t.Errorf("pot mutated by rejected wagers: %d", got)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	if got := e.State(); got != StateAccepting {
		t.Fatalf("initial state = %v, expected accepting", got)
	}

	// Operations out of order fail with the state they require
	if _, err := e.RunRace(); !errors.Is(err, ErrRaceNotRunning) {
		t.Errorf("RunRace in accepting: got %v, expected ErrRaceNotRunning", err)
	}
	if _, err := e.Settle(); !errors.Is(err, ErrRaceNotFinished) {
		t.Errorf("Settle in accepting: got %v, expected ErrRaceNotFinished", err)
	}
	if err := e.Reset(testOwner); !errors.Is(err, ErrRaceNotClosed) {
		t.Errorf("Reset in accepting: got %v, expected ErrRaceNotClosed", err)
	}

	if err := e.StartRace("mallory", 7); !errors.Is(err, ErrNotOwner) {
		t.Errorf("non-owner StartRace: got %v, expected ErrNotOwner", err)
	}
	if err := e.StartRace(testOwner, 7); err != nil {
		t.Fatalf("StartRace failed: %v", err)
	}
	if got := e.State(); got != StateRunning {
		t.Errorf("state after start = %v, expected running", got)
	}
	if got := e.RaceID(); got != 1 {
		t.Errorf("race id = %d, expected 1", got)
	}
	if err := e.StartRace(testOwner, 7); !errors.Is(err, ErrBettingClosed) {
		t.Errorf("double start: got %v, expected ErrBettingClosed", err)
	}

	if _, err := e.RunRace(); err != nil {
		t.Fatalf("RunRace failed: %v", err)
	}
	if got := e.State(); got != StateFinished {
		t.Errorf("state after draw = %v, expected finished", got)
	}
	if _, err := e.RunRace(); !errors.Is(err, ErrRaceNotRunning) {
		t.Errorf("double draw: got %v, expected ErrRaceNotRunning", err)
	}

	if _, err := e.Settle(); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if got := e.State(); got != StateClosed {
		t.Errorf("state after settlement = %v, expected closed", got)
	}
	if _, err := e.Settle(); !errors.Is(err, ErrRaceNotFinished) {
		t.Errorf("double settle: got %v, expected ErrRaceNotFinished", err)
	}

	if err := e.Reset("mallory"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("non-owner reset: got %v, expected ErrNotOwner", err)
	}
	if err := e.Reset(testOwner); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if got := e.State(); got != StateAccepting {
		t.Errorf("state after reset = %v, expected accepting", got)
	}

	// A second cycle keeps incrementing the race id
	if err := e.StartRace(testOwner, 8); err != nil {
		t.Fatalf("second StartRace failed: %v", err)
	}
	if got := e.RaceID(); got != 2 {
		t.Errorf("race id after second start = %d, expected 2", got)
	}
}

func TestSettlementPaysExactMatches(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	mustDeposit(t, e, "alice", 1000)
	mustDeposit(t, e, "bob", 1000)

	// Seed 12345 produces the (3,0) exacta at 8x
	if err := e.PlaceWager(testOwner, "alice", 3, 0, 100); err != nil {
		t.Fatalf("alice wager failed: %v", err)
	}
	if err := e.PlaceWager(testOwner, "bob", 0, 1, 50); err != nil {
		t.Fatalf("bob wager failed: %v", err)
	}

	if err := e.StartRace(testOwner, 12345); err != nil {
		t.Fatalf("StartRace failed: %v", err)
	}
	outcome, err := e.RunRace()
	if err != nil {
		t.Fatalf("RunRace failed: %v", err)
	}

	if outcome.WinningExacta != (ExactaPair{First: 3, Second: 0}) {
		t.Fatalf("winning exacta = %+v, expected (3,0)", outcome.WinningExacta)
	}
	if outcome.TotalPot != 150 {
		t.Errorf("outcome pot = %d, expected 150", outcome.TotalPot)
	}
	if outcome.Seed != 12345 {
		t.Errorf("outcome seed = %d, expected 12345", outcome.Seed)
	}

	payouts, err := e.Settle()
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if len(payouts) != 1 {
		t.Fatalf("%d payouts, expected 1", len(payouts))
	}
	p := payouts[0]
	if p.Bettor != "alice" || p.WagerAmount != 100 || p.Multiplier != 8 || p.Amount != 800 {
		t.Errorf("payout wrong: %+v", p)
	}

	// Alice staked 100 and won 800; Bob's stake is forfeit
	if got := balanceOf(t, e, "alice"); got != 1700 {
		t.Errorf("alice balance = %d, expected 1700", got)
	}
	if got := balanceOf(t, e, "bob"); got != 950 {
		t.Errorf("bob balance = %d, expected 950", got)
	}
}

func TestSettlementWithNoWinners(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	mustDeposit(t, e, "bob", 500)

	if err := e.PlaceWager(testOwner, "bob", 5, 4, 200); err != nil {
		t.Fatalf("wager failed: %v", err)
	}
	if err := e.StartRace(testOwner, 12345); err != nil {
		t.Fatalf("StartRace failed: %v", err)
	}
	if _, err := e.RunRace(); err != nil {
		t.Fatalf("RunRace failed: %v", err)
	}

	payouts, err := e.Settle()
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if len(payouts) != 0 {
		t.Errorf("%d payouts, expected none", len(payouts))
	}
	if got := balanceOf(t, e, "bob"); got != 300 {
		t.Errorf("losing stake must stay forfeit, balance = %d, expected 300", got)
	}
}

func TestSettlementOrderFollowsPlacement(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	mustDeposit(t, e, "alice", 1000)
	mustDeposit(t, e, "bob", 1000)

	if err := e.PlaceWager(testOwner, "bob", 3, 0, 10); err != nil {
		t.Fatalf("bob wager failed: %v", err)
	}
	if err := e.PlaceWager(testOwner, "alice", 3, 0, 20); err != nil {
		t.Fatalf("alice wager failed: %v", err)
	}
	if err := e.StartRace(testOwner, 12345); err != nil {
		t.Fatalf("StartRace failed: %v", err)
	}
	if _, err := e.RunRace(); err != nil {
		t.Fatalf("RunRace failed: %v", err)
	}

	payouts, err := e.Settle()
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if len(payouts) != 2 {
		t.Fatalf("%d payouts, expected 2", len(payouts))
	}
	if payouts[0].Bettor != "bob" || payouts[1].Bettor != "alice" {
		t.Errorf("payout order %s,%s, expected bob,alice",
			payouts[0].Bettor, payouts[1].Bettor)
	}
}

func TestResetClearsPerRaceState(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	mustDeposit(t, e, "alice", 1000)

	if err := e.PlaceWager(testOwner, "alice", 3, 0, 100); err != nil {
		t.Fatalf("wager failed: %v", err)
	}
	if err := e.StartRace(testOwner, 12345); err != nil {
		t.Fatalf("StartRace failed: %v", err)
	}
	if _, err := e.RunRace(); err != nil {
		t.Fatalf("RunRace failed: %v", err)
	}
	if _, err := e.Settle(); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if err := e.Reset(testOwner); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if got := e.Pot(); got != 0 {
		t.Errorf("pot after reset = %d, expected 0", got)
	}
	if got := e.Wagers(); len(got) != 0 {
		t.Errorf("%d wagers after reset, expected none", len(got))
	}
	if got := e.Payouts(); len(got) != 0 {
		t.Errorf("%d payouts after reset, expected none", len(got))
	}

	// History and latest survive the reset
	if got := e.History(); len(got) != 1 {
		t.Errorf("%d history entries after reset, expected 1", len(got))
	}
	if _, ok := e.LatestOutcome(); !ok {
		t.Error("latest outcome lost by reset")
	}

	// Balances survive too: 1000 - 100 + 800
	if got := balanceOf(t, e, "alice"); got != 1700 {
		t.Errorf("balance after reset = %d, expected 1700", got)
	}
}

func TestDeterministicOutcomeAcrossCycles(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	runCycle := func(seed uint64) Outcome {
		if err := e.StartRace(testOwner, seed); err != nil {
			t.Fatalf("StartRace failed: %v", err)
		}
		outcome, err := e.RunRace()
		if err != nil {
			t.Fatalf("RunRace failed: %v", err)
		}
		if _, err := e.Settle(); err != nil {
			t.Fatalf("Settle failed: %v", err)
		}
		if err := e.Reset(testOwner); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		return outcome
	}

	first := runCycle(987654)
	second := runCycle(987654)

	if !reflect.DeepEqual(first.Rankings, second.Rankings) {
		t.Errorf("same seed produced different rankings: %v vs %v",
			first.Rankings, second.Rankings)
	}
	if !reflect.DeepEqual(first.FinishTimes, second.FinishTimes) {
		t.Errorf("same seed produced different finish times: %v vs %v",
			first.FinishTimes, second.FinishTimes)
	}
	if first.WinningExacta != second.WinningExacta {
		t.Errorf("same seed produced different exactas: %+v vs %+v",
			first.WinningExacta, second.WinningExacta)
	}
	if second.RaceID != first.RaceID+1 {
		t.Errorf("race ids %d,%d, expected consecutive", first.RaceID, second.RaceID)
	}
}

func TestOutcomeCopiesDoNotAliasEngineState(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	if err := e.StartRace(testOwner, 5); err != nil {
		t.Fatalf("StartRace failed: %v", err)
	}
	outcome, err := e.RunRace()
	if err != nil {
		t.Fatalf("RunRace failed: %v", err)
	}

	outcome.Rankings[0] = 99
	outcome.FinishTimes[0] = 99

	latest, ok := e.LatestOutcome()
	if !ok {
		t.Fatal("no latest outcome")
	}
	if latest.Rankings[0] == 99 || latest.FinishTimes[0] == 99 {
		t.Error("mutating a returned outcome leaked into engine state")
	}
}

func TestRunnersField(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	runners := e.Runners()

	if len(runners) != NumRunners {
		t.Fatalf("%d runners, expected %d", len(runners), NumRunners)
	}
	for i, r := range runners {
		if r.ID != i {
			t.Errorf("runner %d has id %d", i, r.ID)
		}
		if r.Name == "" {
			t.Errorf("runner %d has no name", i)
		}
		if i > 0 && r.Strength >= runners[i-1].Strength {
			t.Errorf("strengths must strictly decrease, runner %d has %d after %d",
				i, r.Strength, runners[i-1].Strength)
		}
	}

	if _, err := e.Runner(NumRunners); !errors.Is(err, ErrInvalidRunner) {
		t.Errorf("Runner(%d): got %v, expected ErrInvalidRunner", NumRunners, err)
	}
	r, err := e.Runner(0)
	if err != nil {
		t.Fatalf("Runner(0) failed: %v", err)
	}
	if r.Strength != 6 {
		t.Errorf("runner 0 strength = %d, expected 6", r.Strength)
	}
}

func TestSetOwnerTransfersControl(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	if err := e.SetOwner("mallory", "mallory"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("non-owner transfer: got %v, expected ErrNotOwner", err)
	}
	if err := e.SetOwner(testOwner, "alice"); err != nil {
		t.Fatalf("SetOwner failed: %v", err)
	}
	if got := e.Owner(); got != "alice" {
		t.Errorf("owner = %s, expected alice", got)
	}

	// Old owner is locked out, new owner controls the lifecycle
	if err := e.StartRace(testOwner, 1); !errors.Is(err, ErrNotOwner) {
		t.Errorf("old owner StartRace: got %v, expected ErrNotOwner", err)
	}
	if err := e.StartRace("alice", 1); err != nil {
		t.Errorf("new owner StartRace failed: %v", err)
	}
}
