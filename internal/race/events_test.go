package race

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/racebook/internal/store"
)

type recordingSubscriber struct {
	events []Event
}

func (r *recordingSubscriber) OnEvent(event Event) {
	r.events = append(r.events, event)
}

func TestEventBusSubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	sub := &recordingSubscriber{}

	bus.Subscribe(sub)
	bus.Publish(NewDepositedEvent("alice", 100))
	if len(sub.events) != 1 {
		t.Fatalf("%d events delivered, expected 1", len(sub.events))
	}

	bus.Unsubscribe(sub)
	bus.Publish(NewDepositedEvent("alice", 100))
	if len(sub.events) != 1 {
		t.Errorf("event delivered after unsubscribe, %d total", len(sub.events))
	}
}

func TestEngineEventSequence(t *testing.T) {
	t.Parallel()

	logger := log.New(io.Discard)
	e := NewEngine(testOwner, store.NewMemoryStore(), logger, quartz.NewReal())

	sub := &recordingSubscriber{}
	e.EventBus().Subscribe(sub)

	if err := e.Deposit(testOwner, "alice", 1000); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if err := e.PlaceWager(testOwner, "alice", 3, 0, 100); err != nil {
		t.Fatalf("PlaceWager failed: %v", err)
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
	if err := e.Withdraw("alice", 50); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}

	expected := []EventType{
		EventTypeDeposited,
		EventTypeWagerPlaced,
		EventTypeRaceStarted,
		EventTypeRaceFinished,
		EventTypePayoutDistributed,
		EventTypeWithdrawn,
	}
	if len(sub.events) != len(expected) {
		t.Fatalf("%d events, expected %d", len(sub.events), len(expected))
	}
	for i, want := range expected {
		if got := sub.events[i].EventType(); got != want {
			t.Errorf("event %d: %s, expected %s", i, got, want)
		}
		if sub.events[i].Timestamp().IsZero() {
			t.Errorf("event %d has no timestamp", i)
		}
	}

	started, ok := sub.events[2].(RaceStartedEvent)
	if !ok {
		t.Fatalf("event 2 is %T, expected RaceStartedEvent", sub.events[2])
	}
	if started.RaceID != 1 || started.Seed != 12345 || started.WagerCount != 1 {
		t.Errorf("race started event wrong: %+v", started)
	}

	finished, ok := sub.events[3].(RaceFinishedEvent)
	if !ok {
		t.Fatalf("event 3 is %T, expected RaceFinishedEvent", sub.events[3])
	}
	if finished.FirstPlace != 3 || finished.SecondPlace != 0 || finished.ThirdPlace != 1 {
		t.Errorf("race finished placings wrong: %+v", finished)
	}

	payout, ok := sub.events[4].(PayoutDistributedEvent)
	if !ok {
		t.Fatalf("event 4 is %T, expected PayoutDistributedEvent", sub.events[4])
	}
	if payout.Bettor != "alice" || payout.Amount != 800 || payout.Multiplier != 8 {
		t.Errorf("payout event wrong: %+v", payout)
	}
}
