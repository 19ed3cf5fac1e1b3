package race

import "time"

// EventType represents a race event type with type safety
type EventType string

// EventType constants for race domain events
const (
	EventTypeRaceStarted       EventType = "race_started"
	EventTypeRaceFinished      EventType = "race_finished"
	EventTypeWagerPlaced       EventType = "wager_placed"
	EventTypePayoutDistributed EventType = "payout_distributed"
	EventTypeDeposited         EventType = "deposited"
	EventTypeWithdrawn         EventType = "withdrawn"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event represents any event that occurs during a race cycle
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// EventSubscriber receives race events
type EventSubscriber interface {
	OnEvent(event Event)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event Event)
}

// SimpleEventBus is a basic in-memory event bus implementation
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event Event) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}

// RaceStartedEvent is published when wagering closes and the race begins
type RaceStartedEvent struct {
	RaceID     uint64
	Seed       uint64
	WagerCount int
	timestamp  time.Time
}

func (e RaceStartedEvent) EventType() EventType { return EventTypeRaceStarted }
func (e RaceStartedEvent) Timestamp() time.Time { return e.timestamp }

// NewRaceStartedEvent creates a new race started event
func NewRaceStartedEvent(raceID, seed uint64, wagerCount int) RaceStartedEvent {
	return RaceStartedEvent{
		RaceID:     raceID,
		Seed:       seed,
		WagerCount: wagerCount,
		timestamp:  time.Now(),
	}
}

// RaceFinishedEvent is published when the draw completes
type RaceFinishedEvent struct {
	RaceID      uint64
	FirstPlace  int
	SecondPlace int
	ThirdPlace  int
	timestamp   time.Time
}

func (e RaceFinishedEvent) EventType() EventType { return EventTypeRaceFinished }
func (e RaceFinishedEvent) Timestamp() time.Time { return e.timestamp }

// NewRaceFinishedEvent creates a new race finished event
func NewRaceFinishedEvent(raceID uint64, first, second, third int) RaceFinishedEvent {
	return RaceFinishedEvent{
		RaceID:      raceID,
		FirstPlace:  first,
		SecondPlace: second,
		ThirdPlace:  third,
		timestamp:   time.Now(),
	}
}

// WagerPlacedEvent is published when a wager is accepted
type WagerPlacedEvent struct {
	Bettor     string
	FirstPick  int
	SecondPick int
	Amount     uint64
	timestamp  time.Time
}

func (e WagerPlacedEvent) EventType() EventType { return EventTypeWagerPlaced }
func (e WagerPlacedEvent) Timestamp() time.Time { return e.timestamp }

// NewWagerPlacedEvent creates a new wager placed event
func NewWagerPlacedEvent(bettor string, firstPick, secondPick int, amount uint64) WagerPlacedEvent {
	return WagerPlacedEvent{
		Bettor:     bettor,
		FirstPick:  firstPick,
		SecondPick: secondPick,
		Amount:     amount,
		timestamp:  time.Now(),
	}
}

// PayoutDistributedEvent is published for each winning wager at settlement
type PayoutDistributedEvent struct {
	Bettor     string
	Amount     uint64
	Multiplier uint64
	timestamp  time.Time
}

func (e PayoutDistributedEvent) EventType() EventType { return EventTypePayoutDistributed }
func (e PayoutDistributedEvent) Timestamp() time.Time { return e.timestamp }

// NewPayoutDistributedEvent creates a new payout distributed event
func NewPayoutDistributedEvent(bettor string, amount, multiplier uint64) PayoutDistributedEvent {
	return PayoutDistributedEvent{
		Bettor:     bettor,
		Amount:     amount,
		Multiplier: multiplier,
		timestamp:  time.Now(),
	}
}

// DepositedEvent is published when an account is credited by the owner
type DepositedEvent struct {
	Account   string
	Amount    uint64
	timestamp time.Time
}

func (e DepositedEvent) EventType() EventType { return EventTypeDeposited }
func (e DepositedEvent) Timestamp() time.Time { return e.timestamp }

// NewDepositedEvent creates a new deposited event
func NewDepositedEvent(account string, amount uint64) DepositedEvent {
	return DepositedEvent{Account: account, Amount: amount, timestamp: time.Now()}
}

// WithdrawnEvent is published when an account withdraws its own funds
type WithdrawnEvent struct {
	Account   string
	Amount    uint64
	timestamp time.Time
}

func (e WithdrawnEvent) EventType() EventType { return EventTypeWithdrawn }
func (e WithdrawnEvent) Timestamp() time.Time { return e.timestamp }

// NewWithdrawnEvent creates a new withdrawn event
func NewWithdrawnEvent(account string, amount uint64) WithdrawnEvent {
	return WithdrawnEvent{Account: account, Amount: amount, timestamp: time.Now()}
}
