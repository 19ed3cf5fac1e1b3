package server

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/lox/racebook/internal/race"
)

// RaceService adapts the race engine to the wire protocol: it translates
// commands into engine calls, maps engine errors to stable error codes, and
// forwards engine events to every connected client.
type RaceService struct {
	engine  *race.Engine
	server  *Server
	metrics *Metrics
	logger  *log.Logger
}

// NewRaceService wires an engine to a server and subscribes the broadcast
// forwarder to the engine's event bus.
func NewRaceService(engine *race.Engine, server *Server, metrics *Metrics, logger *log.Logger) *RaceService {
	svc := &RaceService{
		engine:  engine,
		server:  server,
		metrics: metrics,
		logger:  logger.WithPrefix("service"),
	}
	engine.EventBus().Subscribe(&eventBroadcaster{service: svc})
	return svc
}

// Engine exposes the underlying engine, mainly for tests.
func (s *RaceService) Engine() *race.Engine {
	return s.engine
}

// errorCode maps engine sentinel errors to stable wire codes so clients can
// distinguish failure kinds without string matching.
func errorCode(err error) string {
	switch {
	case errors.Is(err, race.ErrNotOwner):
		return "not_owner"
	case errors.Is(err, race.ErrBettingClosed):
		return "betting_closed"
	case errors.Is(err, race.ErrRaceNotRunning):
		return "race_not_running"
	case errors.Is(err, race.ErrRaceNotFinished):
		return "race_not_finished"
	case errors.Is(err, race.ErrRaceNotClosed):
		return "race_not_closed"
	case errors.Is(err, race.ErrInvalidRunner):
		return "invalid_runner"
	case errors.Is(err, race.ErrSamePick):
		return "same_pick"
	case errors.Is(err, race.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, race.ErrInsufficientBalance):
		return "insufficient_balance"
	default:
		return "internal_error"
	}
}

// eventBroadcaster forwards engine events to all connected clients and
// records them in the metrics registry. Wagers are settled in placement
// order, so clients observe payout broadcasts in that same order.
type eventBroadcaster struct {
	service *RaceService
}

func (b *eventBroadcaster) OnEvent(event race.Event) {
	svc := b.service

	var (
		msgType MessageType
		data    interface{}
	)

	switch e := event.(type) {
	case race.RaceStartedEvent:
		svc.metrics.RacesStarted.Inc()
		msgType = MessageTypeRaceStarted
		data = RaceStartedData{RaceID: e.RaceID, Seed: e.Seed, WagerCount: e.WagerCount}

	case race.RaceFinishedEvent:
		svc.metrics.RacesFinished.Inc()
		msgType = MessageTypeRaceFinished
		data = RaceFinishedData{
			RaceID:      e.RaceID,
			FirstPlace:  e.FirstPlace,
			SecondPlace: e.SecondPlace,
			ThirdPlace:  e.ThirdPlace,
		}

	case race.WagerPlacedEvent:
		svc.metrics.WagersPlaced.Inc()
		svc.metrics.WagerVolume.Add(float64(e.Amount))
		msgType = MessageTypeWagerPlaced
		data = WagerPlacedData{
			Bettor:     e.Bettor,
			FirstPick:  e.FirstPick,
			SecondPick: e.SecondPick,
			Amount:     e.Amount,
		}

	case race.PayoutDistributedEvent:
		svc.metrics.PayoutsDistributed.Inc()
		svc.metrics.PayoutVolume.Add(float64(e.Amount))
		msgType = MessageTypePayout
		data = PayoutDistributedData{Bettor: e.Bettor, Amount: e.Amount, Multiplier: e.Multiplier}

	case race.DepositedEvent:
		msgType = MessageTypeDeposited
		data = DepositedData{Account: e.Account, Amount: e.Amount}

	case race.WithdrawnEvent:
		msgType = MessageTypeWithdrawn
		data = WithdrawnData{Account: e.Account, Amount: e.Amount}

	default:
		svc.logger.Debug("Unhandled engine event", "type", event.EventType())
		return
	}

	msg, err := NewMessage(msgType, data)
	if err != nil {
		svc.logger.Error("Failed to encode event broadcast", "type", msgType, "error", err)
		return
	}
	svc.server.Broadcast(msg)
}

// Status snapshots the engine state for the status message.
func (s *RaceService) Status() StatusData {
	return StatusData{
		State:  s.engine.State().String(),
		RaceID: s.engine.RaceID(),
		Pot:    s.engine.Pot(),
		Owner:  s.engine.Owner(),
	}
}

// Runners returns the field in wire form.
func (s *RaceService) Runners() RunnersData {
	runners := s.engine.Runners()
	states := make([]RunnerState, len(runners))
	for i, r := range runners {
		states[i] = RunnerStateFromRace(r)
	}
	return RunnersData{Runners: states}
}

// Wagers returns the active race's wagers in wire form.
func (s *RaceService) Wagers() WagersData {
	wagers := s.engine.Wagers()
	states := make([]WagerState, len(wagers))
	for i, w := range wagers {
		states[i] = WagerState{
			Bettor:     w.Bettor,
			Amount:     w.Amount,
			FirstPick:  w.FirstPick,
			SecondPick: w.SecondPick,
			PlacedAt:   w.PlacedAt,
		}
	}
	return WagersData{Wagers: states, Pot: s.engine.Pot()}
}

// History returns all outcomes in wire form, oldest first.
func (s *RaceService) History() HistoryData {
	history := s.engine.History()
	outcomes := make([]OutcomeData, len(history))
	for i, o := range history {
		outcomes[i] = OutcomeDataFromRace(o)
	}
	return HistoryData{Outcomes: outcomes}
}

// ProbabilityTable returns the audit table in wire form.
func (s *RaceService) ProbabilityTable() ProbabilityTableData {
	entries := s.engine.ProbabilityTable()
	wire := make([]ProbabilityEntryData, len(entries))
	for i, e := range entries {
		wire[i] = ProbabilityEntryData{
			First:       e.First,
			Second:      e.Second,
			Probability: e.Probability,
			Multiplier:  e.Multiplier,
		}
	}
	return ProbabilityTableData{Precision: race.Precision, Entries: wire}
}
