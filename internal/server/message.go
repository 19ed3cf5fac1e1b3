package server

import (
	"encoding/json"
	"time"

	"github.com/lox/racebook/internal/race"
)

// MessageType identifies the type of a WebSocket message
type MessageType string

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

const (
	// Client -> Server
	MessageTypeAuth             MessageType = "auth"
	MessageTypeDeposit          MessageType = "deposit"
	MessageTypeWithdraw         MessageType = "withdraw"
	MessageTypeGetBalance       MessageType = "get_balance"
	MessageTypePlaceWager       MessageType = "place_wager"
	MessageTypeStartRace        MessageType = "start_race"
	MessageTypeRunRace          MessageType = "run_race"
	MessageTypeSettle           MessageType = "settle"
	MessageTypeReset            MessageType = "reset"
	MessageTypeSetOwner         MessageType = "set_owner"
	MessageTypeGetRunners       MessageType = "get_runners"
	MessageTypeGetStatus        MessageType = "get_status"
	MessageTypeGetWagers        MessageType = "get_wagers"
	MessageTypeGetLatestResult  MessageType = "get_latest_result"
	MessageTypeGetHistory       MessageType = "get_history"
	MessageTypeGetOdds          MessageType = "get_odds"
	MessageTypeGetProbabilities MessageType = "get_probabilities"

	// Server -> Client
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeBalance      MessageType = "balance"
	MessageTypeRunners      MessageType = "runners"
	MessageTypeStatus       MessageType = "status"
	MessageTypeWagers       MessageType = "wagers"
	MessageTypeResult       MessageType = "result"
	MessageTypeHistory      MessageType = "history"
	MessageTypeOdds         MessageType = "odds"
	MessageTypeProbTable    MessageType = "probability_table"
	MessageTypePayouts      MessageType = "payouts"
	MessageTypeAck          MessageType = "ack"
	MessageTypeError        MessageType = "error"

	// Server -> Client event broadcasts
	MessageTypeRaceStarted  MessageType = "race_started"
	MessageTypeRaceFinished MessageType = "race_finished"
	MessageTypeWagerPlaced  MessageType = "wager_placed"
	MessageTypePayout       MessageType = "payout_distributed"
	MessageTypeDeposited    MessageType = "deposited"
	MessageTypeWithdrawn    MessageType = "withdrawn"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client -> Server payloads

type AuthData struct {
	Account string `json:"account,omitempty"`
	Token   string `json:"token,omitempty"`
}

type DepositData struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

type WithdrawData struct {
	Amount uint64 `json:"amount"`
}

type GetBalanceData struct {
	Account string `json:"account,omitempty"`
}

type PlaceWagerData struct {
	Bettor     string `json:"bettor"`
	FirstPick  int    `json:"firstPick"`
	SecondPick int    `json:"secondPick"`
	Amount     uint64 `json:"amount"`
}

type StartRaceData struct {
	Seed uint64 `json:"seed"`
}

type SetOwnerData struct {
	NewOwner string `json:"newOwner"`
}

type GetOddsData struct {
	First  int `json:"first"`
	Second int `json:"second"`
}

// Server -> Client payloads

type AuthResponseData struct {
	Success bool   `json:"success"`
	Account string `json:"account,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BalanceData struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

type RunnerState struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Strength        uint64 `json:"strength"`
	NormalizedShare uint64 `json:"normalizedShare"`
	BaseSpeed       uint64 `json:"baseSpeed"`
}

// RunnerStateFromRace converts an engine runner to its wire form
func RunnerStateFromRace(r race.Runner) RunnerState {
	return RunnerState{
		ID:              r.ID,
		Name:            r.Name,
		Strength:        r.Strength,
		NormalizedShare: r.NormalizedShare,
		BaseSpeed:       r.BaseSpeed,
	}
}

type RunnersData struct {
	Runners []RunnerState `json:"runners"`
}

type StatusData struct {
	State  string `json:"state"`
	RaceID uint64 `json:"raceId"`
	Pot    uint64 `json:"pot"`
	Owner  string `json:"owner"`
}

type WagerState struct {
	Bettor     string    `json:"bettor"`
	Amount     uint64    `json:"amount"`
	FirstPick  int       `json:"firstPick"`
	SecondPick int       `json:"secondPick"`
	PlacedAt   time.Time `json:"placedAt"`
}

type WagersData struct {
	Wagers []WagerState `json:"wagers"`
	Pot    uint64       `json:"pot"`
}

type OutcomeData struct {
	RaceID        uint64          `json:"raceId"`
	Rankings      []int           `json:"rankings"`
	FinishTimes   []uint64        `json:"finishTimes"`
	WinningExacta race.ExactaPair `json:"winningExacta"`
	TotalPot      uint64          `json:"totalPot"`
	Seed          uint64          `json:"seed"`
}

// OutcomeDataFromRace converts an engine outcome to its wire form
func OutcomeDataFromRace(o race.Outcome) OutcomeData {
	return OutcomeData{
		RaceID:        o.RaceID,
		Rankings:      o.Rankings,
		FinishTimes:   o.FinishTimes,
		WinningExacta: o.WinningExacta,
		TotalPot:      o.TotalPot,
		Seed:          o.Seed,
	}
}

type HistoryData struct {
	Outcomes []OutcomeData `json:"outcomes"`
}

type OddsData struct {
	First      int    `json:"first"`
	Second     int    `json:"second"`
	Multiplier uint64 `json:"multiplier"`
}

type ProbabilityEntryData struct {
	First       int    `json:"first"`
	Second      int    `json:"second"`
	Probability uint64 `json:"probability"`
	Multiplier  uint64 `json:"multiplier"`
}

type ProbabilityTableData struct {
	Precision uint64                 `json:"precision"`
	Entries   []ProbabilityEntryData `json:"entries"`
}

type PayoutState struct {
	Bettor      string          `json:"bettor"`
	WagerAmount uint64          `json:"wagerAmount"`
	Multiplier  uint64          `json:"multiplier"`
	Amount      uint64          `json:"amount"`
	Exacta      race.ExactaPair `json:"exacta"`
}

type PayoutsData struct {
	RaceID  uint64        `json:"raceId"`
	Payouts []PayoutState `json:"payouts"`
}

type AckData struct {
	Op string `json:"op"`
}

// Event broadcast payloads

type RaceStartedData struct {
	RaceID     uint64 `json:"raceId"`
	Seed       uint64 `json:"seed"`
	WagerCount int    `json:"wagerCount"`
}

type RaceFinishedData struct {
	RaceID      uint64 `json:"raceId"`
	FirstPlace  int    `json:"firstPlace"`
	SecondPlace int    `json:"secondPlace"`
	ThirdPlace  int    `json:"thirdPlace"`
}

type WagerPlacedData struct {
	Bettor     string `json:"bettor"`
	FirstPick  int    `json:"firstPick"`
	SecondPick int    `json:"secondPick"`
	Amount     uint64 `json:"amount"`
}

type PayoutDistributedData struct {
	Bettor     string `json:"bettor"`
	Amount     uint64 `json:"amount"`
	Multiplier uint64 `json:"multiplier"`
}

type DepositedData struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

type WithdrawnData struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}
