package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/racebook/internal/auth"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents a WebSocket connection to a client. Commands are
// executed against the race service under the account the connection
// authenticated as.
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	account     string
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
	raceService *RaceService
	validator   auth.Validator
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, raceService *RaceService, validator auth.Validator) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, 256),
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
		raceService: raceService,
		validator:   validator,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// SetAccount associates this connection with an authenticated account
func (c *Connection) SetAccount(account string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = account
}

// GetAccount returns the associated account
func (c *Connection) GetAccount() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.account
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "account", c.GetAccount())

	if c.raceService == nil {
		c.sendError("service_unavailable", "Race service not available")
		return
	}

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypeDeposit:
		var data DepositData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse deposit data")
			return
		}
		c.handleDeposit(data)

	case MessageTypeWithdraw:
		var data WithdrawData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse withdraw data")
			return
		}
		c.handleWithdraw(data)

	case MessageTypeGetBalance:
		var data GetBalanceData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError("invalid_message", "Failed to parse balance request")
				return
			}
		}
		c.handleGetBalance(data)

	case MessageTypePlaceWager:
		var data PlaceWagerData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse wager data")
			return
		}
		c.handlePlaceWager(data)

	case MessageTypeStartRace:
		var data StartRaceData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse start race data")
			return
		}
		c.handleStartRace(data)

	case MessageTypeRunRace:
		c.handleRunRace()

	case MessageTypeSettle:
		c.handleSettle()

	case MessageTypeReset:
		c.handleReset()

	case MessageTypeSetOwner:
		var data SetOwnerData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse set owner data")
			return
		}
		c.handleSetOwner(data)

	case MessageTypeGetRunners:
		c.respond(MessageTypeRunners, c.raceService.Runners())

	case MessageTypeGetStatus:
		c.respond(MessageTypeStatus, c.raceService.Status())

	case MessageTypeGetWagers:
		c.respond(MessageTypeWagers, c.raceService.Wagers())

	case MessageTypeGetLatestResult:
		c.handleGetLatestResult()

	case MessageTypeGetHistory:
		c.respond(MessageTypeHistory, c.raceService.History())

	case MessageTypeGetOdds:
		var data GetOddsData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse odds request")
			return
		}
		c.respond(MessageTypeOdds, OddsData{
			First:      data.First,
			Second:     data.Second,
			Multiplier: c.raceService.Engine().Multiplier(data.First, data.Second),
		})

	case MessageTypeGetProbabilities:
		c.respond(MessageTypeProbTable, c.raceService.ProbabilityTable())

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// respond marshals and sends a response message
func (c *Connection) respond(msgType MessageType, data interface{}) {
	msg, err := NewMessage(msgType, data)
	if err != nil {
		c.logger.Error("Failed to create response message", "type", msgType, "error", err)
		return
	}
	_ = c.SendMessage(msg) // Ignore send errors
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	c.respond(MessageTypeError, ErrorData{Code: code, Message: message})
}

// requireAccount returns the authenticated account or sends an error
func (c *Connection) requireAccount() (string, bool) {
	account := c.GetAccount()
	if account == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return "", false
	}
	return account, true
}

func (c *Connection) handleAuth(data AuthData) {
	identity, err := c.validator.Validate(c.ctx, data.Token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			c.respond(MessageTypeAuthResponse, AuthResponseData{Success: false, Error: "invalid token"})
			return
		}
		c.logger.Error("Auth validation failed", "error", err)
		c.respond(MessageTypeAuthResponse, AuthResponseData{Success: false, Error: "auth unavailable"})
		return
	}

	// Nil identity means auth is disabled; the connection's self-declared
	// account is accepted as-is.
	account := data.Account
	if identity != nil {
		account = identity.Account
	}
	if account == "" {
		c.respond(MessageTypeAuthResponse, AuthResponseData{Success: false, Error: "account required"})
		return
	}

	c.SetAccount(account)
	c.logger.Info("Authenticated", "account", account)
	c.respond(MessageTypeAuthResponse, AuthResponseData{Success: true, Account: account})
}

func (c *Connection) handleDeposit(data DepositData) {
	caller, ok := c.requireAccount()
	if !ok {
		return
	}

	if err := c.raceService.Engine().Deposit(caller, data.Account, data.Amount); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.respond(MessageTypeAck, AckData{Op: "deposit"})
}

func (c *Connection) handleWithdraw(data WithdrawData) {
	caller, ok := c.requireAccount()
	if !ok {
		return
	}

	if err := c.raceService.Engine().Withdraw(caller, data.Amount); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.respond(MessageTypeAck, AckData{Op: "withdraw"})
}

func (c *Connection) handleGetBalance(data GetBalanceData) {
	account := data.Account
	if account == "" {
		var ok bool
		account, ok = c.requireAccount()
		if !ok {
			return
		}
	}

	balance, err := c.raceService.Engine().Balance(account)
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.respond(MessageTypeBalance, BalanceData{Account: account, Balance: balance})
}

func (c *Connection) handlePlaceWager(data PlaceWagerData) {
	caller, ok := c.requireAccount()
	if !ok {
		return
	}

	err := c.raceService.Engine().PlaceWager(caller, data.Bettor, data.FirstPick, data.SecondPick, data.Amount)
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.respond(MessageTypeAck, AckData{Op: "place_wager"})
}

func (c *Connection) handleStartRace(data StartRaceData) {
	caller, ok := c.requireAccount()
	if !ok {
		return
	}

	if err := c.raceService.Engine().StartRace(caller, data.Seed); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.respond(MessageTypeAck, AckData{Op: "start_race"})
}

func (c *Connection) handleRunRace() {
	outcome, err := c.raceService.Engine().RunRace()
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.respond(MessageTypeResult, OutcomeDataFromRace(outcome))
}

func (c *Connection) handleSettle() {
	payouts, err := c.raceService.Engine().Settle()
	if err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}

	states := make([]PayoutState, len(payouts))
	for i, p := range payouts {
		states[i] = PayoutState{
			Bettor:      p.Bettor,
			WagerAmount: p.WagerAmount,
			Multiplier:  p.Multiplier,
			Amount:      p.Amount,
			Exacta:      p.Exacta,
		}
	}
	c.respond(MessageTypePayouts, PayoutsData{
		RaceID:  c.raceService.Engine().RaceID(),
		Payouts: states,
	})
}

func (c *Connection) handleReset() {
	caller, ok := c.requireAccount()
	if !ok {
		return
	}

	if err := c.raceService.Engine().Reset(caller); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.respond(MessageTypeAck, AckData{Op: "reset"})
}

func (c *Connection) handleSetOwner(data SetOwnerData) {
	caller, ok := c.requireAccount()
	if !ok {
		return
	}

	if err := c.raceService.Engine().SetOwner(caller, data.NewOwner); err != nil {
		c.sendError(errorCode(err), err.Error())
		return
	}
	c.respond(MessageTypeAck, AckData{Op: "set_owner"})
}

func (c *Connection) handleGetLatestResult() {
	outcome, ok := c.raceService.Engine().LatestOutcome()
	if !ok {
		c.sendError("no_result", "No race has run yet")
		return
	}
	c.respond(MessageTypeResult, OutcomeDataFromRace(outcome))
}
