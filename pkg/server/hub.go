package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tecu23/chess-arbiter/pkg/chess"
	"github.com/tecu23/chess-arbiter/pkg/events"
	"github.com/tecu23/chess-arbiter/pkg/game"
	"github.com/tecu23/chess-arbiter/pkg/manager"
	"github.com/tecu23/chess-arbiter/pkg/messages"
	"github.com/tecu23/chess-arbiter/pkg/repository"
)

// InboundHubMessage are the messages that the hub receives
type InboundHubMessage struct {
	Conn    *Connection             // who sent it
	Message messages.InboundMessage // decoded envelope
	Err     error                   // set when the envelope could not be decoded
}

// Hub keeps track of all active connections and registers/unregisters them.
// Inbound messages are handled one at a time on the Run goroutine, which
// serializes every move against the games it touches.
type Hub struct {
	mu          sync.RWMutex         // Mutex to protect direct access to the connections map.
	connections map[*Connection]bool // Registered connections

	register   chan *Connection       // Incoming registration
	unregister chan *Connection       // Incoming unregistration
	inbound    chan InboundHubMessage // Channel of inbound messages to route

	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once

	gameManager *manager.Manager
	publisher   *events.Publisher
	logger      *zap.Logger
}

// NewHub creates a new hub
func NewHub(gm *manager.Manager, publisher *events.Publisher, logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		inbound:     make(chan InboundHubMessage, 64),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		gameManager: gm,
		publisher:   publisher,
		logger:      logger,
	}
}

// Run is the main execution of the hub
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case conn := <-h.register:
			h.registerConnection(conn)

		case conn := <-h.unregister:
			h.unregisterConnection(conn)

		case msg := <-h.inbound:
			h.handleInbound(msg)

		case <-h.quit:
			h.closeAll()
			return
		}
	}
}

// Register adds a connection. It is a no-op once the hub has stopped.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister removes a connection. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

func (h *Hub) dispatch(msg InboundHubMessage) {
	select {
	case h.inbound <- msg:
	case <-h.done:
	}
}

// Shutdown stops Run, closes every connection and waits for the hub to exit.
func (h *Hub) Shutdown() {
	h.quitOnce.Do(func() { close(h.quit) })
	<-h.done
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.connections)
}

func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	h.connections[conn] = true
	count := len(h.connections)
	h.mu.Unlock()

	h.logger.Info("connection registered",
		zap.String("connection_id", conn.ID.String()),
		zap.Int("connections", count),
	)

	h.sendMessage(conn, messages.OutboundMessage{
		Event:   messages.EventConnected,
		Payload: messages.ConnectedPayload{ConnectionID: conn.ID.String()},
	})
}

func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[conn]; ok {
		delete(h.connections, conn)
		close(conn.send)
		h.logger.Info("connection unregistered",
			zap.String("connection_id", conn.ID.String()),
			zap.Int("connections", len(h.connections)),
		)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.connections {
		delete(h.connections, conn)
		close(conn.send)
	}
	h.logger.Info("hub stopped")
}

func (h *Hub) registered(conn *Connection) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.connections[conn]
}

// handleInbound decodes the message from a client and routes it.
func (h *Hub) handleInbound(msg InboundHubMessage) {
	// Messages may still be queued for a connection that just went away.
	if !h.registered(msg.Conn) {
		return
	}

	err := msg.Err
	switch {
	case err != nil:
	case msg.Message.Type == messages.TypeNewGame:
		err = h.handleNewGame(msg)
	case msg.Message.Type == messages.TypeMakeMove:
		err = h.handleMakeMove(msg)
	case msg.Message.Type == messages.TypeCommand:
		err = h.handleCommand(msg)
	case msg.Message.Type == messages.TypeLegalMoves:
		err = h.handleLegalMoves(msg)
	case msg.Message.Type == messages.TypeResign:
		err = h.handleResign(msg)
	case msg.Message.Type == messages.TypeOfferDraw:
		err = h.handleOfferDraw(msg)
	case msg.Message.Type == messages.TypeGetBoard:
		err = h.handleGetBoard(msg)
	case msg.Message.Type == messages.TypeEndGame:
		err = h.handleEndGame(msg)
	default:
		err = fmt.Errorf("%w: unknown message type %q", chess.ErrInputDecoding, msg.Message.Type)
	}

	if err != nil {
		h.logger.Debug("request failed",
			zap.String("connection_id", msg.Conn.ID.String()),
			zap.String("type", msg.Message.Type),
			zap.Error(err),
		)
		h.sendError(msg.Conn, err)
	}
}

func decode(msg InboundHubMessage, v interface{}) error {
	if err := json.Unmarshal(msg.Message.Payload, v); err != nil {
		return fmt.Errorf("%w: invalid %s payload: %v", chess.ErrInputDecoding, msg.Message.Type, err)
	}
	return nil
}

// lookup finds a game owned by the connection. Games of other connections
// are reported as missing.
func (h *Hub) lookup(conn *Connection, gameID string) (*game.Game, error) {
	id, err := uuid.Parse(gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: game id %q", chess.ErrInputDecoding, gameID)
	}

	g, err := h.gameManager.GetGame(id)
	if err != nil {
		return nil, err
	}
	if g.ConnectionID != conn.ID {
		return nil, fmt.Errorf("%w: %s", repository.ErrGameNotFound, id)
	}
	return g, nil
}

func (h *Hub) handleNewGame(msg InboundHubMessage) error {
	var payload messages.NewGamePayload
	if len(msg.Message.Payload) > 0 {
		if err := decode(msg, &payload); err != nil {
			return err
		}
	}

	params := game.CreateGameParams{
		StartPosition: payload.StartPosition,
		Layout:        payload.Layout,
	}
	if payload.Turn != "" {
		turn, ok := chess.ParseColor(payload.Turn)
		if !ok {
			return fmt.Errorf("%w: turn %q", chess.ErrInputDecoding, payload.Turn)
		}
		params.Turn = turn
	}

	g, err := h.gameManager.CreateGame(params, msg.Conn.ID)
	if err != nil {
		return err
	}

	h.sendMessage(msg.Conn, messages.OutboundMessage{
		Event:   messages.EventGameCreated,
		Payload: g.Created(),
	})
	return nil
}

func (h *Hub) handleMakeMove(msg InboundHubMessage) error {
	var payload messages.MakeMovePayload
	if err := decode(msg, &payload); err != nil {
		return err
	}

	req, err := payload.MoveRequest()
	if err != nil {
		return err
	}

	g, err := h.lookup(msg.Conn, payload.GameID)
	if err != nil {
		return err
	}

	return h.playMove(msg.Conn, g, req)
}

func (h *Hub) playMove(conn *Connection, g *game.Game, req messages.MoveRequest) error {
	state, err := g.ProcessMove(req)
	if err != nil {
		return err
	}

	h.sendState(conn, g, state)
	return nil
}

func (h *Hub) handleCommand(msg InboundHubMessage) error {
	var payload messages.CommandPayload
	if err := decode(msg, &payload); err != nil {
		return err
	}

	cmd, err := messages.ParseCommand(payload.Line)
	if err != nil {
		return err
	}

	g, err := h.lookup(msg.Conn, payload.GameID)
	if err != nil {
		return err
	}

	switch cmd.Kind {
	case messages.CommandMove:
		return h.playMove(msg.Conn, g, cmd.Move)
	case messages.CommandResign:
		return h.resign(msg.Conn, g)
	case messages.CommandDraw:
		return h.offerDraw(msg.Conn, g, chess.NoColor)
	case messages.CommandQuit:
		return h.endGame(msg.Conn, g)
	}
	return fmt.Errorf("%w: command %q", chess.ErrInputDecoding, payload.Line)
}

func (h *Hub) handleLegalMoves(msg InboundHubMessage) error {
	var payload messages.LegalMovesPayload
	if err := decode(msg, &payload); err != nil {
		return err
	}

	g, err := h.lookup(msg.Conn, payload.GameID)
	if err != nil {
		return err
	}

	moves, err := g.LegalMoves(payload.Square)
	if err != nil {
		return err
	}

	h.sendMessage(msg.Conn, messages.OutboundMessage{
		Event:   messages.EventLegalMoves,
		Payload: moves,
	})
	return nil
}

func (h *Hub) handleResign(msg InboundHubMessage) error {
	var payload messages.GamePayload
	if err := decode(msg, &payload); err != nil {
		return err
	}

	g, err := h.lookup(msg.Conn, payload.GameID)
	if err != nil {
		return err
	}

	return h.resign(msg.Conn, g)
}

func (h *Hub) resign(conn *Connection, g *game.Game) error {
	state, err := g.Resign()
	if err != nil {
		return err
	}

	h.sendState(conn, g, state)
	return nil
}

func (h *Hub) handleOfferDraw(msg InboundHubMessage) error {
	var payload messages.DrawOfferPayload
	if err := decode(msg, &payload); err != nil {
		return err
	}

	by := chess.NoColor
	if payload.Color != "" {
		c, ok := chess.ParseColor(payload.Color)
		if !ok {
			return fmt.Errorf("%w: color %q", chess.ErrInputDecoding, payload.Color)
		}
		by = c
	}

	g, err := h.lookup(msg.Conn, payload.GameID)
	if err != nil {
		return err
	}

	return h.offerDraw(msg.Conn, g, by)
}

func (h *Hub) offerDraw(conn *Connection, g *game.Game, by chess.Color) error {
	status, state, err := g.OfferDraw(by)
	if err != nil {
		return err
	}

	if status == chess.DrawOfferPending {
		h.sendMessage(conn, messages.OutboundMessage{
			Event:   messages.EventDrawOffered,
			Payload: messages.DrawOfferedPayload{GameID: state.GameID, By: state.DrawOfferBy},
		})
	}
	h.sendState(conn, g, state)
	return nil
}

func (h *Hub) handleGetBoard(msg InboundHubMessage) error {
	var payload messages.GamePayload
	if err := decode(msg, &payload); err != nil {
		return err
	}

	g, err := h.lookup(msg.Conn, payload.GameID)
	if err != nil {
		return err
	}

	h.sendMessage(msg.Conn, messages.OutboundMessage{
		Event:   messages.EventGameState,
		Payload: g.State(),
	})
	return nil
}

func (h *Hub) handleEndGame(msg InboundHubMessage) error {
	var payload messages.GamePayload
	if err := decode(msg, &payload); err != nil {
		return err
	}

	g, err := h.lookup(msg.Conn, payload.GameID)
	if err != nil {
		return err
	}

	return h.endGame(msg.Conn, g)
}

func (h *Hub) endGame(conn *Connection, g *game.Game) error {
	if err := h.gameManager.EndGame(g.ID); err != nil {
		return err
	}

	h.sendMessage(conn, messages.OutboundMessage{
		Event:   messages.EventGameEnded,
		Payload: messages.GamePayload{GameID: g.ID.String()},
	})
	return nil
}

// sendState sends GAME_STATE, followed by GAME_OVER when the game is decided.
func (h *Hub) sendState(conn *Connection, g *game.Game, state messages.GameStatePayload) {
	h.sendMessage(conn, messages.OutboundMessage{
		Event:   messages.EventGameState,
		Payload: state,
	})

	if over, ok := g.GameOver(); ok {
		h.sendMessage(conn, messages.OutboundMessage{
			Event:   messages.EventGameOver,
			Payload: over,
		})
	}
}

func (h *Hub) sendError(conn *Connection, err error) {
	h.sendMessage(conn, messages.NewError(errorCode(err), err))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, repository.ErrGameNotFound):
		return messages.CodeGameNotFound
	case errors.Is(err, manager.ErrTooManyGames):
		return messages.CodeTooManyGames
	}
	return messages.ErrorCode(err)
}

func (h *Hub) sendMessage(conn *Connection, msg messages.OutboundMessage) {
	conn.SendJSON(msg)
}
