package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tecu23/chess-arbiter/pkg/chess"
	"github.com/tecu23/chess-arbiter/pkg/events"
	"github.com/tecu23/chess-arbiter/pkg/messages"
)

// StartPos selects the standard initial position.
const StartPos = "startpos"

type CreateGameParams struct {
	GameID        uuid.UUID
	StartPosition string            // FEN record or StartPos
	Layout        map[string]string // square → piece token, wins over StartPosition
	Turn          chess.Color       // side to move for Layout, White when unset
}

type GameStatus string

const (
	StatusActive     GameStatus = "active"
	StatusCompleted  GameStatus = "completed"
	StatusTerminated GameStatus = "terminated"
)

// Game is a session around one chess game. The rules engine itself is not
// safe for concurrent use, so every access goes through mu.
type Game struct {
	ID           uuid.UUID
	ConnectionID uuid.UUID

	Game   *chess.Game
	Status GameStatus

	mu sync.Mutex

	Publisher *events.Publisher
	Logger    *zap.Logger
}

// CreateGame builds the rules engine from params and publishes GAME_CREATED.
func CreateGame(
	params CreateGameParams,
	connectionID uuid.UUID,
	publisher *events.Publisher,
	logger *zap.Logger,
) (*Game, error) {
	internalGame, err := newChessGame(params)
	if err != nil {
		return nil, err
	}

	if params.GameID == uuid.Nil {
		params.GameID = uuid.New()
	}

	session := &Game{
		ID:           params.GameID,
		ConnectionID: connectionID,
		Game:         internalGame,
		Status:       StatusActive,
		Publisher:    publisher,
		Logger:       logger.With(zap.String("game_id", params.GameID.String())),
	}

	session.Logger.Info("game created",
		zap.String("connection_id", connectionID.String()),
		zap.String("fen", internalGame.FEN()),
	)

	session.publish(events.EventGameCreated, session.Created())

	return session, nil
}

func newChessGame(params CreateGameParams) (*chess.Game, error) {
	if len(params.Layout) > 0 {
		board, err := chess.BoardFromSnapshot(params.Layout)
		if err != nil {
			return nil, err
		}
		turn := params.Turn
		if turn == chess.NoColor {
			turn = chess.White
		}
		return chess.NewGameFromBoard(board, turn), nil
	}

	if params.StartPosition == "" || params.StartPosition == StartPos {
		return chess.NewGame(), nil
	}
	return chess.NewGameFromFEN(params.StartPosition)
}

// Created describes the freshly created game.
func (s *Game) Created() messages.GameCreatedPayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	return messages.GameCreatedPayload{
		GameID:      s.ID.String(),
		InitialFEN:  s.Game.FEN(),
		Board:       s.Game.Board().Snapshot(),
		CurrentTurn: s.Game.Turn().Name(),
	}
}

// ProcessMove plays req for the side to move. A draw offer attached to an
// accepted move is recorded on behalf of the mover. When the opponent's offer
// is pending, the attached offer agrees the draw and the move is not played.
func (s *Game) ProcessMove(req messages.MoveRequest) (messages.GameStatePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.terminated(); err != nil {
		return messages.GameStatePayload{}, err
	}

	mover := s.Game.Turn()
	if offered, by := s.Game.DrawOffer(); req.DrawOffer && offered && by != mover {
		if _, err := s.offerDraw(mover); err != nil {
			return messages.GameStatePayload{}, err
		}
		s.Logger.Info("draw agreed", zap.String("by", mover.Name()))

		state := s.state()
		s.finishIfOver()
		return state, nil
	}

	if err := s.Game.Move(req.From, req.To, req.Promotion); err != nil {
		s.Logger.Debug("move rejected",
			zap.String("from", req.From.String()),
			zap.String("to", req.To.String()),
			zap.Error(err),
		)
		return messages.GameStatePayload{}, err
	}

	s.Logger.Info(
		"processed move",
		zap.String("from", req.From.String()),
		zap.String("to", req.To.String()),
		zap.String("new_turn", s.Game.Turn().Name()),
	)

	if req.DrawOffer && s.Game.Outcome().Ongoing() {
		if _, err := s.offerDraw(mover); err != nil {
			return messages.GameStatePayload{}, err
		}
	}

	state := s.state()
	s.publish(events.EventMoveProcessed, state)
	s.finishIfOver()

	return state, nil
}

// LegalMoves lists the legal destinations of the piece on square.
func (s *Game) LegalMoves(square string) (messages.LegalMovesResultPayload, error) {
	from, err := chess.ParseSquare(square)
	if err != nil {
		return messages.LegalMovesResultPayload{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	moves, err := s.Game.LegalMoves(from)
	if err != nil {
		return messages.LegalMovesResultPayload{}, err
	}

	out := messages.LegalMovesResultPayload{
		GameID: s.ID.String(),
		Square: from.String(),
		Moves:  make([]string, 0, len(moves)),
	}
	for _, to := range moves {
		out.Moves = append(out.Moves, to.String())
	}
	return out, nil
}

// Resign ends the game in favour of the side not to move.
func (s *Game) Resign() (messages.GameStatePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.terminated(); err != nil {
		return messages.GameStatePayload{}, err
	}
	if err := s.Game.Resign(); err != nil {
		return messages.GameStatePayload{}, err
	}
	s.Logger.Info("player resigned", zap.String("outcome", s.Game.Outcome().String()))

	state := s.state()
	s.finishIfOver()
	return state, nil
}

// OfferDraw offers a draw on behalf of by, or of the side to move when by
// is NoColor. An offer against a pending offer of the other side agrees the
// draw.
func (s *Game) OfferDraw(by chess.Color) (chess.DrawOfferStatus, messages.GameStatePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.terminated(); err != nil {
		return 0, messages.GameStatePayload{}, err
	}
	if by == chess.NoColor {
		by = s.Game.Turn()
	}

	status, err := s.offerDraw(by)
	if err != nil {
		return 0, messages.GameStatePayload{}, err
	}

	state := s.state()
	s.finishIfOver()
	return status, state, nil
}

func (s *Game) offerDraw(by chess.Color) (chess.DrawOfferStatus, error) {
	status, err := s.Game.OfferDraw(by)
	if err != nil {
		return 0, err
	}

	if status == chess.DrawOfferPending {
		s.Logger.Info("draw offered", zap.String("by", by.Name()))
		s.publish(events.EventDrawOffered, messages.DrawOfferedPayload{
			GameID: s.ID.String(),
			By:     by.Name(),
		})
	}
	return status, nil
}

func (s *Game) terminated() error {
	if s.Status == StatusTerminated {
		return fmt.Errorf("%w: game %s was terminated", chess.ErrGameOver, s.ID)
	}
	return nil
}

// CurrentStatus returns the session status.
func (s *Game) CurrentStatus() GameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.Status
}

// State returns the current state of the game.
func (s *Game) State() messages.GameStatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state()
}

func (s *Game) state() messages.GameStatePayload {
	outcome := s.Game.Outcome()
	offered, by := s.Game.DrawOffer()

	state := messages.GameStatePayload{
		GameID:      s.ID.String(),
		BoardFEN:    s.Game.FEN(),
		Board:       s.Game.Board().Snapshot(),
		CurrentTurn: s.Game.Turn().Name(),
		DrawOffered: offered,
		Result:      string(chess.NoResult),
		Method:      string(outcome.Method),
		IsCheckmate: outcome.Method == chess.Checkmate,
		IsDraw:      outcome.IsDraw(),
	}
	if offered {
		state.DrawOfferBy = by.Name()
	}
	if !outcome.Ongoing() {
		state.Result = string(outcome.Result)
	}
	if king, ok := s.Game.CheckedKing(); ok {
		state.Check = true
		state.CheckSquare = king.String()
	}
	return state
}

// finishIfOver marks a decided game completed and publishes GAME_OVER once.
func (s *Game) finishIfOver() {
	outcome := s.Game.Outcome()
	if outcome.Ongoing() || s.Status != StatusActive {
		return
	}
	s.Status = StatusCompleted

	s.Logger.Info("game over", zap.String("outcome", outcome.String()))
	s.publish(events.EventGameOver, s.gameOver(outcome))
}

func (s *Game) gameOver(outcome chess.Outcome) messages.GameOverPayload {
	payload := messages.GameOverPayload{
		GameID: s.ID.String(),
		Result: string(outcome.Result),
		Reason: string(outcome.Method),
	}
	if w := outcome.Winner(); w != chess.NoColor {
		payload.Winner = w.Name()
	}
	return payload
}

// GameOver returns the GAME_OVER payload of a decided game.
func (s *Game) GameOver() (messages.GameOverPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := s.Game.Outcome()
	if outcome.Ongoing() {
		return messages.GameOverPayload{}, false
	}
	return s.gameOver(outcome), true
}

// Terminate stops the session. It is safe to call more than once.
func (s *Game) Terminate() {
	s.mu.Lock()
	if s.Status == StatusTerminated {
		s.mu.Unlock()
		return
	}
	s.Status = StatusTerminated
	s.mu.Unlock()

	s.Logger.Info("game terminated")

	// Publish game terminated event
	s.publish(events.EventGameTerminated, map[string]string{
		"game_id": s.ID.String(),
	})
}

func (s *Game) publish(t events.EventType, payload interface{}) {
	if s.Publisher == nil {
		return
	}
	s.Publisher.Publish(events.Event{
		Type:         t,
		GameID:       s.ID.String(),
		ConnectionID: s.ConnectionID.String(),
		Payload:      payload,
	})
}
