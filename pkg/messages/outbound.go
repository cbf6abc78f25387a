package messages

import (
	"errors"

	"github.com/tecu23/chess-arbiter/pkg/chess"
)

// Outbound events.
const (
	EventConnected   = "CONNECTED"
	EventGameCreated = "GAME_CREATED"
	EventGameState   = "GAME_STATE"
	EventLegalMoves  = "LEGAL_MOVES"
	EventDrawOffered = "DRAW_OFFERED"
	EventGameOver    = "GAME_OVER"
	EventGameEnded   = "GAME_ENDED"
	EventError       = "ERROR"
)

// OutboundMessage is how we wrap responses before sending
// them to the client
type OutboundMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

// GameCreatedPayload represents the payload after a create game event
type GameCreatedPayload struct {
	GameID      string            `json:"game_id"`
	InitialFEN  string            `json:"initial_fen"`
	Board       map[string]string `json:"board"`
	CurrentTurn string            `json:"current_turn"`
}

// GameStatePayload represents the payload returned after updating the game state
type GameStatePayload struct {
	GameID      string            `json:"game_id"`
	BoardFEN    string            `json:"board_fen"`
	Board       map[string]string `json:"board"`
	CurrentTurn string            `json:"current_turn"`
	Check       bool              `json:"check"`
	CheckSquare string            `json:"check_square,omitempty"`
	DrawOffered bool              `json:"draw_offered"`
	DrawOfferBy string            `json:"draw_offer_by,omitempty"`
	Result      string            `json:"result"`
	Method      string            `json:"method,omitempty"`
	IsCheckmate bool              `json:"is_checkmate"`
	IsDraw      bool              `json:"is_draw"`
}

// LegalMovesResultPayload lists the destinations of the piece on Square.
type LegalMovesResultPayload struct {
	GameID string   `json:"game_id"`
	Square string   `json:"square"`
	Moves  []string `json:"moves"`
}

type DrawOfferedPayload struct {
	GameID string `json:"game_id"`
	By     string `json:"by"`
}

type GameOverPayload struct {
	GameID string `json:"game_id"`
	Result string `json:"result"`
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes sent to clients.
const (
	CodeSquareNotOnBoard      = "SQUARE_NOT_ON_BOARD"
	CodePieceNotFound         = "PIECE_NOT_FOUND"
	CodeMoveOutOfTurn         = "MOVE_OUT_OF_TURN"
	CodeInvalidMove           = "INVALID_MOVE"
	CodeMoveInCheck           = "MOVE_IN_CHECK"
	CodeExposingCheck         = "EXPOSING_CHECK"
	CodeInvalidPromotionPiece = "INVALID_PROMOTION_PIECE"
	CodeInputDecoding         = "INPUT_DECODING"
	CodeGameOver              = "GAME_OVER"
	CodeNoDrawOffer           = "NO_DRAW_OFFER"
	CodeInvalidPosition       = "INVALID_POSITION"
	CodeGameNotFound          = "GAME_NOT_FOUND"
	CodeTooManyGames          = "TOO_MANY_GAMES"
	CodeInternal              = "INTERNAL"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{chess.ErrSquareNotOnBoard, CodeSquareNotOnBoard},
	{chess.ErrPieceNotFound, CodePieceNotFound},
	{chess.ErrMoveOutOfTurn, CodeMoveOutOfTurn},
	{chess.ErrInvalidMove, CodeInvalidMove},
	{chess.ErrMoveInCheck, CodeMoveInCheck},
	{chess.ErrExposingCheck, CodeExposingCheck},
	{chess.ErrInvalidPromotionPiece, CodeInvalidPromotionPiece},
	{chess.ErrInputDecoding, CodeInputDecoding},
	{chess.ErrGameOver, CodeGameOver},
	{chess.ErrNoDrawOffer, CodeNoDrawOffer},
	{chess.ErrInvalidPosition, CodeInvalidPosition},
}

// ErrorCode maps an error to the code reported to the client. Errors that
// are not rule violations map to CodeInternal.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}

// NewError wraps err in an ERROR message with the given code.
func NewError(code string, err error) OutboundMessage {
	return OutboundMessage{
		Event:   EventError,
		Payload: ErrorPayload{Code: code, Message: err.Error()},
	}
}
