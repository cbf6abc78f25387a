package messages

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tecu23/chess-arbiter/pkg/chess"
)

// Inbound message types.
const (
	TypeNewGame    = "NEW_GAME"
	TypeMakeMove   = "MAKE_MOVE"
	TypeCommand    = "COMMAND"
	TypeLegalMoves = "LEGAL_MOVES"
	TypeResign     = "RESIGN"
	TypeOfferDraw  = "OFFER_DRAW"
	TypeGetBoard   = "GET_BOARD"
	TypeEndGame    = "END_GAME"
)

// InboundMessage is the generic wrapper for messages coming from the client.
// The "type" field tells us the action; "payload" is the data we parse further.
type InboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewGamePayload creates a game. StartPosition is a FEN record or "startpos";
// Layout, when set, maps squares to piece tokens ("e1": "wK") and wins over
// StartPosition. Turn applies to layouts only.
type NewGamePayload struct {
	StartPosition string            `json:"start_position"`
	Layout        map[string]string `json:"layout,omitempty"`
	Turn          string            `json:"turn,omitempty"`
}

// MakeMovePayload represents the payload for making a move during a game.
// The move is given either as From/To squares or as a compact Move string
// ("e2e4", "e7e8q").
type MakeMovePayload struct {
	GameID    string `json:"game_id"`
	Move      string `json:"move,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
	DrawOffer bool   `json:"draw_offer,omitempty"`
}

// CommandPayload carries one line of the text protocol, see ParseCommand.
type CommandPayload struct {
	GameID string `json:"game_id"`
	Line   string `json:"line"`
}

// LegalMovesPayload asks for the legal destinations of the piece on Square.
type LegalMovesPayload struct {
	GameID string `json:"game_id"`
	Square string `json:"square"`
}

// GamePayload addresses a game without further arguments.
type GamePayload struct {
	GameID string `json:"game_id"`
}

// DrawOfferPayload offers or accepts a draw on behalf of Color.
type DrawOfferPayload struct {
	GameID string `json:"game_id"`
	Color  string `json:"color"`
}

// MoveRequest is a decoded move: two squares, the promotion piece when a
// pawn reaches the last rank, and whether the mover offers a draw with it.
type MoveRequest struct {
	From      chess.Square
	To        chess.Square
	Promotion chess.Kind
	DrawOffer bool
}

// MoveRequest decodes the payload.
func (p MakeMovePayload) MoveRequest() (MoveRequest, error) {
	if p.Move != "" {
		req, err := parseCompact(p.Move)
		if err != nil {
			return MoveRequest{}, err
		}
		req.DrawOffer = p.DrawOffer
		return req, nil
	}

	from, err := chess.ParseSquare(p.From)
	if err != nil {
		return MoveRequest{}, err
	}
	to, err := chess.ParseSquare(p.To)
	if err != nil {
		return MoveRequest{}, err
	}
	promotion, err := parsePromotion(p.Promotion)
	if err != nil {
		return MoveRequest{}, err
	}
	return MoveRequest{From: from, To: to, Promotion: promotion, DrawOffer: p.DrawOffer}, nil
}

// CommandKind is what a text command asks for.
type CommandKind int

const (
	CommandMove CommandKind = iota + 1
	CommandResign
	CommandDraw
	CommandQuit
)

// Command is a parsed line of the text protocol.
type Command struct {
	Kind CommandKind
	Move MoveRequest
}

// ParseCommand decodes one line of the text protocol:
//
//	e2 e4         move
//	e2e4          move, compact form
//	e7 e8 q       move with promotion
//	e7e8 q        the compact form takes the same extras
//	e2 e4 draw    move and offer a draw
//	resign
//	draw          offer or accept a draw
//	quit
//
// Anything else fails with chess.ErrInputDecoding.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty command", chess.ErrInputDecoding)
	}

	if len(fields) == 1 {
		switch fields[0] {
		case "resign":
			return Command{Kind: CommandResign}, nil
		case "draw":
			return Command{Kind: CommandDraw}, nil
		case "quit", "exit":
			return Command{Kind: CommandQuit}, nil
		}
	}

	req, extras, err := parseMove(fields)
	if err != nil {
		return Command{}, err
	}
	if len(extras) > 2 {
		return Command{}, fmt.Errorf("%w: command %q", chess.ErrInputDecoding, line)
	}

	for _, extra := range extras {
		switch {
		case extra == "draw" && !req.DrawOffer:
			req.DrawOffer = true
		case len(extra) == 1 && req.Promotion == chess.NoKind && !req.DrawOffer:
			if req.Promotion, err = parsePromotion(extra); err != nil {
				return Command{}, err
			}
		default:
			return Command{}, fmt.Errorf("%w: command %q", chess.ErrInputDecoding, line)
		}
	}
	return Command{Kind: CommandMove, Move: req}, nil
}

// parseMove reads the move at the head of fields, either as two squares or
// in compact form, and returns the fields left after it.
func parseMove(fields []string) (MoveRequest, []string, error) {
	if len(fields[0]) > 2 {
		req, err := parseCompact(fields[0])
		return req, fields[1:], err
	}
	if len(fields) < 2 {
		return MoveRequest{}, nil, fmt.Errorf("%w: move %q", chess.ErrInputDecoding, fields[0])
	}

	from, err := chess.ParseSquare(fields[0])
	if err != nil {
		return MoveRequest{}, nil, err
	}
	to, err := chess.ParseSquare(fields[1])
	if err != nil {
		return MoveRequest{}, nil, err
	}
	return MoveRequest{From: from, To: to}, fields[2:], nil
}

// parseCompact reads "e2e4" or "e7e8q".
func parseCompact(s string) (MoveRequest, error) {
	if len(s) != 4 && len(s) != 5 {
		return MoveRequest{}, fmt.Errorf("%w: move %q", chess.ErrInputDecoding, s)
	}
	from, err := chess.ParseSquare(s[:2])
	if err != nil {
		return MoveRequest{}, err
	}
	to, err := chess.ParseSquare(s[2:4])
	if err != nil {
		return MoveRequest{}, err
	}
	promotion, err := parsePromotion(s[4:])
	if err != nil {
		return MoveRequest{}, err
	}
	return MoveRequest{From: from, To: to, Promotion: promotion}, nil
}

// parsePromotion reads a single piece letter. The empty string means no
// promotion; whether the piece is acceptable is up to the game.
func parsePromotion(s string) (chess.Kind, error) {
	if s == "" {
		return chess.NoKind, nil
	}
	if len(s) != 1 {
		return chess.NoKind, fmt.Errorf("%w: promotion %q", chess.ErrInputDecoding, s)
	}
	k, ok := chess.KindFromLetter(s[0])
	if !ok {
		return chess.NoKind, fmt.Errorf("%w: promotion %q", chess.ErrInputDecoding, s)
	}
	return k, nil
}
