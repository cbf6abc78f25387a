package chess

import (
	"fmt"
	"strconv"
	"strings"
)

// FiftyMoveLimit is the number of consecutive half-moves without a pawn move
// or a capture after which the game is drawn.
const FiftyMoveLimit = 50

const repetitionLimit = 3

// DrawOfferStatus is the answer to a draw offer.
type DrawOfferStatus int

// Draw offer states.
const (
	DrawOfferPending DrawOfferStatus = iota + 1
	DrawOfferAccepted
)

// Game is the rules state machine of a single game. It is not safe for
// concurrent use; callers serialize access.
type Game struct {
	board *Board
	turn  Color
	check CheckStatus

	drawOffered   bool
	drawOfferedBy Color

	halfmoveClock int
	fullmove      int
	positions     map[string]int
	history       []*Board

	outcome Outcome
}

// NewGame starts a game from the standard position.
func NewGame() *Game {
	return NewGameFromBoard(NewStandardBoard(), White)
}

// NewGameFromBoard starts a game from a custom board with turn to move.
// The board is copied.
func NewGameFromBoard(b *Board, turn Color) *Game {
	return &Game{
		board:     b.Clone(),
		turn:      turn,
		check:     b.ScanForCheck(),
		fullmove:  1,
		positions: make(map[string]int),
	}
}

// NewGameFromFEN starts a game from a FEN record.
func NewGameFromFEN(fen string) (*Game, error) {
	pos, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	g := NewGameFromBoard(pos.Board, pos.Turn)
	g.halfmoveClock = pos.HalfmoveClock
	g.fullmove = pos.Fullmove
	return g, nil
}

// Board returns a copy of the current board.
func (g *Game) Board() *Board { return g.board.Clone() }

// Turn returns the side to move.
func (g *Game) Turn() Color { return g.turn }

// Check returns the check flags computed after the last move.
func (g *Game) Check() CheckStatus { return g.check }

// Outcome returns the outcome, which is ongoing until the game ends.
func (g *Game) Outcome() Outcome { return g.outcome }

// HalfmoveClock returns the number of half-moves since the last pawn move or capture.
func (g *Game) HalfmoveClock() int { return g.halfmoveClock }

// Plies returns the number of moves played.
func (g *Game) Plies() int { return len(g.history) }

// DrawOffer reports whether a draw offer is pending and who made it.
func (g *Game) DrawOffer() (bool, Color) { return g.drawOffered, g.drawOfferedBy }

// CheckedKing returns the square of the king in check, if any. After a
// checkmate the turn stays with the mating side, so both sides are looked at.
func (g *Game) CheckedKing() (Square, bool) {
	for _, c := range []Color{g.turn, g.turn.Opp()} {
		if g.check.For(c) {
			return g.board.KingSquare(c)
		}
	}
	return Square{}, false
}

// Move plays from → to for the side to move. promotion is required when a
// pawn reaches the last rank. A rejected move returns an error wrapping one
// of the Err* sentinels and leaves the game unchanged.
func (g *Game) Move(from, to Square, promotion Kind) error {
	if !g.outcome.Ongoing() {
		return fmt.Errorf("%w: %s", ErrGameOver, g.outcome)
	}

	snapshot := g.board.Clone()
	g.history = append(g.history, snapshot)
	g.board.AgeEnPassant()

	reject := func(err error) error {
		g.board = g.history[len(g.history)-1]
		g.history = g.history[:len(g.history)-1]
		return err
	}

	for _, s := range []Square{from, to} {
		if !s.Valid() {
			return reject(fmt.Errorf("%w: %s", ErrSquareNotOnBoard, s))
		}
	}

	piece := g.board.At(from)
	if piece.Empty() {
		return reject(fmt.Errorf("%w: %s", ErrPieceNotFound, from))
	}
	if piece.Color != g.turn {
		return reject(fmt.Errorf("%w: %s piece during %s's turn", ErrMoveOutOfTurn, piece.Color.Name(), g.turn.Name()))
	}
	if !g.board.ValidateMove(from, to) {
		return reject(fmt.Errorf("%w: %s to %s", ErrInvalidMove, from, to))
	}
	if err := g.board.ExecuteMove(from, to, promotion); err != nil {
		return reject(err)
	}

	check := g.board.ScanForCheck()
	if check.For(g.turn) {
		if g.check.For(g.turn) {
			return reject(fmt.Errorf("%w: %s to %s", ErrMoveInCheck, from, to))
		}
		return reject(fmt.Errorf("%w: %s to %s", ErrExposingCheck, from, to))
	}

	g.commit(piece, !snapshot.At(to).Empty(), check)
	return nil
}

// commit runs the bookkeeping of an accepted move and decides the outcome.
func (g *Game) commit(moved Piece, captured bool, check CheckStatus) {
	g.check = check
	if g.turn == Black {
		g.fullmove++
	}

	// Replying with a move declines the opponent's offer.
	if g.drawOffered && g.drawOfferedBy != g.turn {
		g.drawOffered, g.drawOfferedBy = false, NoColor
	}

	if moved.Kind == Pawn || captured {
		g.halfmoveClock = 0
	} else {
		g.halfmoveClock++
		if g.halfmoveClock >= FiftyMoveLimit {
			g.outcome = drawBy(FiftyMoveRule)
			return
		}
	}

	if g.board.InsufficientMaterial() {
		g.outcome = drawBy(InsufficientMaterial)
		return
	}

	next := g.turn.Opp()
	sig := g.signature(next)
	g.positions[sig]++
	if g.positions[sig] >= repetitionLimit {
		g.outcome = drawBy(ThreefoldRepetition)
		return
	}

	if g.noLegalMoves(next) {
		if g.check.For(next) {
			g.outcome = winFor(g.turn, Checkmate)
		} else {
			g.outcome = drawBy(Stalemate)
		}
		return
	}

	g.turn = next
}

// signature identifies a position for repetition counting.
func (g *Game) signature(toMove Color) string {
	return g.board.Placement() + " " + string(toMove)
}

// upcoming is the board as the next move attempt will see it, with en
// passant windows already aged.
func (g *Game) upcoming() *Board {
	b := g.board.Clone()
	b.AgeEnPassant()
	return b
}

// legalFrom filters the pseudo-legal moves of the piece on from down to the
// ones that leave its king safe. Promotions are simulated as queens.
func legalFrom(b *Board, from Square) []Square {
	p := b.At(from)
	var moves []Square
	for _, to := range p.PseudoLegalMoves(b, from) {
		trial := b.Clone()
		if err := trial.ExecuteMove(from, to, Queen); err != nil {
			continue
		}
		if !trial.ScanForCheck().For(p.Color) {
			moves = append(moves, to)
		}
	}
	return moves
}

func (g *Game) noLegalMoves(c Color) bool {
	b := g.upcoming()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			s := Square{Row: row, Col: col}
			if p := b.At(s); p.Empty() || p.Color != c {
				continue
			}
			if len(legalFrom(b, s)) > 0 {
				return false
			}
		}
	}
	return true
}

// LegalMoves returns the destinations the piece on from may legally move to.
func (g *Game) LegalMoves(from Square) ([]Square, error) {
	if !from.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrSquareNotOnBoard, from)
	}
	b := g.upcoming()
	if b.At(from).Empty() {
		return nil, fmt.Errorf("%w: %s", ErrPieceNotFound, from)
	}
	return legalFrom(b, from), nil
}

// AllLegalMoves maps every piece of the side to move to its legal
// destinations. Pieces without legal moves are left out.
func (g *Game) AllLegalMoves() map[Square][]Square {
	out := make(map[Square][]Square)
	if !g.outcome.Ongoing() {
		return out
	}
	b := g.upcoming()
	b.each(func(s Square, p Piece) {
		if p.Color != g.turn {
			return
		}
		if moves := legalFrom(b, s); len(moves) > 0 {
			out[s] = moves
		}
	})
	return out
}

// Resign ends the game in favour of the side not to move.
func (g *Game) Resign() error {
	if !g.outcome.Ongoing() {
		return fmt.Errorf("%w: %s", ErrGameOver, g.outcome)
	}
	g.outcome = winFor(g.turn.Opp(), Resignation)
	return nil
}

// OfferDraw records a draw offer by side by. An offer while the other side's
// offer is pending is an acceptance and ends the game.
func (g *Game) OfferDraw(by Color) (DrawOfferStatus, error) {
	if !g.outcome.Ongoing() {
		return 0, fmt.Errorf("%w: %s", ErrGameOver, g.outcome)
	}
	if by != White && by != Black {
		return 0, fmt.Errorf("%w: draw offer by %q", ErrInputDecoding, by)
	}
	if g.drawOffered && g.drawOfferedBy != by {
		g.drawOffered, g.drawOfferedBy = false, NoColor
		g.outcome = drawBy(DrawAgreement)
		return DrawOfferAccepted, nil
	}
	g.drawOffered, g.drawOfferedBy = true, by
	return DrawOfferPending, nil
}

// AcceptDraw accepts the pending offer of the other side.
func (g *Game) AcceptDraw(by Color) error {
	if !g.outcome.Ongoing() {
		return fmt.Errorf("%w: %s", ErrGameOver, g.outcome)
	}
	if by != White && by != Black {
		return fmt.Errorf("%w: draw accepted by %q", ErrInputDecoding, by)
	}
	if !g.drawOffered || g.drawOfferedBy == by {
		return ErrNoDrawOffer
	}
	_, err := g.OfferDraw(by)
	return err
}

// FEN returns the FEN record of the current position.
func (g *Game) FEN() string {
	return strings.Join([]string{
		g.board.Placement(),
		string(g.turn),
		g.board.castlingRights(),
		g.board.enPassantTarget(),
		strconv.Itoa(g.halfmoveClock),
		strconv.Itoa(g.fullmove),
	}, " ")
}
