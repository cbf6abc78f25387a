package chess

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN record of the initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is a decoded FEN record.
type Position struct {
	Board         *Board
	Turn          Color
	HalfmoveClock int
	Fullmove      int
}

// ParseFEN decodes a FEN record. The move counters may be omitted.
// Castling rights become the Moved flags of kings and rooks and an en
// passant target opens the window of the pawns that could capture onto it.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 || len(fields) > 6 {
		return nil, fmt.Errorf("%w: fen %q needs 4 to 6 fields", ErrInvalidPosition, fen)
	}

	b, err := parsePlacement(fields[0])
	if err != nil {
		return nil, err
	}

	pos := &Position{Board: b, Fullmove: 1}
	switch fields[1] {
	case "w":
		pos.Turn = White
	case "b":
		pos.Turn = Black
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidPosition, fields[1])
	}

	if err := applyCastlingRights(b, fields[2]); err != nil {
		return nil, err
	}
	if err := applyEnPassantTarget(b, fields[3]); err != nil {
		return nil, err
	}

	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: halfmove clock %q", ErrInvalidPosition, fields[4])
		}
		pos.HalfmoveClock = n
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: fullmove number %q", ErrInvalidPosition, fields[5])
		}
		pos.Fullmove = n
	}
	return pos, nil
}

func parsePlacement(field string) (*Board, error) {
	ranks := strings.Split(field, "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("%w: placement %q needs 8 ranks", ErrInvalidPosition, field)
	}

	b := NewBoard()
	for i, rank := range ranks {
		row, col := 7-i, 0
		for j := 0; j < len(rank); j++ {
			ch := rank[j]
			if ch >= '1' && ch <= '8' {
				col += int(ch - '0')
				continue
			}
			k, ok := KindFromLetter(ch)
			if !ok || col > 7 {
				return nil, fmt.Errorf("%w: rank %q", ErrInvalidPosition, rank)
			}
			c := White
			if ch >= 'a' && ch <= 'z' {
				c = Black
			}
			b.Put(Square{Row: row, Col: col}, NewPiece(k, c))
			col++
		}
		if col != 8 {
			return nil, fmt.Errorf("%w: rank %q", ErrInvalidPosition, rank)
		}
	}
	return b, nil
}

func applyCastlingRights(b *Board, field string) error {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := &b.squares[row][col]; p.Kind == King || p.Kind == Rook {
				p.Moved = true
			}
		}
	}
	if field == "-" {
		return nil
	}

	for i := 0; i < len(field); i++ {
		c, rookCol := White, 7
		switch field[i] {
		case 'K':
		case 'Q':
			rookCol = 0
		case 'k':
			c = Black
		case 'q':
			c, rookCol = Black, 0
		default:
			return fmt.Errorf("%w: castling rights %q", ErrInvalidPosition, field)
		}

		row := c.homeRow()
		king, rook := &b.squares[row][4], &b.squares[row][rookCol]
		if king.Kind != King || king.Color != c || rook.Kind != Rook || rook.Color != c {
			return fmt.Errorf("%w: castling right %q without king and rook at home", ErrInvalidPosition, field[i])
		}
		king.Moved = false
		rook.Moved = false
	}
	return nil
}

func applyEnPassantTarget(b *Board, field string) error {
	if field == "-" {
		return nil
	}
	target, err := ParseSquare(field)
	if err != nil || (target.Row != 2 && target.Row != 5) {
		return fmt.Errorf("%w: en passant target %q", ErrInvalidPosition, field)
	}

	pushedRow := 3
	if target.Row == 5 {
		pushedRow = 4
	}
	pushed := b.At(Square{Row: pushedRow, Col: target.Col})
	if pushed.Kind != Pawn {
		return fmt.Errorf("%w: en passant target %q without pawn", ErrInvalidPosition, field)
	}
	for _, dc := range []int{-1, 1} {
		s := Square{Row: pushedRow, Col: target.Col + dc}
		if p := b.At(s); p.Kind == Pawn && p.Color != pushed.Color {
			p.EnPassant = EnPassant{Active: true, Col: target.Col}
			b.Put(s, p)
		}
	}
	return nil
}

// Placement returns the piece placement field of the FEN record.
func (b *Board) Placement() string {
	var sb strings.Builder
	for row := 7; row >= 0; row-- {
		empty := 0
		for col := 0; col < 8; col++ {
			p := b.squares[row][col]
			if p.Empty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.fenLetter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if row > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

func (b *Board) castlingRights() string {
	var sb strings.Builder
	for _, c := range []Color{White, Black} {
		row := c.homeRow()
		king := b.squares[row][4]
		if king.Kind != King || king.Color != c || king.Moved {
			continue
		}
		for _, side := range []struct {
			col    int
			letter byte
		}{{7, 'K'}, {0, 'Q'}} {
			rook := b.squares[row][side.col]
			if rook.Kind != Rook || rook.Color != c || rook.Moved {
				continue
			}
			l := side.letter
			if c == Black {
				l += 'a' - 'A'
			}
			sb.WriteByte(l)
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// enPassantTarget returns the square a pawn may capture onto right now, or "-".
func (b *Board) enPassantTarget() string {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b.squares[row][col]
			if p.Kind == Pawn && p.EnPassant.Active && p.EnPassant.Age == 0 {
				return Square{Row: row + p.Color.direction(), Col: p.EnPassant.Col}.String()
			}
		}
	}
	return "-"
}
