package chess

import (
	"fmt"
	"strings"
)

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// CheckStatus holds the check flag of each side.
type CheckStatus struct {
	White bool `json:"white"`
	Black bool `json:"black"`
}

// For returns the flag of the given side.
func (cs CheckStatus) For(c Color) bool {
	if c == White {
		return cs.White
	}
	return cs.Black
}

// Board maps squares to pieces. It is a plain array, so copying a Board
// value copies every piece with it; trial boards never share state with the
// board they were cloned from.
type Board struct {
	squares [8][8]Piece
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// NewStandardBoard returns the initial chess position.
func NewStandardBoard() *Board {
	b := &Board{}
	for col, k := range backRank {
		b.squares[0][col] = NewPiece(k, White)
		b.squares[1][col] = NewPiece(Pawn, White)
		b.squares[6][col] = NewPiece(Pawn, Black)
		b.squares[7][col] = NewPiece(k, Black)
	}
	return b
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// At returns the piece on s, or the zero Piece when s is empty or off the board.
func (b *Board) At(s Square) Piece {
	if !s.Valid() {
		return Piece{}
	}
	return b.squares[s.Row][s.Col]
}

// Put places p on s, replacing whatever stood there.
func (b *Board) Put(s Square, p Piece) {
	if s.Valid() {
		b.squares[s.Row][s.Col] = p
	}
}

// Remove empties s.
func (b *Board) Remove(s Square) {
	b.Put(s, Piece{})
}

// each calls fn for every occupied square, rank 1 to rank 8.
func (b *Board) each(fn func(Square, Piece)) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b.squares[row][col]; !p.Empty() {
				fn(Square{Row: row, Col: col}, p)
			}
		}
	}
}

// ValidateMove reports whether to is a pseudo-legal destination of the piece
// on from. A valid move permanently marks a king or rook as moved.
func (b *Board) ValidateMove(from, to Square) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	p := b.At(from)
	if p.Empty() {
		return false
	}

	valid := containsSquare(p.PseudoLegalMoves(b, from), to)
	if valid && (p.Kind == King || p.Kind == Rook) && !p.Moved {
		p.Moved = true
		b.Put(from, p)
	}
	return valid
}

// ExecuteMove applies a move without checking its legality. The move is
// classified as double pawn push, promotion, en passant, castling or plain
// move, in that order. promotion is only read for promotions and must then
// be a rook, knight, bishop or queen; otherwise the board is left untouched.
func (b *Board) ExecuteMove(from, to Square, promotion Kind) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: %s-%s", ErrSquareNotOnBoard, from, to)
	}
	p := b.At(from)
	if p.Empty() {
		return fmt.Errorf("%w: %s", ErrPieceNotFound, from)
	}

	switch {
	case p.Kind == Pawn && abs(to.Row-from.Row) == 2:
		b.Put(to, p)
		for _, dc := range []int{-1, 1} {
			side := to.Offset(0, dc)
			n := b.At(side)
			if n.Kind == Pawn && n.Color != p.Color {
				n.EnPassant = EnPassant{Active: true, Col: to.Col}
				b.Put(side, n)
			}
		}

	case p.Kind == Pawn && to.Row == p.Color.promotionRow():
		if !promotion.IsPromotion() {
			return fmt.Errorf("%w: %s", ErrInvalidPromotionPiece, promotion)
		}
		b.Put(to, NewPiece(promotion, p.Color))

	case p.Kind == Pawn && to.Col != from.Col && b.At(to).Empty():
		b.Put(to, p)
		b.Remove(Square{Row: from.Row, Col: to.Col})

	case p.Kind == King && abs(to.Col-from.Col) == 2:
		b.Put(to, p)
		rookFrom, rookTo := Square{Row: from.Row, Col: 0}, to.Offset(0, 1)
		if to.Col > from.Col {
			rookFrom, rookTo = Square{Row: from.Row, Col: 7}, to.Offset(0, -1)
		}
		if rook := b.At(rookFrom); rook.Kind == Rook && rook.Color == p.Color {
			rook.Moved = true
			b.Put(rookTo, rook)
			b.Remove(rookFrom)
		}

	default:
		b.Put(to, p)
	}

	b.Remove(from)
	return nil
}

// ScanForCheck reports which kings are attacked. Boards without exactly one
// king per side report no check at all.
func (b *Board) ScanForCheck() CheckStatus {
	var (
		kings  = map[Color]Square{}
		counts = map[Color]int{}
	)
	b.each(func(s Square, p Piece) {
		if p.Kind == King {
			kings[p.Color] = s
			counts[p.Color]++
		}
	})
	if counts[White] != 1 || counts[Black] != 1 {
		return CheckStatus{}
	}

	return CheckStatus{
		White: b.threatened(kings[White], Black),
		Black: b.threatened(kings[Black], White),
	}
}

// threatened reports whether a piece of color by attacks the occupied square s.
func (b *Board) threatened(s Square, by Color) bool {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b.squares[row][col]
			if p.Empty() || p.Color != by {
				continue
			}
			if containsSquare(p.attacks(b, Square{Row: row, Col: col}), s) {
				return true
			}
		}
	}
	return false
}

// AgeEnPassant advances every open en passant window by one move attempt and
// closes the windows that are older than one.
func (b *Board) AgeEnPassant() {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := &b.squares[row][col]
			if p.Kind != Pawn || !p.EnPassant.Active {
				continue
			}
			p.EnPassant.Age++
			if p.EnPassant.Age > 1 {
				p.EnPassant = EnPassant{}
			}
		}
	}
}

// InsufficientMaterial reports whether neither side can mate: bare kings, or
// only minor pieces with at most two per side. Two bishops on one side always
// count as mating material, whatever the colour of their squares.
func (b *Board) InsufficientMaterial() bool {
	minors := map[Color][]Kind{}
	heavy := false
	b.each(func(_ Square, p Piece) {
		switch p.Kind {
		case King:
		case Rook, Queen, Pawn:
			heavy = true
		default:
			minors[p.Color] = append(minors[p.Color], p.Kind)
		}
	})
	if heavy {
		return false
	}

	for _, c := range []Color{White, Black} {
		list := minors[c]
		if len(list) > 2 {
			return false
		}
		if len(list) == 2 && list[0] == Bishop && list[1] == Bishop {
			return false
		}
	}
	return true
}

// CastlingCandidates returns the castling destinations of the king on from.
// Each side needs an unmoved rook in its corner, empty squares in between
// and a king that is not attacked on its square nor on the two squares it
// crosses. The crossing is simulated on copies of the board.
func (b *Board) CastlingCandidates(from Square) []Square {
	king := b.At(from)
	if king.Kind != King || king.Moved {
		return nil
	}
	row := king.Color.homeRow()
	if from != (Square{Row: row, Col: 4}) {
		return nil
	}

	var moves []Square
	for _, side := range []struct{ rookCol, step int }{{0, -1}, {7, 1}} {
		rook := b.At(Square{Row: row, Col: side.rookCol})
		if rook.Kind != Rook || rook.Color != king.Color || rook.Moved {
			continue
		}
		if !b.emptyBetween(row, from.Col, side.rookCol) {
			continue
		}
		if b.ScanForCheck().For(king.Color) {
			return nil
		}
		if b.safePassage(from, side.step, king.Color) {
			moves = append(moves, from.Offset(0, 2*side.step))
		}
	}
	return moves
}

func (b *Board) emptyBetween(row, a, z int) bool {
	if a > z {
		a, z = z, a
	}
	for col := a + 1; col < z; col++ {
		if !b.squares[row][col].Empty() {
			return false
		}
	}
	return true
}

// safePassage walks the king two squares along its rank on a copy and
// reports whether it stays out of check on both.
func (b *Board) safePassage(from Square, step int, c Color) bool {
	trial := b.Clone()
	at := from
	for i := 0; i < 2; i++ {
		next := at.Offset(0, step)
		if err := trial.ExecuteMove(at, next, NoKind); err != nil {
			return false
		}
		if trial.ScanForCheck().For(c) {
			return false
		}
		at = next
	}
	return true
}

// KingSquare returns the square of the king of color c.
func (b *Board) KingSquare(c Color) (Square, bool) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b.squares[row][col]; p.Kind == King && p.Color == c {
				return Square{Row: row, Col: col}, true
			}
		}
	}
	return Square{}, false
}

// Snapshot maps the algebraic name of every occupied square to its piece token.
func (b *Board) Snapshot() map[string]string {
	out := make(map[string]string, 32)
	b.each(func(s Square, p Piece) {
		out[s.String()] = p.Token()
	})
	return out
}

// BoardFromSnapshot builds a board from a square → token mapping such as the
// one returned by Snapshot. All kings and rooks start unmoved.
func BoardFromSnapshot(layout map[string]string) (*Board, error) {
	b := NewBoard()
	for name, token := range layout {
		s, err := ParseSquare(name)
		if err != nil {
			return nil, err
		}
		p, err := ParseToken(token)
		if err != nil {
			return nil, err
		}
		b.Put(s, p)
	}
	return b, nil
}

// String draws the board from white's side, upper case for white pieces.
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for row := 7; row >= 0; row-- {
		fmt.Fprintf(&sb, "%d ", row+1)
		for col := 0; col < 8; col++ {
			if p := b.squares[row][col]; p.Empty() {
				sb.WriteByte('.')
			} else {
				sb.WriteByte(p.fenLetter())
			}
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d\n", row+1)
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
