package chess

import "fmt"

// Kind is the type of a piece. NoKind is the zero value and marks an empty square.
type Kind uint8

// Piece kinds.
const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = [...]byte{NoKind: '-', Pawn: 'P', Knight: 'N', Bishop: 'B', Rook: 'R', Queen: 'Q', King: 'K'}

// Letter returns the upper case letter of the kind ('P', 'N', ...).
func (k Kind) Letter() byte {
	if int(k) >= len(kindLetters) {
		return '?'
	}
	return kindLetters[k]
}

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "none"
}

// KindFromLetter maps a piece letter, in either case, to its kind.
func KindFromLetter(b byte) (Kind, bool) {
	if b >= 'a' && b <= 'z' {
		b -= 'a' - 'A'
	}
	for k := Pawn; k <= King; k++ {
		if kindLetters[k] == b {
			return k, true
		}
	}
	return NoKind, false
}

// IsPromotion reports whether a pawn may promote to the kind.
func (k Kind) IsPromotion() bool {
	return k == Rook || k == Knight || k == Bishop || k == Queen
}

// EnPassant is the transient right of a pawn to capture a neighbouring pawn
// that has just made a double step. Col is the file of that pawn, Age counts
// the move attempts since the window opened.
type EnPassant struct {
	Active bool
	Col    int
	Age    int
}

// Piece is a tagged union over the six kinds. Moved is tracked for kings and
// rooks, EnPassant for pawns; both stay zero for the other kinds.
type Piece struct {
	Kind      Kind
	Color     Color
	Moved     bool
	EnPassant EnPassant
}

// NewPiece returns an unmoved piece.
func NewPiece(k Kind, c Color) Piece {
	return Piece{Kind: k, Color: c}
}

// Empty reports whether this is the zero piece.
func (p Piece) Empty() bool {
	return p.Kind == NoKind
}

// Token identifies the piece for renderers: color letter then kind letter, e.g. "wK".
func (p Piece) Token() string {
	if p.Empty() {
		return ""
	}
	return string(p.Color) + string(p.Kind.Letter())
}

// ParseToken is the inverse of Token.
func ParseToken(token string) (Piece, error) {
	if len(token) != 2 {
		return Piece{}, fmt.Errorf("%w: piece token %q", ErrInputDecoding, token)
	}
	c, ok := ParseColor(token[:1])
	if !ok {
		return Piece{}, fmt.Errorf("%w: piece token %q", ErrInputDecoding, token)
	}
	k, ok := KindFromLetter(token[1])
	if !ok || token[1] < 'A' || token[1] > 'Z' {
		return Piece{}, fmt.Errorf("%w: piece token %q", ErrInputDecoding, token)
	}
	return NewPiece(k, c), nil
}

// fenLetter is the FEN letter: upper case for white, lower case for black.
func (p Piece) fenLetter() byte {
	l := p.Kind.Letter()
	if p.Color == Black {
		l += 'a' - 'A'
	}
	return l
}

type offset struct{ dr, dc int }

var (
	orthogonals = []offset{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	diagonals   = []offset{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	royals      = []offset{{1, 0}, {0, 1}, {-1, 0}, {0, -1}, {1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	jumps       = []offset{{2, 1}, {-2, 1}, {2, -1}, {-2, -1}, {1, 2}, {-1, 2}, {1, -2}, {-1, -2}}
)

// PseudoLegalMoves returns every square the piece standing on from could
// move to, ignoring whether the move leaves its own king in check.
func (p Piece) PseudoLegalMoves(b *Board, from Square) []Square {
	if p.Kind == King {
		return append(p.steps(b, from, royals), b.CastlingCandidates(from)...)
	}
	return p.attacks(b, from)
}

// attacks is PseudoLegalMoves without castling. Castling never captures, so
// this is the set used to decide whether a square is attacked.
func (p Piece) attacks(b *Board, from Square) []Square {
	switch p.Kind {
	case Pawn:
		return p.pawnMoves(b, from)
	case Knight:
		return p.steps(b, from, jumps)
	case Bishop:
		return p.slides(b, from, diagonals)
	case Rook:
		return p.slides(b, from, orthogonals)
	case Queen:
		return p.slides(b, from, royals)
	case King:
		return p.steps(b, from, royals)
	case NoKind:
	}
	return nil
}

// canLand reports whether to is on the board and empty or held by the opponent.
func (p Piece) canLand(b *Board, to Square) bool {
	if !to.Valid() {
		return false
	}
	target := b.At(to)
	return target.Empty() || target.Color != p.Color
}

func (p Piece) steps(b *Board, from Square, offsets []offset) []Square {
	moves := make([]Square, 0, len(offsets))
	for _, o := range offsets {
		to := from.Offset(o.dr, o.dc)
		if p.canLand(b, to) {
			moves = append(moves, to)
		}
	}
	return moves
}

func (p Piece) slides(b *Board, from Square, rays []offset) []Square {
	var moves []Square
	for _, o := range rays {
		for to := from.Offset(o.dr, o.dc); to.Valid(); to = to.Offset(o.dr, o.dc) {
			target := b.At(to)
			if target.Empty() {
				moves = append(moves, to)
				continue
			}
			if target.Color != p.Color {
				moves = append(moves, to)
			}
			break
		}
	}
	return moves
}

func (p Piece) pawnMoves(b *Board, from Square) []Square {
	dir := p.Color.direction()
	var moves []Square

	for _, dc := range []int{-1, 1} {
		to := from.Offset(dir, dc)
		if !to.Valid() {
			continue
		}
		target := b.At(to)
		switch {
		case !target.Empty() && target.Color != p.Color:
			moves = append(moves, to)
		case target.Empty() && p.EnPassant.Active && p.EnPassant.Col == to.Col &&
			from.Row == p.Color.enPassantRow():
			moves = append(moves, to)
		}
	}

	one := from.Offset(dir, 0)
	if !one.Valid() || !b.At(one).Empty() {
		return moves
	}
	moves = append(moves, one)

	two := from.Offset(2*dir, 0)
	if from.Row == p.Color.pawnRow() && b.At(two).Empty() {
		moves = append(moves, two)
	}
	return moves
}

func containsSquare(squares []Square, s Square) bool {
	for _, sq := range squares {
		if sq == s {
			return true
		}
	}
	return false
}
