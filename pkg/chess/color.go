// Package chess implements the rules of chess: move generation, check
// detection, special moves and the draw rules.
package chess

// Color is the side a piece belongs to.
type Color string

// The two sides. NoColor marks an empty square.
const (
	NoColor Color = ""
	White   Color = "w"
	Black   Color = "b"
)

// Opp returns the opposite color.
func (c Color) Opp() Color {
	if c == White {
		return Black
	}

	return White
}

// Name returns the lowercase english name of the side.
func (c Color) Name() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	}
	return "none"
}

// ParseColor accepts "w", "b", "white" and "black".
func ParseColor(s string) (Color, bool) {
	switch s {
	case "w", "white":
		return White, true
	case "b", "black":
		return Black, true
	}
	return NoColor, false
}

// direction is the row delta of a forward pawn step.
func (c Color) direction() int {
	if c == White {
		return 1
	}
	return -1
}

// homeRow is the back rank of the side.
func (c Color) homeRow() int {
	if c == White {
		return 0
	}
	return 7
}

// pawnRow is the rank pawns of the side start on.
func (c Color) pawnRow() int {
	if c == White {
		return 1
	}
	return 6
}

// enPassantRow is the rank a pawn of the side must stand on to capture en passant.
func (c Color) enPassantRow() int {
	if c == White {
		return 4
	}
	return 3
}

// promotionRow is the last rank from the side's point of view.
func (c Color) promotionRow() int {
	if c == White {
		return 7
	}
	return 0
}
