package chess

import "fmt"

const files = "abcdefgh"

// Square addresses a board cell. Row 0 is rank 1 and Col 0 is file a.
// Squares built from outside input may lie off the board; check Valid before use.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

// String returns the algebraic name of the square, e.g. "e4".
func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d, %d)", s.Row, s.Col)
	}
	return string([]byte{files[s.Col], byte('1' + s.Row)})
}

// Offset returns the square dr rows and dc columns away.
func (s Square) Offset(dr, dc int) Square {
	return Square{Row: s.Row + dr, Col: s.Col + dc}
}

// ParseSquare decodes algebraic notation such as "e4". The input must be
// exactly a file letter followed by a rank digit.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: square %q", ErrInputDecoding, s)
	}

	f, r := s[0], s[1]
	if f < 'a' || f > 'h' || r < '1' || r > '8' {
		return Square{}, fmt.Errorf("%w: square %q", ErrInputDecoding, s)
	}

	return Square{Row: int(r - '1'), Col: int(f - 'a')}, nil
}
