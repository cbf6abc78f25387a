package chess

// Result is the final score of a game.
type Result string

// Results, in PGN notation.
const (
	NoResult Result = "*"
	WhiteWon Result = "1-0"
	BlackWon Result = "0-1"
	Draw     Result = "1/2-1/2"
)

// Method is how a game ended.
type Method string

// End methods.
const (
	NoMethod             Method = ""
	Checkmate            Method = "checkmate"
	Stalemate            Method = "stalemate"
	Resignation          Method = "resignation"
	DrawAgreement        Method = "draw_agreement"
	FiftyMoveRule        Method = "fifty_move_rule"
	ThreefoldRepetition  Method = "threefold_repetition"
	InsufficientMaterial Method = "insufficient_material"
)

// Outcome is the terminal state of a game. The zero value is an ongoing game.
type Outcome struct {
	Result Result `json:"result"`
	Method Method `json:"method"`
}

// Ongoing reports whether the game has not ended yet.
func (o Outcome) Ongoing() bool {
	return o.Method == NoMethod
}

// Winner returns the winning side, or NoColor for draws and ongoing games.
func (o Outcome) Winner() Color {
	switch o.Result {
	case WhiteWon:
		return White
	case BlackWon:
		return Black
	}
	return NoColor
}

// IsDraw reports whether the game ended drawn.
func (o Outcome) IsDraw() bool {
	return o.Result == Draw
}

func (o Outcome) String() string {
	if o.Ongoing() {
		return string(NoResult)
	}
	return string(o.Result) + " " + string(o.Method)
}

func winFor(c Color, m Method) Outcome {
	if c == White {
		return Outcome{Result: WhiteWon, Method: m}
	}
	return Outcome{Result: BlackWon, Method: m}
}

func drawBy(m Method) Outcome {
	return Outcome{Result: Draw, Method: m}
}
