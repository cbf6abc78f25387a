package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tecu23/chess-arbiter/pkg/chess"
	"github.com/tecu23/chess-arbiter/pkg/events"
	"github.com/tecu23/chess-arbiter/pkg/messages"
)

func newTestGame(t *testing.T, params CreateGameParams) (*Game, <-chan events.Event) {
	t.Helper()

	publisher := events.NewPublisher()
	received := make(chan events.Event, 16)
	publisher.SubscribeAll(func(e events.Event) { received <- e })

	g, err := CreateGame(params, uuid.New(), publisher, zaptest.NewLogger(t))
	require.NoError(t, err)
	return g, received
}

// waitFor drains events until one of type want shows up.
func waitFor(t *testing.T, ch <-chan events.Event, want events.EventType) events.Event {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case e := <-ch:
			if e.Type == want {
				return e
			}
		case <-deadline:
			require.FailNow(t, "event not published", string(want))
		}
	}
}

func moveReq(t *testing.T, mv string) messages.MoveRequest {
	t.Helper()
	cmd, err := messages.ParseCommand(mv)
	require.NoError(t, err)
	return cmd.Move
}

func TestCreateGame(t *testing.T) {
	t.Run("standard position", func(t *testing.T) {
		g, received := newTestGame(t, CreateGameParams{StartPosition: StartPos})

		assert.NotEqual(t, uuid.Nil, g.ID)
		assert.Equal(t, StatusActive, g.CurrentStatus())

		created := g.Created()
		assert.Equal(t, chess.StartFEN, created.InitialFEN)
		assert.Equal(t, "white", created.CurrentTurn)
		assert.Len(t, created.Board, 32)

		e := waitFor(t, received, events.EventGameCreated)
		assert.Equal(t, g.ID.String(), e.GameID)
		assert.Equal(t, g.ConnectionID.String(), e.ConnectionID)
	})

	t.Run("fen", func(t *testing.T) {
		fen := "4k3/8/8/8/8/8/8/4K2R b K - 3 20"
		g, _ := newTestGame(t, CreateGameParams{StartPosition: fen})

		assert.Equal(t, fen, g.State().BoardFEN)
	})

	t.Run("layout", func(t *testing.T) {
		id := uuid.New()
		g, _ := newTestGame(t, CreateGameParams{
			GameID: id,
			Layout: map[string]string{"e1": "wK", "e8": "bK", "e5": "wQ"},
			Turn:   chess.Black,
		})

		state := g.State()
		assert.Equal(t, id, g.ID)
		assert.Equal(t, "black", state.CurrentTurn)
		assert.True(t, state.Check)
		assert.Equal(t, "e8", state.CheckSquare)
	})

	t.Run("bad position", func(t *testing.T) {
		_, err := CreateGame(CreateGameParams{StartPosition: "not a fen"}, uuid.New(), events.NewPublisher(), zaptest.NewLogger(t))
		assert.ErrorIs(t, err, chess.ErrInvalidPosition)

		_, err = CreateGame(CreateGameParams{Layout: map[string]string{"e1": "king"}}, uuid.New(), events.NewPublisher(), zaptest.NewLogger(t))
		assert.ErrorIs(t, err, chess.ErrInputDecoding)
	})
}

func TestProcessMove(t *testing.T) {
	g, received := newTestGame(t, CreateGameParams{})

	state, err := g.ProcessMove(moveReq(t, "e2 e4"))
	require.NoError(t, err)

	assert.Equal(t, "black", state.CurrentTurn)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1", state.BoardFEN)
	assert.Equal(t, "wP", state.Board["e4"])
	assert.Equal(t, "*", state.Result)
	assert.False(t, state.Check)

	e := waitFor(t, received, events.EventMoveProcessed)
	assert.Equal(t, state, e.Payload)
}

func TestProcessMoveRejection(t *testing.T) {
	g, _ := newTestGame(t, CreateGameParams{})
	before := g.State()

	_, err := g.ProcessMove(moveReq(t, "e7 e5"))

	assert.ErrorIs(t, err, chess.ErrMoveOutOfTurn)
	assert.Equal(t, before, g.State())
}

func TestCheckmateEndsSession(t *testing.T) {
	g, received := newTestGame(t, CreateGameParams{})

	var state messages.GameStatePayload
	for _, mv := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		var err error
		state, err = g.ProcessMove(moveReq(t, mv))
		require.NoError(t, err, mv)
	}

	assert.True(t, state.IsCheckmate)
	assert.Equal(t, "0-1", state.Result)
	assert.Equal(t, "checkmate", state.Method)
	assert.True(t, state.Check)
	assert.Equal(t, "e1", state.CheckSquare)
	assert.Equal(t, StatusCompleted, g.CurrentStatus())

	e := waitFor(t, received, events.EventGameOver)
	assert.Equal(t, messages.GameOverPayload{
		GameID: g.ID.String(),
		Result: "0-1",
		Winner: "black",
		Reason: "checkmate",
	}, e.Payload)

	over, ok := g.GameOver()
	assert.True(t, ok)
	assert.Equal(t, e.Payload, over)

	_, err := g.ProcessMove(moveReq(t, "e1f2"))
	assert.ErrorIs(t, err, chess.ErrGameOver)
}

func TestDrawOfferedWithMove(t *testing.T) {
	g, received := newTestGame(t, CreateGameParams{})

	req := moveReq(t, "e2 e4 draw")
	state, err := g.ProcessMove(req)
	require.NoError(t, err)

	assert.True(t, state.DrawOffered)
	assert.Equal(t, "white", state.DrawOfferBy)
	assert.Equal(t, "white", waitFor(t, received, events.EventDrawOffered).Payload.(messages.DrawOfferedPayload).By)

	status, state, err := g.OfferDraw(chess.Black)
	require.NoError(t, err)

	assert.Equal(t, chess.DrawOfferAccepted, status)
	assert.True(t, state.IsDraw)
	assert.Equal(t, "1/2-1/2", state.Result)
	assert.Equal(t, "draw_agreement", state.Method)
	assert.Equal(t, StatusCompleted, g.CurrentStatus())
}

func TestMoveWithDrawOfferAgreesPendingOffer(t *testing.T) {
	g, received := newTestGame(t, CreateGameParams{})

	_, err := g.ProcessMove(moveReq(t, "e2 e4 draw"))
	require.NoError(t, err)

	state, err := g.ProcessMove(moveReq(t, "e7 e5 draw"))
	require.NoError(t, err)

	assert.True(t, state.IsDraw)
	assert.Equal(t, "1/2-1/2", state.Result)
	assert.Equal(t, "draw_agreement", state.Method)
	assert.False(t, state.DrawOffered)
	assert.Equal(t, StatusCompleted, g.CurrentStatus())

	// the reply was not played
	assert.Equal(t, "bP", state.Board["e7"])
	assert.Empty(t, state.Board["e5"])

	e := waitFor(t, received, events.EventGameOver)
	assert.Equal(t, "draw_agreement", e.Payload.(messages.GameOverPayload).Reason)
}

func TestMoveWithDrawOfferAfterOwnOfferStaysPending(t *testing.T) {
	g, _ := newTestGame(t, CreateGameParams{})

	_, _, err := g.OfferDraw(chess.White)
	require.NoError(t, err)

	state, err := g.ProcessMove(moveReq(t, "e2 e4 draw"))
	require.NoError(t, err)

	assert.Equal(t, "wP", state.Board["e4"])
	assert.True(t, state.DrawOffered)
	assert.Equal(t, "white", state.DrawOfferBy)
	assert.Equal(t, "*", state.Result)
}

func TestOfferDrawDefaultsToSideToMove(t *testing.T) {
	g, _ := newTestGame(t, CreateGameParams{})

	status, state, err := g.OfferDraw(chess.NoColor)
	require.NoError(t, err)

	assert.Equal(t, chess.DrawOfferPending, status)
	assert.Equal(t, "white", state.DrawOfferBy)
}

func TestLegalMoves(t *testing.T) {
	g, _ := newTestGame(t, CreateGameParams{})

	res, err := g.LegalMoves("b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", res.Square)
	assert.ElementsMatch(t, []string{"a3", "c3"}, res.Moves)

	res, err = g.LegalMoves("e7")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"e6", "e5"}, res.Moves)

	_, err = g.LegalMoves("e9")
	assert.ErrorIs(t, err, chess.ErrInputDecoding)

	_, err = g.LegalMoves("e4")
	assert.ErrorIs(t, err, chess.ErrPieceNotFound)
}

func TestResign(t *testing.T) {
	g, received := newTestGame(t, CreateGameParams{})

	state, err := g.Resign()
	require.NoError(t, err)

	assert.Equal(t, "0-1", state.Result)
	assert.Equal(t, "resignation", state.Method)
	assert.Equal(t, "black", waitFor(t, received, events.EventGameOver).Payload.(messages.GameOverPayload).Winner)

	_, err = g.Resign()
	assert.ErrorIs(t, err, chess.ErrGameOver)
}

func TestTerminate(t *testing.T) {
	g, received := newTestGame(t, CreateGameParams{})

	g.Terminate()
	g.Terminate()

	assert.Equal(t, StatusTerminated, g.CurrentStatus())
	assert.Equal(t, g.ID.String(), waitFor(t, received, events.EventGameTerminated).GameID)

	_, err := g.ProcessMove(moveReq(t, "e2e4"))
	assert.ErrorIs(t, err, chess.ErrGameOver)
	_, _, err = g.OfferDraw(chess.White)
	assert.ErrorIs(t, err, chess.ErrGameOver)
}
