package chess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteMove(t *testing.T) {
	t.Run("double push opens en passant for neighbouring opponents", func(t *testing.T) {
		b := boardOf(t, map[string]string{"e2": "wP", "d4": "bP", "f4": "bP", "a4": "bP"})

		require.NoError(t, b.ExecuteMove(sq(t, "e2"), sq(t, "e4"), NoKind))

		assert.Equal(t, "wP", b.At(sq(t, "e4")).Token())
		assert.True(t, b.At(sq(t, "e2")).Empty())
		assert.Equal(t, EnPassant{Active: true, Col: 4}, b.At(sq(t, "d4")).EnPassant)
		assert.Equal(t, EnPassant{Active: true, Col: 4}, b.At(sq(t, "f4")).EnPassant)
		assert.False(t, b.At(sq(t, "a4")).EnPassant.Active)
	})

	t.Run("en passant removes the pawn beside the capturer", func(t *testing.T) {
		b := boardOf(t, map[string]string{"e2": "wP", "d4": "bP"})
		require.NoError(t, b.ExecuteMove(sq(t, "e2"), sq(t, "e4"), NoKind))

		require.NoError(t, b.ExecuteMove(sq(t, "d4"), sq(t, "e3"), NoKind))

		assert.Equal(t, map[string]string{"e3": "bP"}, b.Snapshot())
	})

	t.Run("promotion replaces the pawn", func(t *testing.T) {
		b := boardOf(t, map[string]string{"b7": "wP", "a8": "bR"})

		require.NoError(t, b.ExecuteMove(sq(t, "b7"), sq(t, "a8"), Knight))

		assert.Equal(t, map[string]string{"a8": "wN"}, b.Snapshot())
	})

	t.Run("promotion without a valid piece leaves the board untouched", func(t *testing.T) {
		for _, k := range []Kind{NoKind, Pawn, King} {
			b := boardOf(t, map[string]string{"d2": "bP"})
			before := *b

			err := b.ExecuteMove(sq(t, "d2"), sq(t, "d1"), k)

			assert.ErrorIs(t, err, ErrInvalidPromotionPiece, k.String())
			assert.Equal(t, before, *b)
		}
	})

	t.Run("kingside castling moves the rook", func(t *testing.T) {
		b := boardOf(t, map[string]string{"e1": "wK", "h1": "wR"})

		require.NoError(t, b.ExecuteMove(sq(t, "e1"), sq(t, "g1"), NoKind))

		assert.Equal(t, map[string]string{"g1": "wK", "f1": "wR"}, b.Snapshot())
		assert.True(t, b.At(sq(t, "f1")).Moved)
	})

	t.Run("queenside castling moves the rook", func(t *testing.T) {
		b := boardOf(t, map[string]string{"e8": "bK", "a8": "bR"})

		require.NoError(t, b.ExecuteMove(sq(t, "e8"), sq(t, "c8"), NoKind))

		assert.Equal(t, map[string]string{"c8": "bK", "d8": "bR"}, b.Snapshot())
	})

	t.Run("plain capture", func(t *testing.T) {
		b := boardOf(t, map[string]string{"c3": "wN", "d5": "bQ"})

		require.NoError(t, b.ExecuteMove(sq(t, "c3"), sq(t, "d5"), NoKind))

		assert.Equal(t, map[string]string{"d5": "wN"}, b.Snapshot())
	})

	t.Run("empty source", func(t *testing.T) {
		b := NewBoard()
		assert.ErrorIs(t, b.ExecuteMove(sq(t, "c3"), sq(t, "d5"), NoKind), ErrPieceNotFound)
	})
}

func TestScanForCheck(t *testing.T) {
	tests := []struct {
		name   string
		layout map[string]string
		want   CheckStatus
	}{
		{
			name:   "quiet position",
			layout: map[string]string{"e1": "wK", "e8": "bK"},
			want:   CheckStatus{},
		},
		{
			name:   "knight check",
			layout: map[string]string{"e1": "wK", "f3": "bN", "h8": "bK"},
			want:   CheckStatus{White: true},
		},
		{
			name:   "pawn check",
			layout: map[string]string{"a1": "wK", "d7": "wP", "e8": "bK"},
			want:   CheckStatus{Black: true},
		},
		{
			name:   "pawn does not check straight ahead",
			layout: map[string]string{"a1": "wK", "e7": "wP", "e8": "bK"},
			want:   CheckStatus{},
		},
		{
			name:   "blocked slider",
			layout: map[string]string{"e1": "wK", "e4": "wN", "e8": "bR", "a8": "bK"},
			want:   CheckStatus{},
		},
		{
			name:   "adjacent kings attack each other",
			layout: map[string]string{"e4": "wK", "e5": "bK"},
			want:   CheckStatus{White: true, Black: true},
		},
		{
			name:   "missing king reports nothing",
			layout: map[string]string{"e1": "wK", "e8": "bR"},
			want:   CheckStatus{},
		},
		{
			name:   "two kings of one side report nothing",
			layout: map[string]string{"e1": "wK", "a1": "wK", "e8": "bR", "h8": "bK"},
			want:   CheckStatus{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, boardOf(t, tt.layout).ScanForCheck())
		})
	}
}

func TestAgeEnPassant(t *testing.T) {
	b := boardOf(t, map[string]string{"d5": "wP"})
	p := b.At(sq(t, "d5"))
	p.EnPassant = EnPassant{Active: true, Col: 4}
	b.Put(sq(t, "d5"), p)

	b.AgeEnPassant()
	assert.Equal(t, EnPassant{Active: true, Col: 4, Age: 1}, b.At(sq(t, "d5")).EnPassant)

	b.AgeEnPassant()
	assert.Equal(t, EnPassant{}, b.At(sq(t, "d5")).EnPassant)
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		name   string
		layout map[string]string
		want   bool
	}{
		{"bare kings", map[string]string{"e1": "wK", "e8": "bK"}, true},
		{"king and knight", map[string]string{"e1": "wK", "e8": "bK", "b1": "wN"}, true},
		{"king and bishop", map[string]string{"e1": "wK", "e8": "bK", "c8": "bB"}, true},
		{"two knights", map[string]string{"e1": "wK", "e8": "bK", "b1": "wN", "g1": "wN"}, true},
		{"bishop and knight", map[string]string{"e1": "wK", "e8": "bK", "c1": "wB", "g1": "wN"}, true},
		{"minor piece each", map[string]string{"e1": "wK", "e8": "bK", "c1": "wB", "g8": "bN"}, true},
		{"two bishops", map[string]string{"e1": "wK", "e8": "bK", "c1": "wB", "f1": "wB"}, false},
		{"two bishops on one colour", map[string]string{"e1": "wK", "e8": "bK", "c1": "wB", "e3": "wB"}, false},
		{"three knights", map[string]string{"e1": "wK", "e8": "bK", "b1": "wN", "g1": "wN", "e4": "wN"}, false},
		{"rook", map[string]string{"e1": "wK", "e8": "bK", "a1": "wR"}, false},
		{"queen", map[string]string{"e1": "wK", "e8": "bK", "d8": "bQ"}, false},
		{"pawn", map[string]string{"e1": "wK", "e8": "bK", "a2": "wP"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, boardOf(t, tt.layout).InsufficientMaterial())
		})
	}
}

func TestCastlingCandidates(t *testing.T) {
	tests := []struct {
		name   string
		layout map[string]string
		from   string
		want   []string
	}{
		{
			name:   "both sides open",
			layout: map[string]string{"e1": "wK", "a1": "wR", "h1": "wR", "a8": "bK"},
			from:   "e1",
			want:   []string{"c1", "g1"},
		},
		{
			name:   "piece between king and rook",
			layout: map[string]string{"e1": "wK", "a1": "wR", "b1": "wN", "h1": "wR", "a8": "bK"},
			from:   "e1",
			want:   []string{"g1"},
		},
		{
			name:   "king in check",
			layout: map[string]string{"e1": "wK", "a1": "wR", "h1": "wR", "e8": "bR", "a8": "bK"},
			from:   "e1",
			want:   []string{},
		},
		{
			name:   "crossing square attacked",
			layout: map[string]string{"e1": "wK", "a1": "wR", "h1": "wR", "f8": "bR", "a8": "bK"},
			from:   "e1",
			want:   []string{"c1"},
		},
		{
			name:   "landing square attacked",
			layout: map[string]string{"e1": "wK", "a1": "wR", "h1": "wR", "c8": "bR", "h8": "bK"},
			from:   "e1",
			want:   []string{"g1"},
		},
		{
			name:   "rook passage square may be attacked",
			layout: map[string]string{"e1": "wK", "a1": "wR", "b8": "bR", "h8": "bK"},
			from:   "e1",
			want:   []string{"c1"},
		},
		{
			name:   "black castles too",
			layout: map[string]string{"e8": "bK", "a8": "bR", "h8": "bR", "e1": "wK"},
			from:   "e8",
			want:   []string{"c8", "g8"},
		},
		{
			name:   "king off its home square",
			layout: map[string]string{"d1": "wK", "a1": "wR", "h1": "wR", "a8": "bK"},
			from:   "d1",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := boardOf(t, tt.layout)
			assert.Equal(t, tt.want, names(b.CastlingCandidates(sq(t, tt.from))))
		})
	}
}

func TestCastlingNeedsUnmovedPieces(t *testing.T) {
	layout := map[string]string{"e1": "wK", "a1": "wR", "h1": "wR", "a8": "bK"}

	b := boardOf(t, layout)
	rook := b.At(sq(t, "h1"))
	rook.Moved = true
	b.Put(sq(t, "h1"), rook)
	assert.Equal(t, []string{"c1"}, names(b.CastlingCandidates(sq(t, "e1"))))

	b = boardOf(t, layout)
	king := b.At(sq(t, "e1"))
	king.Moved = true
	b.Put(sq(t, "e1"), king)
	assert.Empty(t, b.CastlingCandidates(sq(t, "e1")))
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewStandardBoard()
	c := b.Clone()

	require.NoError(t, c.ExecuteMove(sq(t, "e1"), sq(t, "e3"), NoKind))
	k := c.At(sq(t, "e3"))
	k.Moved = true
	c.Put(sq(t, "e3"), k)

	assert.Equal(t, "wK", b.At(sq(t, "e1")).Token())
	assert.False(t, b.At(sq(t, "e1")).Moved)
	assert.True(t, b.At(sq(t, "e3")).Empty())
}

func TestSnapshotRoundTrip(t *testing.T) {
	b := NewStandardBoard()

	snap := b.Snapshot()
	assert.Len(t, snap, 32)
	assert.Equal(t, "wK", snap["e1"])
	assert.Equal(t, "bQ", snap["d8"])

	back, err := BoardFromSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, b, back)
}

func TestBoardFromSnapshotRejectsBadInput(t *testing.T) {
	_, err := BoardFromSnapshot(map[string]string{"z9": "wK"})
	assert.ErrorIs(t, err, ErrInputDecoding)

	_, err = BoardFromSnapshot(map[string]string{"e1": "white king"})
	assert.ErrorIs(t, err, ErrInputDecoding)
}

func TestKingSquare(t *testing.T) {
	b := NewStandardBoard()

	s, ok := b.KingSquare(Black)
	assert.True(t, ok)
	assert.Equal(t, "e8", s.String())

	_, ok = NewBoard().KingSquare(White)
	assert.False(t, ok)
}

func TestBoardString(t *testing.T) {
	lines := strings.Split(NewStandardBoard().String(), "\n")

	assert.Equal(t, "  a b c d e f g h", lines[0])
	assert.Equal(t, "8 r n b q k b n r 8", lines[1])
	assert.Equal(t, "5 . . . . . . . . 5", lines[4])
	assert.Equal(t, "1 R N B Q K B N R 1", lines[8])
}
