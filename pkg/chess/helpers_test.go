package chess

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func sq(t testing.TB, name string) Square {
	t.Helper()
	s, err := ParseSquare(name)
	require.NoError(t, err)
	return s
}

func boardOf(t testing.TB, layout map[string]string) *Board {
	t.Helper()
	b, err := BoardFromSnapshot(layout)
	require.NoError(t, err)
	return b
}

func names(squares []Square) []string {
	out := make([]string, 0, len(squares))
	for _, s := range squares {
		out = append(out, s.String())
	}
	sort.Strings(out)
	return out
}

// play feeds compact moves such as "e2e4" or "a7a8q" to the game and fails
// the test on the first rejection.
func play(t testing.TB, g *Game, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		require.NoError(t, move(t, g, mv), "move %s", mv)
	}
}

func move(t testing.TB, g *Game, mv string) error {
	t.Helper()
	require.True(t, len(mv) == 4 || len(mv) == 5, "bad move %q", mv)
	promotion := NoKind
	if len(mv) == 5 {
		k, ok := KindFromLetter(mv[4])
		require.True(t, ok)
		promotion = k
	}
	return g.Move(sq(t, mv[:2]), sq(t, mv[2:4]), promotion)
}
