package bingo

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/partyroom-backend/internal/stats"
)

func newTestGame(t *testing.T, ids ...string) *Game {
	t.Helper()
	g := NewGame(rand.New(rand.NewSource(42)))
	for _, id := range ids {
		g.AddPlayer(id, "name-"+id)
	}
	return g
}

func startedGame(t *testing.T, winLines, numberRange int, ids ...string) *Game {
	t.Helper()
	g := newTestGame(t, ids...)
	require.NoError(t, g.Configure(winLines, numberRange))
	require.NoError(t, g.Start())
	return g
}

// freshNumber returns some number that has not been called yet.
func freshNumber(g *Game) int {
	for n := 1; n <= g.NumberRange; n++ {
		if _, ok := g.Remaining[n]; ok {
			return n
		}
	}
	return 0
}

func TestStart(t *testing.T) {
	g := newTestGame(t, "a")
	require.ErrorIs(t, g.Start(), ErrNotEnoughPlayers)

	g.AddPlayer("b", "B")
	g.AddPlayer("c", "C")
	g.SetConnected("c", false)
	require.NoError(t, g.Start())

	assert.Equal(t, StatusPlaying, g.Status)
	assert.ElementsMatch(t, []string{"a", "b"}, g.TurnOrder, "only connected players get a slot")
	assert.Nil(t, g.Players["c"].Board)
	assert.NotNil(t, g.Players["a"].Board)
	assert.Len(t, g.Remaining, DefaultNumberRange)
	assert.ErrorIs(t, g.Start(), ErrAlreadyStarted)
}

func TestConfigure(t *testing.T) {
	cases := []struct {
		name        string
		winLines    int
		numberRange int
		wantErr     error
	}{
		{name: "valid", winLines: 5, numberRange: 75},
		{name: "keep", winLines: 0, numberRange: 0},
		{name: "too few lines", winLines: 1, wantErr: ErrInvalidWinLines},
		{name: "too many lines", winLines: 6, wantErr: ErrInvalidWinLines},
		{name: "odd range", numberRange: 30, wantErr: ErrInvalidNumberRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGame(t)
			err := g.Configure(tc.winLines, tc.numberRange)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Equal(t, DefaultWinLines, g.WinLines)
				return
			}
			require.NoError(t, err)
		})
	}

	g := startedGame(t, 3, 25, "a", "b")
	require.ErrorIs(t, g.Configure(4, 0), ErrAlreadyStarted)
}

func TestCall_Rejections(t *testing.T) {
	g := newTestGame(t, "a", "b")
	_, err := g.Call("a", 1)
	require.ErrorIs(t, err, ErrGameNotActive)

	require.NoError(t, g.Start())
	current := g.CurrentPlayerID()
	other := g.TurnOrder[1]

	_, err = g.Call(other, 1)
	require.ErrorIs(t, err, ErrNotYourTurn)

	_, err = g.Call(current, 0)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = g.Call(current, 26)
	require.ErrorIs(t, err, ErrOutOfRange)

	require.Empty(t, g.Called)
}

func TestCall_AlreadyCalledDoesNotMutate(t *testing.T) {
	g := startedGame(t, 5, 75, "a", "b", "c")

	n := freshNumber(g)
	_, err := g.Call(g.CurrentPlayerID(), n)
	require.NoError(t, err)

	called := append([]int(nil), g.Called...)
	marks := map[string]Marks{}
	for id, p := range g.Players {
		marks[id] = *p.Marked
	}
	turn := g.CurrentTurn

	_, err = g.Call(g.CurrentPlayerID(), n)
	require.ErrorIs(t, err, ErrAlreadyCalled)
	require.Equal(t, called, g.Called)
	require.Equal(t, turn, g.CurrentTurn)
	for id, p := range g.Players {
		require.Equal(t, marks[id], *p.Marked)
	}
}

func TestCall_TurnAdvancesModK(t *testing.T) {
	for k := 2; k <= 4; k++ {
		ids := []string{"a", "b", "c", "d"}[:k]
		g := startedGame(t, 5, 75, ids...)
		for n := 1; n <= 8; n++ {
			_, err := g.Call(g.CurrentPlayerID(), freshNumber(g))
			require.NoError(t, err)
			require.Equal(t, n%k, g.CurrentTurn, "k=%d after %d calls", k, n)
		}
	}
}

func TestCall_MarksEveryBoard(t *testing.T) {
	g := startedGame(t, 5, 25, "a", "b")
	_, err := g.Call(g.CurrentPlayerID(), 13)
	require.NoError(t, err)

	for _, p := range g.Players {
		found := false
		for r := 0; r < Size; r++ {
			for c := 0; c < Size; c++ {
				if p.Board[r][c] == 13 {
					require.True(t, p.Marked[r][c])
					found = true
				}
			}
		}
		require.True(t, found, "range 25 puts every number on every board")
	}
	require.NotContains(t, g.Remaining, 13)
	require.Equal(t, []int{13}, g.Called)
}

// layoutBoards gives "a" the numbers 1..15 in rows 0-2, and gives "b" a board where
// 1..15 avoid both diagonals and cell (0,1), so 1..15 never completes a line for "b".
func layoutBoards(g *Game) {
	var a Board
	for i := 0; i < Size*Size; i++ {
		a[i/Size][i%Size] = i + 1
	}

	var b Board
	low, high := 1, 16
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if r == c || r+c == Size-1 || (r == 0 && c == 1) {
				b[r][c] = high
				high++
			} else {
				b[r][c] = low
				low++
			}
		}
	}
	g.Players["a"].Board = &a
	g.Players["b"].Board = &b
}

func TestScenario_ThreeRowsWins(t *testing.T) {
	g := startedGame(t, 3, 25, "a", "b")
	layoutBoards(g)

	var res CallResult
	var preWinTurn int
	for n := 1; n <= 15; n++ {
		preWinTurn = g.CurrentTurn
		var err error
		res, err = g.Call(g.CurrentPlayerID(), n)
		require.NoError(t, err)
		if n < 15 {
			require.Empty(t, res.Winner, "no winner before the 15th number")
		}
	}

	require.Equal(t, "a", res.Winner)
	require.Equal(t, "a", g.Winner)
	require.Equal(t, StatusFinished, g.Status)
	require.Equal(t, 3, g.Players["a"].Lines)
	require.Less(t, g.Players["b"].Lines, 3)
	require.Equal(t, preWinTurn, g.CurrentTurn, "turn freezes on a win")

	_, err := g.Call(g.CurrentPlayerID(), 20)
	require.ErrorIs(t, err, ErrHasWinner)
	require.Equal(t, preWinTurn, g.CurrentTurn)

	require.Equal(t, stats.Record{Wins: 1, CurrentStreak: 1, MaxStreak: 1}, g.Records["name-a"])
	require.Equal(t, stats.Record{Losses: 1}, g.Records["name-b"])
}

func TestFindWinner_TieBreak(t *testing.T) {
	g := startedGame(t, 2, 25, "a", "b", "c")
	g.Players["a"].Lines = 2
	g.Players["b"].Lines = 3
	g.Players["c"].Lines = 3
	require.Equal(t, "b", g.findWinner(), "most lines, then earliest joined")

	g.Players["b"].Lines = 1
	g.Players["c"].Lines = 2
	require.Equal(t, "a", g.findWinner())
}

func TestDisconnect_SkipsCurrentTurn(t *testing.T) {
	g := startedGame(t, 5, 75, "a", "b", "c")
	holder := g.CurrentPlayerID()
	next := g.TurnOrder[1]

	moved := g.SetConnected(holder, false)
	require.True(t, moved)
	require.Equal(t, 1, g.CurrentTurn)
	require.Equal(t, next, g.CurrentPlayerID())
	require.Equal(t, 0, g.TurnIndexOf(holder), "disconnect keeps the slot")

	// Rotation now skips the disconnected slot.
	_, err := g.Call(next, freshNumber(g))
	require.NoError(t, err)
	_, err = g.Call(g.CurrentPlayerID(), freshNumber(g))
	require.NoError(t, err)
	require.Equal(t, 1, g.CurrentTurn)
}

func TestDisconnect_NonHolderDoesNotMoveTurn(t *testing.T) {
	g := startedGame(t, 5, 75, "a", "b", "c")
	require.False(t, g.SetConnected(g.TurnOrder[2], false))
	require.Equal(t, 0, g.CurrentTurn)
}

func TestDisconnect_EveryoneGoneStalls(t *testing.T) {
	g := startedGame(t, 5, 75, "a", "b")
	first, second := g.TurnOrder[0], g.TurnOrder[1]

	require.True(t, g.SetConnected(first, false))
	require.Equal(t, 1, g.CurrentTurn)
	require.False(t, g.SetConnected(second, false))
	require.Equal(t, 1, g.CurrentTurn, "nobody can act, index stays")

	// The first player back takes over the stalled turn.
	require.True(t, g.SetConnected(first, true))
	require.Equal(t, first, g.CurrentPlayerID())
}

func TestRemovePlayer_AdjustsTurnIndex(t *testing.T) {
	g := startedGame(t, 5, 75, "a", "b", "c", "d")
	for i := 0; i < 2; i++ {
		_, err := g.Call(g.CurrentPlayerID(), freshNumber(g))
		require.NoError(t, err)
	}
	require.Equal(t, 2, g.CurrentTurn)
	holder := g.CurrentPlayerID()

	// Removing an earlier slot keeps the same holder.
	require.False(t, g.RemovePlayer(g.TurnOrder[0]))
	require.Equal(t, holder, g.CurrentPlayerID())
	require.Equal(t, 1, g.CurrentTurn)

	// Removing the holder hands the turn to the next slot.
	next := g.TurnOrder[2]
	require.True(t, g.RemovePlayer(holder))
	require.Equal(t, next, g.CurrentPlayerID())
	require.Len(t, g.TurnOrder, 2)
}

func TestRemovePlayer_LastSlotWraps(t *testing.T) {
	g := startedGame(t, 5, 75, "a", "b", "c")
	for i := 0; i < 2; i++ {
		_, err := g.Call(g.CurrentPlayerID(), freshNumber(g))
		require.NoError(t, err)
	}
	require.Equal(t, 2, g.CurrentTurn)
	first := g.TurnOrder[0]

	require.True(t, g.RemovePlayer(g.CurrentPlayerID()))
	require.Equal(t, 0, g.CurrentTurn)
	require.Equal(t, first, g.CurrentPlayerID())
}

func TestReset_KeepsRecordsAndPlayers(t *testing.T) {
	g := startedGame(t, 3, 25, "a", "b")
	layoutBoards(g)
	for n := 1; n <= 15; n++ {
		_, err := g.Call(g.CurrentPlayerID(), n)
		require.NoError(t, err)
	}
	require.NotEmpty(t, g.Winner)

	g.Reset()
	require.Equal(t, StatusWaiting, g.Status)
	require.Empty(t, g.Called)
	require.Empty(t, g.Winner)
	require.Nil(t, g.Players["a"].Board)
	require.Len(t, g.Players, 2)
	require.Equal(t, 1, g.Records["name-a"].Wins)

	require.NoError(t, g.Start())
	require.Empty(t, g.Called)
}

func TestReconnect_KeepsBoard(t *testing.T) {
	g := startedGame(t, 5, 75, "a", "b")
	_, err := g.Call(g.CurrentPlayerID(), freshNumber(g))
	require.NoError(t, err)

	board, marks := *g.Players["b"].Board, *g.Players["b"].Marked
	idx := g.TurnIndexOf("b")
	g.SetConnected("b", false)
	g.SetConnected("b", true)

	require.Equal(t, board, *g.Players["b"].Board)
	require.Equal(t, marks, *g.Players["b"].Marked)
	require.Equal(t, idx, g.TurnIndexOf("b"))
}

func TestErrorsAreDistinct(t *testing.T) {
	all := []error{ErrGameNotActive, ErrHasWinner, ErrAlreadyCalled, ErrNotYourTurn, ErrOutOfRange,
		ErrAlreadyStarted, ErrNotEnoughPlayers, ErrInvalidWinLines, ErrInvalidNumberRange}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Fatalf("%v should not match %v", a, b)
			}
		}
	}
}
