package games

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted is an agent that plays a fixed list of columns.
type scripted struct {
	mark   Mark
	cols   []int
	resets int
}

func (s *scripted) ChooseMove(*Board) (int, error) {
	col := s.cols[0]
	s.cols = s.cols[1:]
	return col, nil
}

func (s *scripted) Mark() Mark { return s.mark }

func (s *scripted) NewGame() { s.resets++ }

func TestMakeMoveTurnsAndWin(t *testing.T) {
	g := NewGame(LocalMultiplayer, "a", "b")
	assert.ErrorIs(t, g.MakeMove("a", 0), ErrGameNotActive)
	g.Status = StatusActive

	assert.ErrorIs(t, g.MakeMove("b", 0), ErrNotYourTurn)
	assert.ErrorIs(t, g.MakeMove("c", 0), ErrNotInGame)
	assert.ErrorIs(t, g.MakeMove("a", 7), ErrIllegalMove)
	assert.Equal(t, PlayerOne, g.CurrentTurn)

	for _, col := range []int{0, 1, 0, 1, 0, 1} {
		require.NoError(t, g.MakeMove(g.PlayerFor(g.CurrentTurn), col))
	}
	require.NoError(t, g.MakeMove("a", 0))
	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, "a", g.WinnerID)
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1, 0}, g.Moves)
	assert.ErrorIs(t, g.MakeMove("b", 1), ErrGameNotActive)
}

func TestBotSeat(t *testing.T) {
	g := NewGame(SinglePlayer, "human", "")
	bot := &scripted{mark: PlayerTwo, cols: []int{3, 3}}
	require.NoError(t, g.SeatBot("scripted", bot))
	g.Status = StatusActive
	assert.Equal(t, BotID, g.Player2ID)
	assert.False(t, g.BotToMove())

	require.NoError(t, g.MakeMove("human", 2))
	require.True(t, g.BotToMove())
	col, err := g.PlayBot()
	require.NoError(t, err)
	assert.Equal(t, 3, col)
	assert.Equal(t, PlayerTwo, g.Board.At(5, 3))
	assert.Equal(t, PlayerOne, g.CurrentTurn)

	g.Reset()
	assert.Equal(t, 1, bot.resets)
	assert.Equal(t, 0, g.Board.Count())
	assert.Empty(t, g.Moves)

	_, err = NewGame(LocalMultiplayer, "a", "b").PlayBot()
	assert.ErrorIs(t, err, ErrNoBot)
}

func TestResetWinnerStarts(t *testing.T) {
	g := NewGame(LocalMultiplayer, "a", "b")
	g.Status = StatusFinished
	g.WinnerID = "b"
	g.Reset()
	assert.Equal(t, PlayerTwo, g.CurrentTurn)
	assert.Equal(t, StatusActive, g.Status)
	assert.Equal(t, 1, g.Round)
	assert.Empty(t, g.WinnerID)

	g.Status = StatusFinished
	g.Reset()
	assert.Equal(t, PlayerOne, g.CurrentTurn)
}

func TestSnapshotIsIndependent(t *testing.T) {
	g := NewGame(LocalMultiplayer, "a", "b")
	g.Status = StatusActive
	snap := g.Snapshot()
	require.NoError(t, g.MakeMove("a", 3))
	assert.Equal(t, 0, snap.Board.Count())
	assert.Empty(t, snap.Moves)
	assert.Equal(t, PlayerOne, snap.CurrentTurn)
}
