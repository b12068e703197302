package arena

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connect4ai/ai"
	"connect4ai/games"
	"connect4ai/render"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func fixedPair(t *testing.T) (Entrant, Entrant) {
	t.Helper()
	one, two, err := ai.Pair(
		ai.Setup{Kind: ai.KindFixed, Presentation: render.DefaultPalette},
		ai.Setup{Kind: ai.KindFixed, Presentation: render.DefaultPalette},
	)
	require.NoError(t, err)
	return Entrant{Name: "fixed-1", Agent: one}, Entrant{Name: "fixed-2", Agent: two}
}

// stubAgent plays a scripted column after an optional delay.
type stubAgent struct {
	mark  games.Mark
	col   int
	delay time.Duration
}

func (s *stubAgent) ChooseMove(*games.Board) (int, error) {
	time.Sleep(s.delay)
	return s.col, nil
}

func (s *stubAgent) Mark() games.Mark { return s.mark }

func (s *stubAgent) NewGame() {}

func TestFixedAgentsFirstMoverWins(t *testing.T) {
	a, b := fixedPair(t)
	ref := NewReferee(Options{})
	results, err := RunMatch(context.Background(), ref, a, b, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	want := []int{3, 3, 3, 3, 3, 3, 2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 1, 5, 5, 5, 5, 5, 5, 6, 6, 6, 6, 6, 6, 0}
	assert.Equal(t, want, results[0].Moves())
	assert.Equal(t, EndWin, results[0].Reason)
	assert.Equal(t, "fixed-1", results[0].Winner)
	assert.Equal(t, games.PlayerOne, results[0].Mark)

	assert.Equal(t, "fixed-2", results[1].First)
	assert.Equal(t, "fixed-2", results[1].Winner)
	assert.Equal(t, games.PlayerTwo, results[1].Mark)
	assert.Equal(t, games.Outcome{Kind: games.Win, Winner: games.PlayerTwo}, games.Scan(results[1].Board))

	tallies := Summarize(results)
	assert.Equal(t, []Tally{
		{Name: "fixed-1", Wins: 1, Losses: 1},
		{Name: "fixed-2", Wins: 1, Losses: 1},
	}, tallies)
}

func TestSearchBeatsRandom(t *testing.T) {
	one, two, err := ai.Pair(
		ai.Setup{Kind: ai.KindAlphaBeta, Search: ai.Options{Depth: 3}},
		ai.Setup{Kind: ai.KindRandom, Seed: 5},
	)
	require.NoError(t, err)
	ref := NewReferee(Options{TurnBudget: time.Minute})
	results, err := RunMatch(context.Background(), ref,
		Entrant{Name: "alphabeta", Agent: one}, Entrant{Name: "random", Agent: two}, 4)
	require.NoError(t, err)

	for _, r := range results {
		assert.Contains(t, []EndReason{EndWin, EndDraw}, r.Reason)
		assert.NoError(t, r.Board.Validate())
		assert.Equal(t, len(r.Turns), r.Board.Count())
		assert.Zero(t, r.Overruns())
	}
	tallies := Summarize(results)
	require.Len(t, tallies, 2)
	assert.Greater(t, tallies[0].Wins, tallies[1].Wins)
}

func TestStrictTimeoutForfeits(t *testing.T) {
	slow := Entrant{Name: "slow", Agent: &stubAgent{mark: games.PlayerOne, col: 3, delay: 20 * time.Millisecond}}
	fast := Entrant{Name: "fast", Agent: &stubAgent{mark: games.PlayerTwo, col: 4}}

	res, err := NewReferee(Options{TurnBudget: time.Millisecond, Strict: true}).
		Play(context.Background(), slow, fast)
	require.NoError(t, err)
	assert.Equal(t, EndTimeout, res.Reason)
	assert.Equal(t, "fast", res.Winner)
	assert.Equal(t, 1, res.Overruns())
	assert.Equal(t, 0, res.Board.Count())
}

func TestIllegalColumnForfeits(t *testing.T) {
	bad := Entrant{Name: "bad", Agent: &stubAgent{mark: games.PlayerTwo, col: 9}}
	good := Entrant{Name: "good", Agent: &stubAgent{mark: games.PlayerOne, col: 0}}

	res, err := NewReferee(Options{}).Play(context.Background(), good, bad)
	require.NoError(t, err)
	assert.Equal(t, EndIllegal, res.Reason)
	assert.Equal(t, "good", res.Winner)
	assert.Equal(t, []int{0, 9}, res.Moves())
}

func TestPlayRejectsSameMark(t *testing.T) {
	a := Entrant{Name: "a", Agent: &stubAgent{mark: games.PlayerOne}}
	_, err := NewReferee(Options{}).Play(context.Background(), a, a)
	assert.True(t, errors.Is(err, ErrSameMark))
}

func TestPlayStopsOnCancel(t *testing.T) {
	a, b := fixedPair(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReferee(Options{}).Play(ctx, a, b)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArchiveRoundTrip(t *testing.T) {
	a, b := fixedPair(t)
	results, err := RunMatch(context.Background(), NewReferee(Options{}), a, b, 2)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "match.parquet")
	require.NoError(t, WriteParquet(path, results))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	rows, err := ReadParquet(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, results[1].ID, rows[1].GameID)
	assert.Equal(t, int32(1), rows[1].Index)
	assert.Equal(t, "fixed-2", rows[1].Winner)
	assert.Equal(t, "win", rows[1].Reason)
	assert.Len(t, rows[0].Moves, 31)
	assert.Len(t, rows[0].TurnMicros, 31)
	assert.Equal(t, results[0].Board.String(), rows[0].Board)
}
