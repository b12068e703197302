package ai

import (
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"

	"connect4ai/games"
)

func TestOpeningTakesCenterOnce(t *testing.T) {
	is := is.New(t)
	a, err := NewSearchAgent(games.PlayerOne, DefaultOptions(EngineAlphaBeta))
	is.NoErr(err)
	a.SetOpponent(games.PlayerTwo)
	is.True(a.FirstMovePending())

	b := games.NewStandardBoard()
	col, err := a.ChooseMove(b)
	is.NoErr(err)
	is.Equal(col, 3)
	is.Equal(a.LastReport().Reason, ReasonOpening)
	is.True(!a.FirstMovePending())
	is.Equal(b.Count(), 0)

	_, err = b.ApplyMove(3, games.PlayerOne)
	is.NoErr(err)
	_, err = b.ApplyMove(3, games.PlayerTwo)
	is.NoErr(err)
	_, err = a.ChooseMove(b)
	is.NoErr(err)
	is.True(a.LastReport().Reason != ReasonOpening)

	a.NewGame()
	is.True(a.FirstMovePending())
}

func TestOpeningAsSecondPlayer(t *testing.T) {
	is := is.New(t)
	a, err := NewSearchAgent(games.PlayerTwo, DefaultOptions(EngineMinimax))
	is.NoErr(err)
	a.SetOpponent(games.PlayerOne)
	b := mustParse(t, ".......", ".......", ".......", ".......", ".......", "...X...")
	col, err := a.ChooseMove(b)
	is.NoErr(err)
	is.Equal(col, 3)
	is.Equal(a.LastReport().Reason, ReasonOpening)
}

func TestOpeningSpentWhenCenterFull(t *testing.T) {
	is := is.New(t)
	a, err := NewSearchAgent(games.PlayerOne, DefaultOptions(EngineAlphaBeta))
	is.NoErr(err)
	a.SetOpponent(games.PlayerTwo)
	b := mustParse(t,
		"...X...",
		"...O...",
		"...X...",
		"...O...",
		"...X...",
		"...O..O",
	)
	col, err := a.ChooseMove(b)
	is.NoErr(err)
	is.True(col != 3)
	is.True(a.LastReport().Reason != ReasonOpening)
	is.True(!a.FirstMovePending())
}

func TestForcedBlock(t *testing.T) {
	for _, engine := range []EngineKind{EngineMinimax, EngineAlphaBeta} {
		for depth := 1; depth <= 4; depth++ {
			is := is.New(t)
			a := readyAgent(t, engine, depth)
			b := mustParse(t, blockRows...)
			before := b.Clone()
			col, err := a.ChooseMove(b)
			is.NoErr(err)
			is.Equal(col, 4)
			is.Equal(a.LastReport().Reason, ReasonBlock)
			is.True(b.Equal(before))
		}
	}
}

func TestForcedWin(t *testing.T) {
	for _, engine := range []EngineKind{EngineMinimax, EngineAlphaBeta} {
		is := is.New(t)
		a := readyAgent(t, engine, 3)
		b := mustParse(t, winRows...)
		col, err := a.ChooseMove(b)
		is.NoErr(err)
		is.Equal(col, 0)
		is.Equal(a.LastReport().Reason, ReasonWin)
		is.Equal(a.LastReport().Score, WinScore)
	}
}

func TestOnlyColumn(t *testing.T) {
	is := is.New(t)
	a := readyAgent(t, EngineAlphaBeta, 5)
	b := mustParse(t,
		"XXOOXX.",
		"OOXXOOX",
		"XXOOXXO",
		"OOXXOOX",
		"XXOOXXO",
		"OOXXOOX",
	)
	col, err := a.ChooseMove(b)
	is.NoErr(err)
	is.Equal(col, 6)
	is.Equal(a.LastReport().Reason, ReasonOnly)
}

func TestSearchScoresAgree(t *testing.T) {
	is := is.New(t)
	for depth := 1; depth <= 4; depth++ {
		mm := readyAgent(t, EngineMinimax, depth)
		ab := readyAgent(t, EngineAlphaBeta, depth)
		b := mustParse(t, quietRows...)
		before := b.Clone()

		mcol, err := mm.ChooseMove(b)
		is.NoErr(err)
		acol, err := ab.ChooseMove(b)
		is.NoErr(err)
		is.True(b.Equal(before))
		is.True(b.IsLegal(mcol))
		is.True(b.IsLegal(acol))

		is.Equal(mm.LastReport().Reason, ReasonSearch)
		is.Equal(ab.LastReport().Reason, ReasonSearch)
		is.Equal(mm.LastReport().Depth, depth)
		// Ties may resolve to different columns, the value may not differ.
		is.Equal(mm.LastReport().Score, ab.LastReport().Score)
	}
}

func TestDeepeningMatchesFixedDepth(t *testing.T) {
	is := is.New(t)
	plain := readyAgent(t, EngineAlphaBeta, 4)
	deep := readyAgent(t, EngineAlphaBeta, 4)
	deep.opts.IterativeDeepening = true
	deep.opts.TurnBudget = time.Hour

	b := mustParse(t, quietRows...)
	pc, err := plain.ChooseMove(b)
	is.NoErr(err)
	dc, err := deep.ChooseMove(b)
	is.NoErr(err)
	is.Equal(dc, pc)
	is.Equal(deep.LastReport().Score, plain.LastReport().Score)
	is.Equal(deep.LastReport().Depth, 4)
}

func TestDeepeningStopsOnBudget(t *testing.T) {
	is := is.New(t)
	a := readyAgent(t, EngineAlphaBeta, 8)
	a.opts.IterativeDeepening = true
	a.opts.TurnBudget = time.Nanosecond

	b := mustParse(t, quietRows...)
	col, err := a.ChooseMove(b)
	is.NoErr(err)
	is.True(b.IsLegal(col))
	is.Equal(a.LastReport().Depth, 1)
}

func TestCacheScope(t *testing.T) {
	is := is.New(t)
	a := readyAgent(t, EngineAlphaBeta, 4)
	b := mustParse(t, quietRows...)
	_, err := a.ChooseMove(b)
	is.NoErr(err)
	is.True(a.Cache().Len() > 0)

	a.NewGame()
	is.Equal(a.Cache().Len(), 0)

	perTurn := readyAgent(t, EngineAlphaBeta, 3)
	perTurn.opts.CachePerTurn = true
	_, err = perTurn.ChooseMove(b)
	is.NoErr(err)
	_, err = perTurn.ChooseMove(b)
	is.NoErr(err)
	is.Equal(perTurn.Cache().Stats().Resets, uint64(2))

	is.True(readyAgent(t, EngineMinimax, 2).Cache() == nil)
}

func TestChooseMoveErrors(t *testing.T) {
	is := is.New(t)
	a, err := NewSearchAgent(games.PlayerOne, DefaultOptions(EngineAlphaBeta))
	is.NoErr(err)
	_, err = a.ChooseMove(games.NewStandardBoard())
	is.True(errors.Is(err, ErrNoOpponent))

	a.SetOpponent(games.PlayerOne)
	_, err = a.ChooseMove(games.NewStandardBoard())
	is.True(errors.Is(err, ErrNoOpponent))

	a.SetOpponent(games.PlayerTwo)
	_, err = a.ChooseMove(mustParse(t, fullDrawRows...))
	is.True(errors.Is(err, ErrNoLegalMove))

	_, err = NewSearchAgent(games.Empty, DefaultOptions(EngineAlphaBeta))
	is.True(errors.Is(err, ErrBadMark))
	_, err = NewSearchAgent(games.PlayerOne, Options{Engine: "negamax"})
	is.True(errors.Is(err, ErrUnknownKind))
}

func TestDepthFloor(t *testing.T) {
	is := is.New(t)
	opts := DefaultOptions(EngineMinimax)
	opts.Depth = 0
	a, err := NewSearchAgent(games.PlayerOne, opts)
	is.NoErr(err)
	is.Equal(a.Depth(), 1)
}

func TestSmallBoard(t *testing.T) {
	is := is.New(t)
	a := readyAgent(t, EngineAlphaBeta, 3)
	b := games.NewBoard(5, 5)
	_, err := b.ApplyMove(2, games.PlayerOne)
	is.NoErr(err)
	_, err = b.ApplyMove(2, games.PlayerTwo)
	is.NoErr(err)
	col, err := a.ChooseMove(b)
	is.NoErr(err)
	is.True(b.IsLegal(col))
	is.True(a.catalog.Fits(b))
}
