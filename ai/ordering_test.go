package ai

import (
	"testing"

	"github.com/matryer/is"

	"connect4ai/games"
)

func TestCenterOrder(t *testing.T) {
	is := is.New(t)
	is.Equal(CenterOrder(7), []int{3, 2, 4, 1, 5, 0, 6})
	is.Equal(CenterOrder(6), []int{3, 2, 4, 1, 5, 0})
	is.Equal(CenterOrder(1), []int{0})
}

func TestOrderedMovesWinShortCircuits(t *testing.T) {
	is := is.New(t)
	o := NewOrderer(7)
	b := mustParse(t, winRows...)
	is.Equal(o.OrderedMoves(b, games.PlayerOne, games.PlayerTwo), []int{0})
	// Seen from O, column 4 wins and column 0 would only be a block.
	is.Equal(o.OrderedMoves(b, games.PlayerTwo, games.PlayerOne), []int{4})
}

func TestOrderedMovesBlockFirst(t *testing.T) {
	is := is.New(t)
	o := NewOrderer(7)
	b := mustParse(t, blockRows...)
	before := b.Clone()
	is.Equal(o.OrderedMoves(b, games.PlayerOne, games.PlayerTwo), []int{4, 3, 2, 1, 5, 0, 6})
	is.True(b.Equal(before))
}

func TestOrderedMovesSkipsFullColumns(t *testing.T) {
	is := is.New(t)
	o := NewOrderer(7)
	b := mustParse(t,
		"...X...",
		"...O...",
		"...X...",
		"...O...",
		"...X...",
		"...O..X",
	)
	is.Equal(o.OrderedMoves(b, games.PlayerTwo, games.PlayerOne), []int{2, 4, 1, 5, 0, 6})
	is.Equal(len(o.OrderedMoves(mustParse(t, fullDrawRows...), games.PlayerOne, games.PlayerTwo)), 0)
}
