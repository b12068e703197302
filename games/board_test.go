package games

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestNewBoard(t *testing.T) {
	is := is.New(t)
	b := NewStandardBoard()
	is.Equal(b.Rows(), 6)
	is.Equal(b.Cols(), 7)
	for c := 0; c < b.Cols(); c++ {
		is.Equal(b.NextFreeRow(c), 5)
	}
	is.Equal(b.Count(), 0)
	is.NoErr(b.Validate())
}

func TestApplyUndo(t *testing.T) {
	is := is.New(t)
	b := NewStandardBoard()
	before := b.Clone()

	p1, err := b.ApplyMove(3, PlayerOne)
	is.NoErr(err)
	is.Equal(p1.Row, 5)
	p2, err := b.ApplyMove(3, PlayerTwo)
	is.NoErr(err)
	is.Equal(p2.Row, 4)
	is.Equal(b.At(5, 3), PlayerOne)
	is.Equal(b.At(4, 3), PlayerTwo)
	is.Equal(b.NextFreeRow(3), 3)
	is.NoErr(b.Validate())

	// The older placement is not the top of the column.
	is.True(errors.Is(b.UndoMove(p1), ErrUndoMismatch))

	is.NoErr(b.UndoMove(p2))
	is.NoErr(b.UndoMove(p1))
	is.True(b.Equal(before))
}

func TestApplyFullColumn(t *testing.T) {
	is := is.New(t)
	b := NewStandardBoard()
	for i := 0; i < 6; i++ {
		_, err := b.ApplyMove(0, Mark(1+i%2))
		is.NoErr(err)
	}
	is.Equal(b.NextFreeRow(0), -1)
	is.True(!b.IsLegal(0))
	_, err := b.ApplyMove(0, PlayerOne)
	is.True(errors.Is(err, ErrIllegalMove))
	_, err = b.ApplyMove(7, PlayerOne)
	is.True(errors.Is(err, ErrIllegalMove))
	_, err = b.ApplyMove(1, Empty)
	is.True(errors.Is(err, ErrIllegalMove))
}

func TestWithMoveRestoresOnPanic(t *testing.T) {
	is := is.New(t)
	b := NewStandardBoard()
	_, err := b.ApplyMove(2, PlayerTwo)
	is.NoErr(err)
	before := b.Clone()

	func() {
		defer func() { _ = recover() }()
		_ = b.WithMove(2, PlayerOne, func(p Placement) {
			is.Equal(b.At(p.Row, 2), PlayerOne)
			panic("deeper call failed")
		})
	}()
	is.True(b.Equal(before))
}

func TestSignatureIgnoresMoveOrder(t *testing.T) {
	is := is.New(t)
	a := NewStandardBoard()
	b := NewStandardBoard()
	for _, m := range []struct {
		col  int
		mark Mark
	}{{3, PlayerOne}, {4, PlayerTwo}, {2, PlayerOne}, {4, PlayerTwo}} {
		_, err := a.ApplyMove(m.col, m.mark)
		is.NoErr(err)
	}
	for _, m := range []struct {
		col  int
		mark Mark
	}{{2, PlayerOne}, {4, PlayerTwo}, {3, PlayerOne}, {4, PlayerTwo}} {
		_, err := b.ApplyMove(m.col, m.mark)
		is.NoErr(err)
	}
	is.Equal(a.Signature(), b.Signature())

	_, err := b.ApplyMove(0, PlayerOne)
	is.NoErr(err)
	is.True(a.Signature() != b.Signature())
}

func TestParseBoard(t *testing.T) {
	is := is.New(t)
	b, err := ParseBoard(
		".......",
		".......",
		".......",
		".......",
		"...O...",
		"..XXO..",
	)
	is.NoErr(err)
	is.Equal(b.At(5, 2), PlayerOne)
	is.Equal(b.At(4, 3), PlayerTwo)
	is.Equal(b.NextFreeRow(3), 3)
	is.Equal(b.NextFreeRow(4), 4)
	is.Equal(b.Count(), 4)

	_, err = ParseBoard(
		"...X...",
		".......",
	)
	is.True(errors.Is(err, ErrBadBoard))
}

func TestBoardJSON(t *testing.T) {
	is := is.New(t)
	b, err := ParseBoard(
		".......",
		".......",
		".......",
		".......",
		".......",
		"X..O...",
	)
	is.NoErr(err)
	data, err := json.Marshal(b)
	is.NoErr(err)

	var back Board
	is.NoErr(json.Unmarshal(data, &back))
	is.True(back.Equal(b))
}
