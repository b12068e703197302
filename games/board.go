package games

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash"
)

var (
	ErrIllegalMove  = errors.New("illegal move")
	ErrUndoMismatch = errors.New("undo does not match the most recent placement in that column")
	ErrBadBoard     = errors.New("malformed board")
)

// Board is a rows x cols grid of marks. Row 0 is the top row, so pieces
// stack from row rows-1 upwards. top holds the next free row per column,
// -1 once the column is full.
type Board struct {
	rows  int
	cols  int
	cells []byte
	top   []int
}

// Placement is the undo token handed out by ApplyMove.
type Placement struct {
	Column int
	Row    int
	Mark   Mark
}

// NewBoard returns an empty board of the given size.
func NewBoard(rows, cols int) *Board {
	b := &Board{
		rows:  rows,
		cols:  cols,
		cells: make([]byte, rows*cols),
		top:   make([]int, cols),
	}
	for c := range b.top {
		b.top[c] = rows - 1
	}
	return b
}

// NewStandardBoard returns an empty 6x7 board.
func NewStandardBoard() *Board {
	return NewBoard(BoardHeight, BoardWidth)
}

func (b *Board) Rows() int { return b.rows }
func (b *Board) Cols() int { return b.cols }

// At returns the mark at (row, col).
func (b *Board) At(row, col int) Mark {
	return Mark(b.cells[row*b.cols+col])
}

// NextFreeRow returns the row the next piece in col would land on, or -1.
func (b *Board) NextFreeRow(col int) int {
	return b.top[col]
}

// IsLegal reports whether a piece can be dropped into col.
func (b *Board) IsLegal(col int) bool {
	return col >= 0 && col < b.cols && b.top[col] >= 0
}

// Full reports whether every column is full.
func (b *Board) Full() bool {
	for _, t := range b.top {
		if t >= 0 {
			return false
		}
	}
	return true
}

// Count returns the number of non-empty cells.
func (b *Board) Count() int {
	n := 0
	for c := 0; c < b.cols; c++ {
		n += b.rows - 1 - b.top[c]
	}
	return n
}

// ApplyMove drops m into col and returns the token needed to undo it.
func (b *Board) ApplyMove(col int, m Mark) (Placement, error) {
	if !m.Placeable() {
		return Placement{}, fmt.Errorf("%w: mark %d is not placeable", ErrIllegalMove, m)
	}
	if col < 0 || col >= b.cols {
		return Placement{}, fmt.Errorf("%w: column %d out of range", ErrIllegalMove, col)
	}
	row := b.top[col]
	if row < 0 {
		return Placement{}, fmt.Errorf("%w: column %d is full", ErrIllegalMove, col)
	}
	b.cells[row*b.cols+col] = byte(m)
	b.top[col]--
	return Placement{Column: col, Row: row, Mark: m}, nil
}

// UndoMove reverses p. p must be the most recent placement in its column.
func (b *Board) UndoMove(p Placement) error {
	if p.Column < 0 || p.Column >= b.cols || p.Row < 0 || p.Row >= b.rows {
		return ErrUndoMismatch
	}
	if b.top[p.Column]+1 != p.Row || b.At(p.Row, p.Column) != p.Mark {
		return ErrUndoMismatch
	}
	b.cells[p.Row*b.cols+p.Column] = byte(Empty)
	b.top[p.Column]++
	return nil
}

// WithMove applies m in col, runs fn and undoes the move again. The undo is
// deferred so the board is restored even if fn panics.
func (b *Board) WithMove(col int, m Mark, fn func(p Placement)) error {
	p, err := b.ApplyMove(col, m)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := b.UndoMove(p); uerr != nil {
			panic(uerr)
		}
	}()
	fn(p)
	return nil
}

// Signature identifies the grid contents. Two boards with the same cells
// always share a signature.
func (b *Board) Signature() uint64 {
	return xxhash.Sum64(b.cells)
}

// Clone returns a deep copy.
func (b *Board) Clone() *Board {
	c := &Board{
		rows:  b.rows,
		cols:  b.cols,
		cells: make([]byte, len(b.cells)),
		top:   make([]int, len(b.top)),
	}
	copy(c.cells, b.cells)
	copy(c.top, b.top)
	return c
}

// Equal reports whether both the grid and the next-free-row array match.
func (b *Board) Equal(o *Board) bool {
	if b.rows != o.rows || b.cols != o.cols {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != o.cells[i] {
			return false
		}
	}
	for i := range b.top {
		if b.top[i] != o.top[i] {
			return false
		}
	}
	return true
}

// Grid returns a row-major copy of the cells.
func (b *Board) Grid() [][]int {
	grid := make([][]int, b.rows)
	for r := range grid {
		grid[r] = make([]int, b.cols)
		for c := range grid[r] {
			grid[r][c] = int(b.At(r, c))
		}
	}
	return grid
}

// Validate checks the gravity invariant: every column is a contiguous stack
// from the bottom and top matches it.
func (b *Board) Validate() error {
	for c := 0; c < b.cols; c++ {
		expected := b.rows - 1
		for r := b.rows - 1; r >= 0; r-- {
			m := b.At(r, c)
			if m == Empty {
				break
			}
			if !m.Placeable() {
				return fmt.Errorf("%w: bad mark %d at (%d,%d)", ErrBadBoard, m, r, c)
			}
			expected--
		}
		for r := expected; r >= 0; r-- {
			if b.At(r, c) != Empty {
				return fmt.Errorf("%w: floating piece at (%d,%d)", ErrBadBoard, r, c)
			}
		}
		if b.top[c] != expected {
			return fmt.Errorf("%w: column %d next free row %d, want %d", ErrBadBoard, c, b.top[c], expected)
		}
	}
	return nil
}

// FromGrid builds a board from row-major cell values (0 empty, 1, 2).
func FromGrid(grid [][]int) (*Board, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrBadBoard)
	}
	b := NewBoard(len(grid), len(grid[0]))
	for r, row := range grid {
		if len(row) != b.cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrBadBoard, r, len(row), b.cols)
		}
		for c, v := range row {
			if v < int(Empty) || v > int(PlayerTwo) {
				return nil, fmt.Errorf("%w: bad mark %d at (%d,%d)", ErrBadBoard, v, r, c)
			}
			b.cells[r*b.cols+c] = byte(v)
		}
	}
	for c := 0; c < b.cols; c++ {
		t := b.rows - 1
		for t >= 0 && b.At(t, c) != Empty {
			t--
		}
		b.top[c] = t
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// ParseBoard reads a board from text rows, top row first. '.' or '0' is
// empty, 'X' or '1' is PlayerOne, 'O' or '2' is PlayerTwo. Whitespace and
// '|' are ignored.
func ParseBoard(lines ...string) (*Board, error) {
	grid := make([][]int, 0, len(lines))
	for _, line := range lines {
		row := []int{}
		for _, ch := range line {
			switch ch {
			case '.', '0':
				row = append(row, int(Empty))
			case 'X', 'x', '1':
				row = append(row, int(PlayerOne))
			case 'O', 'o', '2':
				row = append(row, int(PlayerTwo))
			case ' ', '\t', '|':
			default:
				return nil, fmt.Errorf("%w: unexpected %q", ErrBadBoard, ch)
			}
		}
		if len(row) > 0 {
			grid = append(grid, row)
		}
	}
	return FromGrid(grid)
}

func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			sb.WriteString(b.At(r, c).String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Grid())
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var grid [][]int
	if err := json.Unmarshal(data, &grid); err != nil {
		return err
	}
	nb, err := FromGrid(grid)
	if err != nil {
		return err
	}
	*b = *nb
	return nil
}
