package games

// OutcomeKind classifies a position after a move.
type OutcomeKind int

const (
	Ongoing OutcomeKind = iota
	Win
	Draw
)

func (k OutcomeKind) String() string {
	switch k {
	case Win:
		return "win"
	case Draw:
		return "draw"
	}
	return "ongoing"
}

// Outcome is what the rules report after a placement. Winner is only set
// for Win.
type Outcome struct {
	Kind   OutcomeKind
	Winner Mark
}

// directions lists one half of every line orientation; the other half is
// the negated delta.
var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{-1, 1}, // diagonal (/)
	{1, 1},  // diagonal (\)
}

// LegalColumns returns the non-full columns in ascending order.
func LegalColumns(b *Board) []int {
	cols := make([]int, 0, b.cols)
	for c := 0; c < b.cols; c++ {
		if b.top[c] >= 0 {
			cols = append(cols, c)
		}
	}
	return cols
}

// ApplyMove is the oracle form of Board.ApplyMove.
func ApplyMove(b *Board, col int, m Mark) (Placement, error) {
	return b.ApplyMove(col, m)
}

// UndoMove is the oracle form of Board.UndoMove.
func UndoMove(b *Board, p Placement) error {
	return b.UndoMove(p)
}

// OutcomeOf judges the position with respect to the piece lastMark most
// recently dropped into lastCol. Only lines through that piece are checked.
func OutcomeOf(b *Board, lastCol int, lastMark Mark) Outcome {
	if lastCol >= 0 && lastCol < b.cols && lastMark.Placeable() {
		row := b.top[lastCol] + 1
		if row < b.rows && b.At(row, lastCol) == lastMark && wins(b, row, lastCol, lastMark) {
			return Outcome{Kind: Win, Winner: lastMark}
		}
	}
	if b.Full() {
		return Outcome{Kind: Draw}
	}
	return Outcome{Kind: Ongoing}
}

// IsWinningMove reports whether dropping m into col would complete a line.
// The board is left unchanged.
func IsWinningMove(b *Board, col int, m Mark) bool {
	if !b.IsLegal(col) {
		return false
	}
	row := b.top[col]
	b.cells[row*b.cols+col] = byte(m)
	won := wins(b, row, col, m)
	b.cells[row*b.cols+col] = byte(Empty)
	return won
}

// Scan checks the whole board. It is meant for positions with no known last
// move, such as the root of a search or a board posted by a client.
func Scan(b *Board) Outcome {
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			m := b.At(r, c)
			if m != Empty && wins(b, r, c, m) {
				return Outcome{Kind: Win, Winner: m}
			}
		}
	}
	if b.Full() {
		return Outcome{Kind: Draw}
	}
	return Outcome{Kind: Ongoing}
}

// wins checks whether the piece at (row, col) is part of a line of m.
func wins(b *Board, row, col int, m Mark) bool {
	for _, d := range directions {
		if countConsecutive(b, row, col, d[0], d[1], m)+countConsecutive(b, row, col, -d[0], -d[1], m)-1 >= ConnectLength {
			return true
		}
	}
	return false
}

// countConsecutive counts marks in one direction, including the start cell.
func countConsecutive(b *Board, row, col, rowDelta, colDelta int, m Mark) int {
	count := 0
	r, c := row, col
	for r >= 0 && r < b.rows && c >= 0 && c < b.cols && b.At(r, c) == m {
		count++
		r += rowDelta
		c += colDelta
	}
	return count
}
