package ai

import (
	"sort"

	"connect4ai/games"
)

// CenterOrder lists columns closest to the middle first, ties toward the
// lower index. For 7 columns that is 3,2,4,1,5,0,6.
func CenterOrder(cols int) []int {
	order := make([]int, cols)
	for i := range order {
		order[i] = i
	}
	center := cols / 2
	dist := func(c int) int {
		if c < center {
			return center - c
		}
		return c - center
	}
	sort.SliceStable(order, func(i, j int) bool {
		return dist(order[i]) < dist(order[j])
	})
	return order
}

// Orderer ranks the legal columns for the side to move so alpha-beta sees
// its likely best replies first.
type Orderer struct {
	priority []int
}

func NewOrderer(cols int) *Orderer {
	return &Orderer{priority: CenterOrder(cols)}
}

// OrderedMoves returns the legal columns for mover. A column that wins on
// the spot is returned alone. Columns that stop an immediate opponent win go
// to the front; the rest keep center priority.
func (o *Orderer) OrderedMoves(b *games.Board, mover, other games.Mark) []int {
	moves := make([]int, 0, len(o.priority))
	for _, col := range o.priority {
		if !b.IsLegal(col) {
			continue
		}
		if games.IsWinningMove(b, col, mover) {
			return []int{col}
		}
		if games.IsWinningMove(b, col, other) {
			moves = append([]int{col}, moves...)
			continue
		}
		moves = append(moves, col)
	}
	return moves
}

// ImmediateWin returns a column where mover wins at once, or -1.
func (o *Orderer) ImmediateWin(b *games.Board, mover games.Mark) int {
	for _, col := range o.priority {
		if games.IsWinningMove(b, col, mover) {
			return col
		}
	}
	return -1
}
