package ai

import (
	"math"

	"connect4ai/games"
)

// Stats counts the work done by one engine.
type Stats struct {
	Nodes   uint64     `json:"nodes"`
	Cutoffs uint64     `json:"cutoffs"`
	Cache   CacheStats `json:"cache"`
}

// Engine values positions from the point of view of one mark.
type Engine interface {
	// Value scores b with depth plies left; maximizing says whether the
	// engine's own mark is to move. b is restored before Value returns.
	Value(b *games.Board, depth int, maximizing bool) float64
	// Search is Value for a position reached by last, whose outcome is
	// judged from that placement alone.
	Search(b *games.Board, depth int, maximizing bool, last games.Placement) float64
	Stats() Stats
}

// noMove stands for an unknown last placement; the position is scanned.
var noMove = games.Placement{Column: -1, Row: -1, Mark: games.Empty}

// judge returns the sentinel score if the game is decided.
func judge(b *games.Board, last games.Placement, own games.Mark) (float64, bool) {
	if !last.Mark.Placeable() {
		return terminalScore(games.Scan(b), own)
	}
	return terminalScore(games.OutcomeOf(b, last.Column, last.Mark), own)
}

// play applies m in col for the duration of fn. An illegal move here means
// the move list was wrong, which is a bug, so it panics.
func play(b *games.Board, col int, m games.Mark, fn func(p games.Placement)) {
	if err := b.WithMove(col, m, fn); err != nil {
		panic(err)
	}
}

// Minimax is the exhaustive depth-limited search. Its value does not depend
// on the order columns are tried in.
type Minimax struct {
	own, opp games.Mark
	eval     *Evaluator
	stats    Stats
}

func NewMinimax(own, opp games.Mark, eval *Evaluator) *Minimax {
	return &Minimax{own: own, opp: opp, eval: eval}
}

func (m *Minimax) Value(b *games.Board, depth int, maximizing bool) float64 {
	return m.search(b, depth, maximizing, noMove)
}

func (m *Minimax) Search(b *games.Board, depth int, maximizing bool, last games.Placement) float64 {
	return m.search(b, depth, maximizing, last)
}

func (m *Minimax) Stats() Stats { return m.stats }

func (m *Minimax) search(b *games.Board, depth int, maximizing bool, last games.Placement) float64 {
	m.stats.Nodes++
	if score, done := judge(b, last, m.own); done {
		return score
	}
	if depth <= 0 {
		return m.eval.Score(b, m.own, m.opp)
	}

	mark := m.opp
	best := math.Inf(1)
	if maximizing {
		mark = m.own
		best = math.Inf(-1)
	}
	for col := 0; col < b.Cols(); col++ {
		if !b.IsLegal(col) {
			continue
		}
		var score float64
		play(b, col, mark, func(p games.Placement) {
			score = m.search(b, depth-1, !maximizing, p)
		})
		if maximizing {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}
	return best
}

// AlphaBeta is minimax with fail-soft alpha-beta pruning, move ordering and
// a transposition cache. With a cold cache it returns exactly what Minimax
// returns for the same call.
type AlphaBeta struct {
	own, opp games.Mark
	eval     *Evaluator
	orderer  *Orderer
	cache    *Cache
	stats    Stats
}

// NewAlphaBeta builds the pruned engine. cache may be shared across turns
// of one agent but never between agents.
func NewAlphaBeta(own, opp games.Mark, eval *Evaluator, orderer *Orderer, cache *Cache) *AlphaBeta {
	if cache == nil {
		cache = NewCache(0)
	}
	return &AlphaBeta{own: own, opp: opp, eval: eval, orderer: orderer, cache: cache}
}

func (a *AlphaBeta) Value(b *games.Board, depth int, maximizing bool) float64 {
	return a.search(b, depth, math.Inf(-1), math.Inf(1), maximizing, noMove)
}

func (a *AlphaBeta) Search(b *games.Board, depth int, maximizing bool, last games.Placement) float64 {
	return a.search(b, depth, math.Inf(-1), math.Inf(1), maximizing, last)
}

// Window searches with explicit bounds, as the root does once it holds a
// best score.
func (a *AlphaBeta) Window(b *games.Board, depth int, alpha, beta float64, maximizing bool, last games.Placement) float64 {
	return a.search(b, depth, alpha, beta, maximizing, last)
}

func (a *AlphaBeta) Stats() Stats {
	s := a.stats
	s.Cache = a.cache.Stats()
	return s
}

func (a *AlphaBeta) search(b *games.Board, depth int, alpha, beta float64, maximizing bool, last games.Placement) float64 {
	a.stats.Nodes++
	// A win by the side that just moved, or a full board.
	if score, done := judge(b, last, a.own); done {
		return score
	}

	key := CacheKey{Signature: b.Signature(), Depth: depth, Maximizing: maximizing}
	if score, ok := a.cache.probe(key, alpha, beta); ok {
		return score
	}
	if depth <= 0 {
		score := a.eval.Score(b, a.own, a.opp)
		a.cache.Store(key, score, BoundExact)
		return score
	}

	mover, other := a.opp, a.own
	if maximizing {
		mover, other = a.own, a.opp
	}
	moves := a.orderer.OrderedMoves(b, mover, other)
	if len(moves) == 0 {
		return DrawScore
	}

	alphaIn, betaIn := alpha, beta
	best := math.Inf(1)
	if maximizing {
		best = math.Inf(-1)
	}
	for _, col := range moves {
		var score float64
		play(b, col, mover, func(p games.Placement) {
			score = a.search(b, depth-1, alpha, beta, !maximizing, p)
		})
		if maximizing {
			best = max(best, score)
			alpha = max(alpha, score)
		} else {
			best = min(best, score)
			beta = min(beta, score)
		}
		if beta <= alpha {
			a.stats.Cutoffs++
			break
		}
	}
	a.cache.Store(key, best, boundFor(best, alphaIn, betaIn))
	return best
}
