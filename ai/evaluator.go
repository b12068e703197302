package ai

import "connect4ai/games"

const (
	// WinScore is returned for a decided position. It dominates any sum of
	// window scores so a search never confuses the two.
	WinScore = 100000.0
	// DrawScore is returned for a full board with no winner.
	DrawScore = 0.0
)

// Weights are the per-window pattern values.
type Weights struct {
	Four        float64 // own four in a window
	Three       float64 // own three plus one empty
	Two         float64 // own two plus two empty
	OppThree    float64 // opponent three plus one empty, usually negative
	CenterPiece float64 // per own piece in the middle column
}

var DefaultWeights = Weights{
	Four:        1000,
	Three:       5,
	Two:         2,
	OppThree:    -4,
	CenterPiece: 3,
}

// Evaluator scores a position for one side from the window catalog.
// It keeps no state besides its configuration.
type Evaluator struct {
	catalog *Catalog
	weights Weights
}

func NewEvaluator(cat *Catalog, w Weights) *Evaluator {
	return &Evaluator{catalog: cat, weights: w}
}

// Score sums the window patterns of b seen from forMark and adds the center
// bonus. It does not check for decided games; see Leaf for that.
func (e *Evaluator) Score(b *games.Board, forMark, againstMark games.Mark) float64 {
	score := 0.0
	for _, w := range e.catalog.windows {
		score += e.scoreWindow(b, w, forMark, againstMark)
	}
	center := b.Cols() / 2
	for r := 0; r < b.Rows(); r++ {
		if b.At(r, center) == forMark {
			score += e.weights.CenterPiece
		}
	}
	return score
}

func (e *Evaluator) scoreWindow(b *games.Board, w Window, forMark, againstMark games.Mark) float64 {
	p, o, empty := 0, 0, 0
	for _, cell := range w {
		switch b.At(cell.Row, cell.Col) {
		case forMark:
			p++
		case againstMark:
			o++
		case games.Empty:
			empty++
		}
	}

	score := 0.0
	switch {
	case p == 4:
		score += e.weights.Four
	case p == 3 && empty == 1:
		score += e.weights.Three
	case p == 2 && empty == 2:
		score += e.weights.Two
	}
	if o == 3 && empty == 1 {
		score += e.weights.OppThree
	}
	return score
}

// terminalScore maps a decided outcome to its sentinel. ok is false for
// an ongoing game.
func terminalScore(out games.Outcome, own games.Mark) (score float64, ok bool) {
	switch out.Kind {
	case games.Win:
		if out.Winner == own {
			return WinScore, true
		}
		return -WinScore, true
	case games.Draw:
		return DrawScore, true
	}
	return 0, false
}

// Leaf scores a position with no last move known, such as a search root.
// Decided positions get their sentinel; anything else the window score.
func (e *Evaluator) Leaf(b *games.Board, own, opp games.Mark) float64 {
	if s, ok := terminalScore(games.Scan(b), own); ok {
		return s
	}
	return e.Score(b, own, opp)
}
