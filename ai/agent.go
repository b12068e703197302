package ai

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"connect4ai/games"
	"connect4ai/render"
)

var (
	ErrNoOpponent  = errors.New("opponent mark not bound")
	ErrNoLegalMove = errors.New("no legal column")
	ErrBadMark     = errors.New("agent mark must be PlayerOne or PlayerTwo")
	ErrUnknownKind = errors.New("unknown agent kind")
)

const (
	DefaultMinimaxDepth   = 4
	DefaultAlphaBetaDepth = 5
	DefaultTurnBudget     = 3 * time.Second

	// deepenGrowth estimates how much longer the next iteration of iterative
	// deepening takes than the one just finished.
	deepenGrowth = 4
)

// EngineKind selects the search used by a SearchAgent.
type EngineKind string

const (
	EngineMinimax   EngineKind = "minimax"
	EngineAlphaBeta EngineKind = "alphabeta"
)

// Agent is a games.Agent whose opponent is bound after construction.
type Agent interface {
	games.Agent
	SetOpponent(m games.Mark)
	Presentation() render.Palette
}

// seat holds what every agent variant is constructed with.
type seat struct {
	mark         games.Mark
	opp          games.Mark
	seed         uint64
	presentation render.Palette
}

func newSeat(mark games.Mark, seed uint64, presentation render.Palette) (seat, error) {
	if !mark.Placeable() {
		return seat{}, ErrBadMark
	}
	return seat{mark: mark, seed: seed, presentation: presentation}, nil
}

func (s *seat) Mark() games.Mark { return s.mark }

// SetOpponent binds the opponent's mark. It must be called before the
// first ChooseMove.
func (s *seat) SetOpponent(m games.Mark) { s.opp = m }

func (s *seat) Presentation() render.Palette { return s.presentation }

func (s *seat) ready(b *games.Board) ([]int, error) {
	if !s.opp.Placeable() || s.opp == s.mark {
		return nil, ErrNoOpponent
	}
	legal := games.LegalColumns(b)
	if len(legal) == 0 {
		return nil, ErrNoLegalMove
	}
	return legal, nil
}

// Options configures a SearchAgent.
type Options struct {
	Engine       EngineKind
	Depth        int
	Seed         uint64
	Presentation render.Palette
	Weights      Weights
	// TurnBudget is only consulted by iterative deepening.
	TurnBudget         time.Duration
	IterativeDeepening bool
	CacheMaxEntries    int
	// CachePerTurn empties the transposition cache at the start of every
	// turn instead of keeping it for the whole game.
	CachePerTurn bool
}

// DefaultOptions returns the reference settings for engine.
func DefaultOptions(engine EngineKind) Options {
	o := Options{
		Engine:       engine,
		Depth:        DefaultAlphaBetaDepth,
		Presentation: render.DefaultPalette,
		Weights:      DefaultWeights,
		TurnBudget:   DefaultTurnBudget,
	}
	if engine == EngineMinimax {
		o.Depth = DefaultMinimaxDepth
	}
	return o
}

// Reason records why a column was chosen.
type Reason string

const (
	ReasonOpening Reason = "opening"
	ReasonWin     Reason = "win"
	ReasonBlock   Reason = "block"
	ReasonSearch  Reason = "search"
	ReasonOnly    Reason = "only"
)

// Report describes the last ChooseMove call of a SearchAgent.
type Report struct {
	Column  int           `json:"column"`
	Score   float64       `json:"score"`
	Depth   int           `json:"depth"`
	Reason  Reason        `json:"reason"`
	Elapsed time.Duration `json:"elapsed"`
	Stats   Stats         `json:"stats"`
}

// SearchAgent picks moves with Minimax or AlphaBeta.
type SearchAgent struct {
	seat
	opts      Options
	firstMove bool

	catalog   *Catalog
	evaluator *Evaluator
	orderer   *Orderer
	cache     *Cache

	last Report
}

func NewSearchAgent(mark games.Mark, opts Options) (*SearchAgent, error) {
	s, err := newSeat(mark, opts.Seed, opts.Presentation)
	if err != nil {
		return nil, err
	}
	switch opts.Engine {
	case EngineMinimax, EngineAlphaBeta:
	default:
		return nil, fmt.Errorf("%w: engine %q", ErrUnknownKind, opts.Engine)
	}
	if opts.Depth < 1 {
		opts.Depth = 1
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights
	}
	a := &SearchAgent{
		seat:      s,
		opts:      opts,
		firstMove: true,
	}
	a.fit(games.BoardHeight, games.BoardWidth)
	if opts.Engine == EngineAlphaBeta {
		a.cache = NewCache(opts.CacheMaxEntries)
	}
	return a, nil
}

// fit builds the window catalog and its users for a board size.
func (a *SearchAgent) fit(rows, cols int) {
	a.catalog = NewCatalog(rows, cols)
	a.evaluator = NewEvaluator(a.catalog, a.opts.Weights)
	a.orderer = NewOrderer(cols)
}

func (a *SearchAgent) Depth() int { return a.opts.Depth }

func (a *SearchAgent) Engine() EngineKind { return a.opts.Engine }

func (a *SearchAgent) LastReport() Report { return a.last }

func (a *SearchAgent) FirstMovePending() bool { return a.firstMove }

// SkipOpening spends the opening shortcut without playing it, for positions
// that are analysed rather than played from the start.
func (a *SearchAgent) SkipOpening() { a.firstMove = false }

// Cache returns the agent's transposition cache, nil for minimax.
func (a *SearchAgent) Cache() *Cache { return a.cache }

// NewGame re-arms the opening shortcut and empties the cache. The cache must
// not carry over to a new game on a fresh board.
func (a *SearchAgent) NewGame() {
	a.firstMove = true
	if a.cache != nil {
		a.cache.Reset()
	}
}

// newEngine returns a fresh engine for one turn. The cache outlives it.
func (a *SearchAgent) newEngine() Engine {
	if a.opts.Engine == EngineMinimax {
		return NewMinimax(a.mark, a.opp, a.evaluator)
	}
	return NewAlphaBeta(a.mark, a.opp, a.evaluator, a.orderer, a.cache)
}

// ChooseMove returns the column to play on b. b is left exactly as it was.
func (a *SearchAgent) ChooseMove(b *games.Board) (int, error) {
	legal, err := a.ready(b)
	if err != nil {
		return -1, err
	}
	start := time.Now()
	if !a.catalog.Fits(b) {
		a.fit(b.Rows(), b.Cols())
		if a.cache != nil {
			a.cache.Reset()
		}
	}
	if a.cache != nil && a.opts.CachePerTurn {
		a.cache.Reset()
	}

	report := a.decide(b, legal)
	report.Elapsed = time.Since(start)
	a.last = report

	log.Debug().
		Str("engine", string(a.opts.Engine)).
		Stringer("mark", a.mark).
		Int("column", report.Column).
		Float64("score", report.Score).
		Int("depth", report.Depth).
		Str("reason", string(report.Reason)).
		Uint64("nodes", report.Stats.Nodes).
		Uint64("cache-hits", report.Stats.Cache.Hits).
		Dur("elapsed", report.Elapsed).
		Msg("chose-move")
	return report.Column, nil
}

func (a *SearchAgent) decide(b *games.Board, legal []int) Report {
	if a.firstMove {
		a.firstMove = false
		if center := b.Cols() / 2; b.IsLegal(center) {
			return Report{Column: center, Reason: ReasonOpening}
		}
	}
	if len(legal) == 1 {
		return Report{Column: legal[0], Reason: ReasonOnly}
	}
	if col := a.orderer.ImmediateWin(b, a.mark); col >= 0 {
		return Report{Column: col, Score: WinScore, Reason: ReasonWin}
	}
	if col := a.orderer.ImmediateWin(b, a.opp); col >= 0 {
		return Report{Column: col, Reason: ReasonBlock}
	}

	if a.opts.Engine == EngineAlphaBeta && a.opts.IterativeDeepening {
		return a.deepen(b)
	}
	r := a.searchRoot(b, a.opts.Depth)
	r.Reason = ReasonSearch
	return r
}

// searchRoot scores every candidate once and keeps the first best column.
func (a *SearchAgent) searchRoot(b *games.Board, depth int) Report {
	engine := a.newEngine()
	best := Report{Column: -1, Score: math.Inf(-1), Depth: depth}

	switch e := engine.(type) {
	case *AlphaBeta:
		alpha := math.Inf(-1)
		for _, col := range a.orderer.OrderedMoves(b, a.mark, a.opp) {
			var score float64
			play(b, col, a.mark, func(p games.Placement) {
				score = e.Window(b, depth-1, alpha, math.Inf(1), false, p)
			})
			if score > best.Score || best.Column < 0 {
				best.Column, best.Score = col, score
			}
			alpha = max(alpha, score)
		}
	default:
		for _, col := range games.LegalColumns(b) {
			var score float64
			play(b, col, a.mark, func(p games.Placement) {
				score = engine.Search(b, depth-1, false, p)
			})
			if score > best.Score || best.Column < 0 {
				best.Column, best.Score = col, score
			}
		}
	}
	best.Stats = engine.Stats()
	return best
}

// deepen runs searchRoot at depth 1, 2, ... and stops early when the next
// depth would likely overrun the turn budget. The clock is only read between
// depths.
func (a *SearchAgent) deepen(b *games.Board) Report {
	start := time.Now()
	var r Report
	for d := 1; d <= a.opts.Depth; d++ {
		r = a.searchRoot(b, d)
		elapsed := time.Since(start)
		log.Debug().Int("depth", d).Int("column", r.Column).Float64("score", r.Score).
			Dur("elapsed", elapsed).Msg("deepen")
		if a.opts.TurnBudget > 0 && elapsed*deepenGrowth > a.opts.TurnBudget {
			break
		}
	}
	r.Reason = ReasonSearch
	return r
}
