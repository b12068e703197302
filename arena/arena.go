// Package arena runs games between agents without a server: a referee
// alternates turns on a fresh board, times each decision and settles the
// result with the rules oracle.
package arena

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"connect4ai/games"
)

var ErrSameMark = errors.New("entrants must play different marks")

// EndReason says how a game finished.
type EndReason string

const (
	EndWin     EndReason = "win"
	EndDraw    EndReason = "draw"
	EndTimeout EndReason = "timeout"
	EndIllegal EndReason = "illegal"
)

// Entrant is an agent with the name it is reported under.
type Entrant struct {
	Name  string
	Agent games.Agent
}

// Turn is one decision made during a game.
type Turn struct {
	Mark    games.Mark    `json:"mark"`
	Column  int           `json:"column"`
	Elapsed time.Duration `json:"elapsed"`
	Overrun bool          `json:"overrun"`
}

type Result struct {
	ID     string       `json:"id"`
	First  string       `json:"first"`
	Second string       `json:"second"`
	Winner string       `json:"winner,omitempty"`
	Mark   games.Mark   `json:"winnerMark"`
	Reason EndReason    `json:"reason"`
	Turns  []Turn       `json:"turns"`
	Board  *games.Board `json:"board"`
}

// Moves returns the columns played, in order.
func (r *Result) Moves() []int {
	return lo.Map(r.Turns, func(t Turn, _ int) int { return t.Column })
}

// Overruns counts turns that went over the budget.
func (r *Result) Overruns() int {
	return lo.CountBy(r.Turns, func(t Turn) bool { return t.Overrun })
}

type Options struct {
	Rows, Cols int
	// TurnBudget is the time allowed per decision. Zero disables timing.
	TurnBudget time.Duration
	// Strict forfeits a game for the side that overruns its budget instead
	// of only logging it.
	Strict bool
}

type Referee struct {
	opts Options
}

func NewReferee(opts Options) *Referee {
	if opts.Rows <= 0 || opts.Cols <= 0 {
		opts.Rows, opts.Cols = games.BoardHeight, games.BoardWidth
	}
	return &Referee{opts: opts}
}

// Play runs one game with first to move. Both agents are told a new game
// starts. An agent error other than a bad column aborts the game.
func (r *Referee) Play(ctx context.Context, first, second Entrant) (*Result, error) {
	if first.Agent.Mark() == second.Agent.Mark() {
		return nil, ErrSameMark
	}
	first.Agent.NewGame()
	second.Agent.NewGame()

	b := games.NewBoard(r.opts.Rows, r.opts.Cols)
	res := &Result{
		ID:     uuid.NewString(),
		First:  first.Name,
		Second: second.Name,
		Board:  b,
	}
	seats := [2]Entrant{first, second}
	for ply := 0; ; ply++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mover, waiting := seats[ply%2], seats[(ply+1)%2]
		mark := mover.Agent.Mark()

		start := time.Now()
		col, err := mover.Agent.ChooseMove(b)
		elapsed := time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("%s on ply %d: %w", mover.Name, ply, err)
		}
		turn := Turn{Mark: mark, Column: col, Elapsed: elapsed}
		if r.opts.TurnBudget > 0 && elapsed > r.opts.TurnBudget {
			turn.Overrun = true
			log.Warn().Str("agent", mover.Name).Int("ply", ply).Dur("elapsed", elapsed).
				Dur("budget", r.opts.TurnBudget).Msg("turn-overrun")
		}
		res.Turns = append(res.Turns, turn)

		if turn.Overrun && r.opts.Strict {
			return r.finish(res, waiting, EndTimeout), nil
		}
		if _, err := games.ApplyMove(b, col, mark); err != nil {
			log.Warn().Str("agent", mover.Name).Int("column", col).Err(err).Msg("illegal-move")
			return r.finish(res, waiting, EndIllegal), nil
		}

		switch out := games.OutcomeOf(b, col, mark); out.Kind {
		case games.Win:
			return r.finish(res, mover, EndWin), nil
		case games.Draw:
			return r.finish(res, Entrant{}, EndDraw), nil
		}
	}
}

func (r *Referee) finish(res *Result, winner Entrant, reason EndReason) *Result {
	res.Reason = reason
	if winner.Agent != nil {
		res.Winner = winner.Name
		res.Mark = winner.Agent.Mark()
	}
	log.Info().Str("game", res.ID).Str("first", res.First).Str("second", res.Second).
		Str("winner", res.Winner).Str("reason", string(reason)).Int("plies", len(res.Turns)).
		Msg("game-over")
	return res
}

// RunMatch plays n games between a and b, with a moving first in even
// games and b in odd ones.
func RunMatch(ctx context.Context, ref *Referee, a, b Entrant, n int) ([]*Result, error) {
	results := make([]*Result, 0, n)
	for i := 0; i < n; i++ {
		first, second := a, b
		if i%2 == 1 {
			first, second = b, a
		}
		res, err := ref.Play(ctx, first, second)
		if err != nil {
			return results, fmt.Errorf("game %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Tally is the score line of one entrant over a match.
type Tally struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
}

// Summarize returns a tally per entrant name, in order of first appearance.
func Summarize(results []*Result) []Tally {
	names := lo.Uniq(lo.FlatMap(results, func(r *Result, _ int) []string {
		return []string{r.First, r.Second}
	}))
	return lo.Map(names, func(name string, _ int) Tally {
		t := Tally{Name: name}
		for _, r := range results {
			if r.First != name && r.Second != name {
				continue
			}
			switch r.Winner {
			case "":
				t.Draws++
			case name:
				t.Wins++
			default:
				t.Losses++
			}
		}
		return t
	})
}
