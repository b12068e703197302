package ai

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"lukechampine.com/frand"

	"connect4ai/games"
	"connect4ai/render"
)

// Kinds accepted by New.
const (
	KindMinimax   = string(EngineMinimax)
	KindAlphaBeta = string(EngineAlphaBeta)
	KindRandom    = "random"
	KindFixed     = "fixed"
	KindConsole   = "console"
)

// FixedPreference is the column order tried by FixedOrderAgent.
var FixedPreference = []int{3, 2, 1, 5, 6}

// FixedOrderAgent fills columns in a fixed order without looking at the
// position.
type FixedOrderAgent struct {
	seat
	preference []int
}

func NewFixedOrderAgent(mark games.Mark, seed uint64, presentation render.Palette) (*FixedOrderAgent, error) {
	s, err := newSeat(mark, seed, presentation)
	if err != nil {
		return nil, err
	}
	return &FixedOrderAgent{seat: s, preference: FixedPreference}, nil
}

func (f *FixedOrderAgent) ChooseMove(b *games.Board) (int, error) {
	legal, err := f.ready(b)
	if err != nil {
		return -1, err
	}
	if col, ok := lo.Find(f.preference, b.IsLegal); ok {
		return col, nil
	}
	return legal[0], nil
}

func (f *FixedOrderAgent) NewGame() {}

// RandomAgent plays a uniformly random legal column. The sequence is fixed
// by the construction seed.
type RandomAgent struct {
	seat
	rng *frand.RNG
}

func NewRandomAgent(mark games.Mark, seed uint64, presentation render.Palette) (*RandomAgent, error) {
	s, err := newSeat(mark, seed, presentation)
	if err != nil {
		return nil, err
	}
	return &RandomAgent{seat: s, rng: seededRNG(seed)}, nil
}

func seededRNG(seed uint64) *frand.RNG {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return frand.NewCustom(key[:], 1024, 12)
}

func (r *RandomAgent) ChooseMove(b *games.Board) (int, error) {
	legal, err := r.ready(b)
	if err != nil {
		return -1, err
	}
	return legal[r.rng.Intn(len(legal))], nil
}

func (r *RandomAgent) NewGame() {}

// LineReader is the input side of a console, satisfied by *readline.Instance.
type LineReader interface {
	Readline() (string, error)
}

// ConsoleAgent asks a human for a column and re-prompts until it gets a
// legal one.
type ConsoleAgent struct {
	seat
	in  LineReader
	out io.Writer
}

func NewConsoleAgent(mark games.Mark, presentation render.Palette, in LineReader, out io.Writer) (*ConsoleAgent, error) {
	s, err := newSeat(mark, 0, presentation)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = io.Discard
	}
	return &ConsoleAgent{seat: s, in: in, out: out}, nil
}

func (c *ConsoleAgent) ChooseMove(b *games.Board) (int, error) {
	if _, err := c.ready(b); err != nil {
		return -1, err
	}
	fmt.Fprint(c.out, "Select next move: ")
	for {
		line, err := c.in.Readline()
		if err != nil {
			return -1, err
		}
		col, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && b.IsLegal(col) {
			return col, nil
		}
		fmt.Fprint(c.out, "Index invalid. Select next move: ")
	}
}

func (c *ConsoleAgent) NewGame() {}

// Setup describes an agent to build with New.
type Setup struct {
	Kind         string
	Mark         games.Mark
	Seed         uint64
	Presentation render.Palette
	// Search settings; Engine is taken from Kind.
	Search Options
	// Console input and output, only for KindConsole.
	In  LineReader
	Out io.Writer
}

// New builds any agent variant by kind name.
func New(setup Setup) (Agent, error) {
	switch setup.Kind {
	case KindMinimax, KindAlphaBeta:
		opts := setup.Search
		opts.Engine = EngineKind(setup.Kind)
		opts.Seed = setup.Seed
		opts.Presentation = setup.Presentation
		if opts.Depth == 0 {
			opts.Depth = DefaultOptions(opts.Engine).Depth
		}
		a, err := NewSearchAgent(setup.Mark, opts)
		if err != nil {
			return nil, err
		}
		return a, nil
	case KindRandom:
		a, err := NewRandomAgent(setup.Mark, setup.Seed, setup.Presentation)
		if err != nil {
			return nil, err
		}
		return a, nil
	case KindFixed:
		a, err := NewFixedOrderAgent(setup.Mark, setup.Seed, setup.Presentation)
		if err != nil {
			return nil, err
		}
		return a, nil
	case KindConsole:
		if setup.In == nil {
			return nil, fmt.Errorf("console agent needs an input")
		}
		a, err := NewConsoleAgent(setup.Mark, setup.Presentation, setup.In, setup.Out)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, setup.Kind)
}

// Pair builds two agents for opposite marks and binds each to the other.
func Pair(one, two Setup) (Agent, Agent, error) {
	one.Mark, two.Mark = games.PlayerOne, games.PlayerTwo
	a, err := New(one)
	if err != nil {
		return nil, nil, err
	}
	b, err := New(two)
	if err != nil {
		return nil, nil, err
	}
	a.SetOpponent(b.Mark())
	b.SetOpponent(a.Mark())
	return a, b, nil
}
