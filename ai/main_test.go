package ai

import (
	"os"
	"testing"

	"github.com/rs/zerolog"

	"connect4ai/games"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func mustParse(t *testing.T, rows ...string) *games.Board {
	t.Helper()
	b, err := games.ParseBoard(rows...)
	if err != nil {
		t.Fatalf("parse board: %v", err)
	}
	return b
}

// readyAgent builds a search agent for X against O with the opening
// shortcut already spent.
func readyAgent(t *testing.T, engine EngineKind, depth int) *SearchAgent {
	t.Helper()
	opts := DefaultOptions(engine)
	opts.Depth = depth
	a, err := NewSearchAgent(games.PlayerOne, opts)
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	a.SetOpponent(games.PlayerTwo)
	a.firstMove = false
	return a
}

var (
	// O threatens to complete column 4.
	blockRows = []string{
		".......",
		".......",
		".......",
		"....O..",
		"X...O..",
		"X.X.O..",
	}
	// X completes column 0; O also threatens column 4.
	winRows = []string{
		".......",
		".......",
		".......",
		"X...O..",
		"X...O..",
		"X...O..",
	}
	// No immediate tactics for either side, X to move.
	quietRows = []string{
		".......",
		".......",
		".......",
		"...O...",
		"..XX...",
		"..OXO..",
	}
	fullDrawRows = []string{
		"XXOOXXO",
		"OOXXOOX",
		"XXOOXXO",
		"OOXXOOX",
		"XXOOXXO",
		"OOXXOOX",
	}
)
