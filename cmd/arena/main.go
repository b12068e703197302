// Command arena plays a match between two agents and archives the games.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"connect4ai/ai"
	"connect4ai/arena"
	"connect4ai/config"
	"connect4ai/render"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	playerOne  = flag.String("one", ai.KindAlphaBeta, "agent for player one: minimax, alphabeta, random, fixed")
	playerTwo  = flag.String("two", ai.KindMinimax, "agent for player two")
	numGames   = flag.Int("games", 10, "number of games; first move alternates")
	strict     = flag.Bool("strict", false, "forfeit a game when a turn overruns the budget")
	outPath    = flag.String("out", "", "parquet file to archive the games to")
	showBoards = flag.Bool("show", false, "print each final board")
)

func main() {
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	zerolog.SetGlobalLevel(cfg.Level())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	sa, sb := cfg.Setup(*playerOne), cfg.Setup(*playerTwo)
	// Two random agents with one seed would mirror each other.
	sb.Seed++
	one, two, err := ai.Pair(sa, sb)
	if err != nil {
		log.Fatal().Err(err).Msg("building agents")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ref := arena.NewReferee(arena.Options{TurnBudget: cfg.TurnBudget, Strict: *strict})
	results, err := arena.RunMatch(ctx, ref,
		arena.Entrant{Name: *playerOne + "-1", Agent: one},
		arena.Entrant{Name: *playerTwo + "-2", Agent: two},
		*numGames)
	if err != nil {
		log.Error().Err(err).Int("completed", len(results)).Msg("match stopped")
	}

	palette := cfg.Palette()
	for i, r := range results {
		winner := r.Winner
		if winner == "" {
			winner = "draw"
		}
		fmt.Printf("game %d: %s vs %s -> %s (%s, %d plies)\n", i, r.First, r.Second, winner, r.Reason, len(r.Turns))
		if *showBoards {
			fmt.Print(render.Board(r.Board, palette))
		}
	}
	for _, t := range arena.Summarize(results) {
		fmt.Printf("%-14s wins %3d  losses %3d  draws %3d\n", t.Name, t.Wins, t.Losses, t.Draws)
	}

	if *outPath != "" && len(results) > 0 {
		if err := arena.WriteParquet(*outPath, results); err != nil {
			log.Fatal().Err(err).Msg("archiving games")
		}
		log.Info().Str("path", *outPath).Int("games", len(results)).Msg("archived")
	}
}
