// Command play is a terminal game against one of the agents.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"connect4ai/ai"
	"connect4ai/config"
	"connect4ai/games"
	"connect4ai/render"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	opponent   = flag.String("bot", ai.KindAlphaBeta, "opponent: minimax, alphabeta, random, fixed")
	botFirst   = flag.Bool("second", false, "let the bot move first")
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func main() {
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	zerolog.SetGlobalLevel(cfg.Level())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	l, err := readline.NewEx(&readline.Config{
		Prompt:              "\033[31mconnect4>\033[0m ",
		HistoryFile:         "/tmp/connect4-readline.tmp",
		EOFPrompt:           "exit",
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("readline")
	}
	defer l.Close()

	human := cfg.Setup(ai.KindConsole)
	human.In = l
	human.Out = l.Stdout()
	bot := cfg.Setup(*opponent)

	var first, second ai.Agent
	if *botFirst {
		first, second, err = ai.Pair(bot, human)
	} else {
		first, second, err = ai.Pair(human, bot)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("building agents")
	}

	if err := play(first, second, cfg.Palette(), l.Stdout()); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return
		}
		log.Fatal().Err(err).Msg("game aborted")
	}
}

func play(first, second ai.Agent, palette render.Palette, out io.Writer) error {
	b := games.NewStandardBoard()
	seats := [2]ai.Agent{first, second}
	for ply := 0; ; ply++ {
		fmt.Fprint(out, render.Board(b, palette))
		mover := seats[ply%2]
		col, err := mover.ChooseMove(b)
		if err != nil {
			return err
		}
		if _, err := games.ApplyMove(b, col, mover.Mark()); err != nil {
			return err
		}
		if sa, ok := mover.(*ai.SearchAgent); ok {
			rep := sa.LastReport()
			fmt.Fprintf(out, "%s plays %d (%s, score %.0f, %d nodes)\n",
				mover.Mark(), col, rep.Reason, rep.Score, rep.Stats.Nodes)
		}

		switch outcome := games.OutcomeOf(b, col, mover.Mark()); outcome.Kind {
		case games.Win:
			fmt.Fprint(out, render.Board(b, palette))
			fmt.Fprintf(out, "%s wins\n", palette.Disc(outcome.Winner))
			return nil
		case games.Draw:
			fmt.Fprint(out, render.Board(b, palette))
			fmt.Fprintln(out, "draw")
			return nil
		}
	}
}
