// main.go - HTTP and websocket server for Connect 4 games against people
// and search bots.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"connect4ai/api"
	"connect4ai/config"
	"connect4ai/db"
)

const GracefulShutdownTimeout = 20 * time.Second

var configPath = flag.String("config", "", "path to a YAML config file")

func setupLogging(cfg *config.Config) {
	zerolog.SetGlobalLevel(cfg.Level())
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	setupLogging(cfg)

	players, err := db.OpenPlayerStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("opening player store")
	}
	defer players.Close()

	hub := db.NewHub(db.NewStore(), players)
	handler := api.NewHandler(hub, players, cfg.NewBot, cfg.NewAnalyzer)
	srv := &http.Server{Addr: cfg.ServerAddr, Handler: handler.Router()}

	idleConnsClosed := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		ctx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("http server shutdown")
		}
		close(idleConnsClosed)
	}()

	log.Info().Str("addr", cfg.ServerAddr).Str("db", cfg.DBPath).
		Int("alphabeta-depth", cfg.AlphaBetaDepth).Int("minimax-depth", cfg.MinimaxDepth).
		Msg("starting server")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("listen")
	}
	<-idleConnsClosed
}
