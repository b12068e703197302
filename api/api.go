package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"connect4ai/ai"
	"connect4ai/db"
	"connect4ai/games"
)

// BotFactory builds the agent of the given kind for mark, with its
// opponent already bound.
type BotFactory func(kind string, mark games.Mark) (games.Agent, error)

// AnalyzerFactory builds a search agent for a one-off analysis.
type AnalyzerFactory func(engine ai.EngineKind, mark games.Mark, depth int) (*ai.SearchAgent, error)

type Handler struct {
	hub      *db.Hub
	players  *db.PlayerStore
	bots     BotFactory
	analyzer AnalyzerFactory
	upgrader websocket.Upgrader
}

func NewHandler(hub *db.Hub, players *db.PlayerStore, bots BotFactory, analyzer AnalyzerFactory) *Handler {
	return &Handler{
		hub:      hub,
		players:  players,
		bots:     bots,
		analyzer: analyzer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router registers every REST and websocket route.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/players", h.GetPlayers).Methods(http.MethodGet)
	router.HandleFunc("/api/players", h.CreatePlayer).Methods(http.MethodPost)
	router.HandleFunc("/api/players/{id}", h.GetPlayer).Methods(http.MethodGet)
	router.HandleFunc("/api/leaderboard", h.GetLeaderboard).Methods(http.MethodGet)

	router.HandleFunc("/api/games", h.CreateGame).Methods(http.MethodPost)
	router.HandleFunc("/api/games", h.GetGames).Methods(http.MethodGet)
	router.HandleFunc("/api/games/{id}", h.GetGame).Methods(http.MethodGet)
	router.HandleFunc("/api/games/{id}/move", h.MakeMove).Methods(http.MethodPost)
	router.HandleFunc("/api/games/{id}/reset", h.ResetGame).Methods(http.MethodPost)
	router.HandleFunc("/api/matchmaking", h.MatchMaking).Methods(http.MethodPost)
	router.HandleFunc("/api/analyze", h.Analyze).Methods(http.MethodPost)

	router.HandleFunc("/ws/game/{id}", h.GameWebSocket)
	router.HandleFunc("/ws/", h.GlobalWebSocket)
	return router
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal Server Error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, games.ErrIllegalMove),
		errors.Is(err, games.ErrGameNotActive),
		errors.Is(err, games.ErrNotYourTurn),
		errors.Is(err, games.ErrNotInGame),
		errors.Is(err, games.ErrBadBoard),
		errors.Is(err, ai.ErrUnknownKind):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Player handlers

func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.ListPlayers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list-players")
		respondWithError(w, http.StatusInternalServerError, "Error retrieving players")
		return
	}
	respondWithJSON(w, http.StatusOK, players)
}

func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var player games.Player
	if err := json.NewDecoder(r.Body).Decode(&player); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if player.Username == "" {
		respondWithError(w, http.StatusBadRequest, "Username is required")
		return
	}
	player.ID = ""
	player.Wins, player.Losses, player.Draws = 0, 0, 0
	if err := h.players.CreatePlayer(r.Context(), &player); err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}
	log.Info().Str("player", player.ID).Str("username", player.Username).Msg("player-created")
	respondWithJSON(w, http.StatusCreated, player)
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := h.players.GetPlayer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, statusFor(err), "Player not found")
		return
	}
	respondWithJSON(w, http.StatusOK, player)
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
	}
	leaderboard, err := h.players.GetLeaderboard(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		respondWithError(w, http.StatusInternalServerError, "Error retrieving leaderboard")
		return
	}
	respondWithJSON(w, http.StatusOK, leaderboard)
}

// Game handlers

func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.hub.Store().ListGames())
}

type createGameRequest struct {
	GameType  games.GameType `json:"gameType"`
	Player1ID string         `json:"player1Id"`
	Player2ID string         `json:"player2Id,omitempty"`
	// BotKind picks the agent for single-player games; alphabeta when empty.
	BotKind string `json:"botKind,omitempty"`
	// BotFirst seats the bot as player one.
	BotFirst bool `json:"botFirst,omitempty"`
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	switch req.GameType {
	case games.SinglePlayer, games.LocalMultiplayer, games.OnlineMultiplayer:
	default:
		respondWithError(w, http.StatusBadRequest, "Invalid game type")
		return
	}
	if req.GameType == games.OnlineMultiplayer && req.Player1ID == "" {
		respondWithError(w, http.StatusBadRequest, "Player1 Id required for online multiplayer")
		return
	}

	g := games.NewGame(req.GameType, req.Player1ID, req.Player2ID)
	if req.GameType == games.SinglePlayer {
		if req.BotKind == "" {
			req.BotKind = ai.KindAlphaBeta
		}
		mark := games.PlayerTwo
		if req.BotFirst {
			mark = games.PlayerOne
			g.Player2ID = req.Player1ID
		}
		bot, err := h.bots(req.BotKind, mark)
		if err != nil {
			respondWithError(w, statusFor(err), err.Error())
			return
		}
		if err := g.SeatBot(req.BotKind, bot); err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if req.GameType != games.OnlineMultiplayer || g.Player2ID != "" {
		g.Status = games.StatusActive
	}
	if g.BotToMove() {
		if _, err := g.PlayBot(); err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	h.hub.Store().SaveGame(g)
	log.Info().Str("game", g.ID).Str("type", string(g.Type)).Str("bot", g.BotKind).Msg("game-created")
	respondWithJSON(w, http.StatusCreated, g.Snapshot())
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	g, err := h.hub.Store().GetGame(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, statusFor(err), "Game not found")
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}

// MakeMove plays a move; in a single-player game the response already
// holds the bot's reply.
func (h *Handler) MakeMove(w http.ResponseWriter, r *http.Request) {
	var move games.Move
	if err := json.NewDecoder(r.Body).Decode(&move); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	g, err := h.hub.Move(r.Context(), mux.Vars(r)["id"], move.PlayerID, move.Column)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}

func (h *Handler) ResetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	log.Info().Str("game", gameID).Msg("reset")
	g, err := h.hub.Reset(r.Context(), gameID)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}

type matchResponse struct {
	Status    string `json:"status"`
	GameID    string `json:"gameId"`
	Player1ID string `json:"player1Id"`
	Player2ID string `json:"player2Id,omitempty"`
}

func (h *Handler) MatchMaking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	g, matched := h.hub.Store().Matchmake(req.PlayerID)
	resp := matchResponse{Status: string(games.StatusWaiting), GameID: g.ID, Player1ID: g.Player1ID}
	if matched {
		resp.Status = "matched"
		resp.Player2ID = g.Player2ID
		h.hub.BroadcastGameState(g)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// MaxAnalyzeDepth bounds the work one analyze request can ask for.
const MaxAnalyzeDepth = 8

type analyzeRequest struct {
	Board  *games.Board  `json:"board"`
	Mark   games.Mark    `json:"mark"`
	Engine ai.EngineKind `json:"engine"`
	Depth  int           `json:"depth"`
}

type analyzeResponse struct {
	Column  int       `json:"column"`
	Score   float64   `json:"score"`
	Depth   int       `json:"depth"`
	Reason  ai.Reason `json:"reason"`
	Elapsed string    `json:"elapsed"`
	Stats   ai.Stats  `json:"stats"`
}

// Analyze runs the search on a posted board for the side given by mark and
// reports what it would play. The opening shortcut is not taken. A board
// that already holds a line of four is rejected.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Board == nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if req.Engine == "" {
		req.Engine = ai.EngineAlphaBeta
	}
	if !req.Mark.Placeable() {
		respondWithError(w, http.StatusBadRequest, "mark must be 1 or 2")
		return
	}
	if req.Depth > MaxAnalyzeDepth {
		respondWithError(w, http.StatusBadRequest, "depth must be at most "+strconv.Itoa(MaxAnalyzeDepth))
		return
	}
	if o := games.Scan(req.Board); o.Kind == games.Win {
		respondWithError(w, http.StatusBadRequest, "board is already won by player "+strconv.Itoa(int(o.Winner)))
		return
	}

	agent, err := h.analyzer(req.Engine, req.Mark, req.Depth)
	if err != nil {
		respondWithError(w, statusFor(err), err.Error())
		return
	}
	agent.SetOpponent(req.Mark.Opponent())
	agent.SkipOpening()
	if _, err := agent.ChooseMove(req.Board); err != nil {
		code := http.StatusBadRequest
		if !errors.Is(err, ai.ErrNoLegalMove) {
			code = http.StatusInternalServerError
		}
		respondWithError(w, code, err.Error())
		return
	}
	rep := agent.LastReport()
	respondWithJSON(w, http.StatusOK, analyzeResponse{
		Column:  rep.Column,
		Score:   rep.Score,
		Depth:   rep.Depth,
		Reason:  rep.Reason,
		Elapsed: rep.Elapsed.Round(time.Microsecond).String(),
		Stats:   rep.Stats,
	})
}

// Websocket handlers

func (h *Handler) GameWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade")
		return
	}
	log.Debug().Str("game", gameID).Str("remote", r.RemoteAddr).Msg("game-websocket")
	h.hub.HandleConnection(r.Context(), gameID, conn)
}

func (h *Handler) GlobalWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade")
		return
	}
	log.Debug().Str("remote", r.RemoteAddr).Msg("global-websocket")
	h.hub.HandleGlobalConnection(conn)
}
