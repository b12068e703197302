package db

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"connect4ai/games"
)

type MessageType string

// message types for websocket messages
const (
	TypeGameState     MessageType = "gameState"
	TypeMove          MessageType = "move"
	TypeError         MessageType = "error"
	TypeJoinGame      MessageType = "joinGame"
	TypeResetRequest  MessageType = "resetRequest"
	TypeResetConfirm  MessageType = "resetConfirm"
	TypeResetGame     MessageType = "resetGame"
	TypeResetRejected MessageType = "resetRejected"
	TypeConnected     MessageType = "connected"
	TypeGameCreated   MessageType = "gameCreated"
	TypeGameStart     MessageType = "gameStart"
)

const (
	lobbyKey     = "global"
	readTimeout  = 2 * time.Minute
	pingInterval = 60 * time.Second
	writeTimeout = 10 * time.Second
)

var ErrResetNeedsConfirm = errors.New("online games reset only after the other player confirms")

type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

// Hub connects live games to their websocket clients and applies moves
// coming from either websockets or the REST handlers.
type Hub struct {
	store   *Store
	players *PlayerStore

	mu          sync.Mutex
	connections map[string][]*websocket.Conn
	playerConns map[string]*websocket.Conn
}

// NewHub builds a hub over store. players may be nil, in which case
// finished games are not recorded.
func NewHub(store *Store, players *PlayerStore) *Hub {
	return &Hub{
		store:       store,
		players:     players,
		connections: make(map[string][]*websocket.Conn),
		playerConns: make(map[string]*websocket.Conn),
	}
}

func (h *Hub) Store() *Store { return h.store }

func (h *Hub) register(key string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[key] = append(h.connections[key], conn)
}

func (h *Hub) remove(key string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(key, conn)
}

func (h *Hub) removeLocked(key string, conn *websocket.Conn) {
	conns := h.connections[key]
	for i, c := range conns {
		if c == conn {
			h.connections[key] = append(conns[:i:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[key]) == 0 {
		delete(h.connections, key)
	}
	for id, c := range h.playerConns {
		if c == conn {
			delete(h.playerConns, id)
		}
	}
}

// Connections counts the sockets watching key.
func (h *Hub) Connections(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections[key])
}

func encode(t MessageType, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return json.Marshal(Message{Type: t, Payload: raw})
}

// writeLocked sends one text frame; h.mu must be held so writes to a
// connection never interleave.
func writeLocked(conn *websocket.Conn, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) send(conn *websocket.Conn, t MessageType, payload any) {
	data, err := encode(t, payload)
	if err != nil {
		log.Error().Err(err).Str("type", string(t)).Msg("encode-message")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := writeLocked(conn, data); err != nil {
		log.Warn().Err(err).Str("type", string(t)).Msg("send-message")
	}
}

func (h *Hub) sendError(conn *websocket.Conn, text string) {
	h.send(conn, TypeError, ErrorMessage{Error: text})
}

// broadcast sends a message to every connection on key, dropping the ones
// that fail.
func (h *Hub) broadcast(key string, t MessageType, payload any) {
	data, err := encode(t, payload)
	if err != nil {
		log.Error().Err(err).Str("type", string(t)).Msg("encode-message")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range append([]*websocket.Conn(nil), h.connections[key]...) {
		if err := writeLocked(conn, data); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("broadcast")
			conn.Close()
			h.removeLocked(key, conn)
		}
	}
}

// BroadcastGameState pushes g to every client of its game.
func (h *Hub) BroadcastGameState(g *games.Game) {
	log.Debug().Str("game", g.ID).Msg("broadcast-state")
	h.broadcast(g.ID, TypeGameState, g)
}

// Move plays playerID's column and, in a bot game, the bot's reply, then
// records a finished game and broadcasts the new state. If the bot fails,
// the human move still stands and is broadcast; the state is returned with
// the bot's error.
func (h *Hub) Move(ctx context.Context, gameID, playerID string, column int) (*games.Game, error) {
	var botErr error
	g, err := h.store.UpdateGame(gameID, func(g *games.Game) error {
		if err := g.MakeMove(playerID, column); err != nil {
			return err
		}
		botErr = replyBot(g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.settle(ctx, g)
	return g, botErr
}

// Reset restarts a game; if the bot is to move first it plays at once.
// Like Move, a failing bot does not hold back the broadcast.
func (h *Hub) Reset(ctx context.Context, gameID string) (*games.Game, error) {
	var botErr error
	g, err := h.store.UpdateGame(gameID, func(g *games.Game) error {
		g.Reset()
		botErr = replyBot(g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.broadcast(gameID, TypeResetGame, nil)
	h.settle(ctx, g)
	return g, botErr
}

func replyBot(g *games.Game) error {
	if !g.BotToMove() {
		return nil
	}
	col, err := g.PlayBot()
	if err != nil {
		return err
	}
	log.Info().Str("game", g.ID).Str("bot", g.BotKind).Int("column", col).Msg("bot-move")
	return nil
}

func (h *Hub) settle(ctx context.Context, g *games.Game) {
	if g.Status == games.StatusFinished && h.players != nil {
		if err := h.players.RecordResult(ctx, g); err != nil {
			log.Error().Err(err).Str("game", g.ID).Msg("record-result")
		}
	}
	h.BroadcastGameState(g)
}

func keepAlive(conn *websocket.Conn) func() {
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	ticker := time.NewTicker(pingInterval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
					return
				}
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}

// HandleConnection serves one client of a game until it disconnects.
func (h *Hub) HandleConnection(ctx context.Context, gameID string, conn *websocket.Conn) {
	logger := log.With().Str("game", gameID).Str("remote", conn.RemoteAddr().String()).Logger()
	defer func() {
		conn.Close()
		h.remove(gameID, conn)
		logger.Debug().Msg("game-connection-closed")
	}()

	game, err := h.store.GetGame(gameID)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}
	h.register(gameID, conn)
	stop := keepAlive(conn)
	defer stop()

	h.send(conn, TypeGameState, game)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			logger.Debug().Err(err).Msg("read-message")
			return
		}
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			h.sendError(conn, "malformed message")
			continue
		}

		switch message.Type {
		case TypeMove:
			var move games.Move
			if err := json.Unmarshal(message.Payload, &move); err != nil {
				h.sendError(conn, "malformed move")
				continue
			}
			logger.Info().Str("player", move.PlayerID).Int("column", move.Column).Msg("move")
			if _, err := h.Move(ctx, gameID, move.PlayerID, move.Column); err != nil {
				h.sendError(conn, err.Error())
			}

		case TypeJoinGame:
			var req playerRequest
			if err := json.Unmarshal(message.Payload, &req); err != nil || req.PlayerID == "" {
				h.sendError(conn, "malformed join request")
				continue
			}
			g, err := h.store.UpdateGame(gameID, func(g *games.Game) error {
				if g.Player1ID == req.PlayerID || g.Player2ID == req.PlayerID {
					return nil
				}
				if g.Player2ID != "" {
					return games.ErrGameNotActive
				}
				g.Player2ID = req.PlayerID
				g.Status = games.StatusActive
				return nil
			})
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			logger.Info().Str("player", req.PlayerID).Msg("joined")
			h.BroadcastGameState(g)

		case TypeResetGame:
			g, err := h.store.GetGame(gameID)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			if g.Type == games.OnlineMultiplayer {
				h.sendError(conn, ErrResetNeedsConfirm.Error())
				continue
			}
			if _, err := h.Reset(ctx, gameID); err != nil {
				h.sendError(conn, err.Error())
			}

		case TypeResetRequest:
			var req playerRequest
			if err := json.Unmarshal(message.Payload, &req); err != nil {
				h.sendError(conn, "malformed reset request")
				continue
			}
			g, err := h.store.GetGame(gameID)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			if _, err := g.MarkFor(req.PlayerID); err != nil {
				h.sendError(conn, "You are not a player in this game")
				continue
			}
			other := g.Player1ID
			if req.PlayerID == g.Player1ID {
				other = g.Player2ID
			}
			logger.Info().Str("player", req.PlayerID).Str("other", other).Msg("reset-requested")
			h.notifyPlayer(other, gameID, TypeResetRequest, struct {
				RequestingPlayerID string `json:"requestingPlayerId"`
			}{req.PlayerID})

		case TypeResetConfirm:
			var req struct {
				PlayerID string `json:"playerId"`
				Confirm  bool   `json:"confirm"`
			}
			if err := json.Unmarshal(message.Payload, &req); err != nil {
				h.sendError(conn, "malformed reset confirmation")
				continue
			}
			g, err := h.store.GetGame(gameID)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			if _, err := g.MarkFor(req.PlayerID); err != nil {
				h.sendError(conn, "You are not a player in this game")
				continue
			}
			if !req.Confirm {
				h.broadcast(gameID, TypeResetRejected, struct {
					RejectingPlayerID string `json:"rejectingPlayerId"`
				}{req.PlayerID})
				continue
			}
			if _, err := h.Reset(ctx, gameID); err != nil {
				h.sendError(conn, err.Error())
			}

		default:
			h.sendError(conn, "unknown message type "+string(message.Type))
		}
	}
}

// notifyPlayer sends to the lobby connection of playerID, falling back to
// everyone watching the game.
func (h *Hub) notifyPlayer(playerID, gameID string, t MessageType, payload any) {
	h.mu.Lock()
	conn := h.playerConns[playerID]
	h.mu.Unlock()
	if conn == nil {
		h.broadcast(gameID, t, payload)
		return
	}
	h.send(conn, t, payload)
}

type gameCreated struct {
	GameID    string `json:"gameId"`
	Player1ID string `json:"player1Id"`
}

type gameStart struct {
	GameID    string `json:"gameId"`
	Player1ID string `json:"player1Id"`
	Player2ID string `json:"player2Id"`
}

// HandleGlobalConnection serves a lobby client: joinGame messages are
// matched against waiting online games.
func (h *Hub) HandleGlobalConnection(conn *websocket.Conn) {
	h.register(lobbyKey, conn)
	defer func() {
		conn.Close()
		h.remove(lobbyKey, conn)
		log.Debug().Msg("global-connection-closed")
	}()

	h.send(conn, TypeConnected, struct {
		Message string `json:"message"`
	}{"Successfully connected to game server"})

	stop := keepAlive(conn)
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("read-message")
			return
		}
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			h.sendError(conn, "malformed message")
			continue
		}
		if message.Type != TypeJoinGame {
			h.sendError(conn, "unknown message type "+string(message.Type))
			continue
		}

		var req playerRequest
		if err := json.Unmarshal(message.Payload, &req); err != nil || req.PlayerID == "" {
			h.sendError(conn, "malformed join request")
			continue
		}
		h.mu.Lock()
		h.playerConns[req.PlayerID] = conn
		h.mu.Unlock()

		g, matched := h.store.Matchmake(req.PlayerID)
		if !matched {
			log.Info().Str("player", req.PlayerID).Str("game", g.ID).Msg("game-created")
			h.send(conn, TypeGameCreated, gameCreated{GameID: g.ID, Player1ID: g.Player1ID})
			continue
		}

		log.Info().Str("player", req.PlayerID).Str("game", g.ID).Msg("game-matched")
		start := gameStart{GameID: g.ID, Player1ID: g.Player1ID, Player2ID: g.Player2ID}
		h.send(conn, TypeGameStart, start)
		h.mu.Lock()
		first := h.playerConns[g.Player1ID]
		h.mu.Unlock()
		if first != nil {
			h.send(first, TypeGameStart, start)
		} else {
			log.Warn().Str("player", g.Player1ID).Msg("no connection for player one")
		}
	}
}
