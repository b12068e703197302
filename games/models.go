package games

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	ErrGameNotActive = errors.New("game is not active")
	ErrNotInGame     = errors.New("player is not in this game")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrNoBot         = errors.New("game has no bot seat")
)

type GameStatus string

type GameType string

// Agent is the single capability every move-selection strategy offers:
// pick a column for the current board. Implementations live in package ai.
type Agent interface {
	ChooseMove(b *Board) (int, error)
	Mark() Mark
	// NewGame drops any per-game state before a fresh board.
	NewGame()
}

type Game struct {
	ID           string     `json:"id"`
	Round        int        `json:"round"`
	Type         GameType   `json:"type"`
	Board        *Board     `json:"board"`
	CurrentTurn  Mark       `json:"currentTurn"`
	Player1ID    string     `json:"player1Id"`
	Player2ID    string     `json:"player2Id"` // BotID for single player
	WinnerID     string     `json:"winnerId,omitempty"`
	Status       GameStatus `json:"status"`
	Moves        []int      `json:"moves"`
	BotKind      string     `json:"botKind,omitempty"`
	LastMoveTime time.Time  `json:"lastMoveTime"`
	CreatedAt    time.Time  `json:"createdAt"`
	Bot          Agent      `json:"-"`
}

type Player struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Draws     int       `json:"draws"`
	CreatedAt time.Time `json:"createdAt"`
}

type Move struct {
	PlayerID string `json:"playerId"`
	Column   int    `json:"column"`
}

func NewPlayer(username string) *Player {
	return &Player{
		ID:        NewPlayerID(),
		Username:  username,
		CreatedAt: time.Now(),
	}
}

// NewGame creates a new game with an empty board. PlayerOne always starts.
func NewGame(gameType GameType, player1ID, player2ID string) *Game {
	return &Game{
		ID:          NewGameID(),
		Type:        gameType,
		Board:       NewStandardBoard(),
		CurrentTurn: PlayerOne,
		Player1ID:   player1ID,
		Player2ID:   player2ID,
		Status:      StatusWaiting,
		Moves:       []int{},
		CreatedAt:   time.Now(),
	}
}

// SeatBot hands the bot seat of the game to a. The seat must match a's mark.
func (g *Game) SeatBot(kind string, a Agent) error {
	switch a.Mark() {
	case PlayerOne:
		g.Player1ID = BotID
	case PlayerTwo:
		g.Player2ID = BotID
	default:
		return fmt.Errorf("bot has no placeable mark")
	}
	g.Bot = a
	g.BotKind = kind
	return nil
}

// MarkFor returns the mark played by playerID.
func (g *Game) MarkFor(playerID string) (Mark, error) {
	switch playerID {
	case g.Player1ID:
		return PlayerOne, nil
	case g.Player2ID:
		return PlayerTwo, nil
	}
	return Empty, ErrNotInGame
}

// PlayerFor returns the id seated with mark m.
func (g *Game) PlayerFor(m Mark) string {
	if m == PlayerOne {
		return g.Player1ID
	}
	return g.Player2ID
}

// MakeMove drops the player's token into column and settles win, draw or
// the turn change.
func (g *Game) MakeMove(playerID string, column int) error {
	if g.Status != StatusActive {
		return ErrGameNotActive
	}
	playerToken, err := g.MarkFor(playerID)
	if err != nil {
		return err
	}
	if playerToken != g.CurrentTurn {
		return ErrNotYourTurn
	}

	if _, err := ApplyMove(g.Board, column, playerToken); err != nil {
		return err
	}
	g.Moves = append(g.Moves, column)
	g.LastMoveTime = time.Now()

	switch out := OutcomeOf(g.Board, column, playerToken); out.Kind {
	case Win:
		g.Status = StatusFinished
		g.WinnerID = g.PlayerFor(out.Winner)
	case Draw:
		g.Status = StatusFinished
	default:
		g.CurrentTurn = g.CurrentTurn.Opponent()
	}
	return nil
}

// BotToMove reports whether the bot seat is on turn in an active game.
func (g *Game) BotToMove() bool {
	return g.Bot != nil && g.Status == StatusActive && g.Bot.Mark() == g.CurrentTurn
}

// PlayBot asks the bot for a column and plays it.
func (g *Game) PlayBot() (int, error) {
	if g.Bot == nil {
		return -1, ErrNoBot
	}
	col, err := g.Bot.ChooseMove(g.Board)
	if err != nil {
		return -1, fmt.Errorf("bot move: %w", err)
	}
	if err := g.MakeMove(BotID, col); err != nil {
		return -1, fmt.Errorf("bot move %d: %w", col, err)
	}
	return col, nil
}

// Reset clears the board. The previous winner moves first; after a draw
// PlayerOne does.
func (g *Game) Reset() {
	g.CurrentTurn = PlayerOne
	if g.WinnerID != "" && g.WinnerID == g.Player2ID {
		g.CurrentTurn = PlayerTwo
	}
	g.Board = NewStandardBoard()
	g.Moves = []int{}
	g.Round++
	g.Status = StatusActive
	g.WinnerID = ""
	g.LastMoveTime = time.Now()
	if g.Bot != nil {
		g.Bot.NewGame()
	}
}

// Snapshot copies the game so it can be encoded while the live game keeps
// changing. The bot seat is shared.
func (g *Game) Snapshot() *Game {
	c := *g
	c.Board = g.Board.Clone()
	c.Moves = slices.Clone(g.Moves)
	return &c
}

func NewGameID() string {
	return "game_" + uuid.NewString()
}

func NewPlayerID() string {
	return "player_" + uuid.NewString()
}
