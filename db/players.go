package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"connect4ai/games"
)

var ErrUsernameTaken = errors.New("username already taken")

// PlayerStore persists players, their records and finished games in SQLite.
type PlayerStore struct {
	conn *sql.DB
}

// OpenPlayerStore opens (or creates) the database at path. ":memory:" gives
// a private in-memory database.
func OpenPlayerStore(path string) (*PlayerStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer, and each in-memory connection would be
	// its own database.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	ps := &PlayerStore{conn: conn}
	if err := ps.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return ps, nil
}

func (ps *PlayerStore) Close() error {
	return ps.conn.Close()
}

func (ps *PlayerStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		draws INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS finished_games (
		id TEXT NOT NULL,
		round INTEGER NOT NULL DEFAULT 0,
		game_type TEXT NOT NULL,
		player1_id TEXT NOT NULL,
		player2_id TEXT NOT NULL,
		winner_id TEXT,
		moves TEXT NOT NULL,
		bot_kind TEXT,
		finished_at DATETIME NOT NULL,
		PRIMARY KEY (id, round)
	);

	CREATE INDEX IF NOT EXISTS idx_players_wins ON players(wins DESC);
	`
	if _, err := ps.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ----------------- PLAYER -----------------------

// CreatePlayer inserts p, filling in its id and creation time when unset.
func (ps *PlayerStore) CreatePlayer(ctx context.Context, p *games.Player) error {
	if p.ID == "" {
		p.ID = games.NewPlayerID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	tx, err := ps.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM players WHERE username = ?", p.Username).Scan(&exists)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrUsernameTaken, p.Username)
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO players (id, username, wins, losses, draws, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.Username, p.Wins, p.Losses, p.Draws, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return tx.Commit()
}

const playerColumns = "id, username, wins, losses, draws, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner) (*games.Player, error) {
	p := &games.Player{}
	if err := row.Scan(&p.ID, &p.Username, &p.Wins, &p.Losses, &p.Draws, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (ps *PlayerStore) GetPlayer(ctx context.Context, playerID string) (*games.Player, error) {
	row := ps.conn.QueryRowContext(ctx, "SELECT "+playerColumns+" FROM players WHERE id = ?", playerID)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (ps *PlayerStore) query(ctx context.Context, q string, args ...any) ([]*games.Player, error) {
	rows, err := ps.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*games.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// ListPlayers returns all players in creation order.
func (ps *PlayerStore) ListPlayers(ctx context.Context) ([]*games.Player, error) {
	return ps.query(ctx, "SELECT "+playerColumns+" FROM players ORDER BY created_at, username")
}

// GetLeaderboard returns players sorted by wins, then draws. limit <= 0
// means no limit.
func (ps *PlayerStore) GetLeaderboard(ctx context.Context, limit int) ([]*games.Player, error) {
	if limit <= 0 {
		limit = -1
	}
	return ps.query(ctx,
		"SELECT "+playerColumns+" FROM players ORDER BY wins DESC, draws DESC, losses ASC, username ASC LIMIT ?",
		limit)
}

// RecordResult stores a finished game and updates both players' records.
// The bot seat has no record. A game is keyed by id and round, so each
// game played after a Reset counts; recording the same round twice is a
// no-op.
func (ps *PlayerStore) RecordResult(ctx context.Context, g *games.Game) error {
	if g.Status != games.StatusFinished {
		return fmt.Errorf("record %s round %d: %w", g.ID, g.Round, games.ErrGameNotActive)
	}
	moves, err := json.Marshal(g.Moves)
	if err != nil {
		return err
	}

	tx, err := ps.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO finished_games
		(id, round, game_type, player1_id, player2_id, winner_id, moves, bot_kind, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Round, string(g.Type), g.Player1ID, g.Player2ID, g.WinnerID, string(moves), g.BotKind, g.LastMoveTime.UTC())
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return err
	}

	bump := func(playerID, column string) error {
		if playerID == "" || playerID == games.BotID {
			return nil
		}
		_, err := tx.ExecContext(ctx, "UPDATE players SET "+column+" = "+column+" + 1 WHERE id = ?", playerID)
		return err
	}
	for _, id := range []string{g.Player1ID, g.Player2ID} {
		column := "draws"
		switch g.WinnerID {
		case "":
		case id:
			column = "wins"
		default:
			column = "losses"
		}
		if err := bump(id, column); err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// FinishedGames is the number of games recorded for playerID.
func (ps *PlayerStore) FinishedGames(ctx context.Context, playerID string) (int, error) {
	var n int
	err := ps.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM finished_games WHERE player1_id = ? OR player2_id = ?",
		playerID, playerID).Scan(&n)
	return n, err
}
