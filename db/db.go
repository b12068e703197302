package db

import (
	"errors"
	"sort"
	"sync"
	"time"

	"connect4ai/games"
)

var ErrNotFound = errors.New("not found")

// entry guards one live game. Bot searches run while holding it, so other
// games are never blocked by a slow reply. online is fixed at creation and
// read without the lock.
type entry struct {
	mu     sync.Mutex
	game   *games.Game
	online bool
}

func newEntry(g *games.Game) *entry {
	return &entry{game: g, online: g.Type == games.OnlineMultiplayer}
}

// Store keeps the live games in memory.
type Store struct {
	mu    sync.RWMutex
	games map[string]*entry
}

func NewStore() *Store {
	return &Store{games: make(map[string]*entry)}
}

// -------------------------- GAME ---------------------------

func (s *Store) SaveGame(g *games.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = newEntry(g)
}

func (s *Store) lookup(gameID string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, exists := s.games[gameID]
	if !exists {
		return nil, ErrNotFound
	}
	return e, nil
}

// GetGame returns a snapshot of the game.
func (s *Store) GetGame(gameID string) (*games.Game, error) {
	e, err := s.lookup(gameID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.game.Snapshot(), nil
}

// UpdateGame runs fn with the game locked and returns a snapshot taken
// after it. fn's error is returned as is; changes fn made before failing
// are kept.
func (s *Store) UpdateGame(gameID string, fn func(g *games.Game) error) (*games.Game, error) {
	e, err := s.lookup(gameID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.game); err != nil {
		return nil, err
	}
	return e.game.Snapshot(), nil
}

// ListGames returns snapshots of every game, oldest first.
func (s *Store) ListGames() []*games.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*games.Game, 0, len(s.games))
	for _, e := range s.games {
		e.mu.Lock()
		result = append(result, e.game.Snapshot())
		e.mu.Unlock()
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Matchmake seats playerID in the oldest online game waiting for a second
// player, or opens a new waiting game. matched reports which happened.
func (s *Store) Matchmake(playerID string) (g *games.Game, matched bool) {
	for {
		e := s.oldestWaiting(playerID)
		if e == nil {
			break
		}
		e.mu.Lock()
		// Another player may have taken the seat since the scan.
		if waitingFor(e.game, playerID) {
			e.game.Player2ID = playerID
			e.game.Status = games.StatusActive
			snap := e.game.Snapshot()
			e.mu.Unlock()
			return snap, true
		}
		e.mu.Unlock()
	}

	ng := games.NewGame(games.OnlineMultiplayer, playerID, "")
	snap := ng.Snapshot()
	s.SaveGame(ng)
	return snap, false
}

// oldestWaiting scans online games only, so a bot search holding a
// single-player game's lock never stalls matchmaking.
func (s *Store) oldestWaiting(playerID string) *entry {
	s.mu.RLock()
	candidates := make([]*entry, 0, len(s.games))
	for _, e := range s.games {
		if e.online {
			candidates = append(candidates, e)
		}
	}
	s.mu.RUnlock()

	var oldest *entry
	var oldestAt time.Time
	for _, e := range candidates {
		e.mu.Lock()
		ok := waitingFor(e.game, playerID)
		at := e.game.CreatedAt
		e.mu.Unlock()
		if ok && (oldest == nil || at.Before(oldestAt)) {
			oldest, oldestAt = e, at
		}
	}
	return oldest
}

func waitingFor(g *games.Game, playerID string) bool {
	return g.Status == games.StatusWaiting &&
		g.Player1ID != playerID &&
		g.Player2ID == ""
}
