package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/pgn-archive/internal/domain"
	"github.com/park285/pgn-archive/internal/names"
)

// memory is an in-process store for tests and local use.
type memory struct {
	mu sync.RWMutex

	nextPlayerID int64
	nextGameID   int64

	players     map[int64]*domain.Player
	playerIndex map[names.Name]int64
	games       map[int64]*domain.Game
	pairings    map[int64][]domain.Pairing // gameID -> pairings
}

func NewMemory() Store {
	return &memory{
		players:     make(map[int64]*domain.Player),
		playerIndex: make(map[names.Name]int64),
		games:       make(map[int64]*domain.Game),
		pairings:    make(map[int64][]domain.Pairing),
	}
}

func (m *memory) FindPlayer(ctx context.Context, first, last string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.findPlayer(first, last)
	return id, ok, nil
}

func (m *memory) CreatePlayer(ctx context.Context, first, last string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createPlayer(first, last, nil)
}

func (m *memory) CreateGame(ctx context.Context, game *domain.Game) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createGame(game, nil)
}

func (m *memory) CreatePairing(ctx context.Context, pairing domain.Pairing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createPairing(pairing, nil)
}

func (m *memory) ListGames(ctx context.Context) ([]*domain.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listGames(), nil
}

func (m *memory) GetGame(ctx context.Context, id int64) (*domain.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getGame(id), nil
}

func (m *memory) GamePlayers(ctx context.Context, gameID int64) ([]*domain.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gamePlayers(gameID), nil
}

func (m *memory) FindPairing(ctx context.Context, playerID, gameID int64) (*domain.Pairing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findPairing(playerID, gameID), nil
}

// Atomic holds the write lock for the whole of fn and undoes its writes on error.
func (m *memory) Atomic(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memoryTx{m: m}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (m *memory) findPlayer(first, last string) (int64, bool) {
	id, ok := m.playerIndex[playerKey(first, last)]
	return id, ok
}

func (m *memory) createPlayer(first, last string, undo *[]func()) (int64, error) {
	key := playerKey(first, last)
	if _, exists := m.playerIndex[key]; exists {
		return 0, ErrDuplicatePlayer
	}
	m.nextPlayerID++
	id := m.nextPlayerID
	m.players[id] = &domain.Player{ID: id, FirstName: strings.TrimSpace(first), LastName: strings.TrimSpace(last)}
	m.playerIndex[key] = id
	if undo != nil {
		*undo = append(*undo, func() {
			delete(m.players, id)
			delete(m.playerIndex, key)
		})
	}
	return id, nil
}

func (m *memory) createGame(game *domain.Game, undo *[]func()) (int64, error) {
	m.nextGameID++
	id := m.nextGameID
	g := *game
	g.ID = id
	m.games[id] = &g
	if undo != nil {
		*undo = append(*undo, func() { delete(m.games, id) })
	}
	return id, nil
}

func (m *memory) createPairing(p domain.Pairing, undo *[]func()) error {
	gameID := p.GameID
	prev := m.pairings[gameID]
	m.pairings[gameID] = append(append([]domain.Pairing(nil), prev...), p)
	if undo != nil {
		*undo = append(*undo, func() {
			if len(prev) == 0 {
				delete(m.pairings, gameID)
				return
			}
			m.pairings[gameID] = prev
		})
	}
	return nil
}

func (m *memory) listGames() []*domain.Game {
	out := make([]*domain.Game, 0, len(m.games))
	for _, g := range m.games {
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memory) getGame(id int64) *domain.Game {
	g, ok := m.games[id]
	if !ok {
		return nil
	}
	cp := *g
	return &cp
}

func (m *memory) gamePlayers(gameID int64) []*domain.Player {
	var out []*domain.Player
	seen := make(map[int64]bool)
	for _, p := range m.pairings[gameID] {
		if seen[p.PlayerID] {
			continue
		}
		seen[p.PlayerID] = true
		if pl, ok := m.players[p.PlayerID]; ok {
			cp := *pl
			out = append(out, &cp)
		}
	}
	return out
}

func (m *memory) findPairing(playerID, gameID int64) *domain.Pairing {
	for _, p := range m.pairings[gameID] {
		if p.PlayerID == playerID {
			cp := p
			return &cp
		}
	}
	return nil
}

// memoryTx runs against the locked store and records how to undo each write.
type memoryTx struct {
	m    *memory
	undo []func()
}

func (t *memoryTx) FindPlayer(ctx context.Context, first, last string) (int64, bool, error) {
	id, ok := t.m.findPlayer(first, last)
	return id, ok, nil
}

func (t *memoryTx) CreatePlayer(ctx context.Context, first, last string) (int64, error) {
	return t.m.createPlayer(first, last, &t.undo)
}

func (t *memoryTx) CreateGame(ctx context.Context, game *domain.Game) (int64, error) {
	return t.m.createGame(game, &t.undo)
}

func (t *memoryTx) CreatePairing(ctx context.Context, pairing domain.Pairing) error {
	return t.m.createPairing(pairing, &t.undo)
}

func (t *memoryTx) ListGames(ctx context.Context) ([]*domain.Game, error) {
	return t.m.listGames(), nil
}

func (t *memoryTx) GetGame(ctx context.Context, id int64) (*domain.Game, error) {
	return t.m.getGame(id), nil
}

func (t *memoryTx) GamePlayers(ctx context.Context, gameID int64) ([]*domain.Player, error) {
	return t.m.gamePlayers(gameID), nil
}

func (t *memoryTx) FindPairing(ctx context.Context, playerID, gameID int64) (*domain.Pairing, error) {
	return t.m.findPairing(playerID, gameID), nil
}

func (t *memoryTx) Atomic(ctx context.Context, fn func(Store) error) error {
	return fn(t)
}

func (t *memoryTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func playerKey(first, last string) names.Name {
	return names.Name{First: first, Last: last}.Trimmed()
}
