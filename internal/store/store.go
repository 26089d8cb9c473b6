package store

import (
	"context"
	"errors"

	"github.com/park285/pgn-archive/internal/domain"
)

var ErrDuplicatePlayer = errors.New("player already exists")

// Store is the persistence collaborator of the archive.
// Reads return copies; callers never share entities with the store.
type Store interface {
	// FindPlayer looks a player up by exact first and last name.
	FindPlayer(ctx context.Context, first, last string) (int64, bool, error)
	CreatePlayer(ctx context.Context, first, last string) (int64, error)
	CreateGame(ctx context.Context, game *domain.Game) (int64, error)
	CreatePairing(ctx context.Context, pairing domain.Pairing) error

	// ListGames returns every game in ascending id order.
	ListGames(ctx context.Context) ([]*domain.Game, error)
	// GetGame returns nil, nil when the game does not exist.
	GetGame(ctx context.Context, id int64) (*domain.Game, error)
	GamePlayers(ctx context.Context, gameID int64) ([]*domain.Player, error)
	// FindPairing returns nil, nil when no pairing links the player to the game.
	FindPairing(ctx context.Context, playerID, gameID int64) (*domain.Pairing, error)

	// Atomic runs fn against a view whose writes become visible together,
	// or not at all if fn returns an error.
	Atomic(ctx context.Context, fn func(Store) error) error
}

var (
	_ Store = (*memory)(nil)
	_ Store = (*memoryTx)(nil)
	_ Store = (*Postgres)(nil)
	_ Store = (*Redis)(nil)
)
