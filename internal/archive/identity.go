package archive

import (
	"context"
	"errors"
	"strings"

	"github.com/park285/pgn-archive/internal/names"
	"github.com/park285/pgn-archive/internal/store"
)

func findPlayer(ctx context.Context, s store.Store, n names.Name) (int64, bool, error) {
	return s.FindPlayer(ctx, strings.TrimSpace(n.First), strings.TrimSpace(n.Last))
}

// ensurePlayer returns the id of the player with this exact name, creating it if needed.
func ensurePlayer(ctx context.Context, s store.Store, n names.Name) (int64, error) {
	id, found, err := findPlayer(ctx, s, n)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}
	id, err = s.CreatePlayer(ctx, strings.TrimSpace(n.First), strings.TrimSpace(n.Last))
	if errors.Is(err, store.ErrDuplicatePlayer) {
		// created by someone else since the lookup
		id, _, err = findPlayer(ctx, s, n)
	}
	return id, err
}

// PlayerID looks up a stored player by parsed name.
func (a *Archive) PlayerID(ctx context.Context, n names.Name) (int64, bool, error) {
	return findPlayer(ctx, a.store, n)
}

// PlayerIDByString parses a "Last, First" string before looking the player up.
func (a *Archive) PlayerIDByString(ctx context.Context, raw string) (int64, bool, error) {
	return a.PlayerID(ctx, names.Parse(raw))
}
