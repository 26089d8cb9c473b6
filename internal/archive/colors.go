package archive

import (
	"context"
	"fmt"

	"github.com/park285/pgn-archive/internal/domain"
)

// ResolveColors works out which of a game's two players had white.
// Anything other than exactly one white and one black pairing is ErrMalformedPairing.
func (a *Archive) ResolveColors(ctx context.Context, game *domain.Game) (domain.ColoredPlayers, error) {
	var colored domain.ColoredPlayers
	if game == nil {
		return colored, ErrNilGame
	}
	players, err := a.store.GamePlayers(ctx, game.ID)
	if err != nil {
		return colored, err
	}
	if len(players) != 2 {
		return colored, fmt.Errorf("%w: game %d has %d players", ErrMalformedPairing, game.ID, len(players))
	}

	for _, p := range players {
		pairing, err := a.store.FindPairing(ctx, p.ID, game.ID)
		if err != nil {
			return domain.ColoredPlayers{}, err
		}
		if pairing == nil {
			return domain.ColoredPlayers{}, fmt.Errorf("%w: game %d has no pairing for player %d", ErrMalformedPairing, game.ID, p.ID)
		}
		switch {
		case pairing.Color == domain.White && colored.White == nil:
			colored.White = p
		case pairing.Color == domain.Black && colored.Black == nil:
			colored.Black = p
		default:
			return domain.ColoredPlayers{}, fmt.Errorf("%w: game %d has a second or unknown %q pairing", ErrMalformedPairing, game.ID, pairing.Color)
		}
	}
	return colored, nil
}
