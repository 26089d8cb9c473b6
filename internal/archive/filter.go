package archive

import (
	"context"
	"strings"

	"github.com/park285/pgn-archive/internal/domain"
	"github.com/park285/pgn-archive/internal/msgcat"
)

// Criteria narrows GetGames. Recognised keys are CriterionName and
// CriterionECO; a missing key imposes no constraint.
type Criteria map[string]string

const (
	CriterionName = "name"
	CriterionECO  = "eco"
)

// Matches reports whether a game satisfies every criterion present.
// name is a case-insensitive substring of either player's full name;
// eco is a case-insensitive exact match.
func Matches(game *domain.Game, colored domain.ColoredPlayers, c Criteria) bool {
	if eco, ok := c[CriterionECO]; ok && !strings.EqualFold(eco, game.ECO) {
		return false
	}
	if name, ok := c[CriterionName]; ok {
		needle := strings.ToLower(name)
		if !strings.Contains(strings.ToLower(colored.White.FullName()), needle) &&
			!strings.Contains(strings.ToLower(colored.Black.FullName()), needle) {
			return false
		}
	}
	return true
}

// GetGames returns stored games in id order, filtered by c when it is non-empty.
func (a *Archive) GetGames(ctx context.Context, c Criteria) ([]*domain.Game, error) {
	games, err := a.store.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	if len(c) == 0 {
		return games, nil
	}

	_, byName := c[CriterionName]
	kept := make([]*domain.Game, 0, len(games))
	for _, g := range games {
		var colored domain.ColoredPlayers
		if byName {
			if colored, err = a.ResolveColors(ctx, g); err != nil {
				return nil, err
			}
		}
		if Matches(g, colored, c) {
			kept = append(kept, g)
		}
	}
	a.diag(msgcat.KeyFilterResult, map[string]any{"Kept": len(kept), "Total": len(games)})
	return kept, nil
}

// GetGame returns nil, nil when the game does not exist.
func (a *Archive) GetGame(ctx context.Context, id int64) (*domain.Game, error) {
	return a.store.GetGame(ctx, id)
}
