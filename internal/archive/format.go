package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/pgn-archive/internal/domain"
	"github.com/park285/pgn-archive/internal/msgcat"
	"github.com/park285/pgn-archive/internal/pgn"
)

// ReturnType selects the output of FormatGame.
type ReturnType string

const (
	ReturnPGN  ReturnType = "pgn"
	ReturnDict ReturnType = "dict"
	ReturnJSON ReturnType = "json"
)

func (rt ReturnType) structured() bool {
	return rt == ReturnDict || rt == ReturnJSON
}

// Structured is the flat representation of a stored game.
type Structured struct {
	Event    string   `json:"event"`
	Site     string   `json:"site"`
	Date     string   `json:"date"`
	Round    string   `json:"round"`
	WhiteElo string   `json:"white_elo"`
	BlackElo string   `json:"black_elo"`
	White    string   `json:"white"`
	Black    string   `json:"black"`
	Moves    []string `json:"moves"`
	ECO      string   `json:"eco"`
}

// Formatted holds either PGN text or a Structured game.
type Formatted struct {
	PGN        string
	Structured *Structured
}

// MarshalJSON encodes the structured game as an object and PGN as a string.
func (f Formatted) MarshalJSON() ([]byte, error) {
	if f.Structured != nil {
		return json.Marshal(f.Structured)
	}
	return json.Marshal(f.PGN)
}

// ToStructured flattens a stored game and its resolved players.
func (a *Archive) ToStructured(game *domain.Game, colored domain.ColoredPlayers) *Structured {
	return &Structured{
		Event:    game.Event,
		Site:     game.Site,
		Date:     game.Date,
		Round:    game.Round,
		WhiteElo: game.WhiteElo,
		BlackElo: game.BlackElo,
		White:    colored.White.FullName(),
		Black:    colored.Black.FullName(),
		Moves:    splitMoves(game.Moves, a.moveDelimiter),
		ECO:      game.ECO,
	}
}

// ToText rebuilds the PGN text of a stored game. Tags the archive does not
// keep are written empty.
func (a *Archive) ToText(game *domain.Game, colored domain.ColoredPlayers) (string, error) {
	rec := pgn.Record{
		Event:    game.Event,
		Site:     game.Site,
		Date:     game.Date,
		Round:    game.Round,
		White:    colored.White.FullName(),
		Black:    colored.Black.FullName(),
		Result:   game.Result,
		WhiteElo: game.WhiteElo,
		BlackElo: game.BlackElo,
		ECO:      game.ECO,

		Annotator:   "",
		PlyCount:    "",
		TimeControl: "",
		Time:        "",
		Termination: "",
		Mode:        "",
		FEN:         "",

		Moves: splitMoves(game.Moves, a.moveDelimiter),
	}
	text, err := pgn.Write(rec)
	if err != nil {
		return "", fmt.Errorf("write game %d: %w", game.ID, err)
	}
	return text, nil
}

// FormatGame renders a stored game. ReturnDict and ReturnJSON give the
// structured form; any other value gives PGN text.
func (a *Archive) FormatGame(ctx context.Context, game *domain.Game, rt ReturnType) (*Formatted, error) {
	if game == nil {
		return nil, ErrNilGame
	}
	colored, err := a.ResolveColors(ctx, game)
	if err != nil {
		return nil, err
	}
	if rt.structured() {
		return &Formatted{Structured: a.ToStructured(game, colored)}, nil
	}
	text, err := a.ToText(game, colored)
	if err != nil {
		return nil, err
	}
	return &Formatted{PGN: text}, nil
}

// FormatGames formats each game in order and stops at the first error.
func (a *Archive) FormatGames(ctx context.Context, games []*domain.Game, rt ReturnType) ([]*Formatted, error) {
	a.diag(msgcat.KeyFormatGames, map[string]any{"Count": len(games), "Format": string(rt)})
	out := make([]*Formatted, 0, len(games))
	for _, g := range games {
		f, err := a.FormatGame(ctx, g, rt)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// UnparseGame formats the game the archive was created for. Without a game
// id it logs a diagnostic and returns nil, nil.
func (a *Archive) UnparseGame(ctx context.Context, rt ReturnType) (*Formatted, error) {
	if a.gameID == 0 {
		a.diag(msgcat.KeyMissingID, nil)
		return nil, nil
	}
	game, err := a.store.GetGame(ctx, a.gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("%w: %d", ErrGameNotFound, a.gameID)
	}
	a.logger.Debug("unparse_game", zap.Int64("game_id", a.gameID), zap.String("format", string(rt)))
	return a.FormatGame(ctx, game, rt)
}
