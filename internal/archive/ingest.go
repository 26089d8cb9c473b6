package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/pgn-archive/internal/domain"
	"github.com/park285/pgn-archive/internal/msgcat"
	"github.com/park285/pgn-archive/internal/names"
	"github.com/park285/pgn-archive/internal/pgn"
	"github.com/park285/pgn-archive/internal/store"
)

type pendingGame struct {
	white names.Name
	black names.Name
	game  domain.Game
}

// AddGames stores every parsed game in payload order. Each game's players,
// game row and pairings commit together. The first failure stops the batch;
// games before it stay stored.
func (a *Archive) AddGames(ctx context.Context) error {
	if len(a.parsed) == 0 {
		a.diag(msgcat.KeyEmptyBatch, nil)
		return nil
	}

	pending := make([]pendingGame, 0, len(a.parsed))
	for i, rec := range a.parsed {
		pg, err := a.prepare(rec)
		if err != nil {
			return fmt.Errorf("game %d (%s vs %s): %w", i+1, rec.White, rec.Black, err)
		}
		pending = append(pending, pg)
	}

	batchID := uuid.NewString()
	for i, pg := range pending {
		rec := a.parsed[i]
		a.diag(msgcat.KeyAddingGame,
			map[string]any{"White": rec.White, "Black": rec.Black, "Date": rec.Date},
			zap.String("batch_id", batchID), zap.Int("index", i+1))

		gameID, err := a.addGame(ctx, pg)
		if err != nil {
			a.logger.Error("add_game_failed",
				zap.String("batch_id", batchID),
				zap.Int("index", i+1),
				zap.Error(err),
			)
			return fmt.Errorf("add game %d (%s vs %s): %w", i+1, rec.White, rec.Black, err)
		}
		a.logger.Debug("game_added", zap.String("batch_id", batchID), zap.Int64("game_id", gameID))
	}
	a.diag(msgcat.KeyBatchDone, map[string]any{"Count": len(pending)}, zap.String("batch_id", batchID))
	return nil
}

// prepare checks a record and builds its game row without touching the store.
func (a *Archive) prepare(rec pgn.Record) (pendingGame, error) {
	white, black := names.Parse(rec.White), names.Parse(rec.Black)
	if white.Same(black) {
		return pendingGame{}, fmt.Errorf("%w: %q", ErrSelfPairing, rec.White)
	}
	if a.validateMoves {
		if _, err := pgn.Replay(rec.Moves); err != nil {
			return pendingGame{}, err
		}
	}
	moves, err := joinMoves(rec.Moves, a.moveDelimiter)
	if err != nil {
		return pendingGame{}, err
	}
	return pendingGame{
		white: white,
		black: black,
		game: domain.Game{
			Event:    rec.Event,
			Site:     rec.Site,
			Date:     rec.Date,
			Round:    rec.Round,
			Result:   rec.Result,
			WhiteElo: rec.WhiteElo,
			BlackElo: rec.BlackElo,
			Moves:    moves,
			ECO:      rec.ECO,
		},
	}, nil
}

func (a *Archive) addGame(ctx context.Context, pg pendingGame) (int64, error) {
	var gameID int64
	err := a.store.Atomic(ctx, func(tx store.Store) error {
		whiteID, err := ensurePlayer(ctx, tx, pg.white)
		if err != nil {
			return fmt.Errorf("ensure white player: %w", err)
		}
		blackID, err := ensurePlayer(ctx, tx, pg.black)
		if err != nil {
			return fmt.Errorf("ensure black player: %w", err)
		}
		game := pg.game
		gameID, err = tx.CreateGame(ctx, &game)
		if err != nil {
			return err
		}
		if err := tx.CreatePairing(ctx, domain.Pairing{GameID: gameID, PlayerID: blackID, Color: domain.Black}); err != nil {
			return err
		}
		return tx.CreatePairing(ctx, domain.Pairing{GameID: gameID, PlayerID: whiteID, Color: domain.White})
	})
	return gameID, err
}

func joinMoves(moves []string, delim string) (string, error) {
	for i, mv := range moves {
		if strings.Contains(mv, delim) {
			return "", fmt.Errorf("%w: move %d %q, delimiter %q", ErrDelimiterInMove, i+1, mv, delim)
		}
	}
	return strings.Join(moves, delim), nil
}

func splitMoves(stored, delim string) []string {
	if stored == "" {
		return []string{}
	}
	return strings.Split(stored, delim)
}
