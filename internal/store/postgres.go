package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/pgn-archive/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id BIGSERIAL PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	UNIQUE (first_name, last_name)
);

CREATE TABLE IF NOT EXISTS games (
	id BIGSERIAL PRIMARY KEY,
	event TEXT NOT NULL DEFAULT '',
	site TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL DEFAULT '',
	match_round TEXT NOT NULL DEFAULT '',
	result TEXT NOT NULL DEFAULT '',
	white_elo TEXT NOT NULL DEFAULT '',
	black_elo TEXT NOT NULL DEFAULT '',
	moves TEXT NOT NULL DEFAULT '',
	eco TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS pairings (
	id BIGSERIAL PRIMARY KEY,
	game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	player_id BIGINT NOT NULL REFERENCES players(id),
	color TEXT NOT NULL CHECK (color IN ('white', 'black')),
	UNIQUE (game_id, color)
);

CREATE INDEX IF NOT EXISTS idx_pairings_player_game ON pairings(player_id, game_id);
`

const gameColumns = `id, event, site, date, match_round, result, white_elo, black_elo, moves, eco`

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres stores players, games and pairings in PostgreSQL.
type Postgres struct {
	db *sql.DB
	q  querier
	tx *sql.Tx
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, q: db}
}

// OpenPostgres opens and pings a connection pool.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgres(db), nil
}

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// EnsureSchema creates the archive tables when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.q.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) FindPlayer(ctx context.Context, first, last string) (int64, bool, error) {
	const query = `SELECT id FROM players WHERE first_name = $1 AND last_name = $2 LIMIT 1`
	var id int64
	err := p.q.QueryRowContext(ctx, query, strings.TrimSpace(first), strings.TrimSpace(last)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select player: %w", err)
	}
	return id, true, nil
}

func (p *Postgres) CreatePlayer(ctx context.Context, first, last string) (int64, error) {
	const query = `
		INSERT INTO players (first_name, last_name)
		VALUES ($1, $2)
		ON CONFLICT (first_name, last_name) DO NOTHING
		RETURNING id`
	var id int64
	err := p.q.QueryRowContext(ctx, query, strings.TrimSpace(first), strings.TrimSpace(last)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicatePlayer
	}
	if err != nil {
		return 0, fmt.Errorf("insert player: %w", err)
	}
	return id, nil
}

func (p *Postgres) CreateGame(ctx context.Context, game *domain.Game) (int64, error) {
	if game == nil {
		return 0, errors.New("nil game payload")
	}
	const query = `
		INSERT INTO games (
			event,
			site,
			date,
			match_round,
			result,
			white_elo,
			black_elo,
			moves,
			eco
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	var id int64
	err := p.q.QueryRowContext(
		ctx,
		query,
		game.Event,
		game.Site,
		game.Date,
		game.Round,
		game.Result,
		game.WhiteElo,
		game.BlackElo,
		game.Moves,
		game.ECO,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return id, nil
}

func (p *Postgres) CreatePairing(ctx context.Context, pairing domain.Pairing) error {
	const query = `INSERT INTO pairings (game_id, player_id, color) VALUES ($1, $2, $3)`
	if _, err := p.q.ExecContext(ctx, query, pairing.GameID, pairing.PlayerID, string(pairing.Color)); err != nil {
		return fmt.Errorf("insert pairing: %w", err)
	}
	return nil
}

func (p *Postgres) ListGames(ctx context.Context) ([]*domain.Game, error) {
	rows, err := p.q.QueryContext(ctx, `SELECT `+gameColumns+` FROM games ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.Game, 0)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

func (p *Postgres) GetGame(ctx context.Context, id int64) (*domain.Game, error) {
	row := p.q.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (p *Postgres) GamePlayers(ctx context.Context, gameID int64) ([]*domain.Player, error) {
	const query = `
		SELECT p.id, p.first_name, p.last_name
		FROM pairings pr
		JOIN players p ON p.id = pr.player_id
		WHERE pr.game_id = $1
		ORDER BY pr.id`
	rows, err := p.q.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("select game players: %w", err)
	}
	defer rows.Close()

	var players []*domain.Player
	for rows.Next() {
		var pl domain.Player
		if err := rows.Scan(&pl.ID, &pl.FirstName, &pl.LastName); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, &pl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game players: %w", err)
	}
	return players, nil
}

func (p *Postgres) FindPairing(ctx context.Context, playerID, gameID int64) (*domain.Pairing, error) {
	const query = `
		SELECT game_id, player_id, color
		FROM pairings
		WHERE player_id = $1 AND game_id = $2
		LIMIT 1`
	var (
		pairing domain.Pairing
		color   string
	)
	err := p.q.QueryRowContext(ctx, query, playerID, gameID).Scan(&pairing.GameID, &pairing.PlayerID, &color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select pairing: %w", err)
	}
	pairing.Color = domain.Color(color)
	return &pairing, nil
}

// Atomic runs fn inside a single transaction. Nested calls join the outer one.
func (p *Postgres) Atomic(ctx context.Context, fn func(Store) error) error {
	if p.tx != nil {
		return fn(p)
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Postgres{db: p.db, q: tx, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.Game, error) {
	var g domain.Game
	err := row.Scan(
		&g.ID,
		&g.Event,
		&g.Site,
		&g.Date,
		&g.Round,
		&g.Result,
		&g.WhiteElo,
		&g.BlackElo,
		&g.Moves,
		&g.ECO,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan game: %w", err)
	}
	return &g, nil
}
