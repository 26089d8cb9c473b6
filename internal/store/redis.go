package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/park285/pgn-archive/internal/domain"
)

const (
	keyPlayerSeq   = "pgn:seq:player"
	keyGameSeq     = "pgn:seq:game"
	keyPlayerIndex = "pgn:players:index"
	keyGames       = "pgn:games"
)

func keyPlayer(id int64) string   { return "pgn:player:" + strconv.FormatInt(id, 10) }
func keyGame(id int64) string     { return "pgn:game:" + strconv.FormatInt(id, 10) }
func keyPairings(id int64) string { return keyGame(id) + ":pairings" }

// Redis stores archive rows as JSON values with index sets. Writes made inside
// Atomic are buffered and committed in one MULTI/EXEC.
type Redis struct {
	rdb     *redis.Client
	pending *redisBatch
}

type redisBatch struct {
	players  []*domain.Player
	games    []*domain.Game
	pairings []domain.Pairing
}

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

// ParseRedisURL converts redis://[:password@]host:port/db into client options.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Host
	if u.Port() == "" {
		host = u.Hostname() + ":6379"
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: host, Password: pass, DB: db}, nil
}

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

func (r *Redis) FindPlayer(ctx context.Context, first, last string) (int64, bool, error) {
	key := playerKey(first, last)
	if r.pending != nil {
		for _, p := range r.pending.players {
			if playerKey(p.FirstName, p.LastName) == key {
				return p.ID, true, nil
			}
		}
	}
	raw, err := r.rdb.HGet(ctx, keyPlayerIndex, key.Key()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup player: %w", err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse player id %q: %w", raw, err)
	}
	return id, true, nil
}

func (r *Redis) CreatePlayer(ctx context.Context, first, last string) (int64, error) {
	if r.pending == nil {
		var id int64
		err := r.Atomic(ctx, func(s Store) error {
			var err error
			id, err = s.CreatePlayer(ctx, first, last)
			return err
		})
		return id, err
	}
	if _, exists, err := r.FindPlayer(ctx, first, last); err != nil {
		return 0, err
	} else if exists {
		return 0, ErrDuplicatePlayer
	}
	id, err := r.rdb.Incr(ctx, keyPlayerSeq).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate player id: %w", err)
	}
	r.pending.players = append(r.pending.players, &domain.Player{
		ID:        id,
		FirstName: strings.TrimSpace(first),
		LastName:  strings.TrimSpace(last),
	})
	return id, nil
}

func (r *Redis) CreateGame(ctx context.Context, game *domain.Game) (int64, error) {
	if game == nil {
		return 0, errors.New("nil game payload")
	}
	if r.pending == nil {
		var id int64
		err := r.Atomic(ctx, func(s Store) error {
			var err error
			id, err = s.CreateGame(ctx, game)
			return err
		})
		return id, err
	}
	id, err := r.rdb.Incr(ctx, keyGameSeq).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate game id: %w", err)
	}
	copy := *game
	copy.ID = id
	r.pending.games = append(r.pending.games, &copy)
	return id, nil
}

func (r *Redis) CreatePairing(ctx context.Context, pairing domain.Pairing) error {
	if r.pending == nil {
		return r.Atomic(ctx, func(s Store) error { return s.CreatePairing(ctx, pairing) })
	}
	r.pending.pairings = append(r.pending.pairings, pairing)
	return nil
}

func (r *Redis) ListGames(ctx context.Context) ([]*domain.Game, error) {
	ids, err := r.rdb.ZRange(ctx, keyGames, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list game ids: %w", err)
	}
	games := make([]*domain.Game, 0, len(ids))
	if len(ids) > 0 {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = "pgn:game:" + id
		}
		vals, err := r.rdb.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("load games: %w", err)
		}
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				continue
			}
			var g domain.Game
			if err := json.Unmarshal([]byte(s), &g); err != nil {
				return nil, fmt.Errorf("decode %s: %w", keys[i], err)
			}
			games = append(games, &g)
		}
	}
	if r.pending != nil {
		for _, g := range r.pending.games {
			copy := *g
			games = append(games, &copy)
		}
		sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	}
	return games, nil
}

func (r *Redis) GetGame(ctx context.Context, id int64) (*domain.Game, error) {
	if r.pending != nil {
		for _, g := range r.pending.games {
			if g.ID == id {
				copy := *g
				return &copy, nil
			}
		}
	}
	var g domain.Game
	found, err := r.loadJSON(ctx, keyGame(id), &g)
	if err != nil || !found {
		return nil, err
	}
	return &g, nil
}

func (r *Redis) GamePlayers(ctx context.Context, gameID int64) ([]*domain.Player, error) {
	colors, err := r.pairingColors(ctx, gameID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(colors))
	for id := range colors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	players := make([]*domain.Player, 0, len(ids))
	for _, id := range ids {
		p, err := r.getPlayer(ctx, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			players = append(players, p)
		}
	}
	return players, nil
}

func (r *Redis) FindPairing(ctx context.Context, playerID, gameID int64) (*domain.Pairing, error) {
	colors, err := r.pairingColors(ctx, gameID)
	if err != nil {
		return nil, err
	}
	color, ok := colors[playerID]
	if !ok {
		return nil, nil
	}
	return &domain.Pairing{GameID: gameID, PlayerID: playerID, Color: color}, nil
}

// Atomic buffers writes made by fn and commits them in one MULTI/EXEC.
// Ids are allocated eagerly, so a rolled back batch leaves gaps.
func (r *Redis) Atomic(ctx context.Context, fn func(Store) error) error {
	if r.pending != nil {
		return fn(r)
	}
	tx := &Redis{rdb: r.rdb, pending: &redisBatch{}}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}

func (r *Redis) commit(ctx context.Context) error {
	b := r.pending
	if len(b.players) == 0 && len(b.games) == 0 && len(b.pairings) == 0 {
		return nil
	}
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, p := range b.players {
			raw, err := json.Marshal(p)
			if err != nil {
				return err
			}
			pipe.Set(ctx, keyPlayer(p.ID), raw, 0)
			pipe.HSet(ctx, keyPlayerIndex, playerKey(p.FirstName, p.LastName).Key(), p.ID)
		}
		for _, g := range b.games {
			raw, err := json.Marshal(g)
			if err != nil {
				return err
			}
			pipe.Set(ctx, keyGame(g.ID), raw, 0)
			pipe.ZAdd(ctx, keyGames, redis.Z{Score: float64(g.ID), Member: strconv.FormatInt(g.ID, 10)})
		}
		for _, p := range b.pairings {
			pipe.HSet(ctx, keyPairings(p.GameID), strconv.FormatInt(p.PlayerID, 10), string(p.Color))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	r.pending = &redisBatch{}
	return nil
}

func (r *Redis) pairingColors(ctx context.Context, gameID int64) (map[int64]domain.Color, error) {
	raw, err := r.rdb.HGetAll(ctx, keyPairings(gameID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load pairings: %w", err)
	}
	out := make(map[int64]domain.Color, len(raw)+2)
	for field, color := range raw {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse pairing player id %q: %w", field, err)
		}
		out[id] = domain.Color(color)
	}
	if r.pending != nil {
		for _, p := range r.pending.pairings {
			if p.GameID == gameID {
				out[p.PlayerID] = p.Color
			}
		}
	}
	return out, nil
}

func (r *Redis) getPlayer(ctx context.Context, id int64) (*domain.Player, error) {
	if r.pending != nil {
		for _, p := range r.pending.players {
			if p.ID == id {
				copy := *p
				return &copy, nil
			}
		}
	}
	var p domain.Player
	found, err := r.loadJSON(ctx, keyPlayer(id), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (r *Redis) loadJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
