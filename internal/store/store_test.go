package store

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/pgn-archive/internal/domain"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb), mr
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	r, _ := newTestRedis(t)
	return map[string]Store{
		"memory": NewMemory(),
		"redis":  r,
	}
}

func TestPlayersFindAndCreate(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, found, err := s.FindPlayer(ctx, "John", "Smith"); err != nil || found {
				t.Fatalf("FindPlayer on empty store: found=%v err=%v", found, err)
			}
			id, err := s.CreatePlayer(ctx, "John", "Smith")
			if err != nil {
				t.Fatalf("CreatePlayer: %v", err)
			}
			got, found, err := s.FindPlayer(ctx, " John ", "Smith ")
			if err != nil || !found || got != id {
				t.Fatalf("FindPlayer = %d,%v,%v want %d", got, found, err, id)
			}
			if _, found, _ := s.FindPlayer(ctx, "john", "Smith"); found {
				t.Fatalf("lookup must be case-sensitive")
			}
			if _, err := s.CreatePlayer(ctx, "John", "Smith"); !errors.Is(err, ErrDuplicatePlayer) {
				t.Fatalf("duplicate CreatePlayer err = %v", err)
			}
		})
	}
}

func TestPlayersWithSeparatorInName(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first, err := s.CreatePlayer(ctx, "X", "A|B")
			if err != nil {
				t.Fatalf("CreatePlayer(A|B, X): %v", err)
			}
			second, err := s.CreatePlayer(ctx, "B|X", "A")
			if err != nil {
				t.Fatalf("CreatePlayer(A, B|X): %v", err)
			}
			if first == second {
				t.Fatalf("distinct names share id %d", first)
			}
			got, found, err := s.FindPlayer(ctx, "B|X", "A")
			if err != nil || !found || got != second {
				t.Fatalf("FindPlayer(A, B|X) = %d,%v,%v want %d", got, found, err, second)
			}
		})
	}
}

func TestGamesAndPairings(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			white, _ := s.CreatePlayer(ctx, "Anatoly", "Karpov")
			black, _ := s.CreatePlayer(ctx, "Garry", "Kasparov")

			var gameIDs []int64
			for _, event := range []string{"first", "second"} {
				id, err := s.CreateGame(ctx, &domain.Game{Event: event, Moves: "e4,e5", ECO: "C20"})
				if err != nil {
					t.Fatalf("CreateGame: %v", err)
				}
				gameIDs = append(gameIDs, id)
			}
			if err := s.CreatePairing(ctx, domain.Pairing{GameID: gameIDs[0], PlayerID: black, Color: domain.Black}); err != nil {
				t.Fatalf("CreatePairing: %v", err)
			}
			if err := s.CreatePairing(ctx, domain.Pairing{GameID: gameIDs[0], PlayerID: white, Color: domain.White}); err != nil {
				t.Fatalf("CreatePairing: %v", err)
			}

			games, err := s.ListGames(ctx)
			if err != nil || len(games) != 2 {
				t.Fatalf("ListGames: %d games, err=%v", len(games), err)
			}
			if games[0].Event != "first" || games[1].Event != "second" || games[0].ID >= games[1].ID {
				t.Fatalf("games out of order: %+v %+v", games[0], games[1])
			}

			g, err := s.GetGame(ctx, gameIDs[0])
			if err != nil || g == nil || g.Moves != "e4,e5" || g.ID != gameIDs[0] {
				t.Fatalf("GetGame = %+v, %v", g, err)
			}
			if g, err := s.GetGame(ctx, 9999); err != nil || g != nil {
				t.Fatalf("GetGame(missing) = %+v, %v", g, err)
			}

			players, err := s.GamePlayers(ctx, gameIDs[0])
			if err != nil || len(players) != 2 {
				t.Fatalf("GamePlayers: %v, %v", players, err)
			}
			p, err := s.FindPairing(ctx, white, gameIDs[0])
			if err != nil || p == nil || p.Color != domain.White {
				t.Fatalf("FindPairing(white) = %+v, %v", p, err)
			}
			if p, err := s.FindPairing(ctx, white, gameIDs[1]); err != nil || p != nil {
				t.Fatalf("FindPairing(unpaired) = %+v, %v", p, err)
			}
		})
	}
}

func TestAtomicRollsBack(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			boom := errors.New("boom")
			err := s.Atomic(ctx, func(tx Store) error {
				pid, err := tx.CreatePlayer(ctx, "John", "Smith")
				if err != nil {
					return err
				}
				gid, err := tx.CreateGame(ctx, &domain.Game{Event: "x"})
				if err != nil {
					return err
				}
				if err := tx.CreatePairing(ctx, domain.Pairing{GameID: gid, PlayerID: pid, Color: domain.White}); err != nil {
					return err
				}
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("Atomic err = %v", err)
			}
			if _, found, _ := s.FindPlayer(ctx, "John", "Smith"); found {
				t.Fatalf("player visible after rollback")
			}
			if games, _ := s.ListGames(ctx); len(games) != 0 {
				t.Fatalf("games visible after rollback: %d", len(games))
			}
		})
	}
}

func TestAtomicReadsOwnWrites(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			err := s.Atomic(ctx, func(tx Store) error {
				pid, err := tx.CreatePlayer(ctx, "John", "Smith")
				if err != nil {
					return err
				}
				got, found, err := tx.FindPlayer(ctx, "John", "Smith")
				if err != nil || !found || got != pid {
					t.Fatalf("in-tx FindPlayer = %d,%v,%v", got, found, err)
				}
				gid, err := tx.CreateGame(ctx, &domain.Game{Event: "x"})
				if err != nil {
					return err
				}
				if err := tx.CreatePairing(ctx, domain.Pairing{GameID: gid, PlayerID: pid, Color: domain.Black}); err != nil {
					return err
				}
				p, err := tx.FindPairing(ctx, pid, gid)
				if err != nil || p == nil || p.Color != domain.Black {
					t.Fatalf("in-tx FindPairing = %+v, %v", p, err)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("Atomic: %v", err)
			}
			if _, found, _ := s.FindPlayer(ctx, "John", "Smith"); !found {
				t.Fatalf("player not visible after commit")
			}
		})
	}
}

func TestRedisAtomicHidesPendingWrites(t *testing.T) {
	s, _ := newTestRedis(t)
	ctx := context.Background()
	outside := NewRedis(s.rdb)
	err := s.Atomic(ctx, func(tx Store) error {
		if _, err := tx.CreatePlayer(ctx, "John", "Smith"); err != nil {
			return err
		}
		if _, found, _ := outside.FindPlayer(ctx, "John", "Smith"); found {
			t.Fatalf("pending player visible outside the batch")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Atomic: %v", err)
	}
	if _, found, _ := outside.FindPlayer(ctx, "John", "Smith"); !found {
		t.Fatalf("player not visible after commit")
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := ParseRedisURL("redis://:secret@cache.local/3")
	if err != nil {
		t.Fatalf("ParseRedisURL: %v", err)
	}
	if opts.Addr != "cache.local:6379" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if _, err := ParseRedisURL("http://cache.local"); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
}
