package archivebuilder

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/pgn-archive/internal/archive"
	"github.com/park285/pgn-archive/internal/config"
	"github.com/park285/pgn-archive/internal/msgcat"
	"github.com/park285/pgn-archive/internal/obslog"
	"github.com/park285/pgn-archive/internal/store"
)

type Deps struct {
	Config   *config.AppConfig
	Store    store.Store
	Messages *msgcat.Catalog
	Logger   *zap.Logger

	closer io.Closer
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = obslog.L()
	}

	messages, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	deps := &Deps{Config: cfg, Messages: messages, Logger: logger}
	switch cfg.StoreBackend {
	case config.BackendMemory, "":
		deps.Store = store.NewMemory()
	case config.BackendPostgres:
		pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		deps.Store, deps.closer = pg, pg
	case config.BackendRedis:
		opts, err := store.ParseRedisURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		r := store.NewRedis(rdb)
		deps.Store, deps.closer = r, r
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	logger.Info("archive_store_ready", zap.String("backend", cfg.StoreBackend))
	return deps, nil
}

// Open builds an Archive over the shared store using the configured defaults.
func (d *Deps) Open(payload, delimiter string, gameID int64) (*archive.Archive, error) {
	return archive.New(d.Store, archive.Options{
		Payload:       payload,
		Delimiter:     delimiter,
		GameID:        gameID,
		Verbose:       d.Config.Verbose,
		MoveDelimiter: d.Config.MoveDelimiter,
		ValidateMoves: d.Config.ValidateMoves,
		Logger:        d.Logger,
		Messages:      d.Messages,
	})
}

func (d *Deps) Close() error {
	if d == nil || d.closer == nil {
		return nil
	}
	return d.closer.Close()
}
