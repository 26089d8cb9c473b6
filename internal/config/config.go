package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type AppConfig struct {
	StoreBackend string
	DatabaseURL  string
	RedisURL     string

	// MoveDelimiter joins a game's moves into the stored move string.
	MoveDelimiter string
	Verbose       bool
	ValidateMoves bool
	MessagesDir   string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		StoreBackend:  BackendMemory,
		MoveDelimiter: ",",
	}

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND"))); v != "" {
		cfg.StoreBackend = v
	}
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("PGN_MESSAGES_DIR"))

	// Not trimmed; validated as given below.
	if v := os.Getenv("PGN_MOVE_DELIMITER"); v != "" {
		cfg.MoveDelimiter = v
	}
	if v := strings.TrimSpace(os.Getenv("PGN_VERBOSE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Verbose = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("PGN_VALIDATE_MOVES")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ValidateMoves = b
		}
	}

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres backend")
		}
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required for the redis backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if strings.ContainsAny(cfg.MoveDelimiter, " \t\r\n") {
		return nil, errors.New("PGN_MOVE_DELIMITER must not contain whitespace")
	}

	return cfg, nil
}
