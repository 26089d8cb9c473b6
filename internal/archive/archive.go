// Package archive converts between PGN text and the normalized
// game/player/pairing records kept in a store.Store.
package archive

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/pgn-archive/internal/msgcat"
	"github.com/park285/pgn-archive/internal/obslog"
	"github.com/park285/pgn-archive/internal/pgn"
	"github.com/park285/pgn-archive/internal/store"
)

var (
	ErrMalformedPairing = errors.New("malformed pairing")
	ErrDelimiterInMove  = errors.New("move contains the move delimiter")
	ErrSelfPairing      = errors.New("white and black are the same player")
	ErrGameNotFound     = errors.New("game not found")
	ErrNilGame          = errors.New("nil game")
)

const DefaultMoveDelimiter = ","

// Options configures an Archive. Payload and GameID are both optional.
type Options struct {
	// Payload is PGN text to parse. When Delimiter is set the payload is
	// split on it and rejoined with newlines first.
	Payload   string
	Delimiter string

	// GameID identifies the stored game UnparseGame works on. Zero means none.
	GameID int64

	Verbose       bool
	MoveDelimiter string
	ValidateMoves bool

	Logger   *zap.Logger
	Messages *msgcat.Catalog
}

// Archive is the entry point for ingesting and reconstructing games.
// It is not safe for concurrent use.
type Archive struct {
	store  store.Store
	parsed []pgn.Record
	gameID int64

	verbose       bool
	moveDelimiter string
	validateMoves bool

	logger   *zap.Logger
	messages *msgcat.Catalog
}

// New parses opts.Payload, if any. Parse errors wrap pgn.ErrMalformedRecord.
func New(s store.Store, opts Options) (*Archive, error) {
	a := &Archive{
		store:         s,
		gameID:        opts.GameID,
		verbose:       opts.Verbose,
		moveDelimiter: opts.MoveDelimiter,
		validateMoves: opts.ValidateMoves,
		logger:        opts.Logger,
		messages:      opts.Messages,
	}
	if a.moveDelimiter == "" {
		a.moveDelimiter = DefaultMoveDelimiter
	}
	if a.logger == nil {
		a.logger = obslog.L()
	}
	if a.messages == nil {
		a.messages = msgcat.Default()
	}

	text := opts.Payload
	if opts.Delimiter != "" {
		text = strings.Join(strings.Split(text, opts.Delimiter), "\n")
	}
	parsed, err := pgn.Parse(text)
	if err != nil {
		return nil, err
	}
	a.parsed = parsed
	a.diag(msgcat.KeyParsed, map[string]any{"Count": len(parsed)}, zap.Int("count", len(parsed)))
	return a, nil
}

// Parsed returns the records read from the payload.
func (a *Archive) Parsed() []pgn.Record {
	return append([]pgn.Record(nil), a.parsed...)
}

// diag logs a catalog message when the archive is verbose.
func (a *Archive) diag(key string, data map[string]any, fields ...zap.Field) {
	if !a.verbose {
		return
	}
	msg, err := a.messages.Render(key, data)
	if err != nil {
		a.logger.Warn("diagnostic_render_failed", zap.String("key", key), zap.Error(err))
		msg = key
	}
	a.logger.Info(msg, fields...)
}
