package pgn

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Replay applies SAN moves from the standard start position and returns the
// resulting game. The first move that does not apply is reported with its ply.
func Replay(moves []string) (*nchess.Game, error) {
	game := nchess.NewGame()
	for i, mv := range moves {
		san := strings.TrimSpace(mv)
		if err := game.PushNotationMove(san, nchess.AlgebraicNotation{}, nil); err != nil {
			return nil, fmt.Errorf("%w: ply %d %q: %v", ErrIllegalMove, i+1, san, err)
		}
	}
	return game, nil
}
