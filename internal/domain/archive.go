package domain

import "github.com/park285/pgn-archive/internal/names"

// Color identifies the side a player held in a game.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Player is a stored player identity.
type Player struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName returns the display name, "First Last".
func (p *Player) FullName() string {
	if p == nil {
		return ""
	}
	return names.Name{First: p.FirstName, Last: p.LastName}.Full()
}

// Game is a normalized game row. Moves holds the move list joined with the
// archive's move delimiter.
type Game struct {
	ID       int64  `json:"id"`
	Event    string `json:"event"`
	Site     string `json:"site"`
	Date     string `json:"date"`
	Round    string `json:"round"`
	Result   string `json:"result"`
	WhiteElo string `json:"white_elo"`
	BlackElo string `json:"black_elo"`
	Moves    string `json:"moves"`
	ECO      string `json:"eco"`
}

// Pairing links a player to a game with the color they played.
type Pairing struct {
	GameID   int64 `json:"game_id"`
	PlayerID int64 `json:"player_id"`
	Color    Color `json:"color"`
}

// ColoredPlayers is the white/black assignment derived from a game's pairings.
type ColoredPlayers struct {
	White *Player
	Black *Player
}
