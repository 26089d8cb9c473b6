package pgn

import (
	"errors"
	"strings"
)

var (
	ErrMalformedRecord = errors.New("malformed pgn record")
	ErrIllegalMove     = errors.New("illegal move")
)

// Record is one game as read from or written to PGN text.
type Record struct {
	Event    string
	Site     string
	Date     string
	Round    string
	White    string
	Black    string
	Result   string
	WhiteElo string
	BlackElo string
	ECO      string

	// Written on export but not kept by the archive.
	Annotator   string
	PlyCount    string
	TimeControl string
	Time        string
	Termination string
	Mode        string
	FEN         string

	Moves []string
}

// tagOrder is the export order. Every tag is always written.
var tagOrder = []string{
	"Event", "Site", "Date", "Round", "White", "Black", "Result",
	"WhiteElo", "BlackElo", "ECO",
	"Annotator", "PlyCount", "TimeControl", "Time", "Termination", "Mode", "FEN",
}

func (r *Record) field(tag string) *string {
	switch strings.ToLower(tag) {
	case "event":
		return &r.Event
	case "site":
		return &r.Site
	case "date":
		return &r.Date
	case "round":
		return &r.Round
	case "white":
		return &r.White
	case "black":
		return &r.Black
	case "result":
		return &r.Result
	case "whiteelo":
		return &r.WhiteElo
	case "blackelo":
		return &r.BlackElo
	case "eco":
		return &r.ECO
	case "annotator":
		return &r.Annotator
	case "plycount":
		return &r.PlyCount
	case "timecontrol":
		return &r.TimeControl
	case "time":
		return &r.Time
	case "termination":
		return &r.Termination
	case "mode":
		return &r.Mode
	case "fen":
		return &r.FEN
	}
	return nil
}

func isResult(tok string) bool {
	switch tok {
	case "1-0", "0-1", "1/2-1/2", "*":
		return true
	}
	return false
}

// moveNumberPrefix returns the length of a leading "12." or "12..." prefix, or 0.
// Unnumbered "..." is stripped by the caller.
func moveNumberPrefix(tok string) int {
	i := 0
	for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(tok) || tok[i] != '.' {
		return 0
	}
	for i < len(tok) && tok[i] == '.' {
		i++
	}
	return i
}
