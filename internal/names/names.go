package names

import (
	"strconv"
	"strings"
)

// Name is a player name split into the parts the archive stores.
type Name struct {
	First string
	Last  string
}

// Parse splits "Last, First [Middle]" on the first comma.
// A string without a comma is treated as a bare last name.
func Parse(raw string) Name {
	last, first, found := strings.Cut(raw, ",")
	n := Name{Last: strings.TrimSpace(last)}
	if found {
		n.First = strings.TrimSpace(first)
	}
	return n
}

// Full returns the display form used in PGN tags and filters.
func (n Name) Full() string {
	first := strings.TrimSpace(n.First)
	last := strings.TrimSpace(n.Last)
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

// Trimmed returns n with surrounding whitespace removed from both parts.
func (n Name) Trimmed() Name {
	return Name{First: strings.TrimSpace(n.First), Last: strings.TrimSpace(n.Last)}
}

// Same reports whether two names identify the same player: both parts match exactly.
func (n Name) Same(other Name) bool {
	return n.Trimmed() == other.Trimmed()
}

// Key encodes the name for string-keyed indexes. The last name is length-prefixed,
// so distinct names never share a key.
func (n Name) Key() string {
	t := n.Trimmed()
	return strconv.Itoa(len(t.Last)) + ":" + t.Last + "|" + t.First
}
