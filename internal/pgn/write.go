package pgn

import (
	"fmt"
	"strings"
)

const lineWidth = 80

// Write renders a record as PGN text: all tags in export order, a blank line,
// then numbered movetext wrapped at 80 columns and closed by the result.
func Write(r Record) (string, error) {
	for i, mv := range r.Moves {
		if err := checkMoveToken(mv); err != nil {
			return "", fmt.Errorf("%w: move %d: %v", ErrMalformedRecord, i+1, err)
		}
	}

	var b strings.Builder
	for _, tag := range tagOrder {
		b.WriteString("[")
		b.WriteString(tag)
		b.WriteString(" \"")
		b.WriteString(escapeTagValue(*r.field(tag)))
		b.WriteString("\"]\n")
	}
	b.WriteString("\n")

	var tokens []string
	for i, mv := range r.Moves {
		if i%2 == 0 {
			tokens = append(tokens, fmt.Sprintf("%d.", i/2+1))
		}
		tokens = append(tokens, mv)
	}
	if isResult(r.Result) {
		tokens = append(tokens, r.Result)
	}

	width := 0
	for _, tok := range tokens {
		if width > 0 && width+1+len(tok) > lineWidth {
			b.WriteString("\n")
			width = 0
		}
		if width > 0 {
			b.WriteString(" ")
			width++
		}
		b.WriteString(tok)
		width += len(tok)
	}
	b.WriteString("\n")
	return b.String(), nil
}

func escapeTagValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// checkMoveToken rejects tokens that would not read back as the same single move.
func checkMoveToken(mv string) error {
	if mv == "" {
		return fmt.Errorf("empty token")
	}
	if strings.ContainsAny(mv, " \t\r\n\f\v[]{};()") {
		return fmt.Errorf("token %q contains a reserved character", mv)
	}
	if isResult(mv) || mv[0] == '$' || mv[0] == '%' || moveNumberPrefix(mv) > 0 {
		return fmt.Errorf("token %q would not read back as a move", mv)
	}
	return nil
}
