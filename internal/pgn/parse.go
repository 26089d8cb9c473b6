package pgn

import (
	"fmt"
	"strings"
)

type parser struct {
	src  string
	pos  int
	line int

	cur *Record
	out []Record

	// tags seen on cur; a repeat starts the next record
	seen map[string]bool
	// a blank line followed cur's tag section
	tagsClosed bool
}

// Parse reads zero or more games from PGN text. Empty input yields an empty slice.
func Parse(text string) ([]Record, error) {
	p := &parser{src: text, line: 1}
	if err := p.run(); err != nil {
		return nil, err
	}
	if p.out == nil {
		return []Record{}, nil
	}
	return p.out, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformedRecord, p.line, fmt.Sprintf(format, args...))
}

func (p *parser) run() error {
	inMoves := false
	for {
		if p.skipSpace() && p.cur != nil && !inMoves {
			p.tagsClosed = true
		}
		if p.pos >= len(p.src) {
			break
		}
		switch c := p.src[p.pos]; {
		case c == '[':
			if inMoves || p.tagsClosed {
				p.finish()
				inMoves = false
			}
			if err := p.tag(); err != nil {
				return err
			}
		case c == '%' && p.atLineStart():
			p.skipLine()
		case c == ';':
			p.skipLine()
		case c == '{':
			if err := p.skipComment(); err != nil {
				return err
			}
		case c == '(':
			if err := p.skipVariation(); err != nil {
				return err
			}
		case c == ')':
			return p.errorf("unbalanced ')'")
		default:
			tok := p.token()
			if p.cur == nil {
				p.cur = &Record{}
			}
			inMoves = true
			if isResult(tok) {
				if p.cur.Result == "" {
					p.cur.Result = tok
				}
				p.finish()
				inMoves = false
				continue
			}
			if n := moveNumberPrefix(tok); n > 0 {
				tok = tok[n:]
			}
			tok = strings.TrimLeft(tok, ".")
			if tok == "" || tok[0] == '$' {
				continue
			}
			p.cur.Moves = append(p.cur.Moves, tok)
		}
	}
	p.finish()
	return nil
}

func (p *parser) finish() {
	if p.cur == nil {
		return
	}
	p.out = append(p.out, *p.cur)
	p.cur = nil
	p.seen = nil
	p.tagsClosed = false
}

// skipSpace reports whether the skipped run contained a blank line.
func (p *parser) skipSpace() bool {
	newlines := 0
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\n':
			p.line++
			newlines++
		case ' ', '\t', '\r', '\f', '\v':
		default:
			return newlines > 1
		}
		p.pos++
	}
	return newlines > 1
}

func (p *parser) atLineStart() bool {
	return p.pos == 0 || p.src[p.pos-1] == '\n'
}

func (p *parser) skipLine() {
	for p.pos < len(p.src) && p.src[p.pos] != '\n' {
		p.pos++
	}
}

func (p *parser) skipComment() error {
	start := p.line
	for p.pos++; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case '\n':
			p.line++
		case '}':
			p.pos++
			return nil
		}
	}
	p.line = start
	return p.errorf("unterminated comment")
}

func (p *parser) skipVariation() error {
	start := p.line
	depth := 0
	for ; p.pos < len(p.src); p.pos++ {
		switch p.src[p.pos] {
		case '\n':
			p.line++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				p.pos++
				return nil
			}
		case '{':
			if err := p.skipComment(); err != nil {
				return err
			}
			p.pos--
		}
	}
	p.line = start
	return p.errorf("unterminated variation")
}

func (p *parser) token() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v' ||
			c == '[' || c == '{' || c == ';' || c == '(' || c == ')' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

// tag reads `[Key "value"]` with \" and \\ escapes in the value.
func (p *parser) tag() error {
	p.pos++ // '['
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isTagNameByte(p.src[p.pos]) {
		p.pos++
	}
	key := p.src[start:p.pos]
	if key == "" {
		return p.errorf("tag without a name")
	}
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '"' {
		return p.errorf("tag %s has no quoted value", key)
	}
	p.pos++

	var b strings.Builder
	closed := false
	for p.pos < len(p.src) && !closed {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			p.pos++
			c = p.src[p.pos]
			if c == '\n' {
				p.line++
			}
			b.WriteByte(c)
		case c == '"':
			closed = true
		default:
			if c == '\n' {
				p.line++
			}
			b.WriteByte(c)
		}
		p.pos++
	}
	if !closed {
		return p.errorf("tag %s has an unterminated value", key)
	}
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != ']' {
		return p.errorf("tag %s is not closed", key)
	}
	p.pos++

	name := strings.ToLower(key)
	if p.seen[name] {
		p.finish()
	}
	if p.cur == nil {
		p.cur = &Record{}
	}
	if p.seen == nil {
		p.seen = make(map[string]bool)
	}
	p.seen[name] = true
	if f := p.cur.field(key); f != nil {
		*f = b.String()
	}
	return nil
}

func isTagNameByte(c byte) bool {
	return c == '_' || c == '+' || c == '#' || c == '=' || c == ':' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
