package pgn

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sample = `[Event "F/S Return Match"]
[Site "Belgrade, Serbia JUG"]
[Date "1992.11.04"]
[Round "29"]
[White "Fischer, Robert J."]
[Black "Spassky, Boris V."]
[Result "1/2-1/2"]
[WhiteElo "2785"]
[BlackElo "2560"]
[ECO "C95"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 {This opening is called the Ruy Lopez.} 3... a6
4. Ba4 Nf6 5. O-O $1 Be7 (5... b5 6. Bb3) 6. Re1 1/2-1/2

[Event "Second"]
[White "Karpov, Anatoly"]
[Black "Kasparov, Garry"]
[Result "0-1"]
[ECO "D4"]

1.d4 d5 0-1
`

func TestParseSample(t *testing.T) {
	recs, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	r := recs[0]
	if r.Event != "F/S Return Match" || r.Site != "Belgrade, Serbia JUG" || r.Round != "29" {
		t.Fatalf("unexpected tags: %+v", r)
	}
	if r.White != "Fischer, Robert J." || r.WhiteElo != "2785" || r.BlackElo != "2560" || r.ECO != "C95" {
		t.Fatalf("unexpected player tags: %+v", r)
	}
	want := []string{"e4", "e5", "Nf3", "Nc6", "Bb5", "a6", "Ba4", "Nf6", "O-O", "Be7", "Re1"}
	if !reflect.DeepEqual(r.Moves, want) {
		t.Fatalf("moves = %v, want %v", r.Moves, want)
	}
	if got := recs[1].Moves; !reflect.DeepEqual(got, []string{"d4", "d5"}) {
		t.Fatalf("second game moves = %v", got)
	}
	if recs[1].Result != "0-1" {
		t.Fatalf("second game result = %q", recs[1].Result)
	}
}

func TestParseKeepsTagOnlyRecords(t *testing.T) {
	cases := map[string]string{
		"blank line":   "[Event \"A\"]\n[White \"X\"]\n\n[Event \"B\"]\n[White \"Y\"]\n\n1. e4 *\n",
		"repeated tag": "[Event \"A\"]\n[White \"X\"]\n[Event \"B\"]\n[White \"Y\"]\n\n1. e4 *\n",
	}
	for name, in := range cases {
		recs, err := Parse(in)
		if err != nil {
			t.Fatalf("%s: Parse: %v", name, err)
		}
		if len(recs) != 2 {
			t.Fatalf("%s: expected 2 records, got %d: %+v", name, len(recs), recs)
		}
		if recs[0].Event != "A" || recs[0].White != "X" || len(recs[0].Moves) != 0 {
			t.Fatalf("%s: first record = %+v", name, recs[0])
		}
		if recs[1].Event != "B" || recs[1].White != "Y" || !reflect.DeepEqual(recs[1].Moves, []string{"e4"}) {
			t.Fatalf("%s: second record = %+v", name, recs[1])
		}
	}
}

func TestParseSkipsBareEllipsis(t *testing.T) {
	recs, err := Parse("[Event \"E\"]\n\n1. e4 {best} ... e5 2. Nf3 ...Nc6 *")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := []string{"e4", "e5", "Nf3", "Nc6"}; !reflect.DeepEqual(recs[0].Moves, want) {
		t.Fatalf("moves = %v, want %v", recs[0].Moves, want)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "   \n\n"} {
		recs, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if recs == nil || len(recs) != 0 {
			t.Fatalf("Parse(%q) = %v, want empty slice", in, recs)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []string{
		`[Event "unterminated`,
		`[Event unquoted]`,
		`[Event "x"`,
		"[Event \"x\"]\n\n1. e4 {never closed",
		"1. e4 (1... e5",
	}
	for _, in := range cases {
		if _, err := Parse(in); !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("Parse(%q) err = %v, want ErrMalformedRecord", in, err)
		}
	}
}

func TestParseReportsLine(t *testing.T) {
	_, err := Parse("[Event \"ok\"]\n[Site broken]\n")
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 in error, got %v", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	in := Record{
		Event:    `Quote "Open"`,
		Site:     `C:\Clubs`,
		Date:     "2024.01.02",
		Round:    "3.1",
		White:    "Smith, John",
		Black:    "Doe, Jane",
		Result:   "1-0",
		WhiteElo: "2100",
		BlackElo: "",
		ECO:      "C20",
		Moves:    []string{"e4", "e5", "Nf3"},
	}
	text, err := Write(in)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, tag := range []string{`[Annotator ""]`, `[PlyCount ""]`, `[TimeControl ""]`, `[Time ""]`, `[Termination ""]`, `[Mode ""]`, `[FEN ""]`} {
		if !strings.Contains(text, tag) {
			t.Fatalf("expected %s in output:\n%s", tag, text)
		}
	}
	if !strings.Contains(text, "1. e4 e5 2. Nf3 1-0") {
		t.Fatalf("unexpected movetext:\n%s", text)
	}
	out, err := Parse(text)
	if err != nil || len(out) != 1 {
		t.Fatalf("Parse: %v (%d records)", err, len(out))
	}
	if !reflect.DeepEqual(out[0], in) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out[0], in)
	}
}

func TestWriteWrapsLongMovetext(t *testing.T) {
	moves := make([]string, 0, 120)
	for i := 0; i < 60; i++ {
		moves = append(moves, "Nf3", "Nf6")
	}
	text, err := Write(Record{Moves: moves, Result: "*"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, line := range strings.Split(text, "\n") {
		if len(line) > lineWidth {
			t.Fatalf("line exceeds %d columns: %q", lineWidth, line)
		}
	}
	out, err := Parse(text)
	if err != nil || len(out) != 1 || !reflect.DeepEqual(out[0].Moves, moves) {
		t.Fatalf("wrapped movetext did not read back: %v", err)
	}
}

func TestWriteRejectsUnreadableMoves(t *testing.T) {
	for _, mv := range []string{"", "e4 e5", "1-0", "12.", "{x", "$1"} {
		if _, err := Write(Record{Moves: []string{mv}}); !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("Write(%q) err = %v, want ErrMalformedRecord", mv, err)
		}
	}
}

func TestReplay(t *testing.T) {
	if _, err := Replay([]string{"e4", "e5", "Nf3"}); err != nil {
		t.Fatalf("Replay legal: %v", err)
	}
	_, err := Replay([]string{"e4", "e4"})
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("Replay illegal err = %v, want ErrIllegalMove", err)
	}
	if !strings.Contains(err.Error(), "ply 2") {
		t.Fatalf("expected ply in error, got %v", err)
	}
}
