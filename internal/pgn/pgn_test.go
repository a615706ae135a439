package pgn

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"uciboard/internal/board"
	"uciboard/internal/game"
)

func playGame(t *testing.T, g *game.Game, tokens ...string) {
	t.Helper()
	for _, token := range tokens {
		m, err := board.ParseMove(token, g.Board())
		if err != nil {
			t.Fatalf("ParseMove(%q) error = %v", token, err)
		}
		g.MakeMove(m)
	}
}

func TestEncodeStandardGame(t *testing.T) {
	g := game.New()
	meta := g.Metadata()
	meta.Date = "2024.03.01"
	g.SetMetadata(meta)
	playGame(t, g, "e2e4", "e7e5", "g1f3")

	text := Encode(g)
	for _, want := range []string{
		`[Event "Casual Game"]`,
		`[Date "2024.03.01"]`,
		`[Round "?"]`,
		`[White "Human"]`,
		`[Result "*"]`,
		`[UCIMoves "e2e4 e7e5 g1f3"]`,
		"1. e4 e5 2. Nf3 *",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Encode() missing %q in:\n%s", want, text)
		}
	}
	if strings.Contains(text, "[FEN") || strings.Contains(text, "[SetUp") {
		t.Errorf("standard start must not carry FEN tags:\n%s", text)
	}
}

func TestEncodeCustomStartCarriesFEN(t *testing.T) {
	fen := "4k3/P7/8/8/8/8/8/4K3 w - - 0 1"
	g, err := game.NewFromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	playGame(t, g, "a7a8q")
	text := Encode(g)
	if !strings.Contains(text, `[FEN "`+fen+`"]`) || !strings.Contains(text, `[SetUp "1"]`) {
		t.Errorf("missing FEN tags:\n%s", text)
	}
	if !strings.Contains(text, "1. a8=Q *") {
		t.Errorf("unexpected move text:\n%s", text)
	}
}

func TestEncodeWrapsMoveText(t *testing.T) {
	g := game.New()
	cycle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	for i := 0; i < 10; i++ {
		playGame(t, g, cycle...)
	}
	text := Encode(g)
	body := text[strings.Index(text, "\n\n")+2:]
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapped move text, got %d line(s)", len(lines))
	}
	for _, line := range lines {
		if len(line) > lineWidth {
			t.Errorf("line longer than %d: %q", lineWidth, line)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	g, err := game.NewFromFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	meta := g.Metadata()
	meta.White, meta.Black, meta.Event = "Alice", "Engine", "Club Night"
	g.SetMetadata(meta)
	playGame(t, g, "e1g1", "e8c8", "a1a8")

	var buf bytes.Buffer
	if err := Write(&buf, g); err != nil {
		t.Fatal(err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.InitialFEN() != g.InitialFEN() {
		t.Errorf("InitialFEN() = %q, want %q", got.InitialFEN(), g.InitialFEN())
	}
	if !reflect.DeepEqual(got.UCIMoves(), g.UCIMoves()) {
		t.Errorf("UCIMoves() = %v, want %v", got.UCIMoves(), g.UCIMoves())
	}
	if got.CurrentFEN() != g.CurrentFEN() {
		t.Errorf("CurrentFEN() = %q, want %q", got.CurrentFEN(), g.CurrentFEN())
	}
	if got.Metadata().White != "Alice" || got.Metadata().Event != "Club Night" {
		t.Errorf("metadata not restored: %+v", got.Metadata())
	}
}

func TestTagValuesEscaped(t *testing.T) {
	g := game.New()
	meta := g.Metadata()
	meta.White = `Kasparov "Garry"`
	meta.Event = `C:\Open`
	g.SetMetadata(meta)
	playGame(t, g, "e2e4")

	text := Encode(g)
	for _, want := range []string{`[White "Kasparov \"Garry\""]`, `[Event "C:\\Open"]`} {
		if !strings.Contains(text, want) {
			t.Errorf("Encode() missing %s:\n%s", want, text)
		}
	}

	got, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Metadata().White != meta.White || got.Metadata().Event != meta.Event {
		t.Errorf("metadata = %q / %q, want %q / %q", got.Metadata().White, got.Metadata().Event, meta.White, meta.Event)
	}
	if !reflect.DeepEqual(got.UCIMoves(), []string{"e2e4"}) {
		t.Errorf("UCIMoves() = %v", got.UCIMoves())
	}
	if tokens := MoveTextTokens(text); !reflect.DeepEqual(tokens, []string{"e4"}) {
		t.Errorf("MoveTextTokens() = %v, want [e4]", tokens)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no tags", "1. e4 e5 *"},
		{"bad fen", `[Event "x"]` + "\n" + `[FEN "nonsense"]`},
		{"bad move token", `[Event "x"]` + "\n" + `[UCIMoves "e2e4 zz99"]`},
		{"move from empty square", `[Event "x"]` + "\n" + `[UCIMoves "e3e4"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.text); !errors.Is(err, ErrInvalidPGN) {
				t.Errorf("Decode() error = %v, want ErrInvalidPGN", err)
			}
		})
	}
}

func TestDecodeWithoutMoves(t *testing.T) {
	g, err := Decode(`[Event "Empty"]` + "\n\n*\n")
	if err != nil {
		t.Fatal(err)
	}
	if g.MoveCount() != 0 || g.CurrentFEN() != board.StartingFEN {
		t.Errorf("unexpected game: %d moves, %q", g.MoveCount(), g.CurrentFEN())
	}
}

func TestParseMoveText(t *testing.T) {
	text := "1. e4 {best by test} e5 2. Nf3 (2. f4 exf4) Nc6 3... a6 1-0"
	want := []string{"e4", "e5", "Nf3", "Nc6", "a6"}
	if got := ParseMoveText(text); !reflect.DeepEqual(got, want) {
		t.Errorf("ParseMoveText() = %v, want %v", got, want)
	}
}

func TestMoveTextTokens(t *testing.T) {
	text := "[Event \"Club 2.0\"]\n[Date \"2026.03.01\"]\n\n1. e4 e5 2. Nf3 *\n"
	want := []string{"e4", "e5", "Nf3"}
	if got := MoveTextTokens(text); !reflect.DeepEqual(got, want) {
		t.Errorf("MoveTextTokens() = %v, want %v", got, want)
	}
}

func TestIsValid(t *testing.T) {
	if IsValid("1. e4 e5") {
		t.Error("move text alone is not valid PGN")
	}
	if IsValid("[Event broken]") {
		t.Error("unquoted tag value is not valid")
	}
	if !IsValid(`[Event "ok"]`) {
		t.Error("a single tag is enough")
	}
}
