package game

import (
	"testing"

	"uciboard/internal/board"
)

func play(t *testing.T, g *Game, tokens ...string) {
	t.Helper()
	for _, token := range tokens {
		m, err := board.ParseMove(token, g.Board())
		if err != nil {
			t.Fatalf("ParseMove(%q) error = %v", token, err)
		}
		g.MakeMove(m)
	}
}

func TestNewGame(t *testing.T) {
	g := New()
	if g.CurrentFEN() != board.StartingFEN || g.InitialFEN() != board.StartingFEN {
		t.Errorf("CurrentFEN() = %q", g.CurrentFEN())
	}
	if g.Status() != StatusInProgress || g.MoveCount() != 0 {
		t.Error("new game should be empty and in progress")
	}
	if len(g.FENHistory()) != 1 {
		t.Errorf("FENHistory() has %d entries, want 1", len(g.FENHistory()))
	}
}

func TestNewFromFENRejectsMalformed(t *testing.T) {
	if _, err := NewFromFEN("not a fen"); err == nil {
		t.Error("NewFromFEN should reject malformed input")
	}
}

func TestMakeAndUndo(t *testing.T) {
	g := New()
	play(t, g, "e2e4", "e7e5")
	before := g.CurrentFEN()
	history := len(g.FENHistory())

	play(t, g, "g1f3")
	if len(g.FENHistory()) != g.MoveCount()+1 {
		t.Fatalf("history invariant broken: %d fens, %d moves", len(g.FENHistory()), g.MoveCount())
	}

	m, ok := g.UndoMove()
	if !ok || m.UCI() != "g1f3" {
		t.Fatalf("UndoMove() = %v, %v", m, ok)
	}
	if g.CurrentFEN() != before {
		t.Errorf("CurrentFEN() = %q, want %q", g.CurrentFEN(), before)
	}
	if g.Board().FEN() != before {
		t.Errorf("board not restored: %q", g.Board().FEN())
	}
	if len(g.FENHistory()) != history {
		t.Errorf("history length = %d, want %d", len(g.FENHistory()), history)
	}
}

func TestUndoOnEmptyGame(t *testing.T) {
	g := New()
	if _, ok := g.UndoMove(); ok {
		t.Error("UndoMove on an empty game should report false")
	}
	if err := g.UndoMoves(1); err == nil {
		t.Error("UndoMoves(1) on an empty game should fail")
	}
}

func TestUndoResetsStatus(t *testing.T) {
	g := New()
	play(t, g, "e2e4")
	g.SetStatus(StatusDrawAgreement)
	g.UndoMove()
	if g.Status() != StatusInProgress {
		t.Errorf("Status() = %v, want in_progress", g.Status())
	}
}

func TestThreefoldRepetition(t *testing.T) {
	g := New()
	cycle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	play(t, g, cycle...)
	if g.IsThreefoldRepetition() {
		t.Fatal("two occurrences should not be threefold")
	}
	play(t, g, cycle...)
	if !g.IsThreefoldRepetition() {
		t.Fatal("third occurrence of the start position should be threefold")
	}
	g.UndoMove()
	if g.IsThreefoldRepetition() {
		t.Error("after undo the current position occurs fewer than three times")
	}
}

func TestFiftyMoveRule(t *testing.T) {
	g, err := NewFromFEN("4k3/8/8/8/8/8/4P3/4K2R w K - 99 80")
	if err != nil {
		t.Fatal(err)
	}
	if g.IsFiftyMoveRule() {
		t.Fatal("99 plies should not trigger the rule")
	}
	play(t, g, "h1h2")
	if !g.IsFiftyMoveRule() {
		t.Fatal("100 plies should trigger the rule")
	}
	g.UndoMove()
	play(t, g, "e2e4")
	if g.IsFiftyMoveRule() {
		t.Error("a pawn move should reset the clock")
	}
}

func TestResetAndLoadFEN(t *testing.T) {
	g := New()
	play(t, g, "e2e4")
	if err := g.LoadFEN("bad"); err == nil {
		t.Error("LoadFEN should reject malformed input")
	}
	if g.MoveCount() != 1 {
		t.Error("failed LoadFEN must not change the game")
	}
	fen := "4k3/P7/8/8/8/8/8/4K3 w - - 0 1"
	if err := g.LoadFEN(fen); err != nil {
		t.Fatal(err)
	}
	if g.MoveCount() != 0 || g.InitialFEN() != fen {
		t.Errorf("LoadFEN did not clear history")
	}
	g.Reset()
	if g.CurrentFEN() != board.StartingFEN {
		t.Errorf("Reset() left %q", g.CurrentFEN())
	}
}

func TestFormattedMoves(t *testing.T) {
	g := New()
	play(t, g, "e2e4", "e7e5", "g1f3")
	if got, want := g.FormattedMoves(), "1. e4 e5 2. Nf3"; got != want {
		t.Errorf("FormattedMoves() = %q, want %q", got, want)
	}

	g, _ = NewFromFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	play(t, g, "e7e5", "g1f3")
	if got, want := g.FormattedMoves(), "1... e5 2. Nf3"; got != want {
		t.Errorf("FormattedMoves() = %q, want %q", got, want)
	}
}

func TestMarkLastMove(t *testing.T) {
	g := New()
	play(t, g, "f2f3", "e7e5", "g2g4", "d8h4")
	g.MarkLastMove(false, true)
	if got := g.SANMoves()[3]; got != "Qh4#" {
		t.Errorf("SAN = %q, want Qh4#", got)
	}
}

func TestStatusResult(t *testing.T) {
	tests := map[Status]string{
		StatusInProgress:         "*",
		StatusWhiteWinsCheckmate: "1-0",
		StatusBlackResigns:       "1-0",
		StatusBlackWinsCheckmate: "0-1",
		StatusWhiteResigns:       "0-1",
		StatusStalemate:          "1/2-1/2",
		StatusDrawFiftyMoves:     "1/2-1/2",
		StatusDrawRepetition:     "1/2-1/2",
		StatusDrawAgreement:      "1/2-1/2",
	}
	for status, want := range tests {
		if got := status.Result(); got != want {
			t.Errorf("%v.Result() = %q, want %q", status, got, want)
		}
		parsed, err := ParseStatus(status.String())
		if err != nil || parsed != status {
			t.Errorf("ParseStatus(%q) = %v, %v", status.String(), parsed, err)
		}
	}
}
