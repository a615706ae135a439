package board

import (
	"errors"
	"strings"
	"testing"

	"uciboard/internal/core"
)

func mustParse(t *testing.T, fen string) *Board {
	t.Helper()
	b, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q) error = %v", fen, err)
	}
	return b
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		token     string
		castling  bool
		enPassant bool
		captured  core.Piece
		promotion core.Piece
	}{
		{"quiet pawn", StartingFEN, "e2e4", false, false, core.NoPiece, core.NoPiece},
		{"white kingside castle", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", true, false, core.NoPiece, core.NoPiece},
		{"black queenside castle", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8c8", true, false, core.NoPiece, core.NoPiece},
		{"en passant", "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2", "e5d6", false, true, core.BlackPawn, core.NoPiece},
		{"capture", "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5", false, false, core.BlackPawn, core.NoPiece},
		{"white promotion", "4k3/P7/8/8/8/8/8/4K3 w - - 0 1", "a7a8q", false, false, core.NoPiece, core.WhiteQueen},
		{"black underpromotion", "4k3/8/8/8/8/8/p7/4K3 b - - 0 1", "a2a1n", false, false, core.NoPiece, core.BlackKnight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMove(tt.token, mustParse(t, tt.fen))
			if err != nil {
				t.Fatalf("ParseMove() error = %v", err)
			}
			if m.Castling != tt.castling || m.EnPassant != tt.enPassant {
				t.Errorf("flags castling=%v enPassant=%v", m.Castling, m.EnPassant)
			}
			if m.Captured != tt.captured {
				t.Errorf("Captured = %v, want %v", m.Captured, tt.captured)
			}
			if m.Promotion != tt.promotion {
				t.Errorf("Promotion = %v, want %v", m.Promotion, tt.promotion)
			}
			if m.UCI() != tt.token {
				t.Errorf("UCI() = %q, want %q", m.UCI(), tt.token)
			}
		})
	}
}

func TestParseMoveErrors(t *testing.T) {
	b := New()
	for _, token := range []string{"e2e9", "e2", "e2e4x", "e3e4"} {
		if _, err := ParseMove(token, b); !errors.Is(err, ErrInvalidMoveToken) {
			t.Errorf("ParseMove(%q) error = %v, want ErrInvalidMoveToken", token, err)
		}
	}
}

func TestApplyMoveSequence(t *testing.T) {
	b := New()
	for _, token := range []string{"e2e4", "e7e5", "g1f3"} {
		m, err := ParseMove(token, b)
		if err != nil {
			t.Fatalf("ParseMove(%q) error = %v", token, err)
		}
		b.ApplyMove(m)
	}
	want := "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"
	if got := b.FEN(); got != want {
		t.Errorf("FEN() = %q, want %q", got, want)
	}
}

func TestApplyMoveDoublePushSetsEnPassant(t *testing.T) {
	b := New()
	m, _ := ParseMove("e2e4", b)
	b.ApplyMove(m)
	ep, ok := b.EnPassant()
	if !ok || ep.String() != "e3" {
		t.Errorf("EnPassant() = %v, %v; want e3", ep, ok)
	}
	m, _ = ParseMove("g8f6", b)
	b.ApplyMove(m)
	if _, ok := b.EnPassant(); ok {
		t.Error("en passant target should clear after a non double push")
	}
}

func TestApplyMoveCastling(t *testing.T) {
	b := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 3 10")
	m, _ := ParseMove("e1g1", b)
	b.ApplyMove(m)
	if got, want := b.FEN(), "r3k2r/8/8/8/8/8/8/R4RK1 b kq - 4 10"; got != want {
		t.Errorf("after O-O FEN() = %q, want %q", got, want)
	}
	m, _ = ParseMove("e8c8", b)
	b.ApplyMove(m)
	if got, want := b.FEN(), "2kr3r/8/8/8/8/8/8/R4RK1 w - - 5 11"; got != want {
		t.Errorf("after O-O-O FEN() = %q, want %q", got, want)
	}
}

func TestApplyMoveRookLosesCastling(t *testing.T) {
	b := mustParse(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	m, _ := ParseMove("a1a8", b)
	b.ApplyMove(m)
	want := CastlingRights{WhiteKingside: true, BlackKingside: true}
	if b.Castling() != want {
		t.Errorf("Castling() = %+v, want %+v", b.Castling(), want)
	}
	if b.HalfmoveClock() != 0 {
		t.Errorf("capture should reset halfmove clock, got %d", b.HalfmoveClock())
	}
}

func TestApplyMoveEnPassantAndPromotion(t *testing.T) {
	b := mustParse(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2")
	m, _ := ParseMove("e5d6", b)
	b.ApplyMove(m)
	if b.GetPieceAt("d5") != core.NoPiece || b.GetPieceAt("d6") != core.WhitePawn {
		t.Errorf("en passant not applied:\n%s", b.ToASCII())
	}

	b = mustParse(t, "4k3/P7/8/8/8/8/8/4K3 w - - 5 40")
	m, _ = ParseMove("a7a8q", b)
	b.ApplyMove(m)
	if b.GetPieceAt("a8") != core.WhiteQueen {
		t.Errorf("a8 = %v, want Q", b.GetPieceAt("a8"))
	}
	if b.HalfmoveClock() != 0 || b.Turn() != core.ColorBlack {
		t.Error("promotion should reset halfmove clock and flip turn")
	}
}

func TestMoveSAN(t *testing.T) {
	tests := []struct {
		fen   string
		token string
		check bool
		mate  bool
		want  string
	}{
		{StartingFEN, "e2e4", false, false, "e4"},
		{StartingFEN, "g1f3", false, false, "Nf3"},
		{"4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1", "e4d5", false, false, "exd5"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", false, false, "O-O"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", false, false, "O-O-O"},
		{"4k3/P7/8/8/8/8/8/4K3 w - - 0 1", "a7a8q", true, false, "a8=Q+"},
		{"rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 2", "d8h4", true, true, "Qh4#"},
	}
	for _, tt := range tests {
		m, err := ParseMove(tt.token, mustParse(t, tt.fen))
		if err != nil {
			t.Fatalf("ParseMove(%q) error = %v", tt.token, err)
		}
		m.Check, m.Checkmate = tt.check, tt.mate
		if got := m.SAN(); got != tt.want {
			t.Errorf("SAN(%s) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestMoveEqual(t *testing.T) {
	b := mustParse(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	q, _ := ParseMove("a7a8q", b)
	n, _ := ParseMove("a7a8n", b)
	q2 := q
	q2.Check = true
	if q.Equal(n) {
		t.Error("different promotions should not be equal")
	}
	if !q.Equal(q2) {
		t.Error("flags should not affect equality")
	}
}

func TestToASCII(t *testing.T) {
	art := New().ToASCII()
	if !strings.HasPrefix(art, "  a b c d e f g h\n8 r n b q k b n r  8") {
		t.Errorf("unexpected rendering:\n%s", art)
	}
}
