package core

import (
	"fmt"
	"regexp"
)

type Color byte

const (
	ColorWhite Color = 'w'
	ColorBlack Color = 'b'
)

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

func (c Color) String() string {
	if c == ColorBlack {
		return "black"
	}
	return "white"
}

// ParseColor accepts "w", "b", "white" or "black".
func ParseColor(s string) (Color, error) {
	switch s {
	case "w", "white":
		return ColorWhite, nil
	case "b", "black":
		return ColorBlack, nil
	}
	return 0, fmt.Errorf("invalid color %q", s)
}

type PieceType byte

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceTypeNames = [...]string{"", "pawn", "knight", "bishop", "rook", "queen", "king"}

func (t PieceType) String() string {
	if int(t) < len(pieceTypeNames) {
		return pieceTypeNames[t]
	}
	return ""
}

// Piece is stored as its FEN letter; zero means an empty square.
type Piece byte

const (
	NoPiece     Piece = 0
	WhitePawn   Piece = 'P'
	WhiteKnight Piece = 'N'
	WhiteBishop Piece = 'B'
	WhiteRook   Piece = 'R'
	WhiteQueen  Piece = 'Q'
	WhiteKing   Piece = 'K'
	BlackPawn   Piece = 'p'
	BlackKnight Piece = 'n'
	BlackBishop Piece = 'b'
	BlackRook   Piece = 'r'
	BlackQueen  Piece = 'q'
	BlackKing   Piece = 'k'
)

// PieceFromChar returns the piece for a FEN letter.
func PieceFromChar(c byte) (Piece, bool) {
	switch p := Piece(c); p {
	case WhitePawn, WhiteKnight, WhiteBishop, WhiteRook, WhiteQueen, WhiteKing,
		BlackPawn, BlackKnight, BlackBishop, BlackRook, BlackQueen, BlackKing:
		return p, true
	}
	return NoPiece, false
}

// NewPiece builds a piece from its type and color.
func NewPiece(t PieceType, c Color) Piece {
	var letter byte
	switch t {
	case Pawn:
		letter = 'p'
	case Knight:
		letter = 'n'
	case Bishop:
		letter = 'b'
	case Rook:
		letter = 'r'
	case Queen:
		letter = 'q'
	case King:
		letter = 'k'
	default:
		return NoPiece
	}
	if c == ColorWhite {
		letter -= 'a' - 'A'
	}
	return Piece(letter)
}

func (p Piece) Char() byte { return byte(p) }

func (p Piece) IsWhite() bool { return p >= 'A' && p <= 'Z' }

func (p Piece) Color() Color {
	if p.IsWhite() {
		return ColorWhite
	}
	return ColorBlack
}

func (p Piece) Type() PieceType {
	switch p | 0x20 {
	case 'p':
		return Pawn
	case 'n':
		return Knight
	case 'b':
		return Bishop
	case 'r':
		return Rook
	case 'q':
		return Queen
	case 'k':
		return King
	}
	return NoPieceType
}

func (p Piece) Name() string { return p.Type().String() }

func (p Piece) String() string {
	if p == NoPiece {
		return "."
	}
	return string(rune(p))
}

// Square is a board coordinate, file and rank both in [0,7]; a1 is (0,0).
type Square struct {
	File int
	Rank int
}

// NewSquare builds a square from zero-based file and rank.
func NewSquare(file, rank int) (Square, error) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return Square{}, fmt.Errorf("square out of range: file %d rank %d", file, rank)
	}
	return Square{File: file, Rank: rank}, nil
}

// ParseSquare parses algebraic notation such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	sq, err := NewSquare(int(s[0])-'a', int(s[1])-'1')
	if err != nil {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	return sq, nil
}

func (s Square) String() string {
	return string([]byte{'a' + byte(s.File), '1' + byte(s.Rank)})
}

var moveTokenPattern = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)

// ValidMoveToken reports whether s has the shape of a UCI move token.
func ValidMoveToken(s string) bool {
	return moveTokenPattern.MatchString(s)
}
