package board

import (
	"fmt"
	"strings"

	"uciboard/internal/core"
)

// CastlingRights holds the four castling availability flags.
type CastlingRights struct {
	WhiteKingside  bool
	WhiteQueenside bool
	BlackKingside  bool
	BlackQueenside bool
}

// String returns the FEN castling field.
func (c CastlingRights) String() string {
	var sb strings.Builder
	if c.WhiteKingside {
		sb.WriteByte('K')
	}
	if c.WhiteQueenside {
		sb.WriteByte('Q')
	}
	if c.BlackKingside {
		sb.WriteByte('k')
	}
	if c.BlackQueenside {
		sb.WriteByte('q')
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// Board is a mutable position. Row 0 of squares is rank 8, matching FEN order.
// It performs no legality checks; the engine is the authority on legality.
type Board struct {
	squares   [8][8]core.Piece
	turn      core.Color
	castling  CastlingRights
	enPassant core.Square
	hasEP     bool
	halfmove  int
	fullmove  int
}

// New returns the standard starting position.
func New() *Board {
	b, err := ParseFEN(StartingFEN)
	if err != nil {
		panic(err)
	}
	return b
}

// Empty returns a board with no pieces, White to move.
func Empty() *Board {
	return &Board{turn: core.ColorWhite, fullmove: 1}
}

// Clone returns an independent copy.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

func (b *Board) Piece(sq core.Square) core.Piece {
	return b.squares[7-sq.Rank][sq.File]
}

func (b *Board) SetPiece(sq core.Square, p core.Piece) {
	b.squares[7-sq.Rank][sq.File] = p
}

// GetPieceAt looks a piece up by algebraic square name; invalid names yield NoPiece.
func (b *Board) GetPieceAt(square string) core.Piece {
	sq, err := core.ParseSquare(square)
	if err != nil {
		return core.NoPiece
	}
	return b.Piece(sq)
}

func (b *Board) Turn() core.Color { return b.turn }

func (b *Board) Castling() CastlingRights { return b.castling }

// EnPassant returns the en-passant target square, if any.
func (b *Board) EnPassant() (core.Square, bool) {
	return b.enPassant, b.hasEP
}

func (b *Board) HalfmoveClock() int { return b.halfmove }

func (b *Board) FullmoveNumber() int { return b.fullmove }

// FindKing returns the square of the king of color c.
func (b *Board) FindKing(c core.Color) (core.Square, bool) {
	king := core.NewPiece(core.King, c)
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			sq := core.Square{File: file, Rank: rank}
			if b.Piece(sq) == king {
				return sq, true
			}
		}
	}
	return core.Square{}, false
}

// PiecesOf lists the squares occupied by pieces of color c, a1 first.
func (b *Board) PiecesOf(c core.Color) []core.Square {
	var out []core.Square
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			sq := core.Square{File: file, Rank: rank}
			if p := b.Piece(sq); p != core.NoPiece && p.Color() == c {
				out = append(out, sq)
			}
		}
	}
	return out
}

// ApplyMove updates the board for a move already accepted as legal.
func (b *Board) ApplyMove(m Move) {
	piece := b.Piece(m.From)
	if piece == core.NoPiece {
		piece = m.Piece
	}
	captured := b.Piece(m.To)

	b.SetPiece(m.From, core.NoPiece)

	if m.EnPassant {
		captured = b.Piece(core.Square{File: m.To.File, Rank: m.From.Rank})
		b.SetPiece(core.Square{File: m.To.File, Rank: m.From.Rank}, core.NoPiece)
	}

	if m.Castling {
		rookFrom, rookTo := 7, 5
		if m.To.File == 2 {
			rookFrom, rookTo = 0, 3
		}
		rank := m.From.Rank
		rook := b.Piece(core.Square{File: rookFrom, Rank: rank})
		b.SetPiece(core.Square{File: rookFrom, Rank: rank}, core.NoPiece)
		b.SetPiece(core.Square{File: rookTo, Rank: rank}, rook)
	}

	if m.Promotion != core.NoPiece {
		b.SetPiece(m.To, m.Promotion)
	} else {
		b.SetPiece(m.To, piece)
	}

	b.updateCastling(piece, m.From, m.To)

	b.hasEP = false
	if piece.Type() == core.Pawn && abs(m.To.Rank-m.From.Rank) == 2 {
		b.enPassant = core.Square{File: m.From.File, Rank: (m.From.Rank + m.To.Rank) / 2}
		b.hasEP = true
	}

	if piece.Type() == core.Pawn || captured != core.NoPiece {
		b.halfmove = 0
	} else {
		b.halfmove++
	}

	if b.turn == core.ColorBlack {
		b.fullmove++
	}
	b.turn = core.OppositeColor(b.turn)
}

func (b *Board) updateCastling(piece core.Piece, from, to core.Square) {
	switch piece {
	case core.WhiteKing:
		b.castling.WhiteKingside = false
		b.castling.WhiteQueenside = false
	case core.BlackKing:
		b.castling.BlackKingside = false
		b.castling.BlackQueenside = false
	}
	for _, sq := range [2]core.Square{from, to} {
		switch sq {
		case core.Square{File: 0, Rank: 0}:
			b.castling.WhiteQueenside = false
		case core.Square{File: 7, Rank: 0}:
			b.castling.WhiteKingside = false
		case core.Square{File: 0, Rank: 7}:
			b.castling.BlackQueenside = false
		case core.Square{File: 7, Rank: 7}:
			b.castling.BlackKingside = false
		}
	}
}

// ToASCII creates an ASCII representation of the board
func (b *Board) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for r := 0; r < 8; r++ {
		sb.WriteString(fmt.Sprintf("%d ", 8-r))
		for f := 0; f < 8; f++ {
			sb.WriteString(b.squares[r][f].String())
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprintf(" %d\n", 8-r))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
