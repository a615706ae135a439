package board

import (
	"errors"
	"fmt"
	"strings"

	"uciboard/internal/core"
)

var ErrInvalidMoveToken = errors.New("invalid move token")

// Move is a single ply. Captured and Promotion are core.NoPiece when absent.
type Move struct {
	From      core.Square
	To        core.Square
	Piece     core.Piece
	Captured  core.Piece
	Promotion core.Piece
	Castling  bool
	EnPassant bool
	Check     bool
	Checkmate bool
}

// ParseMove builds a Move from a UCI token in the context of b, classifying
// castling, en passant, captures and promotions. It does not check legality.
func ParseMove(token string, b *Board) (Move, error) {
	if !core.ValidMoveToken(token) {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMoveToken, token)
	}
	from, _ := core.ParseSquare(token[0:2])
	to, _ := core.ParseSquare(token[2:4])

	m := Move{From: from, To: to, Piece: b.Piece(from), Captured: b.Piece(to)}
	if m.Piece == core.NoPiece {
		return Move{}, fmt.Errorf("%w: no piece on %s", ErrInvalidMoveToken, from)
	}

	if len(token) == 5 {
		promo, _ := core.PieceFromChar(token[4])
		m.Promotion = core.NewPiece(promo.Type(), m.Piece.Color())
	}

	switch m.Piece.Type() {
	case core.King:
		m.Castling = abs(to.File-from.File) == 2
	case core.Pawn:
		if from.File != to.File && m.Captured == core.NoPiece {
			m.EnPassant = true
			m.Captured = core.NewPiece(core.Pawn, core.OppositeColor(m.Piece.Color()))
		}
	}
	return m, nil
}

// UCI returns the long algebraic token, e.g. "e2e4" or "a7a8q".
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != core.NoPiece {
		s += strings.ToLower(m.Promotion.String())
	}
	return s
}

func (m Move) String() string { return m.UCI() }

func (m Move) IsCapture() bool { return m.Captured != core.NoPiece }

// Equal compares origin, destination and promotion only.
func (m Move) Equal(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion.Type() == o.Promotion.Type()
}

// SAN renders simplified standard algebraic notation. Disambiguation between
// identical pieces is not attempted.
func (m Move) SAN() string {
	var sb strings.Builder
	switch {
	case m.Castling && m.To.File == 6:
		sb.WriteString("O-O")
	case m.Castling:
		sb.WriteString("O-O-O")
	default:
		if m.Piece.Type() == core.Pawn {
			if m.IsCapture() {
				sb.WriteByte('a' + byte(m.From.File))
			}
		} else {
			sb.WriteString(strings.ToUpper(m.Piece.String()))
		}
		if m.IsCapture() {
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.Promotion != core.NoPiece {
			sb.WriteByte('=')
			sb.WriteString(strings.ToUpper(m.Promotion.String()))
		}
	}
	switch {
	case m.Checkmate:
		sb.WriteByte('#')
	case m.Check:
		sb.WriteByte('+')
	}
	return sb.String()
}
