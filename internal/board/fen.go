package board

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"uciboard/internal/core"
)

const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var ErrMalformedFEN = errors.New("malformed FEN")

var (
	castlingPattern  = regexp.MustCompile(`^([KQkq]{1,4}|-)$`)
	enPassantPattern = regexp.MustCompile(`^([a-h][36]|-)$`)
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedFEN, fmt.Sprintf(format, args...))
}

// ValidateFEN checks the structure of a FEN string. The halfmove and fullmove
// fields may be omitted.
func ValidateFEN(fen string) error {
	parts := strings.Fields(fen)
	if len(parts) < 4 || len(parts) > 6 {
		return malformed("expected 4 to 6 fields, got %d", len(parts))
	}

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != 8 {
		return malformed("expected 8 ranks, got %d", len(ranks))
	}
	for i, rank := range ranks {
		count := 0
		for j := 0; j < len(rank); j++ {
			ch := rank[j]
			switch {
			case ch >= '1' && ch <= '8':
				count += int(ch - '0')
			default:
				if _, ok := core.PieceFromChar(ch); !ok {
					return malformed("invalid piece %q in rank %d", ch, 8-i)
				}
				count++
			}
		}
		if count != 8 {
			return malformed("rank %d has %d squares", 8-i, count)
		}
	}

	if parts[1] != "w" && parts[1] != "b" {
		return malformed("active color must be 'w' or 'b'")
	}
	if !castlingPattern.MatchString(parts[2]) {
		return malformed("invalid castling field %q", parts[2])
	}
	if !enPassantPattern.MatchString(parts[3]) {
		return malformed("invalid en passant field %q", parts[3])
	}
	for i, name := range []string{"halfmove clock", "fullmove number"} {
		if len(parts) > 4+i {
			if n, err := strconv.Atoi(parts[4+i]); err != nil || n < 0 {
				return malformed("invalid %s %q", name, parts[4+i])
			}
		}
	}
	return nil
}

// ParseFEN validates fen and builds a Board from it. Missing clocks default
// to "0 1".
func ParseFEN(fen string) (*Board, error) {
	if err := ValidateFEN(fen); err != nil {
		return nil, err
	}
	parts := strings.Fields(fen)

	b := &Board{halfmove: 0, fullmove: 1}
	for r, rank := range strings.Split(parts[0], "/") {
		file := 0
		for j := 0; j < len(rank); j++ {
			ch := rank[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			p, _ := core.PieceFromChar(ch)
			b.squares[r][file] = p
			file++
		}
	}

	b.turn = core.Color(parts[1][0])

	for _, ch := range parts[2] {
		switch ch {
		case 'K':
			b.castling.WhiteKingside = true
		case 'Q':
			b.castling.WhiteQueenside = true
		case 'k':
			b.castling.BlackKingside = true
		case 'q':
			b.castling.BlackQueenside = true
		}
	}

	if parts[3] != "-" {
		sq, _ := core.ParseSquare(parts[3])
		b.enPassant = sq
		b.hasEP = true
	}

	if len(parts) > 4 {
		b.halfmove, _ = strconv.Atoi(parts[4])
	}
	if len(parts) > 5 {
		b.fullmove, _ = strconv.Atoi(parts[5])
	}
	return b, nil
}

// FEN serializes the board to a six-field FEN string.
func (b *Board) FEN() string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		empty := 0
		for f := 0; f < 8; f++ {
			p := b.squares[r][f]
			if p == core.NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Char())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r < 7 {
			sb.WriteByte('/')
		}
	}

	ep := "-"
	if b.hasEP {
		ep = b.enPassant.String()
	}
	fmt.Fprintf(&sb, " %c %s %s %d %d", b.turn, b.castling, ep, b.halfmove, b.fullmove)
	return sb.String()
}

// PositionKey returns the first four FEN fields: placement, side to move,
// castling and en passant. Two positions with the same key are the same
// position for repetition purposes.
func PositionKey(fen string) string {
	parts := strings.Fields(fen)
	if len(parts) > 4 {
		parts = parts[:4]
	}
	return strings.Join(parts, " ")
}

// IsStartingPosition reports whether fen is the standard initial position,
// ignoring the clocks.
func IsStartingPosition(fen string) bool {
	return PositionKey(fen) == PositionKey(StartingFEN)
}
