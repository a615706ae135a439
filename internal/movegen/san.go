package movegen

import (
	"fmt"
	"strings"

	"uciboard/internal/board"
	"uciboard/internal/core"
)

// FromSAN resolves an algebraic move such as "Nf3", "exd5", "O-O" or "Nbd2"
// to the matching token in legal, the legal moves of b. Check and
// annotation suffixes are ignored.
func FromSAN(b *board.Board, legal []string, san string) (string, error) {
	clean := strings.TrimRight(strings.TrimSpace(san), "+#!?")
	clean = strings.ReplaceAll(clean, "0", "O")
	if clean == "" {
		return "", fmt.Errorf("%w: empty move", board.ErrInvalidMoveToken)
	}

	var found []string
	for _, token := range legal {
		m, err := board.ParseMove(token, b)
		if err != nil {
			continue
		}
		if sanMatches(m, clean) {
			found = append(found, token)
		}
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrIllegalMove, san)
	case 1:
		return found[0], nil
	}
	return "", fmt.Errorf("%w: %s is ambiguous (%s)", ErrIllegalMove, san, strings.Join(found, ", "))
}

// sanMatches compares m with clean, allowing a piece move to carry a file,
// rank or square disambiguator after the piece letter.
func sanMatches(m board.Move, clean string) bool {
	m.Check, m.Checkmate = false, false
	base := m.SAN()
	if base == clean {
		return true
	}
	if m.Castling || m.Piece.Type() == core.Pawn {
		return false
	}
	if len(clean) <= len(base) || clean[0] != base[0] || !strings.HasSuffix(clean, base[1:]) {
		return false
	}
	from := m.From.String()
	switch disamb := clean[1 : len(clean)-len(base)+1]; len(disamb) {
	case 1:
		return disamb[0] == from[0] || disamb[0] == from[1]
	case 2:
		return disamb == from
	}
	return false
}
