// Package movegen keeps the engine's legal move set for the current position
// and answers the questions a board front end asks about it.
package movegen

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"uciboard/internal/board"
	"uciboard/internal/core"
)

var ErrIllegalMove = errors.New("illegal move")

// LegalMoveSource answers legal move queries, normally the engine client.
type LegalMoveSource interface {
	LegalMoves(ctx context.Context, fen string) ([]string, error)
}

// Coordinator caches the legal moves of exactly one position. The set is
// replaced wholesale, never merged.
type Coordinator struct {
	src LegalMoveSource

	mu    sync.RWMutex
	fen   string
	moves []string
	set   map[string]struct{}
}

func NewCoordinator(src LegalMoveSource) *Coordinator {
	return &Coordinator{src: src, set: map[string]struct{}{}}
}

// Refresh asks the source for the legal moves of fen. On failure the previous
// set is kept.
func (c *Coordinator) Refresh(ctx context.Context, fen string) error {
	moves, err := c.src.LegalMoves(ctx, fen)
	if err != nil {
		return fmt.Errorf("refresh legal moves: %w", err)
	}
	c.SetLegalMoves(fen, moves)
	return nil
}

// SetLegalMoves installs a move set obtained elsewhere.
func (c *Coordinator) SetLegalMoves(fen string, moves []string) {
	set := make(map[string]struct{}, len(moves))
	for _, m := range moves {
		set[m] = struct{}{}
	}
	sorted := slices.Clone(moves)
	slices.Sort(sorted)

	c.mu.Lock()
	c.fen, c.moves, c.set = fen, sorted, set
	c.mu.Unlock()
}

// FEN is the position the current set belongs to.
func (c *Coordinator) FEN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fen
}

func (c *Coordinator) LegalMoves() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.moves)
}

func (c *Coordinator) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.moves)
}

func (c *Coordinator) HasLegalMoves() bool {
	return c.Count() > 0
}

func (c *Coordinator) IsLegal(token string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.set[strings.ToLower(token)]
	return ok
}

// Check reports why token cannot be played, or nil if it can.
func (c *Coordinator) Check(token string) error {
	if !core.ValidMoveToken(token) {
		return fmt.Errorf("%w: %q", board.ErrInvalidMoveToken, token)
	}
	if !c.IsLegal(token) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, token)
	}
	return nil
}

// MovesFrom lists the legal moves starting on sq.
func (c *Coordinator) MovesFrom(sq core.Square) []string {
	prefix := sq.String()
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, m := range c.moves {
		if strings.HasPrefix(m, prefix) {
			out = append(out, m)
		}
	}
	return out
}

// DestinationsFrom lists the distinct target squares reachable from sq.
// Promotions to different pieces share one destination.
func (c *Coordinator) DestinationsFrom(sq core.Square) []core.Square {
	var out []core.Square
	for _, m := range c.MovesFrom(sq) {
		to, err := core.ParseSquare(m[2:4])
		if err != nil || slices.Contains(out, to) {
			continue
		}
		out = append(out, to)
	}
	return out
}

// BasicValidation rejects moves that are wrong before legality is even
// asked: an empty or enemy origin, a friendly target, or a null move.
func BasicValidation(b *board.Board, from, to core.Square) bool {
	piece := b.Piece(from)
	if piece == core.NoPiece || piece.Color() != b.Turn() {
		return false
	}
	if target := b.Piece(to); target != core.NoPiece && target.Color() == piece.Color() {
		return false
	}
	return from != to
}

// IsPromotionMove reports whether moving from -> to is a pawn reaching the
// last rank, so the caller must choose a piece.
func IsPromotionMove(b *board.Board, from, to core.Square) bool {
	switch b.Piece(from) {
	case core.WhitePawn:
		return to.Rank == 7
	case core.BlackPawn:
		return to.Rank == 0
	}
	return false
}

// PromotionPieces lists the choices offered for a promotion, queen first.
func PromotionPieces(c core.Color) []core.Piece {
	return []core.Piece{
		core.NewPiece(core.Queen, c),
		core.NewPiece(core.Rook, c),
		core.NewPiece(core.Bishop, c),
		core.NewPiece(core.Knight, c),
	}
}

// Token builds a UCI token; promo is ignored when core.NoPieceType.
func Token(from, to core.Square, promo core.PieceType) string {
	s := from.String() + to.String()
	if p := core.NewPiece(promo, core.ColorBlack); p != core.NoPiece {
		s += p.String()
	}
	return s
}

// ParseLegalMoves extracts move tokens from engine output, either perft
// lines ("e2e4: 1") or whitespace separated tokens.
func ParseLegalMoves(output string) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(tok string) {
		if !core.ValidMoveToken(tok) {
			return
		}
		if _, dup := seen[tok]; dup {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i := strings.IndexByte(line, ':'); i >= 0 {
			add(strings.TrimSpace(line[:i]))
			continue
		}
		for _, tok := range strings.Fields(line) {
			add(tok)
		}
	}
	slices.Sort(out)
	return out
}
