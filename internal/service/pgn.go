package service

import (
	"context"
	"fmt"
	"slices"

	"uciboard/internal/board"
	"uciboard/internal/game"
	"uciboard/internal/movegen"
	"uciboard/internal/pgn"
)

// ExportPGN renders a game as PGN.
func (s *Service) ExportPGN(gameID string) (string, error) {
	sess, err := s.lookup(gameID)
	if err != nil {
		return "", err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return pgn.Encode(sess.game), nil
}

// ImportPGN loads a game from PGN text. Every move is replayed against the
// engine's legal move list before the game is registered. Without a UCIMoves
// tag the SAN move text is resolved against that list instead.
func (s *Service) ImportPGN(ctx context.Context, text string) (Snapshot, error) {
	decoded, err := pgn.Decode(text)
	if err != nil {
		return Snapshot{}, err
	}

	g, err := game.NewFromFEN(decoded.InitialFEN())
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", pgn.ErrInvalidPGN, err)
	}
	g.SetMetadata(decoded.Metadata())

	tokens, san := decoded.UCIMoves(), false
	if len(tokens) == 0 {
		tokens, san = pgn.MoveTextTokens(text), true
	}

	for i, token := range tokens {
		legal, err := s.eng.LegalMoves(ctx, g.CurrentFEN())
		if err != nil {
			return Snapshot{}, err
		}
		if san {
			resolved, err := movegen.FromSAN(g.Board(), legal, token)
			if err != nil {
				return Snapshot{}, fmt.Errorf("%w: move %d: %w", pgn.ErrInvalidPGN, i+1, err)
			}
			token = resolved
		} else if !slices.Contains(legal, token) {
			return Snapshot{}, fmt.Errorf("%w: %w: move %d %s", pgn.ErrInvalidPGN, movegen.ErrIllegalMove, i+1, token)
		}
		m, err := board.ParseMove(token, g.Board())
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: %w", pgn.ErrInvalidPGN, err)
		}
		g.MakeMove(m)
	}
	return s.start(ctx, g)
}
