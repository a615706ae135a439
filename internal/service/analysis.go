package service

import (
	"context"
	"fmt"

	"uciboard/internal/core"
	"uciboard/internal/engine"
)

// LegalMoves lists the legal moves of a game, optionally only those starting
// on square from.
func (s *Service) LegalMoves(ctx context.Context, gameID, from string) (string, []string, error) {
	sess, err := s.lookup(gameID)
	if err != nil {
		return "", nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.ensureLegal(ctx); err != nil {
		return "", nil, err
	}
	fen := sess.game.CurrentFEN()
	if from == "" {
		return fen, sess.legal.LegalMoves(), nil
	}
	sq, err := core.ParseSquare(from)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return fen, sess.legal.MovesFrom(sq), nil
}

// Targets lists the distinct squares the piece on from can move to.
func (s *Service) Targets(ctx context.Context, gameID, from string) ([]string, error) {
	sq, err := core.ParseSquare(from)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	sess, err := s.lookup(gameID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.ensureLegal(ctx); err != nil {
		return nil, err
	}
	var out []string
	for _, to := range sess.legal.DestinationsFrom(sq) {
		out = append(out, to.String())
	}
	return out, nil
}

// Hint asks the engine for the best move without playing it.
func (s *Service) Hint(ctx context.Context, gameID string) (engine.SearchResult, error) {
	sess, err := s.lookup(gameID)
	if err != nil {
		return engine.SearchResult{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	g := sess.game
	if g.IsOver() {
		return engine.SearchResult{}, ErrGameOver
	}
	res, err := s.eng.BestMoveFrom(ctx, g.InitialFEN(), g.UCIMoves())
	if err != nil {
		return engine.SearchResult{}, err
	}
	if !res.HasMove() {
		return engine.SearchResult{}, ErrNoEngineMove
	}
	return res, nil
}

// Evaluate scores the current position with a fixed depth search.
func (s *Service) Evaluate(ctx context.Context, gameID string, depth int) (engine.Score, error) {
	sess, err := s.lookup(gameID)
	if err != nil {
		return engine.Score{}, err
	}
	sess.mu.Lock()
	fen := sess.game.CurrentFEN()
	sess.mu.Unlock()
	return s.eng.Evaluate(ctx, fen, depth)
}

// Analyze starts an infinite analysis of a game's current position. The
// engine runs one analysis at a time; starting another, or any other engine
// request, ends this one.
func (s *Service) Analyze(ctx context.Context, gameID string) (*engine.Analysis, error) {
	sess, err := s.lookup(gameID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	fen := sess.game.CurrentFEN()
	sess.mu.Unlock()

	a, err := s.eng.StartAnalysis(ctx, fen)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("game", gameID).Str("fen", fen).Msg("analysis started")
	return a, nil
}

// StopAnalysis ends the running analysis, if any.
func (s *Service) StopAnalysis(ctx context.Context) error {
	return s.eng.StopAnalysis(ctx)
}
