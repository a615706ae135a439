package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"uciboard/internal/board"
	"uciboard/internal/core"
	"uciboard/internal/engine"
	"uciboard/internal/game"
	"uciboard/internal/stats"
	"uciboard/internal/storage"
)

// GameSetup describes a new game. Empty fields keep their defaults.
type GameSetup struct {
	FEN   string
	White string
	Black string
	Event string
}

// CreateGame starts a game from setup.FEN, or the standard position.
func (s *Service) CreateGame(ctx context.Context, setup GameSetup) (Snapshot, error) {
	g := game.New()
	if setup.FEN != "" {
		var err error
		if g, err = game.NewFromFEN(setup.FEN); err != nil {
			return Snapshot{}, err
		}
	}
	meta := g.Metadata()
	if setup.White != "" {
		meta.White = setup.White
	}
	if setup.Black != "" {
		meta.Black = setup.Black
	}
	if setup.Event != "" {
		meta.Event = setup.Event
	}
	g.SetMetadata(meta)
	return s.start(ctx, g)
}

// start asks the engine about g's position and registers it.
func (s *Service) start(ctx context.Context, g *game.Game) (Snapshot, error) {
	if err := s.eng.NewGame(ctx); err != nil {
		return Snapshot{}, err
	}
	p, err := s.examine(ctx, g.CurrentFEN())
	if err != nil {
		return Snapshot{}, err
	}
	sess := newSession(g, s.eng)
	sess.settle(p)
	if err := s.register(sess); err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.stats.IncCounter(stats.MetricGamesCreated, 1)
	s.persistGame(sess)
	if g.IsOver() {
		s.stats.IncCounter(stats.MetricGamesFinished, 1)
	}
	s.log.Info().Str("game", sess.id).Str("fen", g.InitialFEN()).Int("moves", g.MoveCount()).Msg("game created")
	return sess.snapshot(), nil
}

func (s *Service) persistGame(sess *session) {
	if s.store == nil {
		return
	}
	g := sess.game
	meta := g.Metadata()
	now := time.Now().UTC()
	s.store.RecordNewGame(storage.GameRecord{
		GameID:       sess.id,
		InitialFEN:   g.InitialFEN(),
		Event:        meta.Event,
		White:        meta.White,
		Black:        meta.Black,
		Status:       g.Status().String(),
		Result:       g.Result(),
		StartTimeUTC: now,
	})
	fens := g.FENHistory()
	for i, m := range g.Moves() {
		s.store.RecordMove(storage.MoveRecord{
			GameID:       sess.id,
			MoveNumber:   i + 1,
			MoveUCI:      m.UCI(),
			MoveSAN:      m.SAN(),
			FENAfterMove: fens[i+1],
			PlayerColor:  fenTurn(fens[i]),
			MoveTimeUTC:  now,
		})
	}
}

// GetGame returns a snapshot of a game.
func (s *Service) GetGame(gameID string) (Snapshot, error) {
	sess, err := s.lookup(gameID)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), nil
}

// MakeMove plays a UCI move token after the engine confirms it is legal.
func (s *Service) MakeMove(ctx context.Context, gameID, token string) (Snapshot, error) {
	sess, err := s.lookup(gameID)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.play(ctx, sess, token, nil); err != nil {
		return Snapshot{}, err
	}
	return sess.snapshot(), nil
}

// ComputerMove lets the engine choose and play the side to move's move.
func (s *Service) ComputerMove(ctx context.Context, gameID string) (Snapshot, error) {
	sess, err := s.lookup(gameID)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	g := sess.game
	if g.IsOver() {
		return Snapshot{}, ErrGameOver
	}
	res, err := s.eng.BestMoveFrom(ctx, g.InitialFEN(), g.UCIMoves())
	if err != nil {
		return Snapshot{}, err
	}
	if !res.HasMove() {
		return Snapshot{}, ErrNoEngineMove
	}
	info := res.Info
	if err := s.play(ctx, sess, res.BestMove, &info); err != nil {
		return Snapshot{}, err
	}
	return sess.snapshot(), nil
}

// play applies token to sess. The engine is consulted about the resulting
// position before the game is changed, so a failed round trip leaves the
// game as it was.
func (s *Service) play(ctx context.Context, sess *session, token string, info *engine.AnalysisInfo) error {
	g := sess.game
	if g.IsOver() {
		return ErrGameOver
	}
	token = strings.ToLower(token)
	if err := sess.ensureLegal(ctx); err != nil {
		return err
	}
	if err := sess.legal.Check(token); err != nil {
		s.stats.IncCounter(stats.MetricMovesRejected, 1)
		return err
	}
	m, err := board.ParseMove(token, g.Board())
	if err != nil {
		s.stats.IncCounter(stats.MetricMovesRejected, 1)
		return err
	}

	next := g.Board()
	next.ApplyMove(m)
	p, err := s.examine(ctx, next.FEN())
	if err != nil {
		return err
	}

	mover := g.Turn()
	g.MakeMove(m)
	sess.settle(p)
	sess.lastInfo = info
	s.stats.IncCounter(stats.MetricMovesPlayed, 1)

	if s.store != nil {
		last, _ := g.LastMove()
		s.store.RecordMove(storage.MoveRecord{
			GameID:       sess.id,
			MoveNumber:   g.MoveCount(),
			MoveUCI:      last.UCI(),
			MoveSAN:      last.SAN(),
			FENAfterMove: g.CurrentFEN(),
			PlayerColor:  string(mover),
			MoveTimeUTC:  time.Now().UTC(),
		})
	}
	s.log.Debug().Str("game", sess.id).Str("move", token).Str("fen", g.CurrentFEN()).Msg("move played")
	if g.IsOver() {
		s.finish(sess)
	}
	s.waiter.NotifyGame(sess.id, g.MoveCount())
	return nil
}

func (s *Service) finish(sess *session) {
	g := sess.game
	s.stats.IncCounter(stats.MetricGamesFinished, 1)
	if s.store != nil {
		s.store.RecordStatus(sess.id, g.Status().String(), g.Result())
	}
	s.log.Info().Str("game", sess.id).Str("status", g.Status().String()).Str("result", g.Result()).Msg("game over")
}

// Undo takes back count moves. An ended game resumes.
func (s *Service) Undo(ctx context.Context, gameID string, count int) (Snapshot, error) {
	sess, err := s.lookup(gameID)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	g := sess.game
	if count < 1 {
		return Snapshot{}, fmt.Errorf("%w: undo count %d", ErrInvalidRequest, count)
	}
	if g.MoveCount() < count {
		return Snapshot{}, fmt.Errorf("%w: %d moves requested, %d played", ErrNothingToUndo, count, g.MoveCount())
	}

	target := g.FENHistory()[g.MoveCount()-count]
	p, err := s.examine(ctx, target)
	if err != nil {
		return Snapshot{}, err
	}
	before := g.Status()
	if err := g.UndoMoves(count); err != nil {
		return Snapshot{}, err
	}
	sess.settle(p)
	sess.lastInfo = nil

	if s.store != nil {
		s.store.DeleteUndoneMoves(sess.id, g.MoveCount())
		if g.Status() != before {
			s.store.RecordStatus(sess.id, g.Status().String(), g.Result())
		}
	}
	s.log.Debug().Str("game", sess.id).Int("count", count).Msg("moves undone")
	s.waiter.NotifyGame(sess.id, g.MoveCount())
	return sess.snapshot(), nil
}

// Resign ends the game with c resigning.
func (s *Service) Resign(gameID string, c core.Color) (Snapshot, error) {
	return s.conclude(gameID, game.ResignStatus(c))
}

// Draw ends the game by agreement.
func (s *Service) Draw(gameID string) (Snapshot, error) {
	return s.conclude(gameID, game.StatusDrawAgreement)
}

func (s *Service) conclude(gameID string, status game.Status) (Snapshot, error) {
	sess, err := s.lookup(gameID)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.game.IsOver() {
		return Snapshot{}, ErrGameOver
	}
	sess.game.SetStatus(status)
	s.finish(sess)
	s.waiter.NotifyAll(sess.id)
	return sess.snapshot(), nil
}

// DeleteGame forgets a game. Its stored history is kept.
func (s *Service) DeleteGame(gameID string) error {
	s.mu.Lock()
	if _, ok := s.games[gameID]; !ok {
		s.mu.Unlock()
		return ErrGameNotFound
	}
	delete(s.games, gameID)
	s.stats.SetGauge(stats.MetricGamesActive, int64(len(s.games)))
	s.mu.Unlock()

	s.waiter.RemoveGame(gameID)
	s.log.Info().Str("game", gameID).Msg("game deleted")
	return nil
}
