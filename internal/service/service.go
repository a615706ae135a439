// Package service runs chess games against the engine. It owns every game
// session, asks the engine for legality and check after each move, decides
// when a game is over and records history in storage.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"uciboard/internal/engine"
	"uciboard/internal/stats"
	"uciboard/internal/storage"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrGameOver       = errors.New("game is over")
	ErrNothingToUndo  = errors.New("nothing to undo")
	ErrNoEngineMove   = errors.New("engine returned no move")
	ErrTooManyGames   = errors.New("too many active games")
	ErrInvalidRequest = errors.New("invalid request")
)

const DefaultMaxGames = 1000

// Engine is the part of the engine client the service drives.
type Engine interface {
	Running() bool
	LegalMoves(ctx context.Context, fen string) ([]string, error)
	Inspect(ctx context.Context, fen string) (engine.Inspection, error)
	BestMoveFrom(ctx context.Context, startFEN string, moves []string) (engine.SearchResult, error)
	Evaluate(ctx context.Context, fen string, depth int) (engine.Score, error)
	StartAnalysis(ctx context.Context, fen string) (*engine.Analysis, error)
	StopAnalysis(ctx context.Context) error
	NewGame(ctx context.Context) error
	Configuration() engine.Configuration
	SetConfiguration(ctx context.Context, cfg engine.Configuration) error
}

type Options struct {
	Engine Engine
	// Store is optional; nil disables persistence.
	Store     *storage.Store
	Logger    zerolog.Logger
	Collector stats.Collector
	// MaxGames caps concurrently held games. Zero means DefaultMaxGames.
	MaxGames    int
	WaitTimeout time.Duration
}

type Service struct {
	eng      Engine
	store    *storage.Store
	waiter   *WaitRegistry
	stats    stats.Collector
	log      zerolog.Logger
	maxGames int

	mu    sync.RWMutex
	games map[string]*session
}

func New(opts Options) *Service {
	if opts.Collector == nil {
		opts.Collector = stats.NewNoop()
	}
	if opts.MaxGames <= 0 {
		opts.MaxGames = DefaultMaxGames
	}
	return &Service{
		eng:      opts.Engine,
		store:    opts.Store,
		waiter:   NewWaitRegistry(opts.WaitTimeout),
		stats:    opts.Collector,
		log:      opts.Logger.With().Str("component", "service").Logger(),
		maxGames: opts.MaxGames,
		games:    make(map[string]*session),
	}
}

func (s *Service) lookup(gameID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return sess, nil
}

// register stores sess under a fresh UUID.
func (s *Service) register(sess *session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.games) >= s.maxGames {
		return ErrTooManyGames
	}
	for {
		id := uuid.New().String()
		if _, exists := s.games[id]; !exists {
			sess.id = id
			break
		}
	}
	s.games[sess.id] = sess
	s.stats.SetGauge(stats.MetricGamesActive, int64(len(s.games)))
	return nil
}

// GameCount returns the number of games held in memory.
func (s *Service) GameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// WaitForChange returns a channel closed when gameID no longer has moveCount
// moves, or the wait times out or is cancelled.
func (s *Service) WaitForChange(ctx context.Context, gameID string, moveCount int) (<-chan struct{}, error) {
	sess, err := s.lookup(gameID)
	if err != nil {
		return nil, err
	}
	ch := s.waiter.RegisterWait(ctx, gameID, moveCount)
	// the game may have moved on before the waiter was registered
	sess.mu.Lock()
	current := sess.game.MoveCount()
	sess.mu.Unlock()
	s.waiter.NotifyGame(gameID, current)
	return ch, nil
}

func (s *Service) EngineConfiguration() engine.Configuration {
	return s.eng.Configuration()
}

func (s *Service) SetEngineConfiguration(ctx context.Context, cfg engine.Configuration) error {
	if err := s.eng.SetConfiguration(ctx, cfg); err != nil {
		return err
	}
	s.log.Info().Str("config", cfg.Summary()).Msg("engine configuration updated")
	return nil
}

func (s *Service) EngineStatus() string {
	if s.eng.Running() {
		return "ok"
	}
	return "stopped"
}

func (s *Service) StorageStatus() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// Shutdown releases long-poll waiters, drops every game and closes storage.
// The engine is owned by the caller.
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error
	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, err)
	}

	s.mu.Lock()
	s.games = make(map[string]*session)
	s.stats.SetGauge(stats.MetricGamesActive, 0)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
