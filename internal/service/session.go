package service

import (
	"context"
	"strings"
	"sync"

	"uciboard/internal/board"
	"uciboard/internal/core"
	"uciboard/internal/engine"
	"uciboard/internal/game"
	"uciboard/internal/movegen"
)

// session is one game plus what the engine last told us about it. All fields
// are guarded by mu, which is held across engine round trips so requests on
// one game apply in order.
type session struct {
	mu       sync.Mutex
	id       string
	game     *game.Game
	legal    *movegen.Coordinator
	inCheck  bool
	lastInfo *engine.AnalysisInfo
}

func newSession(g *game.Game, src movegen.LegalMoveSource) *session {
	return &session{game: g, legal: movegen.NewCoordinator(src)}
}

// position is the engine's verdict on a FEN, gathered before any game state
// is touched.
type position struct {
	fen     string
	moves   []string
	inCheck bool
}

func (s *Service) examine(ctx context.Context, fen string) (position, error) {
	moves, err := s.eng.LegalMoves(ctx, fen)
	if err != nil {
		return position{}, err
	}
	in, err := s.eng.Inspect(ctx, fen)
	if err != nil {
		return position{}, err
	}
	return position{fen: fen, moves: moves, inCheck: in.InCheck()}, nil
}

// settle installs p as the current position's engine view and decides
// whether the game has ended.
func (sess *session) settle(p position) {
	sess.legal.SetLegalMoves(p.fen, p.moves)
	sess.inCheck = p.inCheck
	noMoves := !sess.legal.HasLegalMoves()
	sess.game.MarkLastMove(p.inCheck, p.inCheck && noMoves)

	g := sess.game
	if g.IsOver() {
		return
	}
	switch {
	case noMoves && p.inCheck:
		g.SetStatus(game.CheckmateStatus(g.Turn()))
	case noMoves:
		g.SetStatus(game.StatusStalemate)
	case g.IsFiftyMoveRule():
		g.SetStatus(game.StatusDrawFiftyMoves)
	case g.IsThreefoldRepetition():
		g.SetStatus(game.StatusDrawRepetition)
	}
}

// ensureLegal refreshes the legal move cache if it belongs to another
// position.
func (sess *session) ensureLegal(ctx context.Context) error {
	fen := sess.game.CurrentFEN()
	if sess.legal.FEN() == fen {
		return nil
	}
	return sess.legal.Refresh(ctx, fen)
}

// Snapshot is a copy of a game's state, safe to use without locks.
type Snapshot struct {
	ID         string
	InitialFEN string
	FEN        string
	Turn       core.Color
	Status     game.Status
	Moves      []string
	SANMoves   []string
	Metadata   game.Metadata
	InCheck    bool
	LastMove   *board.Move
	// LastInfo is the search behind the last move when the engine played it.
	LastInfo *engine.AnalysisInfo
	Board    *board.Board
}

func (s Snapshot) MoveCount() int { return len(s.Moves) }

func (s Snapshot) Result() string { return s.Status.Result() }

func (sess *session) snapshot() Snapshot {
	g := sess.game
	snap := Snapshot{
		ID:         sess.id,
		InitialFEN: g.InitialFEN(),
		FEN:        g.CurrentFEN(),
		Turn:       g.Turn(),
		Status:     g.Status(),
		Moves:      g.UCIMoves(),
		SANMoves:   g.SANMoves(),
		Metadata:   g.Metadata(),
		InCheck:    sess.inCheck,
		Board:      g.Board(),
	}
	if m, ok := g.LastMove(); ok {
		snap.LastMove = &m
	}
	if sess.lastInfo != nil {
		info := *sess.lastInfo
		snap.LastInfo = &info
	}
	return snap
}

// fenTurn returns the side to move field of a FEN.
func fenTurn(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return string(core.ColorWhite)
	}
	return fields[1]
}
