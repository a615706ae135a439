package game

import (
	"fmt"
	"strings"
	"time"

	"uciboard/internal/board"
	"uciboard/internal/core"
)

// Metadata carries the PGN tag roster values of a game.
type Metadata struct {
	Event string
	Site  string
	Date  string
	Round string
	White string
	Black string
}

func DefaultMetadata() Metadata {
	return Metadata{
		Event: "Casual Game",
		Site:  "uciboard",
		Date:  time.Now().Format("2006.01.02"),
		Round: "?",
		White: "Human",
		Black: "Stockfish",
	}
}

// Game is a board plus its move history. fens always holds one more entry
// than moves: fens[0] is the initial position and fens[i+1] follows moves[i].
type Game struct {
	board  *board.Board
	moves  []board.Move
	fens   []string
	status Status
	meta   Metadata
}

// New starts a game from the standard initial position.
func New() *Game {
	g := &Game{meta: DefaultMetadata()}
	g.Reset()
	return g
}

// NewFromFEN starts a game from an arbitrary position.
func NewFromFEN(fen string) (*Game, error) {
	g := &Game{meta: DefaultMetadata()}
	if err := g.LoadFEN(fen); err != nil {
		return nil, err
	}
	return g, nil
}

// Reset returns to the standard initial position and clears the history.
func (g *Game) Reset() {
	g.board = board.New()
	g.moves = nil
	g.fens = []string{g.board.FEN()}
	g.status = StatusInProgress
}

// LoadFEN replaces the position and clears the history.
func (g *Game) LoadFEN(fen string) error {
	b, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	g.board = b
	g.moves = nil
	g.fens = []string{b.FEN()}
	g.status = StatusInProgress
	return nil
}

// MakeMove applies a move the caller has already accepted as legal.
func (g *Game) MakeMove(m board.Move) {
	g.board.ApplyMove(m)
	g.moves = append(g.moves, m)
	g.fens = append(g.fens, g.board.FEN())
}

// MarkLastMove records check information learned after the move was played.
func (g *Game) MarkLastMove(check, checkmate bool) {
	if len(g.moves) == 0 {
		return
	}
	last := &g.moves[len(g.moves)-1]
	last.Check = check || checkmate
	last.Checkmate = checkmate
}

// UndoMove takes back the last move, restoring the board from the FEN
// snapshot that preceded it. Status returns to in progress.
func (g *Game) UndoMove() (board.Move, bool) {
	if len(g.moves) == 0 {
		return board.Move{}, false
	}
	m := g.moves[len(g.moves)-1]
	g.moves = g.moves[:len(g.moves)-1]
	g.fens = g.fens[:len(g.fens)-1]

	b, err := board.ParseFEN(g.fens[len(g.fens)-1])
	if err != nil {
		// fens only ever holds output of Board.FEN
		panic(err)
	}
	g.board = b
	g.status = StatusInProgress
	return m, true
}

// UndoMoves takes back count moves.
func (g *Game) UndoMoves(count int) error {
	if count < 1 {
		return fmt.Errorf("invalid undo count: %d", count)
	}
	if len(g.moves) < count {
		return fmt.Errorf("cannot undo %d moves: only %d moves available", count, len(g.moves))
	}
	for i := 0; i < count; i++ {
		g.UndoMove()
	}
	return nil
}

// IsThreefoldRepetition reports whether the current position has occurred at
// least three times, counting the current occurrence.
func (g *Game) IsThreefoldRepetition() bool {
	key := board.PositionKey(g.CurrentFEN())
	count := 0
	for _, fen := range g.fens {
		if board.PositionKey(fen) == key {
			count++
		}
	}
	return count >= 3
}

// IsFiftyMoveRule reports whether a hundred plies passed without a pawn move
// or capture.
func (g *Game) IsFiftyMoveRule() bool {
	return g.board.HalfmoveClock() >= 100
}

// Board returns a copy of the current position.
func (g *Game) Board() *board.Board {
	return g.board.Clone()
}

func (g *Game) Turn() core.Color {
	return g.board.Turn()
}

func (g *Game) CurrentFEN() string {
	return g.fens[len(g.fens)-1]
}

func (g *Game) InitialFEN() string {
	return g.fens[0]
}

// FENHistory returns every position of the game, oldest first.
func (g *Game) FENHistory() []string {
	return append([]string(nil), g.fens...)
}

func (g *Game) Moves() []board.Move {
	return append([]board.Move(nil), g.moves...)
}

func (g *Game) MoveCount() int {
	return len(g.moves)
}

func (g *Game) LastMove() (board.Move, bool) {
	if len(g.moves) == 0 {
		return board.Move{}, false
	}
	return g.moves[len(g.moves)-1], true
}

// UCIMoves lists the history as UCI tokens.
func (g *Game) UCIMoves() []string {
	out := make([]string, len(g.moves))
	for i, m := range g.moves {
		out[i] = m.UCI()
	}
	return out
}

// SANMoves lists the history in simplified algebraic notation.
func (g *Game) SANMoves() []string {
	out := make([]string, len(g.moves))
	for i, m := range g.moves {
		out[i] = m.SAN()
	}
	return out
}

// NumberedMoves groups the history into PGN units: "1. e4", "e5", "2. Nf3".
// A game starting with Black to move opens with "1... e5".
func (g *Game) NumberedMoves() []string {
	first, err := board.ParseFEN(g.InitialFEN())
	if err != nil {
		return nil
	}
	number := first.FullmoveNumber()
	black := first.Turn() == core.ColorBlack

	units := make([]string, 0, len(g.moves))
	for i, san := range g.SANMoves() {
		switch {
		case !black:
			units = append(units, fmt.Sprintf("%d. %s", number, san))
		case i == 0:
			units = append(units, fmt.Sprintf("%d... %s", number, san))
		default:
			units = append(units, san)
		}
		if black {
			number++
		}
		black = !black
	}
	return units
}

// FormattedMoves renders the numbered move text on one line.
func (g *Game) FormattedMoves() string {
	return strings.Join(g.NumberedMoves(), " ")
}

func (g *Game) Status() Status {
	return g.status
}

func (g *Game) SetStatus(s Status) {
	g.status = s
}

func (g *Game) IsOver() bool {
	return g.status.IsOver()
}

// Result returns the PGN result token for the current status.
func (g *Game) Result() string {
	return g.status.Result()
}

func (g *Game) Metadata() Metadata {
	return g.meta
}

func (g *Game) SetMetadata(m Metadata) {
	g.meta = m
}
