// Package enginetest provides a scripted UCI engine for tests.
//
// The test binary itself plays the engine: a package's TestMain calls
// RunIfHelper, and tests point the engine client at os.Args[0] after
// calling Enable. The fake knows a handful of positions; anything else gets
// a small canned move list for the side to move.
package enginetest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// EnvVar selects the fake engine mode in the re-executed test binary.
const EnvVar = "UCIBOARD_FAKE_ENGINE"

const (
	ModeNormal = "1"
	// ModeEOF exits before answering uci.
	ModeEOF = "eof"
	// ModeSilent reads commands but never answers.
	ModeSilent = "silent"
	// ModeCrash completes the handshake, then exits on its first search.
	ModeCrash = "crash"
)

// Positions known to the fake engine.
const (
	StartFEN     = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	PromotionFEN = "4k3/P7/8/8/8/8/8/4K3 w - - 0 1"
	CastlingFEN  = "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	StalemateFEN = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
	MateFEN      = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	CheckFEN     = "4k3/8/8/8/8/8/4r3/4K3 w - - 0 1"
)

type position struct {
	moves    []string
	best     string
	checkers string
}

var known = map[string]position{
	StartFEN: {
		moves: []string{
			"a2a3", "a2a4", "b1a3", "b1c3", "b2b3", "b2b4", "c2c3", "c2c4", "d2d3", "d2d4",
			"e2e3", "e2e4", "f2f3", "f2f4", "g1f3", "g1h3", "g2g3", "g2g4", "h2h3", "h2h4",
		},
		best: "e2e4",
	},
	PromotionFEN: {
		moves: []string{"a7a8b", "a7a8n", "a7a8q", "a7a8r", "e1d1", "e1d2", "e1e2", "e1f1", "e1f2"},
		best:  "a7a8q",
	},
	CastlingFEN: {
		moves: []string{"a1a2", "a1b1", "a1d1", "e1c1", "e1d1", "e1f1", "e1g1", "h1f1", "h1g1"},
		best:  "e1g1",
	},
	StalemateFEN: {},
	MateFEN:      {checkers: "h4"},
	CheckFEN: {
		moves:    []string{"e1d1", "e1e2", "e1f1"},
		best:     "e1e2",
		checkers: "e2",
	},
}

var (
	whiteMoves = []string{"b1c3", "c3b1", "d2d4", "e2e4", "f3g1", "g1f3"}
	blackMoves = []string{"b8c6", "c6b8", "d7d5", "e7e5", "f6g8", "g8f6"}
)

// Enable makes engines spawned from os.Args[0] run the fake in mode.
func Enable(t testing.TB, mode string) {
	t.Helper()
	t.Setenv(EnvVar, mode)
}

// RunIfHelper turns the process into the fake engine when EnvVar is set.
// It must be called first thing in TestMain.
func RunIfHelper() {
	mode := os.Getenv(EnvVar)
	if mode == "" {
		return
	}
	switch mode {
	case ModeEOF:
	case ModeSilent:
		_, _ = io.Copy(io.Discard, os.Stdin)
	case ModeCrash:
		serve(os.Stdin, os.Stdout, true)
	default:
		Serve(os.Stdin, os.Stdout)
	}
	os.Exit(0)
}

type fake struct {
	mu    sync.Mutex
	w     *bufio.Writer
	fen   string
	moves []string

	stopSearch chan struct{}
	searchDone chan struct{}

	crashOnGo bool
}

// Serve answers UCI commands from r on w until quit or EOF.
func Serve(r io.Reader, w io.Writer) {
	serve(r, w, false)
}

func serve(r io.Reader, w io.Writer, crashOnGo bool) {
	f := &fake{w: bufio.NewWriter(w), fen: StartFEN, crashOnGo: crashOnGo}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if !f.handle(strings.TrimSpace(sc.Text())) {
			break
		}
	}
	f.halt()
}

func (f *fake) println(lines ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range lines {
		f.w.WriteString(l)
		f.w.WriteByte('\n')
	}
	f.w.Flush()
}

func (f *fake) handle(cmd string) bool {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return true
	}
	switch fields[0] {
	case "uci":
		f.println(
			"id name FakeFish",
			"id author uciboard",
			"option name Threads type spin default 1 min 1 max 1024",
			"option name Hash type spin default 16 min 1 max 33554432",
			"option name Skill Level type spin default 20 min 0 max 20",
			"uciok",
		)
	case "isready":
		f.println("readyok")
	case "position":
		f.setPosition(fields[1:])
	case "go":
		if f.crashOnGo {
			os.Exit(3)
		}
		f.halt()
		f.search(fields[1:])
	case "stop":
		f.halt()
	case "d":
		pos := known[f.fen]
		f.println("", " +---+---+---+", "", "Fen: "+f.fen, "Key: 8F8F01D4562F59FB", "Checkers: "+pos.checkers)
	case "quit":
		return false
	}
	return true
}

func (f *fake) setPosition(args []string) {
	f.moves = nil
	i := 0
	switch {
	case len(args) > 0 && args[0] == "startpos":
		f.fen = StartFEN
		i = 1
	case len(args) > 0 && args[0] == "fen":
		j := 1
		for j < len(args) && args[j] != "moves" {
			j++
		}
		f.fen = strings.Join(args[1:j], " ")
		i = j
	}
	if i < len(args) && args[i] == "moves" {
		f.moves = append(f.moves, args[i+1:]...)
	}
}

// current returns the legal moves and best move of the current position.
func (f *fake) current() position {
	if pos, ok := known[f.fen]; ok && len(f.moves) == 0 {
		return pos
	}
	fields := strings.Fields(f.fen)
	white := len(fields) > 1 && fields[1] == "w"
	if len(f.moves)%2 == 1 {
		white = !white
	}
	if white {
		return position{moves: whiteMoves, best: "g1f3"}
	}
	return position{moves: blackMoves, best: "g8f6"}
}

func (f *fake) search(args []string) {
	pos := f.current()
	switch {
	case len(args) >= 2 && args[0] == "perft":
		lines := make([]string, 0, len(pos.moves)+2)
		for _, m := range pos.moves {
			lines = append(lines, m+": 1")
		}
		lines = append(lines, "", fmt.Sprintf("Nodes searched: %d", len(pos.moves)), "")
		f.println(lines...)
	case len(args) >= 1 && args[0] == "infinite":
		f.stopSearch = make(chan struct{})
		f.searchDone = make(chan struct{})
		go f.infinite(pos, f.stopSearch, f.searchDone)
	default:
		f.println("info string NNUE evaluation using fake.nnue")
		if pos.best == "" {
			score := "cp 0"
			if pos.checkers != "" {
				score = "mate 0"
			}
			f.println("info depth 0 score "+score, "bestmove (none)")
			return
		}
		f.println(
			"info depth 1 seldepth 1 multipv 1 score cp 18 nodes 20 nps 20000 time 1 pv "+pos.best,
			"info depth 2 seldepth 3 multipv 1 score cp 35 nodes 120 nps 60000 time 2 pv "+pos.best+" e7e5",
			"bestmove "+pos.best+" ponder e7e5",
		)
	}
}

func (f *fake) infinite(pos position, stop, done chan struct{}) {
	defer close(done)
	best := pos.best
	if best == "" {
		f.println("info depth 0 score cp 0", "bestmove (none)")
		return
	}
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for depth := 1; ; depth++ {
		select {
		case <-stop:
			f.println("bestmove " + best)
			return
		case <-ticker.C:
			f.println(fmt.Sprintf("info depth %d seldepth %d multipv 1 score cp %d nodes %d nps 100000 pv %s",
				depth, depth+2, 10+depth, depth*1000, best))
		}
	}
}

// halt ends an infinite search, if one is running.
func (f *fake) halt() {
	if f.stopSearch == nil {
		return
	}
	close(f.stopSearch)
	<-f.searchDone
	f.stopSearch, f.searchDone = nil, nil
}
