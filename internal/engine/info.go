package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// MateScore is the magnitude used when a mate score is flattened to an int.
const MateScore = 100000

// Score is either a centipawn evaluation or a mate distance, from the side
// to move's point of view.
type Score struct {
	Centipawns int
	Mate       int // moves to mate; negative when being mated
	IsMate     bool
}

// Scalar flattens the score: mate in N becomes ±(100000 - |N|).
func (s Score) Scalar() int {
	if !s.IsMate {
		return s.Centipawns
	}
	n := s.Mate
	if n < 0 {
		n = -n
	}
	if s.Mate < 0 {
		return -(MateScore - n)
	}
	return MateScore - n
}

func (s Score) String() string {
	if s.IsMate {
		return fmt.Sprintf("Mate in %d", s.Mate)
	}
	return fmt.Sprintf("%.2f", float64(s.Centipawns)/100)
}

// AnalysisInfo is one parsed "info" line.
type AnalysisInfo struct {
	Depth    int
	SelDepth int
	MultiPV  int
	Nodes    int64
	NPS      int64
	Score    Score
	BestMove string
	Ponder   string
	PV       []string
}

// SearchResult is the answer to a bounded search.
type SearchResult struct {
	BestMove string // empty when the engine reported no move
	Ponder   string
	Info     AnalysisInfo // last info line seen before bestmove
}

// HasMove reports whether the engine returned a move.
func (r SearchResult) HasMove() bool {
	return r.BestMove != ""
}

// ParseInfoLine parses an "info" line carrying a score. Lines without a
// score, such as "info string" or currmove updates, are reported as not ok.
func ParseInfoLine(line string) (AnalysisInfo, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return AnalysisInfo{}, false
	}

	var info AnalysisInfo
	scored := false
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "string":
			return AnalysisInfo{}, false
		case "depth":
			info.Depth = intAt(fields, i+1)
			i++
		case "seldepth":
			info.SelDepth = intAt(fields, i+1)
			i++
		case "multipv":
			info.MultiPV = intAt(fields, i+1)
			i++
		case "nodes":
			info.Nodes = int64At(fields, i+1)
			i++
		case "nps":
			info.NPS = int64At(fields, i+1)
			i++
		case "score":
			if i+2 >= len(fields) {
				continue
			}
			switch fields[i+1] {
			case "cp":
				info.Score = Score{Centipawns: intAt(fields, i+2)}
				scored = true
			case "mate":
				info.Score = Score{Mate: intAt(fields, i+2), IsMate: true}
				scored = true
			}
			i += 2
		case "pv":
			info.PV = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		}
	}
	if !scored {
		return AnalysisInfo{}, false
	}
	if len(info.PV) > 0 {
		info.BestMove = info.PV[0]
	}
	if len(info.PV) > 1 {
		info.Ponder = info.PV[1]
	}
	return info, true
}

// parseBestMove parses "bestmove <move> [ponder <move>]". A "(none)" or
// missing move yields an empty move.
func parseBestMove(line string) (best, ponder string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "bestmove" {
		return "", "", false
	}
	if len(fields) > 1 && fields[1] != "(none)" && fields[1] != "0000" {
		best = fields[1]
	}
	if len(fields) > 3 && fields[2] == "ponder" {
		ponder = fields[3]
	}
	return best, ponder, true
}

// positionCommand builds the "position" line for a start FEN and moves.
// An empty FEN or the standard start position uses "startpos".
func positionCommand(fen string, moves []string) string {
	var sb strings.Builder
	if fen == "" || fen == "startpos" || fen == startFEN {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position fen ")
		sb.WriteString(fen)
	}
	if len(moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(moves, " "))
	}
	return sb.String()
}

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func intAt(fields []string, i int) int {
	if i >= len(fields) {
		return 0
	}
	n, _ := strconv.Atoi(fields[i])
	return n
}

func int64At(fields []string, i int) int64 {
	if i >= len(fields) {
		return 0
	}
	n, _ := strconv.ParseInt(fields[i], 10, 64)
	return n
}
