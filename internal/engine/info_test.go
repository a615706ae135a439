package engine

import (
	"reflect"
	"testing"
)

func TestParseInfoLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want AnalysisInfo
		ok   bool
	}{
		{
			name: "centipawns",
			line: "info depth 12 seldepth 18 multipv 1 score cp 34 nodes 150000 nps 900000 time 166 pv e2e4 e7e5 g1f3",
			want: AnalysisInfo{
				Depth: 12, SelDepth: 18, MultiPV: 1, Nodes: 150000, NPS: 900000,
				Score: Score{Centipawns: 34}, BestMove: "e2e4", Ponder: "e7e5",
				PV: []string{"e2e4", "e7e5", "g1f3"},
			},
			ok: true,
		},
		{
			name: "mate against",
			line: "info depth 5 score mate -2 pv h2h3",
			want: AnalysisInfo{Depth: 5, Score: Score{Mate: -2, IsMate: true}, BestMove: "h2h3", PV: []string{"h2h3"}},
			ok:   true,
		},
		{
			name: "bound marker",
			line: "info depth 7 score cp -15 upperbound nodes 10",
			want: AnalysisInfo{Depth: 7, Nodes: 10, Score: Score{Centipawns: -15}},
			ok:   true,
		},
		{name: "no score", line: "info depth 3 currmove e2e4 currmovenumber 1"},
		{name: "string", line: "info string NNUE evaluation enabled score cp 3"},
		{name: "not info", line: "bestmove e2e4"},
		{name: "empty", line: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseInfoLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseInfoLine() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScoreScalar(t *testing.T) {
	tests := []struct {
		score Score
		want  int
	}{
		{Score{Centipawns: -45}, -45},
		{Score{Mate: 3, IsMate: true}, 99997},
		{Score{Mate: -3, IsMate: true}, -99997},
		{Score{Mate: 1, IsMate: true}, 99999},
	}
	for _, tt := range tests {
		if got := tt.score.Scalar(); got != tt.want {
			t.Errorf("%v.Scalar() = %d, want %d", tt.score, got, tt.want)
		}
	}
	if s := (Score{Centipawns: 125}).String(); s != "1.25" {
		t.Errorf("String() = %q", s)
	}
}

func TestParseBestMove(t *testing.T) {
	tests := []struct {
		line         string
		best, ponder string
		ok           bool
	}{
		{"bestmove e2e4 ponder e7e5", "e2e4", "e7e5", true},
		{"bestmove a7a8q", "a7a8q", "", true},
		{"bestmove (none)", "", "", true},
		{"bestmove", "", "", true},
		{"info depth 1", "", "", false},
	}
	for _, tt := range tests {
		best, ponder, ok := parseBestMove(tt.line)
		if best != tt.best || ponder != tt.ponder || ok != tt.ok {
			t.Errorf("parseBestMove(%q) = %q, %q, %v", tt.line, best, ponder, ok)
		}
	}
}

func TestPositionCommand(t *testing.T) {
	tests := []struct {
		fen   string
		moves []string
		want  string
	}{
		{startFEN, nil, "position startpos"},
		{"", []string{"e2e4", "e7e5"}, "position startpos moves e2e4 e7e5"},
		{"4k3/P7/8/8/8/8/8/4K3 w - - 0 1", nil, "position fen 4k3/P7/8/8/8/8/8/4K3 w - - 0 1"},
		{"4k3/P7/8/8/8/8/8/4K3 w - - 0 1", []string{"a7a8q"}, "position fen 4k3/P7/8/8/8/8/8/4K3 w - - 0 1 moves a7a8q"},
	}
	for _, tt := range tests {
		if got := positionCommand(tt.fen, tt.moves); got != tt.want {
			t.Errorf("positionCommand() = %q, want %q", got, tt.want)
		}
	}
}

func TestPerftMove(t *testing.T) {
	if m, ok := perftMove("e2e4: 1"); !ok || m != "e2e4" {
		t.Errorf("perftMove = %q, %v", m, ok)
	}
	if _, ok := perftMove("info string NNUE: enabled"); ok {
		t.Error("non-move prefix accepted")
	}
	if _, ok := perftMove("Nodes searched: 20"); ok {
		t.Error("summary line accepted")
	}
}
