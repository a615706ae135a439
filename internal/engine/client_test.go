package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"testing"
	"time"

	"uciboard/internal/engine/enginetest"
)

var moveShape = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)

func TestStartMissingBinary(t *testing.T) {
	c := New(Options{Path: filepath.Join(t.TempDir(), "no-such-engine")})
	err := c.Start(context.Background())
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("Start() error = %v, want ErrEngineUnavailable", err)
	}
	if c.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", c.State())
	}
}

func TestStartEngineExitsBeforeHandshake(t *testing.T) {
	enginetest.Enable(t, enginetest.ModeEOF)
	c := New(Options{Path: os.Args[0]})
	if err := c.Start(context.Background()); !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("Start() error = %v, want ErrEngineUnavailable", err)
	}
}

func TestStartHandshakeTimeout(t *testing.T) {
	enginetest.Enable(t, enginetest.ModeSilent)
	c := New(Options{Path: os.Args[0], HandshakeTimeout: 200 * time.Millisecond})
	start := time.Now()
	if err := c.Start(context.Background()); !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("Start() error = %v, want ErrEngineUnavailable", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Start() took %v", elapsed)
	}
}

func TestRequestsBeforeStart(t *testing.T) {
	c := New(Options{Path: os.Args[0]})
	ctx := context.Background()
	if _, err := c.BestMove(ctx, enginetest.StartFEN); !errors.Is(err, ErrEngineNotRunning) {
		t.Errorf("BestMove() error = %v", err)
	}
	if _, err := c.LegalMoves(ctx, enginetest.StartFEN); !errors.Is(err, ErrEngineNotRunning) {
		t.Errorf("LegalMoves() error = %v", err)
	}
	if _, err := c.StartAnalysis(ctx, enginetest.StartFEN); !errors.Is(err, ErrEngineNotRunning) {
		t.Errorf("StartAnalysis() error = %v", err)
	}
	if err := c.StopAnalysis(ctx); err != nil {
		t.Errorf("StopAnalysis() with nothing running = %v", err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("Stop() on a stopped client = %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	c := startFake(t)
	if c.State() != StateIdle {
		t.Fatalf("State() = %v, want idle", c.State())
	}
	// a second Start is a no-op
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	ctx := context.Background()
	moves, err := c.LegalMoves(ctx, enginetest.StartFEN)
	if err != nil {
		t.Fatalf("LegalMoves() error = %v", err)
	}
	if len(moves) != 20 {
		t.Errorf("LegalMoves() returned %d moves, want 20", len(moves))
	}
	if !slices.IsSorted(moves) {
		t.Errorf("LegalMoves() not sorted: %v", moves)
	}

	res, err := c.BestMove(ctx, enginetest.StartFEN)
	if err != nil {
		t.Fatalf("BestMove() error = %v", err)
	}
	if !moveShape.MatchString(res.BestMove) {
		t.Errorf("BestMove() = %q", res.BestMove)
	}
	if res.Ponder != "e7e5" || res.Info.Depth != 2 || res.Info.Score.Centipawns != 35 {
		t.Errorf("unexpected result %+v", res)
	}

	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if c.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", c.State())
	}
	if _, err := c.BestMove(ctx, enginetest.StartFEN); !errors.Is(err, ErrEngineNotRunning) {
		t.Errorf("BestMove() after Stop error = %v", err)
	}
}

func TestLegalMovesPromotionAndCastling(t *testing.T) {
	c := startFake(t)
	ctx := context.Background()

	moves, err := c.LegalMoves(ctx, enginetest.PromotionFEN)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(moves, "a7a8q") {
		t.Errorf("promotion missing from %v", moves)
	}

	moves, err = c.LegalMoves(ctx, enginetest.CastlingFEN)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(moves, "e1g1") {
		t.Errorf("castling missing from %v", moves)
	}

	moves, err = c.LegalMoves(ctx, enginetest.StalemateFEN)
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) != 0 {
		t.Errorf("stalemate position has moves %v", moves)
	}
}

func TestLegalMovesCached(t *testing.T) {
	c := startFake(t)
	ctx := context.Background()
	first, err := c.LegalMoves(ctx, enginetest.StartFEN)
	if err != nil {
		t.Fatal(err)
	}
	first[0] = "mutated"
	second, err := c.LegalMoves(ctx, enginetest.StartFEN)
	if err != nil {
		t.Fatal(err)
	}
	if second[0] != "a2a3" {
		t.Errorf("cached slice was shared with the caller: %v", second[:3])
	}
	if c.legal.Len() != 1 {
		t.Errorf("cache holds %d entries, want 1", c.legal.Len())
	}
}

func TestBestMoveNone(t *testing.T) {
	c := startFake(t)
	res, err := c.BestMove(context.Background(), enginetest.MateFEN)
	if err != nil {
		t.Fatal(err)
	}
	if res.HasMove() {
		t.Errorf("BestMove() = %q, want none", res.BestMove)
	}
	if !res.Info.Score.IsMate {
		t.Errorf("expected a mate score, got %+v", res.Info.Score)
	}
}

func TestBestMoveFromMoveList(t *testing.T) {
	c := startFake(t)
	res, err := c.BestMoveFrom(context.Background(), enginetest.StartFEN, []string{"e2e4"})
	if err != nil {
		t.Fatal(err)
	}
	if res.BestMove != "g8f6" {
		t.Errorf("BestMoveFrom() = %q, want the black reply g8f6", res.BestMove)
	}
}

func TestInspect(t *testing.T) {
	c := startFake(t)
	ctx := context.Background()

	in, err := c.Inspect(ctx, enginetest.MateFEN)
	if err != nil {
		t.Fatal(err)
	}
	if in.FEN != enginetest.MateFEN || !in.InCheck() || in.Checkers[0] != "h4" {
		t.Errorf("Inspect(mate) = %+v", in)
	}

	in, err = c.Inspect(ctx, enginetest.StalemateFEN)
	if err != nil {
		t.Fatal(err)
	}
	if in.InCheck() {
		t.Errorf("stalemate reported as check: %+v", in)
	}
}

func TestEvaluateAndNewGame(t *testing.T) {
	c := startFake(t)
	ctx := context.Background()
	if err := c.NewGame(ctx); err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}
	score, err := c.Evaluate(ctx, enginetest.StartFEN, 10)
	if err != nil {
		t.Fatal(err)
	}
	if score.IsMate || score.Centipawns != 35 {
		t.Errorf("Evaluate() = %+v", score)
	}
}

func TestSetConfigurationWhileRunning(t *testing.T) {
	c := startFake(t)
	cfg := c.Configuration()
	cfg.ApplyPreset(PresetHard)
	if err := c.SetConfiguration(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	if c.Configuration().Preset() != PresetHard {
		t.Errorf("Configuration().Preset() = %v", c.Configuration().Preset())
	}
	if _, err := c.BestMove(context.Background(), enginetest.StartFEN); err != nil {
		t.Errorf("engine unusable after reconfiguration: %v", err)
	}
}

func TestAnalysisStreamsUntilStopped(t *testing.T) {
	c := startFake(t)
	ctx := context.Background()

	a, err := c.StartAnalysis(ctx, enginetest.StartFEN)
	if err != nil {
		t.Fatal(err)
	}
	var got []AnalysisInfo
	for info := range a.Infos() {
		got = append(got, info)
		if len(got) == 3 {
			break
		}
	}
	if c.State() != StateAnalyzing {
		t.Errorf("State() = %v, want analyzing", c.State())
	}
	if err := c.StopAnalysis(ctx); err != nil {
		t.Fatal(err)
	}

	for i, info := range got {
		if info.Depth != i+1 || info.BestMove != "e2e4" {
			t.Errorf("info %d = %+v", i, info)
		}
	}
	if _, ok := <-a.Infos(); ok {
		t.Error("info delivered after StopAnalysis returned")
	}
	if _, _, ok := a.BestMove(); ok {
		t.Error("stopped analysis should not report a best move")
	}
	if a.Err() != nil {
		t.Errorf("Err() = %v", a.Err())
	}

	// the engine is usable again once the drain finished
	moves, err := c.LegalMoves(ctx, enginetest.CastlingFEN)
	if err != nil || len(moves) == 0 {
		t.Fatalf("LegalMoves() after analysis = %v, %v", moves, err)
	}
	if c.State() != StateIdle {
		t.Errorf("State() = %v, want idle", c.State())
	}
}

func TestRequestPreemptsAnalysis(t *testing.T) {
	c := startFake(t)
	ctx := context.Background()

	a, err := c.StartAnalysis(ctx, enginetest.StartFEN)
	if err != nil {
		t.Fatal(err)
	}
	<-a.Infos()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range a.Infos() {
		}
	}()

	res, err := c.BestMove(ctx, enginetest.CastlingFEN)
	if err != nil {
		t.Fatal(err)
	}
	if res.BestMove != "e1g1" {
		t.Errorf("BestMove() = %q, want e1g1", res.BestMove)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("analysis stream was not closed")
	}
}

func TestNewAnalysisReplacesOld(t *testing.T) {
	c := startFake(t)
	ctx := context.Background()

	first, err := c.StartAnalysis(ctx, enginetest.StartFEN)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.StartAnalysis(ctx, enginetest.CastlingFEN)
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		for range first.Infos() {
		}
	}()

	select {
	case <-first.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("first analysis did not end")
	}
	info := <-second.Infos()
	if info.BestMove != "e1g1" {
		t.Errorf("second analysis info = %+v", info)
	}
	second.Stop()
}

func TestAnalysisOfFinishedPosition(t *testing.T) {
	c := startFake(t)
	a, err := c.StartAnalysis(context.Background(), enginetest.StalemateFEN)
	if err != nil {
		t.Fatal(err)
	}
	for range a.Infos() {
	}
	if _, _, ok := a.BestMove(); ok {
		t.Error("no move expected for a stalemate")
	}
}

func TestStopDuringAnalysis(t *testing.T) {
	enginetest.Enable(t, enginetest.ModeNormal)
	c := New(Options{Path: os.Args[0], DrainGrace: 100 * time.Millisecond})
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	a, err := c.StartAnalysis(ctx, enginetest.StartFEN)
	if err != nil {
		t.Fatal(err)
	}
	<-a.Infos()
	if err := c.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	select {
	case <-a.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("analysis still open after Stop")
	}
	if c.State() != StateStopped {
		t.Errorf("State() = %v", c.State())
	}
}

func TestQueryContextCancelled(t *testing.T) {
	c := startFake(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.BestMove(ctx, enginetest.StartFEN); !errors.Is(err, context.Canceled) {
		t.Errorf("BestMove() error = %v, want context.Canceled", err)
	}
	if _, err := c.BestMove(context.Background(), enginetest.StartFEN); err != nil {
		t.Errorf("engine unusable after a cancelled request: %v", err)
	}
}

// waitStopped polls until the client has noticed its engine is gone.
func waitStopped(t *testing.T, c *Client) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for c.State() != StateStopped {
		if time.Now().After(deadline) {
			t.Fatalf("State() = %v after engine exit, want stopped", c.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEngineKilledBetweenRequests(t *testing.T) {
	c := startFake(t)
	ctx := context.Background()

	c.mu.Lock()
	p := c.proc
	c.mu.Unlock()
	if err := p.cmd.Process.Kill(); err != nil {
		t.Fatal(err)
	}
	<-p.exited

	if c.Running() {
		t.Error("Running() = true after the engine was killed")
	}
	if _, err := c.BestMove(ctx, enginetest.StartFEN); !errors.Is(err, ErrEngineNotRunning) {
		t.Errorf("BestMove() error = %v, want ErrEngineNotRunning", err)
	}
	if _, err := c.LegalMoves(ctx, enginetest.StartFEN); !errors.Is(err, ErrEngineNotRunning) {
		t.Errorf("LegalMoves() error = %v, want ErrEngineNotRunning", err)
	}
	if _, err := c.StartAnalysis(ctx, enginetest.StartFEN); !errors.Is(err, ErrEngineNotRunning) {
		t.Errorf("StartAnalysis() error = %v, want ErrEngineNotRunning", err)
	}
	waitStopped(t, c)
}

func TestEngineCrashDuringQuery(t *testing.T) {
	enginetest.Enable(t, enginetest.ModeCrash)
	c := New(Options{
		Path:             os.Args[0],
		HandshakeTimeout: 5 * time.Second,
		DrainGrace:       200 * time.Millisecond,
	})
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { c.Stop(context.Background()) })

	if _, err := c.BestMove(ctx, enginetest.StartFEN); !errors.Is(err, ErrCommunication) {
		t.Fatalf("BestMove() during crash error = %v, want ErrCommunication", err)
	}
	waitStopped(t, c)
	if _, err := c.BestMove(ctx, enginetest.StartFEN); !errors.Is(err, ErrEngineNotRunning) {
		t.Errorf("BestMove() after crash error = %v, want ErrEngineNotRunning", err)
	}

	// no automatic restart, but an explicit Start brings it back
	if err := c.Start(ctx); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	if !c.Running() {
		t.Error("Running() = false after restart")
	}
}
