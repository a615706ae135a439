package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"uciboard/internal/core"
	"uciboard/internal/stats"
)

// BestMove searches fen with the configured depth and move time.
func (c *Client) BestMove(ctx context.Context, fen string) (SearchResult, error) {
	return c.BestMoveFrom(ctx, fen, nil)
}

// BestMoveFrom searches the position reached by playing moves from startFEN.
// Passing the move list lets the engine see the game's repetitions.
func (c *Client) BestMoveFrom(ctx context.Context, startFEN string, moves []string) (SearchResult, error) {
	var res SearchResult
	goCmd := c.Configuration().GoCommand()
	err := c.do(ctx, "bestmove", func(p *process) error {
		if err := c.sync(ctx, p); err != nil {
			return err
		}
		if err := p.send(positionCommand(startFEN, moves)); err != nil {
			return err
		}
		if err := c.sync(ctx, p); err != nil {
			return err
		}
		var err error
		res, err = c.search(ctx, p, goCmd)
		return err
	})
	if err != nil {
		return SearchResult{}, err
	}
	return res, nil
}

// Evaluate runs a fixed depth search and returns the last reported score.
func (c *Client) Evaluate(ctx context.Context, fen string, depth int) (Score, error) {
	var res SearchResult
	err := c.do(ctx, "evaluate", func(p *process) error {
		if err := c.sync(ctx, p); err != nil {
			return err
		}
		if err := p.send(positionCommand(fen, nil)); err != nil {
			return err
		}
		var err error
		res, err = c.search(ctx, p, fmt.Sprintf("go depth %d", clamp(depth, minDepth, maxDepth)))
		return err
	})
	if err != nil {
		return Score{}, err
	}
	return res.Info.Score, nil
}

// search sends goCmd and collects info lines until bestmove. If ctx ends
// first the search is stopped and its output drained.
func (c *Client) search(ctx context.Context, p *process, goCmd string) (SearchResult, error) {
	if err := p.send(goCmd); err != nil {
		return SearchResult{}, err
	}
	var res SearchResult
	for {
		line, err := readUntil(ctx, p, anyLine)
		if err != nil {
			if ctx.Err() != nil {
				c.abortSearch(p)
			}
			return SearchResult{}, err
		}
		if info, ok := ParseInfoLine(line); ok {
			res.Info = info
			continue
		}
		if best, ponder, ok := parseBestMove(line); ok {
			res.BestMove, res.Ponder = best, ponder
			return res, nil
		}
	}
}

// LegalMoves returns the sorted legal moves of fen, asking the engine for a
// depth one perft. Results are memoized per FEN.
func (c *Client) LegalMoves(ctx context.Context, fen string) ([]string, error) {
	if !c.Running() {
		return nil, ErrEngineNotRunning
	}
	if moves, ok := c.legal.Get(fen); ok {
		c.stats.IncCounter(stats.MetricLegalCacheHits, 1)
		return append([]string(nil), moves...), nil
	}
	c.stats.IncCounter(stats.MetricLegalCacheMisses, 1)

	var moves []string
	err := c.do(ctx, "perft", func(p *process) error {
		moves = moves[:0]
		if err := c.sync(ctx, p); err != nil {
			return err
		}
		if err := p.send(positionCommand(fen, nil)); err != nil {
			return err
		}
		if err := p.send("go perft 1"); err != nil {
			return err
		}
		for {
			line, err := readUntil(ctx, p, anyLine)
			if err != nil {
				if ctx.Err() != nil {
					c.abortSearch(p)
				}
				return err
			}
			if strings.HasPrefix(line, "Nodes searched") {
				return nil
			}
			if token, ok := perftMove(line); ok {
				moves = append(moves, token)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(moves)
	c.legal.Add(fen, moves)
	return append([]string(nil), moves...), nil
}

// perftMove extracts the move from a perft line such as "e2e4: 1".
func perftMove(line string) (string, bool) {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return "", false
	}
	token := strings.TrimSpace(line[:i])
	return token, core.ValidMoveToken(token)
}

// Inspection is the engine's own view of a position, from the "d" command.
type Inspection struct {
	FEN      string
	Key      string
	Checkers []string
}

// InCheck reports whether the side to move is in check.
func (i Inspection) InCheck() bool {
	return len(i.Checkers) > 0
}

// Inspect asks the engine to describe fen. The engine is the authority on
// whether the side to move is in check.
func (c *Client) Inspect(ctx context.Context, fen string) (Inspection, error) {
	var in Inspection
	err := c.do(ctx, "inspect", func(p *process) error {
		in = Inspection{}
		if err := c.sync(ctx, p); err != nil {
			return err
		}
		if err := p.send(positionCommand(fen, nil)); err != nil {
			return err
		}
		if err := p.send("d"); err != nil {
			return err
		}
		if err := p.send("isready"); err != nil {
			return err
		}
		_, err := readUntil(ctx, p, func(line string) bool {
			switch {
			case strings.HasPrefix(line, "Fen:"):
				in.FEN = strings.TrimSpace(strings.TrimPrefix(line, "Fen:"))
			case strings.HasPrefix(line, "Key:"):
				in.Key = strings.TrimSpace(strings.TrimPrefix(line, "Key:"))
			case strings.HasPrefix(line, "Checkers:"):
				in.Checkers = strings.Fields(strings.TrimPrefix(line, "Checkers:"))
			}
			return strings.TrimSpace(line) == "readyok"
		})
		return err
	})
	if err != nil {
		return Inspection{}, err
	}
	if in.FEN == "" {
		return Inspection{}, fmt.Errorf("%w: no Fen line in engine output", ErrCommunication)
	}
	return in, nil
}

// NewGame tells the engine that following searches belong to a new game.
func (c *Client) NewGame(ctx context.Context) error {
	return c.do(ctx, "ucinewgame", func(p *process) error {
		if err := p.send("ucinewgame"); err != nil {
			return err
		}
		return c.sync(ctx, p)
	})
}

// StartAnalysis begins an infinite search of fen. Any previous analysis is
// stopped first. The search runs until Analysis.Stop, StopAnalysis, another
// request, the end of ctx, or the engine reporting a best move on its own.
func (c *Client) StartAnalysis(ctx context.Context, fen string) (*Analysis, error) {
	c.mu.Lock()
	if !c.runningLocked() {
		c.mu.Unlock()
		return nil, ErrEngineNotRunning
	}
	if c.analysis != nil {
		c.analysis.signal()
	}
	a := newAnalysis(fen)
	c.analysis = a
	p, q := c.proc, c.queue
	c.mu.Unlock()

	err := q.enqueue(ctx, job{
		ctx: ctx,
		run: func() { c.runAnalysis(ctx, p, a) },
		abort: func(err error) {
			a.finish("", "", err)
			c.clearAnalysis(a)
		},
	})
	if err != nil {
		a.finish("", "", err)
		c.clearAnalysis(a)
		return nil, err
	}
	c.log.Debug().Str("fen", fen).Msg("analysis queued")
	return a, nil
}

// StopAnalysis stops the current analysis, if any, and returns once no
// further info can be delivered.
func (c *Client) StopAnalysis(ctx context.Context) error {
	c.mu.Lock()
	a := c.analysis
	c.mu.Unlock()
	if a == nil {
		return nil
	}
	a.signal()
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) clearAnalysis(a *Analysis) {
	c.mu.Lock()
	if c.analysis == a {
		c.analysis = nil
	}
	c.mu.Unlock()
}

func (c *Client) runAnalysis(ctx context.Context, p *process, a *Analysis) {
	c.transition(StateIdle, StateAnalyzing)
	defer c.transition(StateAnalyzing, StateIdle)
	defer c.clearAnalysis(a)

	if a.stopped() {
		a.finish("", "", nil)
		return
	}
	if err := c.sync(ctx, p); err != nil {
		a.finish("", "", err)
		return
	}
	if err := p.send(positionCommand(a.fen, nil)); err != nil {
		a.finish("", "", err)
		return
	}
	if err := p.send("go infinite"); err != nil {
		a.finish("", "", err)
		return
	}

	halt := func() {
		c.abortSearch(p)
		a.finish("", "", nil)
	}
	for {
		select {
		case <-a.stop:
			halt()
			return
		case <-ctx.Done():
			halt()
			return
		case line, ok := <-p.lines:
			if !ok {
				a.finish("", "", fmt.Errorf("%w: engine output closed during analysis", ErrCommunication))
				return
			}
			if best, ponder, ok := parseBestMove(line); ok {
				a.finish(best, ponder, nil)
				return
			}
			info, ok := ParseInfoLine(line)
			if !ok {
				continue
			}
			select {
			case a.infos <- info:
				c.stats.IncCounter(stats.MetricAnalysisInfos, 1)
			case <-a.stop:
				halt()
				return
			case <-ctx.Done():
				halt()
				return
			}
		}
	}
}

func anyLine(string) bool { return true }
