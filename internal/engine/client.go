// Package engine drives an external UCI chess engine process.
//
// A Client owns one engine process. Every exchange with the engine runs as a
// job on a single worker goroutine, in submission order, so commands and
// their answers never interleave. An infinite analysis occupies the worker
// until it is stopped; any other request signals it to stop first.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"uciboard/internal/stats"
)

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateIdle
	StateQuerying
	StateAnalyzing
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateIdle:
		return "idle"
	case StateQuerying:
		return "querying"
	case StateAnalyzing:
		return "analyzing"
	case StateStopping:
		return "stopping"
	}
	return "stopped"
}

const (
	DefaultPath             = "stockfish"
	DefaultHandshakeTimeout = 5 * time.Second
	DefaultDrainGrace       = 500 * time.Millisecond
	DefaultQuitGrace        = time.Second
	DefaultCacheSize        = 512
	queueSize               = 64
)

type Options struct {
	// Path is the engine binary, looked up in PATH when not absolute.
	Path string
	Args []string

	// Config is applied on start. The zero value means DefaultConfiguration.
	Config Configuration

	Logger    zerolog.Logger
	Collector stats.Collector

	// HandshakeTimeout bounds the wait for uciok and readyok.
	HandshakeTimeout time.Duration
	// DrainGrace bounds the wait for bestmove after a stop.
	DrainGrace time.Duration
	// QuitGrace bounds the wait for the process to exit after quit.
	QuitGrace time.Duration
	// CacheSize is the number of positions whose legal moves are memoized.
	CacheSize int
}

type Client struct {
	path             string
	args             []string
	log              zerolog.Logger
	stats            stats.Collector
	handshakeTimeout time.Duration
	drainGrace       time.Duration
	quitGrace        time.Duration
	legal            *lru.Cache[string, []string]

	mu       sync.Mutex
	state    State
	cfg      Configuration
	proc     *process
	queue    *queue
	analysis *Analysis
}

func New(opts Options) *Client {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Config.Preset() == "" {
		opts.Config = DefaultConfiguration()
	}
	if opts.Collector == nil {
		opts.Collector = stats.NewNoop()
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.DrainGrace <= 0 {
		opts.DrainGrace = DefaultDrainGrace
	}
	if opts.QuitGrace <= 0 {
		opts.QuitGrace = DefaultQuitGrace
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []string](opts.CacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}

	return &Client{
		path:             opts.Path,
		args:             opts.Args,
		log:              opts.Logger.With().Str("component", "engine").Logger(),
		stats:            opts.Collector,
		handshakeTimeout: opts.HandshakeTimeout,
		drainGrace:       opts.DrainGrace,
		quitGrace:        opts.QuitGrace,
		legal:            cache,
		cfg:              opts.Config,
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Running reports whether the engine accepts requests.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runningLocked()
}

func (c *Client) runningLocked() bool {
	switch c.state {
	case StateIdle, StateQuerying, StateAnalyzing:
		return c.proc != nil && c.proc.alive()
	}
	return false
}

func (c *Client) transition(from, to State) {
	c.mu.Lock()
	if c.state == from {
		c.state = to
	}
	c.mu.Unlock()
}

// Start spawns the engine, completes the uci handshake and applies the
// configuration. Starting a running client is a no-op.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateStopped {
		c.mu.Unlock()
		return nil
	}
	c.state = StateStarting
	cfg := c.cfg
	c.mu.Unlock()

	p, err := c.launch(ctx, cfg)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateStopped
		c.stats.IncCounter(stats.MetricEngineFailures, 1)
		c.log.Error().Err(err).Str("path", c.path).Msg("engine failed to start")
		return err
	}
	c.proc = p
	c.queue = newQueue(queueSize)
	c.state = StateIdle
	c.stats.IncCounter(stats.MetricEngineStarts, 1)
	c.log.Info().Str("path", c.path).Str("config", cfg.Summary()).Msg("engine started")
	go c.watch(p)
	return nil
}

// watch releases the client when p exits without Stop being called. A
// query in flight at that moment fails with ErrCommunication; later
// requests get ErrEngineNotRunning until the next Start.
func (c *Client) watch(p *process) {
	<-p.exited

	c.mu.Lock()
	if c.proc != p || c.state == StateStopping || c.state == StateStopped {
		c.mu.Unlock()
		return
	}
	q, a := c.queue, c.analysis
	c.proc, c.queue, c.analysis = nil, nil, nil
	c.state = StateStopped
	c.mu.Unlock()

	c.stats.IncCounter(stats.MetricEngineFailures, 1)
	c.log.Error().Str("path", c.path).Msg("engine process exited unexpectedly")
	if a != nil {
		a.signal()
	}
	if !q.shutdown(c.quitGrace) {
		c.log.Warn().Msg("engine worker did not finish in time")
	}
}

func (c *Client) launch(ctx context.Context, cfg Configuration) (*process, error) {
	p, err := spawn(c.path, c.args, c.log)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*process, error) {
		p.kill()
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	if err := p.send("uci"); err != nil {
		return fail(err)
	}
	hctx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	defer cancel()
	if _, err := readUntil(hctx, p, func(line string) bool {
		return strings.Contains(line, "uciok")
	}); err != nil {
		return fail(fmt.Errorf("waiting for uciok: %w", err))
	}
	if err := c.configure(ctx, p, cfg); err != nil {
		return fail(err)
	}
	return p, nil
}

// Stop ends any analysis, quits the engine and releases the process. The
// engine is killed if it does not exit within the quit grace period.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.runningLocked() {
		c.mu.Unlock()
		return nil
	}
	c.state = StateStopping
	p, q, a := c.proc, c.queue, c.analysis
	c.mu.Unlock()

	if a != nil {
		a.signal()
		select {
		case <-a.done:
		case <-ctx.Done():
		case <-time.After(c.quitGrace):
		}
	}

	err := p.close(c.quitGrace)
	if !q.shutdown(c.quitGrace) {
		c.log.Warn().Msg("engine worker did not finish in time")
	}

	c.mu.Lock()
	c.proc, c.queue, c.analysis = nil, nil, nil
	c.state = StateStopped
	c.mu.Unlock()

	c.log.Info().Msg("engine stopped")
	return err
}

// Configuration returns the configuration that is, or will be, applied.
func (c *Client) Configuration() Configuration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// SetConfiguration stores cfg and, if the engine is running, applies it
// immediately.
func (c *Client) SetConfiguration(ctx context.Context, cfg Configuration) error {
	c.mu.Lock()
	c.cfg = cfg
	running := c.runningLocked()
	c.mu.Unlock()

	if !running {
		return nil
	}
	return c.do(ctx, "configure", func(p *process) error {
		return c.configure(ctx, p, cfg)
	})
}

func (c *Client) configure(ctx context.Context, p *process, cfg Configuration) error {
	for _, cmd := range cfg.OptionCommands() {
		if err := p.send(cmd); err != nil {
			return err
		}
	}
	return c.sync(ctx, p)
}

// do runs fn on the worker against the current process. A running analysis
// is told to stop first so the request is not starved.
func (c *Client) do(ctx context.Context, op string, fn func(p *process) error) error {
	c.mu.Lock()
	if !c.runningLocked() {
		c.mu.Unlock()
		return ErrEngineNotRunning
	}
	p, q := c.proc, c.queue
	if c.analysis != nil {
		c.analysis.signal()
	}
	c.mu.Unlock()

	start := time.Now()
	err := q.submit(ctx, func() error {
		c.transition(StateIdle, StateQuerying)
		defer c.transition(StateQuerying, StateIdle)
		return fn(p)
	})
	c.stats.IncCounter(stats.MetricEngineQueries, 1)
	c.stats.ObserveHistogram(stats.MetricEngineQuerySeconds, time.Since(start).Seconds())
	if err != nil {
		c.log.Debug().Err(err).Str("op", op).Msg("engine request failed")
	}
	return err
}

// sync sends isready and waits for readyok, discarding anything before it.
func (c *Client) sync(ctx context.Context, p *process) error {
	if err := p.send("isready"); err != nil {
		return err
	}
	sctx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	defer cancel()
	_, err := readUntil(sctx, p, func(line string) bool {
		return strings.TrimSpace(line) == "readyok"
	})
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: no readyok within %s", ErrCommunication, c.handshakeTimeout)
	}
	return err
}

// abortSearch stops a search in progress and drains its output.
func (c *Client) abortSearch(p *process) {
	_ = p.send("stop")
	c.drain(p)
}

// drain waits up to the drain grace for bestmove, then discards whatever is
// already buffered.
func (c *Client) drain(p *process) {
	ctx, cancel := context.WithTimeout(context.Background(), c.drainGrace)
	defer cancel()
	if _, err := readUntil(ctx, p, isBestMove); err != nil {
		c.log.Debug().Err(err).Msg("no bestmove after stop")
	}
	if n := p.discard(); n > 0 {
		c.log.Debug().Int("lines", n).Msg("discarded engine output")
	}
}

func isBestMove(line string) bool {
	return strings.HasPrefix(line, "bestmove")
}

// readUntil consumes lines until match returns true and returns that line.
func readUntil(ctx context.Context, p *process, match func(string) bool) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-p.lines:
			if !ok {
				return "", fmt.Errorf("%w: engine output closed", ErrCommunication)
			}
			if match(line) {
				return line, nil
			}
		}
	}
}
