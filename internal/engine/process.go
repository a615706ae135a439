package engine

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const lineBuffer = 4096

// process owns the engine's pipes. A reader goroutine feeds stdout lines
// into a buffered channel, closed on EOF, so callers can wait with timeouts
// and drain without blocking.
type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string
	exited chan struct{}
	log    zerolog.Logger

	mu sync.Mutex // serializes writes
}

func spawn(path string, args []string, log zerolog.Logger) (*process, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	cmd := exec.Command(resolved, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: failed to start engine: %v", ErrEngineUnavailable, err)
	}

	p := &process{
		cmd:    cmd,
		stdin:  stdin,
		lines:  make(chan string, lineBuffer),
		exited: make(chan struct{}),
		log:    log,
	}
	go p.read(stdout)
	return p, nil
}

// read forwards stdout lines until EOF, then reaps the process.
func (p *process) read(r io.Reader) {
	defer close(p.exited)
	defer func() { _ = p.cmd.Wait() }()
	defer close(p.lines)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		p.log.Trace().Str("line", line).Msg("engine >")
		p.lines <- line
	}
}

// alive reports whether the process has not exited yet.
func (p *process) alive() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

func (p *process) send(cmd string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log.Debug().Str("cmd", cmd).Msg("engine <")
	if _, err := io.WriteString(p.stdin, cmd+"\n"); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrCommunication, cmd, err)
	}
	return nil
}

// discard drops every line already buffered without waiting for more.
func (p *process) discard() int {
	n := 0
	for {
		select {
		case _, ok := <-p.lines:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}

// close asks the engine to quit, waits up to grace for it to exit and kills
// it otherwise.
func (p *process) close(grace time.Duration) error {
	_ = p.send("quit")
	p.mu.Lock()
	_ = p.stdin.Close()
	p.mu.Unlock()

	select {
	case <-p.exited:
	case <-time.After(grace):
		p.log.Warn().Msg("engine did not exit after quit, killing")
		p.kill()
	}
	return nil
}

// kill terminates the process and waits until it has been reaped. Unread
// output is discarded so the reader can reach EOF.
func (p *process) kill() {
	_ = p.cmd.Process.Kill()
	go func() {
		for range p.lines {
		}
	}()
	<-p.exited
}
