package engine

import "sync"

// Analysis is a running infinite search. Infos delivers parsed info lines
// until the search ends; the channel is unbuffered and closed when it does.
type Analysis struct {
	fen   string
	infos chan AnalysisInfo
	done  chan struct{}

	stop     chan struct{}
	stopOnce sync.Once

	mu     sync.Mutex
	best   string
	ponder string
	err    error
}

func newAnalysis(fen string) *Analysis {
	return &Analysis{
		fen:   fen,
		infos: make(chan AnalysisInfo),
		done:  make(chan struct{}),
		stop:  make(chan struct{}),
	}
}

// FEN is the analysed position.
func (a *Analysis) FEN() string { return a.fen }

func (a *Analysis) Infos() <-chan AnalysisInfo { return a.infos }

// Done is closed after Infos is closed.
func (a *Analysis) Done() <-chan struct{} { return a.done }

// BestMove is set only when the engine ended the search on its own.
func (a *Analysis) BestMove() (best, ponder string, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.best, a.ponder, a.best != ""
}

func (a *Analysis) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Stop ends the search and waits until no further info can be delivered.
func (a *Analysis) Stop() {
	a.signal()
	<-a.done
}

func (a *Analysis) signal() {
	a.stopOnce.Do(func() { close(a.stop) })
}

func (a *Analysis) stopped() bool {
	select {
	case <-a.stop:
		return true
	default:
		return false
	}
}

func (a *Analysis) finish(best, ponder string, err error) {
	a.mu.Lock()
	a.best, a.ponder, a.err = best, ponder, err
	a.mu.Unlock()
	a.signal()
	close(a.infos)
	close(a.done)
}
