package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// WaitTimeout is the longest a long-poll client is held.
const WaitTimeout = 25 * time.Second

// WaitRegistry tracks long-poll clients waiting for a game to change.
type WaitRegistry struct {
	mu       sync.Mutex
	waiters  map[string][]*WaitRequest // gameID -> waiting clients
	timeout  time.Duration
	shutdown chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

// WaitRequest is one waiting client. Notify is closed on a change, on
// timeout, on client disconnect, on game removal or on shutdown.
type WaitRequest struct {
	GameID    string
	MoveCount int
	notify    chan struct{}
	once      sync.Once
	timer     *time.Timer
}

func (r *WaitRequest) wake() {
	r.once.Do(func() { close(r.notify) })
}

func NewWaitRegistry(timeout time.Duration) *WaitRegistry {
	if timeout <= 0 {
		timeout = WaitTimeout
	}
	return &WaitRegistry{
		waiters:  make(map[string][]*WaitRequest),
		timeout:  timeout,
		shutdown: make(chan struct{}),
	}
}

// RegisterWait returns a channel closed once gameID's move count differs from
// moveCount, or the wait ends for another reason.
func (w *WaitRegistry) RegisterWait(ctx context.Context, gameID string, moveCount int) <-chan struct{} {
	req := &WaitRequest{
		GameID:    gameID,
		MoveCount: moveCount,
		notify:    make(chan struct{}),
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		req.wake()
		return req.notify
	}
	req.timer = time.AfterFunc(w.timeout, req.wake)
	w.waiters[gameID] = append(w.waiters[gameID], req)
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
			req.wake()
		case <-req.notify:
		case <-w.shutdown:
			req.wake()
		}
		req.timer.Stop()
		w.removeWaiter(req)
	}()

	return req.notify
}

// NotifyGame wakes the waiters of gameID whose move count is stale.
func (w *WaitRegistry) NotifyGame(gameID string, currentMoveCount int) {
	w.mu.Lock()
	waitList := append([]*WaitRequest(nil), w.waiters[gameID]...)
	w.mu.Unlock()

	for _, req := range waitList {
		if req.MoveCount != currentMoveCount {
			req.wake()
		}
	}
}

// NotifyAll wakes every waiter of gameID, used for changes that keep the
// move count, such as a resignation.
func (w *WaitRegistry) NotifyAll(gameID string) {
	w.mu.Lock()
	waitList := append([]*WaitRequest(nil), w.waiters[gameID]...)
	w.mu.Unlock()

	for _, req := range waitList {
		req.wake()
	}
}

// RemoveGame wakes and forgets every waiter of gameID.
func (w *WaitRegistry) RemoveGame(gameID string) {
	w.mu.Lock()
	waitList := w.waiters[gameID]
	delete(w.waiters, gameID)
	w.mu.Unlock()

	for _, req := range waitList {
		req.wake()
	}
}

// Waiting returns the number of clients waiting on gameID.
func (w *WaitRegistry) Waiting(gameID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waiters[gameID])
}

// Shutdown releases every waiter and waits for their goroutines.
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.shutdown)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry shutdown timed out after %s", timeout)
	}
}

func (w *WaitRegistry) removeWaiter(req *WaitRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	waitList := w.waiters[req.GameID]
	for i, waiter := range waitList {
		if waiter == req {
			w.waiters[req.GameID] = append(waitList[:i], waitList[i+1:]...)
			break
		}
	}
	if len(w.waiters[req.GameID]) == 0 {
		delete(w.waiters, req.GameID)
	}
}
