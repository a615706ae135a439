package engine

import (
	"context"
	"os"
	"testing"
	"time"

	"uciboard/internal/engine/enginetest"
)

func TestMain(m *testing.M) {
	enginetest.RunIfHelper()
	os.Exit(m.Run())
}

// startFake starts a client backed by the fake engine and stops it when the
// test ends.
func startFake(t *testing.T) *Client {
	t.Helper()
	enginetest.Enable(t, enginetest.ModeNormal)
	c := New(Options{
		Path:             os.Args[0],
		HandshakeTimeout: 5 * time.Second,
		DrainGrace:       200 * time.Millisecond,
	})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		if err := c.Stop(context.Background()); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	return c
}
