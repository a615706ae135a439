package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const (
	defaultAnalysisTime = 5 * time.Second
	maxAnalysisTime     = 60 * time.Second
)

type analysisDone struct {
	BestMove string `json:"bestMove,omitempty"`
	Ponder   string `json:"ponder,omitempty"`
	Error    string `json:"error,omitempty"`
}

// StreamAnalysis runs an infinite analysis for ?ms= milliseconds and streams
// each info line as a server-sent "info" event, ending with a "done" event.
// The analysis also ends when the client goes away or another engine request
// arrives.
func (h *HTTPHandler) StreamAnalysis(c *fiber.Ctx) error {
	limit := time.Duration(c.QueryInt("ms", 0)) * time.Millisecond
	if limit <= 0 {
		limit = defaultAnalysisTime
	}
	limit = min(limit, maxAnalysisTime)

	// the request context is only cancelled on server shutdown, so the
	// analysis gets its own deadline
	ctx, cancel := context.WithTimeout(context.Background(), limit)
	a, err := h.svc.Analyze(ctx, c.Params("gameId"))
	if err != nil {
		cancel()
		return writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer a.Stop()
		for info := range a.Infos() {
			if err := writeEvent(w, "info", toAnalysisResponse(info)); err != nil {
				h.log.Debug().Err(err).Msg("analysis client gone")
				return
			}
		}
		<-a.Done()
		done := analysisDone{}
		done.BestMove, done.Ponder, _ = a.BestMove()
		if err := a.Err(); err != nil {
			done.Error = err.Error()
		}
		if err := writeEvent(w, "done", done); err != nil {
			h.log.Debug().Err(err).Msg("analysis client gone")
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}
