// Package http exposes the game service as a JSON API.
package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"uciboard/internal/board"
	"uciboard/internal/core"
	"uciboard/internal/engine"
	"uciboard/internal/movegen"
	"uciboard/internal/pgn"
	"uciboard/internal/service"
)

const rateLimitRate = 10 // req/sec

type Options struct {
	DevMode bool
	// RateLimit overrides the per-IP requests per second.
	RateLimit int
	// Metrics is served on /metrics when set.
	Metrics nethttp.Handler
	Logger  zerolog.Logger
}

type HTTPHandler struct {
	svc *service.Service
	log zerolog.Logger
}

func NewHTTPHandler(svc *service.Service, log zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, log: log}
}

func NewFiberApp(svc *service.Service, opts Options) *fiber.App {
	log := opts.Logger.With().Str("component", "http").Logger()
	h := NewHTTPHandler(svc, log)

	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          35 * time.Second, // above the long-poll wait
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${status} ${method} ${path} ${latency}\n",
		Output: log,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// not rate limited
	app.Get("/health", h.Health)
	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics))
	}

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if opts.DevMode {
		maxReq = rateLimitRate * 2
	}
	if opts.RateLimit > 0 {
		maxReq = opts.RateLimit
	}
	api.Use(rateLimiter(maxReq))
	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Post("/games", h.CreateGame)
	api.Post("/games/import", h.ImportGame)

	games := api.Group("/games/:gameId", requireGameID)
	games.Get("", h.GetGame)
	games.Delete("", h.DeleteGame)
	games.Post("/moves", h.MakeMove)
	games.Post("/undo", h.UndoMove)
	games.Post("/resign", h.Resign)
	games.Post("/draw", h.Draw)
	games.Get("/board", h.GetBoard)
	games.Get("/legal", h.LegalMoves)
	games.Get("/pgn", h.ExportPGN)
	games.Get("/analysis", h.StreamAnalysis)

	api.Get("/engine/config", h.GetConfig)
	api.Put("/engine/config", h.SetConfig)

	return app
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		response.Error = e.Message
		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// writeError maps service, engine and codec errors to API errors.
func writeError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, core.ErrInternalError
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		status, code = fiber.StatusNotFound, core.ErrGameNotFound
	case errors.Is(err, service.ErrGameOver):
		status, code = fiber.StatusConflict, core.ErrGameOver
	case errors.Is(err, pgn.ErrInvalidPGN):
		status, code = fiber.StatusBadRequest, core.ErrInvalidPGN
	case errors.Is(err, movegen.ErrIllegalMove):
		status, code = fiber.StatusBadRequest, core.ErrIllegalMove
	case errors.Is(err, board.ErrInvalidMoveToken):
		status, code = fiber.StatusBadRequest, core.ErrInvalidMove
	case errors.Is(err, board.ErrMalformedFEN):
		status, code = fiber.StatusBadRequest, core.ErrInvalidFEN
	case errors.Is(err, service.ErrNothingToUndo):
		status, code = fiber.StatusBadRequest, core.ErrNothingToUndo
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrNoEngineMove):
		status, code = fiber.StatusBadRequest, core.ErrInvalidRequest
	case errors.Is(err, service.ErrTooManyGames):
		status, code = fiber.StatusServiceUnavailable, core.ErrResourceLimit
	case errors.Is(err, engine.ErrEngineNotRunning), errors.Is(err, engine.ErrEngineUnavailable):
		status, code = fiber.StatusServiceUnavailable, core.ErrEngineUnavailable
	case errors.Is(err, engine.ErrCommunication), errors.Is(err, context.DeadlineExceeded):
		status, code = fiber.StatusBadGateway, core.ErrEngineCommunication
	}
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(core.ErrorResponse{Error: "internal server error", Code: code})
	}
	return c.Status(status).JSON(core.ErrorResponse{Error: err.Error(), Code: code})
}

func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"engine":  h.svc.EngineStatus(),
		"storage": h.svc.StorageStatus(),
		"games":   h.svc.GameCount(),
	})
}

func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, ok := validatedBody[core.CreateGameRequest](c)
	if !ok {
		return validationBypass(c)
	}
	snap, err := h.svc.CreateGame(c.Context(), service.GameSetup{
		FEN:   req.FEN,
		White: req.White,
		Black: req.Black,
		Event: req.Event,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toGameResponse(snap))
}

func (h *HTTPHandler) ImportGame(c *fiber.Ctx) error {
	req, ok := validatedBody[core.ImportRequest](c)
	if !ok {
		return validationBypass(c)
	}
	snap, err := h.svc.ImportPGN(c.Context(), req.PGN)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toGameResponse(snap))
}

// GetGame returns the game state. With wait=true it long-polls until the
// move count differs from moveCount, the game ends or the wait times out.
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	if c.Query("wait") == "true" {
		notify, err := h.svc.WaitForChange(c.Context(), gameID, c.QueryInt("moveCount", -1))
		if err != nil {
			return writeError(c, err)
		}
		<-notify
	}

	snap, err := h.svc.GetGame(gameID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toGameResponse(snap))
}

func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	if err := h.svc.DeleteGame(c.Params("gameId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MakeMove plays the posted move; "cccc" asks the engine to move instead.
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	req, ok := validatedBody[core.MoveRequest](c)
	if !ok {
		return validationBypass(c)
	}
	gameID := c.Params("gameId")

	var (
		snap service.Snapshot
		err  error
	)
	if req.Move == "cccc" {
		snap, err = h.svc.ComputerMove(c.Context(), gameID)
	} else {
		snap, err = h.svc.MakeMove(c.Context(), gameID, req.Move)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toGameResponse(snap))
}

func (h *HTTPHandler) UndoMove(c *fiber.Ctx) error {
	req, ok := validatedBody[core.UndoRequest](c)
	if !ok {
		return validationBypass(c)
	}
	snap, err := h.svc.Undo(c.Context(), c.Params("gameId"), req.Count)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toGameResponse(snap))
}

func (h *HTTPHandler) Resign(c *fiber.Ctx) error {
	req, ok := validatedBody[core.ResignRequest](c)
	if !ok {
		return validationBypass(c)
	}
	color, err := core.ParseColor(req.Color)
	if err != nil {
		return writeError(c, errors.Join(service.ErrInvalidRequest, err))
	}
	snap, err := h.svc.Resign(c.Params("gameId"), color)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toGameResponse(snap))
}

func (h *HTTPHandler) Draw(c *fiber.Ctx) error {
	snap, err := h.svc.Draw(c.Params("gameId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toGameResponse(snap))
}

// GetBoard returns an ASCII rendering of the board.
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	snap, err := h.svc.GetGame(c.Params("gameId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(core.BoardResponse{FEN: snap.FEN, Board: snap.Board.ToASCII()})
}

// LegalMoves lists legal moves, only those from the square in ?from= if set.
func (h *HTTPHandler) LegalMoves(c *fiber.Ctx) error {
	fen, moves, err := h.svc.LegalMoves(c.Context(), c.Params("gameId"), c.Query("from"))
	if err != nil {
		return writeError(c, err)
	}
	if moves == nil {
		moves = []string{}
	}
	resp := core.LegalMovesResponse{FEN: fen, Moves: moves}
	if from := c.Query("from"); from != "" {
		if resp.Targets, err = h.svc.Targets(c.Context(), c.Params("gameId"), from); err != nil {
			return writeError(c, err)
		}
	}
	return c.JSON(resp)
}

func (h *HTTPHandler) ExportPGN(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	text, err := h.svc.ExportPGN(gameID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(core.PGNResponse{GameID: gameID, PGN: text})
}

func (h *HTTPHandler) GetConfig(c *fiber.Ctx) error {
	return c.JSON(toConfigResponse(h.svc.EngineConfiguration()))
}

// SetConfig applies a preset, then any individual overrides.
func (h *HTTPHandler) SetConfig(c *fiber.Ctx) error {
	req, ok := validatedBody[core.ConfigRequest](c)
	if !ok {
		return validationBypass(c)
	}
	cfg := h.svc.EngineConfiguration()
	if req.Preset != "" {
		p, err := engine.ParsePreset(req.Preset)
		if err != nil {
			return writeError(c, errors.Join(service.ErrInvalidRequest, err))
		}
		cfg.ApplyPreset(p)
	}
	if req.Threads != nil {
		cfg.SetThreads(*req.Threads)
	}
	if req.HashMB != nil {
		cfg.SetHashMB(*req.HashMB)
	}
	if req.Skill != nil {
		cfg.SetSkill(*req.Skill)
	}
	if req.Depth != nil {
		cfg.SetDepth(*req.Depth)
	}
	if req.MoveTime != nil {
		cfg.SetMoveTime(*req.MoveTime)
	}
	if req.MultiPV != nil {
		cfg.SetMultiPV(*req.MultiPV)
	}
	if req.Ponder != nil {
		cfg.SetPonder(*req.Ponder)
	}
	if err := h.svc.SetEngineConfiguration(c.Context(), cfg); err != nil {
		return writeError(c, err)
	}
	return c.JSON(toConfigResponse(cfg))
}
