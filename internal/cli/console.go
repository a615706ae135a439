package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"uciboard/internal/board"
	"uciboard/internal/core"
	"uciboard/internal/engine"
	"uciboard/internal/movegen"
	"uciboard/internal/service"
)

const (
	defaultAnalysis = 3 * time.Second
	maxAnalysis     = 60 * time.Second
)

// Console runs the interactive game loop on top of a service.
type Console struct {
	svc      *service.Service
	view     *CLI
	gameID   string
	computer map[core.Color]bool
}

func NewConsole(svc *service.Service, view *CLI) *Console {
	return &Console{
		svc:      svc,
		view:     view,
		computer: make(map[core.Color]bool),
	}
}

// Run processes commands until quit, end of input or ctx ends.
func (h *Console) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		h.view.ShowPrompt(h.prompt())

		cmd, err := h.view.GetCommand()
		if err != nil {
			return err
		}
		if !h.ProcessCommand(ctx, cmd) {
			return nil
		}
	}
	return ctx.Err()
}

func (h *Console) current() (service.Snapshot, bool) {
	if h.gameID == "" {
		return service.Snapshot{}, false
	}
	snap, err := h.svc.GetGame(h.gameID)
	if err != nil {
		h.gameID = ""
		return service.Snapshot{}, false
	}
	return snap, true
}

func (h *Console) computerToMove(s service.Snapshot) bool {
	return !s.Status.IsOver() && h.computer[s.Turn]
}

func (h *Console) prompt() string {
	s, ok := h.current()
	if !ok || s.Status.IsOver() {
		return "> "
	}
	prompt := fmt.Sprintf("[%c]> ", s.Turn)
	if h.computerToMove(s) {
		prompt = "ENTER for the computer move " + prompt
	}
	return prompt
}

// ProcessCommand handles one command and reports whether to keep going.
func (h *Console) ProcessCommand(ctx context.Context, cmd *Command) bool {
	switch cmd.Type {
	case CmdQuit:
		return false

	case CmdNone:
		if s, ok := h.current(); ok && h.computerToMove(s) {
			h.computerMove(ctx)
		}

	case CmdNew:
		h.newGame(ctx, "", cmd.Args)

	case CmdResume:
		if len(cmd.Args) < 1 {
			h.view.ShowMessage("Usage: resume <FEN string>")
			return true
		}
		h.newGame(ctx, strings.Join(cmd.Args, " "), nil)

	case CmdMove:
		s, ok := h.active()
		if !ok {
			return true
		}
		if h.computerToMove(s) {
			h.view.ShowMessage("It's the computer's turn. Press ENTER or type 'go'.")
			return true
		}
		token, err := h.resolveMove(ctx, s, cmd.Args[0])
		if err != nil {
			h.view.ShowError(fmt.Errorf("invalid move: %w", err))
			return true
		}
		snap, err := h.svc.MakeMove(ctx, h.gameID, token)
		if err != nil {
			h.view.ShowError(fmt.Errorf("invalid move: %w", err))
			return true
		}
		h.view.ShowHumanMove(snap)
		h.afterMove(snap)

	case CmdGo:
		if _, ok := h.active(); ok {
			h.computerMove(ctx)
		}

	case CmdUndo:
		h.undo(ctx, cmd.Args)

	case CmdMoves:
		if _, ok := h.active(); !ok {
			return true
		}
		from := ""
		if len(cmd.Args) > 0 {
			from = strings.ToLower(cmd.Args[0])
		}
		_, moves, err := h.svc.LegalMoves(ctx, h.gameID, from)
		if err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowLegalMoves(moves)
		if from != "" && len(moves) > 0 {
			if targets, err := h.svc.Targets(ctx, h.gameID, from); err == nil {
				h.view.ShowMessage("Targets: " + strings.Join(targets, " "))
			}
		}

	case CmdAnalyze:
		h.analyze(ctx, cmd.Args)

	case CmdHint:
		if _, ok := h.active(); !ok {
			return true
		}
		res, err := h.svc.Hint(ctx, h.gameID)
		if err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowHint(res)

	case CmdPreset:
		h.preset(ctx, cmd.Args)

	case CmdSave:
		h.save(cmd.Args)

	case CmdLoad:
		h.load(ctx, cmd.Args)

	case CmdColor:
		if len(cmd.Args) < 1 {
			h.view.ShowMessage(fmt.Sprintf("Color theme: %s. Usage: color <off|brown|green|gray>", h.view.Theme()))
			return true
		}
		theme := ColorTheme(cmd.Args[0])
		if err := h.view.SetTheme(theme); err != nil {
			h.view.ShowError(err)
			return true
		}
		h.view.ShowMessage(fmt.Sprintf("Color theme set to: %s", theme))
		if s, ok := h.current(); ok {
			h.view.DisplayBoard(s.Board)
		}

	case CmdVerbose:
		verbose := h.view.ToggleVerbose()
		h.view.ShowMessage(fmt.Sprintf("Verbose mode: %t", verbose))

	case CmdHistory:
		if s, ok := h.active(); ok {
			h.view.ShowGameHistory(s)
		}

	case CmdHelp:
		h.view.ShowHelp()
	}

	return true
}

// active returns the current game or tells the user there is none.
func (h *Console) active() (service.Snapshot, bool) {
	s, ok := h.current()
	if !ok {
		h.view.ShowMessage("No active game. Use 'new', 'resume <FEN>' or 'load <file>'.")
	}
	return s, ok
}

func (h *Console) afterMove(s service.Snapshot) {
	h.view.DisplayBoard(s.Board)
	if s.Status.IsOver() {
		h.view.ShowGameOver(s.Status)
		return
	}
	h.view.ShowCheck(s)
}

// resolveMove turns typed input into a UCI token. Coordinate moves are
// screened against the board and completed with a promotion piece; anything
// else is read as SAN.
func (h *Console) resolveMove(ctx context.Context, s service.Snapshot, input string) (string, error) {
	token := strings.ToLower(input)
	if len(token) >= 4 {
		from, ferr := core.ParseSquare(token[0:2])
		to, terr := core.ParseSquare(token[2:4])
		if ferr == nil && terr == nil {
			return h.coordinateMove(s.Board, from, to, token[4:])
		}
	}
	_, legal, err := h.svc.LegalMoves(ctx, h.gameID, "")
	if err != nil {
		return "", err
	}
	return movegen.FromSAN(s.Board, legal, input)
}

func (h *Console) coordinateMove(b *board.Board, from, to core.Square, promo string) (string, error) {
	if !movegen.BasicValidation(b, from, to) {
		return "", fmt.Errorf("%w: %s%s", movegen.ErrIllegalMove, from, to)
	}
	if promo != "" || !movegen.IsPromotionMove(b, from, to) {
		return from.String() + to.String() + promo, nil
	}

	pieces := movegen.PromotionPieces(b.Turn())
	letters := make([]string, len(pieces))
	for i, p := range pieces {
		letters[i] = strings.ToLower(p.String())
	}
	answer := strings.ToLower(h.view.Ask(fmt.Sprintf("Promote to (%s) [q]: ", strings.Join(letters, "/"))))
	choice := pieces[0]
	for i, l := range letters {
		if l == answer {
			choice = pieces[i]
		}
	}
	return movegen.Token(from, to, choice.Type()), nil
}

func (h *Console) computerMove(ctx context.Context) {
	snap, err := h.svc.ComputerMove(ctx, h.gameID)
	if err != nil {
		h.view.ShowError(fmt.Errorf("engine error: %w", err))
		return
	}
	h.view.ShowComputerMove(snap)
	h.afterMove(snap)
}

// playerType reads "h" or "c", asking when answer is empty.
func (h *Console) playerType(answer, side string) bool {
	if answer == "" {
		answer = h.view.Ask(fmt.Sprintf("Select %s player (h/c): ", side))
	}
	switch strings.ToLower(answer) {
	case "c", "computer":
		return true
	}
	return false
}

func (h *Console) choosePlayers(args []string) {
	var white, black string
	if len(args) > 0 {
		white = args[0]
	}
	if len(args) > 1 {
		black = args[1]
	}
	h.computer[core.ColorWhite] = h.playerType(white, "White")
	h.computer[core.ColorBlack] = h.playerType(black, "Black")
}

func (h *Console) newGame(ctx context.Context, fen string, args []string) {
	h.choosePlayers(args)
	snap, err := h.svc.CreateGame(ctx, service.GameSetup{
		FEN:   fen,
		White: playerName(h.computer[core.ColorWhite]),
		Black: playerName(h.computer[core.ColorBlack]),
	})
	if err != nil {
		h.view.ShowError(fmt.Errorf("could not start the game: %w", err))
		return
	}
	h.replace(snap.ID)
	h.view.ShowMessage("Game started.")
	h.afterMove(snap)
}

// replace makes id the active game and drops the previous one.
func (h *Console) replace(id string) {
	if h.gameID != "" && h.gameID != id {
		_ = h.svc.DeleteGame(h.gameID)
	}
	h.gameID = id
}

func playerName(computer bool) string {
	if computer {
		return "Computer"
	}
	return "Human"
}

func (h *Console) undo(ctx context.Context, args []string) {
	if _, ok := h.active(); !ok {
		return
	}
	count := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			h.view.ShowMessage("Invalid undo count. Usage: undo [count]")
			return
		}
		count = n
	}

	snap, err := h.svc.Undo(ctx, h.gameID, count)
	if err != nil {
		h.view.ShowError(err)
		return
	}
	if count == 1 {
		h.view.ShowMessage("Move undone")
	} else {
		h.view.ShowMessage(fmt.Sprintf("%d moves undone", count))
	}
	h.view.DisplayBoard(snap.Board)
}

func (h *Console) analyze(ctx context.Context, args []string) {
	if _, ok := h.active(); !ok {
		return
	}
	d := defaultAnalysis
	if len(args) > 0 {
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil || secs <= 0 {
			h.view.ShowMessage("Usage: analyze [seconds]")
			return
		}
		d = min(time.Duration(secs*float64(time.Second)), maxAnalysis)
	}

	a, err := h.svc.Analyze(ctx, h.gameID)
	if err != nil {
		h.view.ShowError(err)
		return
	}
	timer := time.AfterFunc(d, a.Stop)
	defer timer.Stop()

	var last engine.AnalysisInfo
	depth := 0
	for info := range a.Infos() {
		last = info
		// one line per depth unless verbose
		if info.Depth == depth && !h.view.IsVerbose() {
			continue
		}
		depth = info.Depth
		h.view.ShowAnalysisInfo(info)
	}
	if err := a.Err(); err != nil && !errors.Is(err, context.Canceled) {
		h.view.ShowError(err)
		return
	}
	best, _, ok := a.BestMove()
	if !ok && len(last.PV) > 0 {
		best = last.PV[0]
	}
	if best != "" {
		h.view.ShowMessage(fmt.Sprintf("Best line starts with %s", best))
	}
}

func (h *Console) preset(ctx context.Context, args []string) {
	if len(args) < 1 {
		cfg := h.svc.EngineConfiguration()
		h.view.ShowMessage(fmt.Sprintf("Engine: %s", cfg.Summary()))
		h.view.ShowMessage("Usage: preset <easy|medium|hard>")
		return
	}
	p, err := engine.ParsePreset(strings.ToLower(args[0]))
	if err != nil {
		h.view.ShowError(err)
		return
	}
	cfg := h.svc.EngineConfiguration()
	cfg.ApplyPreset(p)
	if err := h.svc.SetEngineConfiguration(ctx, cfg); err != nil {
		h.view.ShowError(err)
		return
	}
	h.view.ShowMessage(fmt.Sprintf("Engine: %s", cfg.Summary()))
}

func (h *Console) save(args []string) {
	if len(args) < 1 {
		h.view.ShowMessage("Usage: save <file>")
		return
	}
	if _, ok := h.active(); !ok {
		return
	}
	text, err := h.svc.ExportPGN(h.gameID)
	if err != nil {
		h.view.ShowError(err)
		return
	}
	if err := os.WriteFile(args[0], []byte(text), 0o644); err != nil {
		h.view.ShowError(err)
		return
	}
	h.view.ShowMessage(fmt.Sprintf("Game saved to %s", args[0]))
}

func (h *Console) load(ctx context.Context, args []string) {
	if len(args) < 1 {
		h.view.ShowMessage("Usage: load <file> [h|c] [h|c]")
		return
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		h.view.ShowError(err)
		return
	}
	snap, err := h.svc.ImportPGN(ctx, string(data))
	if err != nil {
		h.view.ShowError(err)
		return
	}
	h.replace(snap.ID)
	h.choosePlayers(args[1:])
	h.view.ShowMessage(fmt.Sprintf("Loaded %d moves from %s", snap.MoveCount(), args[0]))
	h.afterMove(snap)
}
