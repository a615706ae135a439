package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"uciboard/internal/board"
	"uciboard/internal/engine"
	"uciboard/internal/game"
	"uciboard/internal/service"
)

type CommandType int

const (
	CmdNone CommandType = iota
	CmdNew
	CmdResume
	CmdMove
	CmdGo
	CmdUndo
	CmdMoves
	CmdAnalyze
	CmdHint
	CmdPreset
	CmdSave
	CmdLoad
	CmdColor
	CmdVerbose
	CmdHistory
	CmdHelp
	CmdQuit
)

type Command struct {
	Type CommandType
	Args []string
	Raw  string
}

type ColorTheme string

const (
	ThemeOff   ColorTheme = "off"
	ThemeBrown ColorTheme = "brown"
	ThemeGreen ColorTheme = "green"
	ThemeGray  ColorTheme = "gray"
)

type themeColors struct {
	lightBg string
	darkBg  string
	white   string
	black   string
	reset   string
}

var themes = map[ColorTheme]themeColors{
	ThemeOff: {},
	ThemeBrown: {
		lightBg: "\033[48;5;230m", // beige
		darkBg:  "\033[48;5;94m",
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
	ThemeGreen: {
		lightBg: "\033[48;5;157m",
		darkBg:  "\033[48;5;22m",
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
	ThemeGray: {
		lightBg: "\033[48;5;251m",
		darkBg:  "\033[48;5;240m",
		white:   "\033[97m",
		black:   "\033[30m",
		reset:   "\033[0m",
	},
}

// LineReader is satisfied by *readline.Instance.
type LineReader interface {
	Readline() (string, error)
}

// prompter is implemented by readers that draw their own prompt.
type prompter interface {
	SetPrompt(prompt string)
}

type scannerReader struct {
	sc *bufio.Scanner
}

// NewLineReader reads lines from r without any terminal handling.
func NewLineReader(r io.Reader) LineReader {
	return &scannerReader{sc: bufio.NewScanner(r)}
}

func (s *scannerReader) Readline() (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

type CLI struct {
	input   LineReader
	output  io.Writer
	theme   ColorTheme
	verbose bool
}

func New(input LineReader, output io.Writer) *CLI {
	return &CLI{
		input:  input,
		output: output,
		theme:  ThemeOff,
	}
}

// GetCommand blocks for the next command. End of input reads as quit.
func (c *CLI) GetCommand() (*Command, error) {
	line, err := c.input.Readline()
	if err != nil {
		if err == io.EOF {
			return &Command{Type: CmdQuit}, nil
		}
		return nil, err
	}
	return parseCommand(strings.TrimSpace(line)), nil
}

func parseCommand(input string) *Command {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return &Command{Type: CmdNone}
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "new":
		return &Command{Type: CmdNew, Args: args}
	case "resume":
		return &Command{Type: CmdResume, Args: args, Raw: input}
	case "go":
		return &Command{Type: CmdGo}
	case "undo":
		return &Command{Type: CmdUndo, Args: args}
	case "moves", "legal":
		return &Command{Type: CmdMoves, Args: args}
	case "analyze", "analyse":
		return &Command{Type: CmdAnalyze, Args: args}
	case "hint":
		return &Command{Type: CmdHint}
	case "preset":
		return &Command{Type: CmdPreset, Args: args}
	case "save":
		return &Command{Type: CmdSave, Args: args}
	case "load":
		return &Command{Type: CmdLoad, Args: args}
	case "color":
		return &Command{Type: CmdColor, Args: args}
	case "verbose":
		return &Command{Type: CmdVerbose}
	case "history":
		return &Command{Type: CmdHistory}
	case "help", "?":
		return &Command{Type: CmdHelp}
	case "quit", "exit":
		return &Command{Type: CmdQuit}
	default:
		// anything else is a move; SAN needs its case
		return &Command{Type: CmdMove, Args: []string{parts[0]}}
	}
}

func (c *CLI) SetTheme(theme ColorTheme) error {
	if _, ok := themes[theme]; !ok {
		return fmt.Errorf("invalid theme: %s (use: off, brown, green, gray)", theme)
	}
	c.theme = theme
	return nil
}

func (c *CLI) Theme() ColorTheme { return c.theme }

func (c *CLI) ToggleVerbose() bool {
	c.verbose = !c.verbose
	return c.verbose
}

func (c *CLI) IsVerbose() bool {
	return c.verbose
}

func (c *CLI) ShowMessage(msg string) {
	fmt.Fprintln(c.output, msg)
}

func (c *CLI) ShowError(err error) {
	c.ShowMessage(fmt.Sprintf("Error: %v", err))
}

func (c *CLI) ShowPrompt(prompt string) {
	if p, ok := c.input.(prompter); ok {
		p.SetPrompt(prompt)
		return
	}
	fmt.Fprint(c.output, prompt)
}

// Ask shows prompt and returns the trimmed answer, empty on end of input.
func (c *CLI) Ask(prompt string) string {
	c.ShowPrompt(prompt)
	line, err := c.input.Readline()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func (c *CLI) DisplayBoard(b *board.Board) {
	theme := themes[c.theme]
	var sb strings.Builder

	sb.WriteString("\n  a b c d e f g h\n")
	for r := 0; r < 8; r++ {
		fmt.Fprintf(&sb, "%d ", 8-r)
		for f := 0; f < 8; f++ {
			square := fmt.Sprintf("%c%c", 'a'+f, '8'-r)
			piece := b.GetPieceAt(square)

			if c.theme == ThemeOff {
				sb.WriteString(piece.String())
				sb.WriteByte(' ')
				continue
			}

			bg := theme.darkBg
			if (r+f)%2 == 0 {
				bg = theme.lightBg
			}
			if piece == 0 {
				fmt.Fprintf(&sb, "%s  %s", bg, theme.reset)
				continue
			}
			color := theme.black
			if piece.IsWhite() {
				color = theme.white
			}
			fmt.Fprintf(&sb, "%s%s%c %s", bg, color, piece.Char(), theme.reset)
		}
		fmt.Fprintf(&sb, " %d\n", 8-r)
	}
	sb.WriteString("  a b c d e f g h\n")

	c.ShowMessage(sb.String())
}

func (c *CLI) ShowHelp() {
	help := `Commands:
  new [h|c] [h|c]  - Start a new game, choosing human or computer for each side
  resume <FEN>     - Start from a specific position
  <move>           - Make a move in UCI notation (e.g. e2e4, a7a8q)
  go               - Let the engine play the side to move
  undo [count]     - Undo last move(s), default 1
  moves [square]   - List legal moves, optionally from one square
  analyze [secs]   - Run the engine on the position, default 3 seconds
  hint             - Ask the engine for a suggestion
  preset <name>    - Set engine strength (easy|medium|hard)
  save <file>      - Save the game as PGN
  load <file>      - Load a game from PGN
  color <theme>    - Set board color theme (off|brown|green|gray)
  verbose          - Toggle detailed engine output
  history          - Show the move list and positions
  quit/exit        - Exit the program
  help/?           - Show this help message

During any game:
  Press ENTER      - Execute computer move (when it's computer's turn)`

	c.ShowMessage(help)
}

func (c *CLI) ShowWelcome(engineName string) {
	c.ShowMessage("uciboard console")
	if engineName != "" {
		c.ShowMessage("Engine: " + engineName)
	}
	c.ShowMessage("Commands: new, resume <FEN>, <move>, go, undo, moves, analyze, hint, help/?")
	c.ShowMessage("Example: 'resume 4k3/8/8/8/8/8/8/4K2R w K - 0 1' to start from a puzzle.")
	c.ShowMessage("")
}

func (c *CLI) ShowGameHistory(s service.Snapshot) {
	c.ShowMessage(fmt.Sprintf("Starting FEN: %s", s.InitialFEN))

	moves := s.SANMoves
	for i := 0; i < len(moves); i += 2 {
		moveNum := i/2 + 1
		if i+1 < len(moves) {
			c.ShowMessage(fmt.Sprintf("%d. %s %s", moveNum, moves[i], moves[i+1]))
		} else {
			c.ShowMessage(fmt.Sprintf("%d. %s", moveNum, moves[i]))
		}
	}
	c.ShowMessage(fmt.Sprintf("Current FEN: %s", s.FEN))
	c.ShowMessage(fmt.Sprintf("Game state: %s", s.Status.Description()))
}

func (c *CLI) ShowComputerMove(s service.Snapshot) {
	if s.LastMove == nil {
		return
	}
	mover := s.LastMove.Piece.Color()
	if c.verbose && s.LastInfo != nil {
		c.ShowMessage(fmt.Sprintf("Computer (%s): %s (depth=%d, score=%s)",
			mover, s.LastMove.SAN(), s.LastInfo.Depth, s.LastInfo.Score))
		return
	}
	c.ShowMessage(fmt.Sprintf("Computer (%s): %s", mover, s.LastMove.SAN()))
}

func (c *CLI) ShowHumanMove(s service.Snapshot) {
	if c.verbose && s.LastMove != nil {
		c.ShowMessage(fmt.Sprintf("Your move: %s", s.LastMove.SAN()))
	}
}

// ShowCheck prints a check notice for the side to move.
func (c *CLI) ShowCheck(s service.Snapshot) {
	if s.InCheck && !s.Status.IsOver() {
		c.ShowMessage(fmt.Sprintf("%s is in check", s.Turn))
	}
}

func (c *CLI) ShowLegalMoves(moves []string) {
	if len(moves) == 0 {
		c.ShowMessage("No legal moves")
		return
	}
	c.ShowMessage(fmt.Sprintf("%d legal: %s", len(moves), strings.Join(moves, " ")))
}

func (c *CLI) ShowAnalysisInfo(info engine.AnalysisInfo) {
	line := fmt.Sprintf("depth %2d  score %6s", info.Depth, info.Score)
	if c.verbose {
		line += fmt.Sprintf("  nodes %d  nps %d", info.Nodes, info.NPS)
	}
	if len(info.PV) > 0 {
		line += "  pv " + strings.Join(info.PV, " ")
	}
	c.ShowMessage(line)
}

func (c *CLI) ShowHint(res engine.SearchResult) {
	if !res.HasMove() {
		c.ShowMessage("The engine has no move to suggest")
		return
	}
	msg := fmt.Sprintf("Hint: %s (score %s)", res.BestMove, res.Info.Score)
	if c.verbose && res.Ponder != "" {
		msg += fmt.Sprintf(", expecting %s", res.Ponder)
	}
	c.ShowMessage(msg)
}

func (c *CLI) ShowGameOver(status game.Status) {
	c.ShowMessage(fmt.Sprintf("\nGame Over: %s (%s)", status.Description(), status.Result()))
	c.ShowMessage("Start a new game with 'new', 'resume' or 'load'.")
}
