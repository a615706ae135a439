// Package main is the interactive console for playing and analysing against
// a UCI engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"uciboard/internal/cli"
	"uciboard/internal/engine"
	"uciboard/internal/logx"
	"uciboard/internal/service"
)

const shutdownTimeout = 3 * time.Second

type options struct {
	enginePath string
	preset     string
	theme      string
	logLevel   string
	history    string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "chess",
		Short:        "Play and analyse chess against a UCI engine",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.enginePath, "engine", engine.DefaultPath, "UCI engine binary")
	f.StringVar(&opts.preset, "preset", string(engine.PresetMedium), "Engine strength (easy|medium|hard)")
	f.StringVar(&opts.theme, "color", "", "Board theme (off|brown|green|gray), default depends on the terminal")
	f.StringVar(&opts.logLevel, "log-level", "warn", "Log level")
	f.StringVar(&opts.history, "history", defaultHistoryFile(), "Readline history file, empty to disable")
	return cmd
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".uciboard_history")
}

func run(ctx context.Context, opts options) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	log := logx.NewLogger(opts.logLevel)

	preset, err := engine.ParsePreset(opts.preset)
	if err != nil {
		return err
	}
	cfg := engine.DefaultConfiguration()
	cfg.ApplyPreset(preset)

	eng := engine.New(engine.Options{
		Path:   opts.enginePath,
		Config: cfg,
		Logger: log,
	})
	if err := eng.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start engine %q: %v\n", opts.enginePath, err)
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = eng.Stop(sctx)
	}()

	svc := service.New(service.Options{Engine: eng, Logger: log})
	defer svc.Shutdown(shutdownTimeout)

	input, output, closeInput, err := openTerminal(opts.history)
	if err != nil {
		return err
	}
	defer closeInput()

	view := cli.New(input, output)
	theme := cli.ColorTheme(opts.theme)
	if theme == "" {
		theme = cli.ThemeOff
		if term.IsTerminal(int(os.Stdout.Fd())) {
			theme = cli.ThemeBrown
		}
	}
	if err := view.SetTheme(theme); err != nil {
		return err
	}

	view.ShowWelcome(cfg.Summary())
	return cli.NewConsole(svc, view).Run(ctx)
}

// openTerminal uses readline when stdin is a terminal and a plain line
// reader otherwise, so scripted input works.
func openTerminal(history string) (cli.LineReader, io.Writer, func(), error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return cli.NewLineReader(os.Stdin), os.Stdout, func() {}, nil
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return interruptReader{rl}, rl.Stdout(), func() { rl.Close() }, nil
}

// interruptReader treats ^C as the end of input.
type interruptReader struct {
	*readline.Instance
}

func (r interruptReader) Readline() (string, error) {
	line, err := r.Instance.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	return line, err
}
