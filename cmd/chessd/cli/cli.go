// Package cli implements the chessd db subcommands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"uciboard/internal/board"
	"uciboard/internal/game"
	"uciboard/internal/pgn"
	"uciboard/internal/storage"
)

// NewDBCommand returns "db" with its init, delete, query and export children.
func NewDBCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the game archive database",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				return errors.New("database path required")
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "Database file path (required)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create the schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runInit(cmd.OutOrStdout(), path)
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Delete the database file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runDelete(cmd.OutOrStdout(), path)
			},
		},
		newQueryCommand(&path),
		newExportCommand(&path),
	)
	return cmd
}

func openStore(path string) (*storage.Store, error) {
	store, err := storage.NewStore(path, false, zerolog.Nop())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func runInit(out io.Writer, path string) error {
	store, err := openStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	fmt.Fprintf(out, "Database initialized at: %s\n", path)
	return nil
}

func runDelete(out io.Writer, path string) error {
	store, err := openStore(path)
	if err != nil {
		return err
	}
	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}
	fmt.Fprintf(out, "Database deleted: %s\n", path)
	return nil
}

func newQueryCommand(path *string) *cobra.Command {
	var gameID, player string
	var moves bool
	cmd := &cobra.Command{
		Use:   "query",
		Short: "List archived games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd.OutOrStdout(), *path, gameID, player, moves)
		},
	}
	cmd.Flags().StringVar(&gameID, "game-id", "", "Game ID to filter (optional, * for all)")
	cmd.Flags().StringVar(&player, "player", "", "Player name to filter (optional, * for all)")
	cmd.Flags().BoolVar(&moves, "moves", false, "Also list each game's moves")
	return cmd
}

func runQuery(out io.Writer, path, gameID, player string, withMoves bool) error {
	store, err := openStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.QueryGames(gameID, player)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(games) == 0 {
		fmt.Fprintln(out, "No games found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tWhite\tBlack\tStatus\tResult\tStart Time")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(g.GameID),
			g.White,
			g.Black,
			g.Status,
			g.Result,
			g.StartTimeUTC.Format("2006-01-02 15:04:05"),
		)
		if withMoves {
			moves, err := store.QueryMoves(g.GameID)
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}
			fmt.Fprintf(w, "\t%s\n", formatMoves(moves))
		}
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d game(s)\n", len(games))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

func formatMoves(moves []storage.MoveRecord) string {
	if len(moves) == 0 {
		return "(no moves)"
	}
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = m.MoveSAN
	}
	return strings.Join(parts, " ")
}

func newExportCommand(path *string) *cobra.Command {
	var output, gameID, player string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write archived games as a zstd compressed PGN file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				return errors.New("output file required")
			}
			return runExport(cmd.OutOrStdout(), *path, output, gameID, player)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive file to write (required)")
	cmd.Flags().StringVar(&gameID, "game-id", "", "Game ID to filter (optional, * for all)")
	cmd.Flags().StringVar(&player, "player", "", "Player name to filter (optional, * for all)")
	return cmd
}

func runExport(out io.Writer, path, output, gameID, player string) (err error) {
	store, err := openStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.QueryGames(gameID, player)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	aw, err := pgn.NewArchiveWriter(f)
	if err != nil {
		return err
	}
	skipped := 0
	for _, rec := range games {
		moves, err := store.QueryMoves(rec.GameID)
		if err != nil {
			aw.Close()
			return fmt.Errorf("query failed: %w", err)
		}
		g, err := RebuildGame(rec, moves)
		if err != nil {
			fmt.Fprintf(out, "Skipping %s: %v\n", shortID(rec.GameID), err)
			skipped++
			continue
		}
		if err := aw.WriteGame(g); err != nil {
			aw.Close()
			return err
		}
	}
	if err := aw.Close(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Exported %d game(s) to %s", aw.Count(), output)
	if skipped > 0 {
		fmt.Fprintf(out, " (%d skipped)", skipped)
	}
	fmt.Fprintln(out)
	return nil
}

// RebuildGame replays an archived game from its stored moves.
func RebuildGame(rec storage.GameRecord, moves []storage.MoveRecord) (*game.Game, error) {
	g, err := game.NewFromFEN(rec.InitialFEN)
	if err != nil {
		return nil, err
	}
	for _, mr := range moves {
		m, err := board.ParseMove(mr.MoveUCI, g.Board())
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", mr.MoveNumber, err)
		}
		g.MakeMove(m)
	}

	meta := g.Metadata()
	meta.Event = rec.Event
	meta.White = rec.White
	meta.Black = rec.Black
	if !rec.StartTimeUTC.IsZero() {
		meta.Date = rec.StartTimeUTC.Format("2006.01.02")
	}
	g.SetMetadata(meta)

	if status, err := game.ParseStatus(rec.Status); err == nil {
		g.SetStatus(status)
	}
	return g, nil
}
