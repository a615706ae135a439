package pgn

import (
	"bufio"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"

	"uciboard/internal/game"
)

// ArchiveWriter appends games to a zstd compressed PGN stream.
type ArchiveWriter struct {
	enc   *zstd.Encoder
	count int
}

func NewArchiveWriter(w io.Writer) (*ArchiveWriter, error) {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return nil, err
	}
	return &ArchiveWriter{enc: enc}, nil
}

// WriteGame appends one game, separated from the previous one by a blank line.
func (a *ArchiveWriter) WriteGame(g *game.Game) error {
	return a.WriteText(Encode(g))
}

// WriteText appends already encoded PGN text.
func (a *ArchiveWriter) WriteText(text string) error {
	if a.count > 0 {
		if _, err := io.WriteString(a.enc, "\n"); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(a.enc, text); err != nil {
		return err
	}
	a.count++
	return nil
}

// Count is the number of games written so far.
func (a *ArchiveWriter) Count() int { return a.count }

// Close flushes the compressed stream. It does not close the underlying writer.
func (a *ArchiveWriter) Close() error {
	return a.enc.Close()
}

// ReadArchive decompresses r and splits it into individual game texts.
func ReadArchive(r io.Reader) ([]string, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	return SplitGames(string(data)), nil
}

// SplitGames splits a multi-game PGN document. A tag line that follows move
// text starts a new game.
func SplitGames(text string) []string {
	var (
		games   []string
		current strings.Builder
		inMoves bool
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			games = append(games, s+"\n")
		}
		current.Reset()
		inMoves = false
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "["):
			if inMoves {
				flush()
			}
		case trimmed != "":
			inMoves = true
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()
	return games
}
