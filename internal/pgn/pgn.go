// Package pgn reads and writes games in Portable Game Notation.
//
// Exported games carry a UCIMoves tag holding the move list as UCI tokens.
// Import replays that tag instead of parsing the SAN move text, so a round
// trip never depends on algebraic disambiguation. Games from other tools
// lack the tag; MoveTextTokens hands their SAN to a resolver instead.
package pgn

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"uciboard/internal/board"
	"uciboard/internal/game"
)

const lineWidth = 80

var ErrInvalidPGN = errors.New("invalid PGN")

var (
	tagPattern       = regexp.MustCompile(`\[(\w+)\s+"((?:[^"\\]|\\.)*)"\]`)
	commentPattern   = regexp.MustCompile(`\{[^}]*\}`)
	variationPattern = regexp.MustCompile(`\([^)]*\)`)
	resultPattern    = regexp.MustCompile(`1-0|0-1|1/2-1/2|\*`)
	moveNumPattern   = regexp.MustCompile(`\d+\.+`)

	tagEscaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	tagUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`)
)

// Tag is a single PGN header pair.
type Tag struct {
	Name  string
	Value string
}

// Encode renders g as PGN text.
func Encode(g *game.Game) string {
	var sb strings.Builder
	meta := g.Metadata()
	round := meta.Round
	if round == "" {
		round = "?"
	}

	tags := []Tag{
		{"Event", meta.Event},
		{"Site", meta.Site},
		{"Date", meta.Date},
		{"Round", round},
		{"White", meta.White},
		{"Black", meta.Black},
		{"Result", g.Result()},
	}
	if !board.IsStartingPosition(g.InitialFEN()) {
		tags = append(tags, Tag{"FEN", g.InitialFEN()}, Tag{"SetUp", "1"})
	}
	if g.MoveCount() > 0 {
		tags = append(tags, Tag{"UCIMoves", strings.Join(g.UCIMoves(), " ")})
	}
	for _, t := range tags {
		fmt.Fprintf(&sb, "[%s \"%s\"]\n", t.Name, tagEscaper.Replace(t.Value))
	}
	sb.WriteByte('\n')

	line := 0
	for _, unit := range append(g.NumberedMoves(), g.Result()) {
		if line > 0 {
			if line+1+len(unit) > lineWidth {
				sb.WriteByte('\n')
				line = 0
			} else {
				sb.WriteByte(' ')
				line++
			}
		}
		sb.WriteString(unit)
		line += len(unit)
	}
	sb.WriteByte('\n')
	return sb.String()
}

// Write encodes g to w.
func Write(w io.Writer, g *game.Game) error {
	_, err := io.WriteString(w, Encode(g))
	return err
}

// ParseTags extracts every header pair in document order, undoing the
// backslash escapes of quotes and backslashes in values.
func ParseTags(text string) []Tag {
	var tags []Tag
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		tags = append(tags, Tag{Name: m[1], Value: tagUnescaper.Replace(m[2])})
	}
	return tags
}

// Decode builds a game from PGN text. The position comes from the FEN tag
// when present and the moves from the UCIMoves tag. A UCIMoves token that
// cannot be applied is an error; the moves are not checked for legality here.
func Decode(text string) (*game.Game, error) {
	if !IsValid(text) {
		return nil, fmt.Errorf("%w: no tags found", ErrInvalidPGN)
	}

	g := game.New()
	meta := g.Metadata()
	var fen, uciMoves string
	for _, t := range ParseTags(text) {
		switch t.Name {
		case "Event":
			meta.Event = t.Value
		case "Site":
			meta.Site = t.Value
		case "Date":
			meta.Date = t.Value
		case "Round":
			meta.Round = t.Value
		case "White":
			meta.White = t.Value
		case "Black":
			meta.Black = t.Value
		case "FEN":
			fen = t.Value
		case "UCIMoves":
			uciMoves = t.Value
		}
	}

	if fen != "" {
		if err := g.LoadFEN(fen); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPGN, err)
		}
	}
	g.SetMetadata(meta)

	for i, token := range strings.Fields(uciMoves) {
		m, err := board.ParseMove(token, g.Board())
		if err != nil {
			return nil, fmt.Errorf("%w: move %d: %w", ErrInvalidPGN, i+1, err)
		}
		g.MakeMove(m)
	}
	return g, nil
}

// Read decodes a single game from r.
func Read(r io.Reader) (*game.Game, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(string(data))
}

// ParseMoveText strips comments, variations, move numbers and the result
// from PGN move text and returns the remaining move tokens.
func ParseMoveText(text string) []string {
	text = commentPattern.ReplaceAllString(text, " ")
	text = variationPattern.ReplaceAllString(text, " ")
	text = resultPattern.ReplaceAllString(text, " ")
	text = moveNumPattern.ReplaceAllString(text, " ")

	var moves []string
	for _, tok := range strings.Fields(text) {
		if tok != "..." {
			moves = append(moves, tok)
		}
	}
	return moves
}

// MoveTextTokens is ParseMoveText for a whole PGN document; header tags are
// dropped first.
func MoveTextTokens(text string) []string {
	return ParseMoveText(tagPattern.ReplaceAllString(text, " "))
}

// IsValid reports whether text contains at least one well formed tag.
func IsValid(text string) bool {
	return strings.Contains(text, "[") && tagPattern.MatchString(text)
}
