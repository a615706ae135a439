package game

import (
	"fmt"

	"uciboard/internal/core"
)

type Status int

const (
	StatusInProgress Status = iota
	StatusWhiteWinsCheckmate
	StatusBlackWinsCheckmate
	StatusStalemate
	StatusDrawFiftyMoves
	StatusDrawRepetition
	StatusDrawAgreement
	StatusWhiteResigns
	StatusBlackResigns
)

var statusNames = [...]string{
	StatusInProgress:         "in_progress",
	StatusWhiteWinsCheckmate: "white_wins_checkmate",
	StatusBlackWinsCheckmate: "black_wins_checkmate",
	StatusStalemate:          "stalemate",
	StatusDrawFiftyMoves:     "draw_fifty_moves",
	StatusDrawRepetition:     "draw_repetition",
	StatusDrawAgreement:      "draw_agreement",
	StatusWhiteResigns:       "white_resigns",
	StatusBlackResigns:       "black_resigns",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// ParseStatus is the inverse of String.
func ParseStatus(s string) (Status, error) {
	for i, name := range statusNames {
		if name == s {
			return Status(i), nil
		}
	}
	return StatusInProgress, fmt.Errorf("unknown game status %q", s)
}

func (s Status) IsOver() bool {
	return s != StatusInProgress
}

// Result returns "1-0", "0-1", "1/2-1/2" or "*".
func (s Status) Result() string {
	switch s {
	case StatusWhiteWinsCheckmate, StatusBlackResigns:
		return "1-0"
	case StatusBlackWinsCheckmate, StatusWhiteResigns:
		return "0-1"
	case StatusStalemate, StatusDrawFiftyMoves, StatusDrawRepetition, StatusDrawAgreement:
		return "1/2-1/2"
	}
	return "*"
}

// Description is a human readable summary such as "White wins by checkmate".
func (s Status) Description() string {
	switch s {
	case StatusWhiteWinsCheckmate:
		return "White wins by checkmate"
	case StatusBlackWinsCheckmate:
		return "Black wins by checkmate"
	case StatusStalemate:
		return "Draw by stalemate"
	case StatusDrawFiftyMoves:
		return "Draw by fifty-move rule"
	case StatusDrawRepetition:
		return "Draw by threefold repetition"
	case StatusDrawAgreement:
		return "Draw by agreement"
	case StatusWhiteResigns:
		return "White resigns"
	case StatusBlackResigns:
		return "Black resigns"
	}
	return "Game in progress"
}

// CheckmateStatus is the status when side c has been checkmated.
func CheckmateStatus(mated core.Color) Status {
	if mated == core.ColorWhite {
		return StatusBlackWinsCheckmate
	}
	return StatusWhiteWinsCheckmate
}

// ResignStatus is the status when side c resigns.
func ResignStatus(c core.Color) Status {
	if c == core.ColorWhite {
		return StatusWhiteResigns
	}
	return StatusBlackResigns
}
