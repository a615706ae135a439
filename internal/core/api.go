package core

// Request types

type CreateGameRequest struct {
	FEN   string `json:"fen,omitempty" validate:"omitempty,max=100"`
	White string `json:"white,omitempty" validate:"omitempty,max=64"`
	Black string `json:"black,omitempty" validate:"omitempty,max=64"`
	Event string `json:"event,omitempty" validate:"omitempty,max=128"`
}

type MoveRequest struct {
	Move string `json:"move" validate:"required,min=4,max=5"` // "cccc" asks the engine to move
}

type UndoRequest struct {
	Count int `json:"count" validate:"required,min=1,max=300"`
}

type ResignRequest struct {
	Color string `json:"color" validate:"required,oneof=w b white black"`
}

type ImportRequest struct {
	PGN string `json:"pgn" validate:"required,max=65536"`
}

type ConfigRequest struct {
	Preset   string `json:"preset,omitempty" validate:"omitempty,oneof=easy medium hard custom"`
	Threads  *int   `json:"threads,omitempty" validate:"omitempty,min=1,max=128"`
	HashMB   *int   `json:"hashMb,omitempty" validate:"omitempty,min=1,max=16384"`
	Skill    *int   `json:"skill,omitempty" validate:"omitempty,min=0,max=20"`
	Depth    *int   `json:"depth,omitempty" validate:"omitempty,min=1,max=100"`
	MoveTime *int   `json:"moveTimeMs,omitempty" validate:"omitempty,min=100,max=60000"`
	MultiPV  *int   `json:"multiPv,omitempty" validate:"omitempty,min=1,max=10"`
	Ponder   *bool  `json:"ponder,omitempty"`
}

// Response types

type GameResponse struct {
	GameID   string    `json:"gameId"`
	FEN      string    `json:"fen"`
	Turn     string    `json:"turn"`   // "w" or "b"
	Status   string    `json:"status"` // "in_progress", "white_wins_checkmate", ...
	Result   string    `json:"result"` // "1-0", "0-1", "1/2-1/2" or "*"
	Moves    []string  `json:"moves"`
	White    string    `json:"white"`
	Black    string    `json:"black"`
	InCheck  bool      `json:"inCheck"`
	LastMove *MoveInfo `json:"lastMove,omitempty"`
}

type MoveInfo struct {
	Move        string `json:"move"`
	SAN         string `json:"san"`
	PlayerColor string `json:"playerColor"` // "w" or "b"
	Score       int    `json:"score,omitempty"`
	Mate        int    `json:"mate,omitempty"`
	Depth       int    `json:"depth,omitempty"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"` // ASCII representation
}

type LegalMovesResponse struct {
	FEN     string   `json:"fen"`
	Moves   []string `json:"moves"`
	Targets []string `json:"targets,omitempty"`
}

type PGNResponse struct {
	GameID string `json:"gameId"`
	PGN    string `json:"pgn"`
}

type ConfigResponse struct {
	Preset   string `json:"preset"`
	Threads  int    `json:"threads"`
	HashMB   int    `json:"hashMb"`
	Skill    int    `json:"skill"`
	Depth    int    `json:"depth"`
	MoveTime int    `json:"moveTimeMs"`
	MultiPV  int    `json:"multiPv"`
	Ponder   bool   `json:"ponder"`
	Summary  string `json:"summary"`
}

type AnalysisResponse struct {
	Depth    int      `json:"depth"`
	SelDepth int      `json:"seldepth,omitempty"`
	MultiPV  int      `json:"multipv,omitempty"`
	Nodes    int64    `json:"nodes,omitempty"`
	NPS      int64    `json:"nps,omitempty"`
	Score    int      `json:"score"`
	Mate     *int     `json:"mate,omitempty"`
	BestMove string   `json:"bestMove,omitempty"`
	PV       []string `json:"pv,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
