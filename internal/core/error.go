package core

// Error codes
const (
	ErrGameNotFound        = "GAME_NOT_FOUND"
	ErrInvalidMove         = "INVALID_MOVE"
	ErrIllegalMove         = "ILLEGAL_MOVE"
	ErrGameOver            = "GAME_OVER"
	ErrRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	ErrInvalidContent      = "INVALID_CONTENT_TYPE"
	ErrInvalidRequest      = "INVALID_REQUEST"
	ErrInvalidFEN          = "INVALID_FEN"
	ErrInvalidPGN          = "INVALID_PGN"
	ErrNothingToUndo       = "NOTHING_TO_UNDO"
	ErrEngineUnavailable   = "ENGINE_UNAVAILABLE"
	ErrEngineCommunication = "ENGINE_COMMUNICATION"
	ErrInternalError       = "INTERNAL_ERROR"
	ErrResourceLimit       = "RESOURCE_LIMIT"
)
