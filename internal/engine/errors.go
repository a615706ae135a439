package engine

import "errors"

var (
	// ErrEngineUnavailable means the engine binary is missing, could not be
	// spawned, or never completed the uci handshake.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrEngineNotRunning is returned for requests made while the client is
	// stopped or shutting down.
	ErrEngineNotRunning = errors.New("engine not running")

	// ErrCommunication means the pipe broke or the process exited mid-request.
	ErrCommunication = errors.New("engine communication failure")
)
