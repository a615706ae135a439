// Package storage archives games and moves in SQLite. Writes are queued and
// applied by a single writer goroutine; a failed write marks the store
// degraded and later writes are dropped, leaving game play unaffected.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const (
	writeQueueSize = 1000
	drainTimeout   = 2 * time.Second
)

type writeOp struct {
	fn      func(*sql.Tx) error
	barrier chan struct{}
}

type Store struct {
	db           *sql.DB
	path         string
	log          zerolog.Logger
	writeChan    chan writeOp
	healthStatus atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewStore opens dataSourceName and starts the async writer.
func NewStore(dataSourceName string, devMode bool, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if devMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// sqlite serializes writers anyway; one connection keeps the foreign_keys
	// pragma in effect for every statement
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		db:        db,
		path:      dataSourceName,
		log:       log.With().Str("component", "storage").Logger(),
		writeChan: make(chan writeOp, writeQueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.healthStatus.Store(true)

	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

func (s *Store) writerLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			deadline := time.After(drainTimeout)
			for {
				select {
				case op := <-s.writeChan:
					s.apply(op)
				case <-deadline:
					return
				default:
					return
				}
			}
		case op := <-s.writeChan:
			s.apply(op)
		}
	}
}

func (s *Store) apply(op writeOp) {
	if op.barrier != nil {
		close(op.barrier)
		return
	}
	if !s.healthStatus.Load() {
		return
	}
	s.executeWrite(op.fn)
}

func (s *Store) executeWrite(fn func(*sql.Tx) error) {
	tx, err := s.db.Begin()
	if err != nil {
		s.degrade(err, "failed to begin transaction")
		return
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		s.degrade(err, "write operation failed")
		return
	}
	if err := tx.Commit(); err != nil {
		s.degrade(err, "failed to commit")
	}
}

func (s *Store) degrade(err error, msg string) {
	s.log.Error().Err(err).Msg("storage degraded: " + msg)
	s.healthStatus.Store(false)
}

func (s *Store) enqueue(what string, fn func(*sql.Tx) error) {
	if !s.healthStatus.Load() {
		return
	}
	select {
	case s.writeChan <- writeOp{fn: fn}:
	default:
		s.log.Warn().Str("record", what).Msg("storage write queue full, dropping")
	}
}

// RecordNewGame queues the insert of a game row.
func (s *Store) RecordNewGame(record GameRecord) {
	s.enqueue("game", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO games (
			game_id, initial_fen, event, white, black, status, result, start_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			record.GameID, record.InitialFEN, record.Event, record.White, record.Black,
			record.Status, record.Result, record.StartTimeUTC,
		)
		return err
	})
}

// RecordMove queues the insert of a move row.
func (s *Store) RecordMove(record MoveRecord) {
	s.enqueue("move", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO moves (
			game_id, move_number, move_uci, move_san, fen_after_move, player_color, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.GameID, record.MoveNumber, record.MoveUCI, record.MoveSAN,
			record.FENAfterMove, record.PlayerColor, record.MoveTimeUTC,
		)
		return err
	})
}

// RecordStatus queues a status and result update of a game.
func (s *Store) RecordStatus(gameID, status, result string) {
	s.enqueue("status", func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE games SET status = ?, result = ? WHERE game_id = ?`,
			status, result, gameID)
		return err
	})
}

// DeleteUndoneMoves queues the removal of moves numbered above afterMoveNumber.
func (s *Store) DeleteUndoneMoves(gameID string, afterMoveNumber int) {
	s.enqueue("undo", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM moves WHERE game_id = ? AND move_number > ?`,
			gameID, afterMoveNumber)
		return err
	})
}

// Flush waits until every write queued before the call has been applied.
func (s *Store) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	select {
	case s.writeChan <- writeOp{barrier: barrier}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

// Close stops the writer, giving queued writes a short grace, and closes the
// database.
func (s *Store) Close() error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		s.log.Warn().Msg("storage writer shutdown timeout, some writes may be lost")
	}

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return tx.Commit()
}

// DeleteDB closes the store and removes the database file.
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}
	return nil
}

// QueryGames lists games, newest first. Empty or "*" filters match all;
// player matches either side's name.
func (s *Store) QueryGames(gameID, player string) ([]GameRecord, error) {
	query := `SELECT game_id, initial_fen, event, white, black, status, result, start_time_utc
	FROM games WHERE 1=1`
	var args []any

	if gameID != "" && gameID != "*" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}
	if player != "" && player != "*" {
		query += " AND (white = ? OR black = ?)"
		args = append(args, player, player)
	}
	query += " ORDER BY start_time_utc DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		if err := rows.Scan(&g.GameID, &g.InitialFEN, &g.Event, &g.White, &g.Black,
			&g.Status, &g.Result, &g.StartTimeUTC); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return games, nil
}

// QueryMoves returns the moves of a game in play order.
func (s *Store) QueryMoves(gameID string) ([]MoveRecord, error) {
	rows, err := s.db.Query(`SELECT move_id, game_id, move_number, move_uci, move_san,
		fen_after_move, player_color, move_time_utc
	FROM moves WHERE game_id = ? ORDER BY move_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(&m.MoveID, &m.GameID, &m.MoveNumber, &m.MoveUCI, &m.MoveSAN,
			&m.FENAfterMove, &m.PlayerColor, &m.MoveTimeUTC); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return moves, nil
}
