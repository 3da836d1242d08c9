// Package history persists a provenance record for every tool invocation:
// which tool ran, how it ended, and the working/origin pair of every
// tracked path it received.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run is one recorded tool invocation.
type Run struct {
	ID         string
	Tool       string
	Status     string // "ok" or "error"
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
	Paths      []PathRecord
}

// PathRecord is one resolved tracked path of a run.
type PathRecord struct {
	Param   string
	Index   int
	Working string
	Origin  string
}

// Store SQLite run-history storage
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	if err := store.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	return store, nil
}

// initTables initializes database tables
func (s *Store) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			tool TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_paths (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			param TEXT NOT NULL,
			idx INTEGER NOT NULL,
			working TEXT NOT NULL,
			origin TEXT NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_run_paths_run_id ON run_paths(run_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute SQL: %s, error: %w", query, err)
		}
	}

	return nil
}

// Record stores one run and its tracked paths. A missing ID is assigned.
func (s *Store) Record(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO runs (id, tool, status, error, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.Tool, run.Status, run.Error, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	for _, p := range run.Paths {
		_, err = tx.Exec(
			"INSERT INTO run_paths (run_id, param, idx, working, origin) VALUES (?, ?, ?, ?, ?)",
			run.ID, p.Param, p.Index, p.Working, p.Origin,
		)
		if err != nil {
			return fmt.Errorf("failed to record run path: %w", err)
		}
	}

	return tx.Commit()
}

// Recent returns the newest runs (most recent first), each with its paths.
func (s *Store) Recent(limit int) ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, tool, status, error, started_at, finished_at
		 FROM runs
		 ORDER BY started_at DESC, id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var errMsg sql.NullString
		if err := rows.Scan(&run.ID, &run.Tool, &run.Status, &errMsg, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if errMsg.Valid {
			run.Error = errMsg.String
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	for _, run := range runs {
		paths, err := s.runPaths(run.ID)
		if err != nil {
			return nil, err
		}
		run.Paths = paths
	}

	return runs, nil
}

func (s *Store) runPaths(runID string) ([]PathRecord, error) {
	rows, err := s.db.Query(
		`SELECT param, idx, working, origin
		 FROM run_paths
		 WHERE run_id = ?
		 ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query run paths: %w", err)
	}
	defer rows.Close()

	var paths []PathRecord
	for rows.Next() {
		var p PathRecord
		if err := rows.Scan(&p.Param, &p.Index, &p.Working, &p.Origin); err != nil {
			return nil, fmt.Errorf("failed to scan run path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
