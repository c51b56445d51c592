// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store indexes analysis runs and their outputs in SQLite, so
// figures and statistics tables can be queried without rescanning the
// output directories.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/rerps/internal/summary"
	"github.com/pdiddy/rerps/pkg/types"
)

const dbFile = "index.db"

// Store manages the results index database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the results index at ResultsDir/index.db,
// creating the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.ResultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}

	dbPath := filepath.Join(cfg.ResultsDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recipe TEXT NOT NULL,
			started TEXT NOT NULL,
			finished TEXT,
			status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			path TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_run_id ON artifacts(run_id)`,
		`CREATE TABLE IF NOT EXISTS window_averages (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			window TEXT NOT NULL,
			condition TEXT NOT NULL,
			subject TEXT NOT NULL,
			electrode TEXT NOT NULL,
			mean REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_window_averages_run_id ON window_averages(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is one recorded execution of a recipe.
type Run struct {
	ID       int64
	Recipe   string
	Started  time.Time
	Finished time.Time
	Status   string
}

// Artifact is one output file produced by a run.
type Artifact struct {
	ID    int64
	RunID int64
	Kind  string
	Path  string
}

// BeginRun records the start of a recipe execution.
func (s *Store) BeginRun(recipe string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (recipe, started, status) VALUES (?, ?, 'running')`,
		recipe, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun records the outcome of a run.
func (s *Store) FinishRun(runID int64, status string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET finished = ?, status = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), status, runID,
	)
	if err != nil {
		return fmt.Errorf("updating run %d: %w", runID, err)
	}
	return nil
}

// AddArtifact records an output file for a run.
func (s *Store) AddArtifact(runID int64, kind, path string) error {
	_, err := s.db.Exec(
		`INSERT INTO artifacts (run_id, kind, path) VALUES (?, ?, ?)`,
		runID, kind, path,
	)
	if err != nil {
		return fmt.Errorf("inserting artifact: %w", err)
	}
	return nil
}

// AddWindowAverages records a time-window average table for a run.
func (s *Store) AddWindowAverages(runID int64, window string, rows []summary.WindowRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO window_averages (run_id, window, condition, subject, electrode, mean)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(runID, window, r.Condition, r.Subject, r.Electrode, r.Mean); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting window average: %w", err)
		}
	}
	return tx.Commit()
}

// Runs lists recorded runs, newest first, optionally filtered by recipe.
func (s *Store) Runs(ctx context.Context, recipe string) ([]Run, error) {
	query := `SELECT id, recipe, started, COALESCE(finished, ''), status FROM runs`
	var args []any
	if recipe != "" {
		query += ` WHERE recipe = ?`
		args = append(args, recipe)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Recipe, &started, &finished, &r.Status); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Started, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			r.Finished, _ = time.Parse(time.RFC3339Nano, finished)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Artifacts lists the output files recorded for a run.
func (s *Store) Artifacts(ctx context.Context, runID int64) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, kind, path FROM artifacts WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ID, &a.RunID, &a.Kind, &a.Path); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// WindowAverages returns the recorded time-window averages for a run,
// optionally filtered by window label.
func (s *Store) WindowAverages(ctx context.Context, runID int64, window string) ([]summary.WindowRow, error) {
	query := `SELECT condition, subject, electrode, mean FROM window_averages WHERE run_id = ?`
	args := []any{runID}
	if window != "" {
		query += ` AND window = ?`
		args = append(args, window)
	}
	query += ` ORDER BY condition, subject, electrode`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying window averages: %w", err)
	}
	defer rows.Close()

	var out []summary.WindowRow
	for rows.Next() {
		var r summary.WindowRow
		if err := rows.Scan(&r.Condition, &r.Subject, &r.Electrode, &r.Mean); err != nil {
			return nil, fmt.Errorf("scanning window average: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRuns removes all runs for a recipe, or every run when recipe is
// empty. Artifacts and window averages cascade.
func (s *Store) DeleteRuns(recipe string) (int64, error) {
	var res sql.Result
	var err error
	if recipe == "" {
		res, err = s.db.Exec(`DELETE FROM runs`)
	} else {
		res, err = s.db.Exec(`DELETE FROM runs WHERE recipe = ?`, recipe)
	}
	if err != nil {
		return 0, fmt.Errorf("deleting runs: %w", err)
	}
	return res.RowsAffected()
}
