package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Schema for the diagnostic run store.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    source          TEXT NOT NULL,
    created_at_ns   INTEGER NOT NULL,
    observations    INTEGER NOT NULL,
    final_zscore    REAL NOT NULL,
    threshold       REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at_ns);
CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source, created_at_ns);

CREATE TABLE IF NOT EXISTS run_lengths (
    run_id      INTEGER NOT NULL REFERENCES runs(id),
    ordinal     INTEGER NOT NULL,
    length      INTEGER NOT NULL,
    zscore      REAL NOT NULL,
    crossed     INTEGER NOT NULL,
    ended_at_ns INTEGER NOT NULL,
    PRIMARY KEY (run_id, ordinal)
);
`

// Store is the SQLite run store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at the given path and applies
// the schema.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InsertRun inserts a new run and returns its ID.
func (s *Store) InsertRun(r *Run) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO runs (source, created_at_ns, observations, final_zscore, threshold)
		VALUES (?, ?, ?, ?, ?)`,
		r.Source, r.CreatedAtNs, r.Observations, r.FinalZScore, r.Threshold,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}

	return id, nil
}

// InsertRunLengths inserts the run-length segments for a run.
func (s *Store) InsertRunLengths(runID int64, segments []RunLength) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO run_lengths (run_id, ordinal, length, zscore, crossed, ended_at_ns)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, seg := range segments {
		if _, err := stmt.Exec(runID, i, seg.Length, seg.ZScore, seg.Crossed, seg.EndedAtNs); err != nil {
			return fmt.Errorf("insert run length: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID. Returns nil when no such run exists.
func (s *Store) GetRun(id int64) (*Run, error) {
	var r Run
	err := s.db.QueryRow(`
		SELECT id, source, created_at_ns, observations, final_zscore, threshold
		FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Source, &r.CreatedAtNs, &r.Observations, &r.FinalZScore, &r.Threshold)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get run: %w", err)
	}

	return &r, nil
}

// ListRuns retrieves the most recent runs, newest first. A limit of 0 or
// below means no limit.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, source, created_at_ns, observations, final_zscore, threshold
		FROM runs
		ORDER BY created_at_ns DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.CreatedAtNs, &r.Observations, &r.FinalZScore, &r.Threshold); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// RunLengths retrieves the run-length segments for a run, in order.
func (s *Store) RunLengths(runID int64) ([]RunLength, error) {
	rows, err := s.db.Query(`
		SELECT run_id, ordinal, length, zscore, crossed, ended_at_ns
		FROM run_lengths
		WHERE run_id = ?
		ORDER BY ordinal ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run lengths: %w", err)
	}
	defer rows.Close()

	var segments []RunLength
	for rows.Next() {
		var seg RunLength
		if err := rows.Scan(&seg.RunID, &seg.Ordinal, &seg.Length, &seg.ZScore, &seg.Crossed, &seg.EndedAtNs); err != nil {
			return nil, fmt.Errorf("scan run length: %w", err)
		}
		segments = append(segments, seg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run lengths: %w", err)
	}

	return segments, nil
}
