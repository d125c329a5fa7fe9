package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cputracker/agent/internal/models"
)

// Store keeps a private, append-only history of completed runs in a SQLite
// database under the owner-only tier. History is auxiliary: the tracker logs
// store failures but never fails a run on them.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db %s: %w", path, err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id       TEXT PRIMARY KEY,
		exact        REAL NOT NULL,
		noised       REAL NOT NULL,
		epsilon      REAL NOT NULL,
		sample_count INTEGER NOT NULL,
		started_at   TIMESTAMP NOT NULL,
		finished_at  TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one completed run.
func (s *Store) Record(result models.RunResult) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, exact, noised, epsilon, sample_count, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.Exact, result.Noised, result.Epsilon,
		result.SampleCount, result.StartedAt, result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", result.RunID, err)
	}
	return nil
}

// Recent returns up to n most recent runs, newest first.
func (s *Store) Recent(n int) ([]models.RunResult, error) {
	rows, err := s.db.Query(
		`SELECT run_id, exact, noised, epsilon, sample_count, started_at, finished_at
		 FROM runs ORDER BY finished_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var results []models.RunResult
	for rows.Next() {
		var r models.RunResult
		var started, finished time.Time
		if err := rows.Scan(&r.RunID, &r.Exact, &r.Noised, &r.Epsilon,
			&r.SampleCount, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.StartedAt = started
		r.FinishedAt = finished
		results = append(results, r)
	}

	return results, rows.Err()
}
