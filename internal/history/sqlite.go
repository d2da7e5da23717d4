package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based run store.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		published INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS run_versions (
		run_id TEXT NOT NULL,
		version TEXT NOT NULL,
		stage TEXT NOT NULL,
		result TEXT NOT NULL,
		error TEXT,
		FOREIGN KEY(run_id) REFERENCES runs(id)
	);
	CREATE INDEX IF NOT EXISTS idx_run_versions_run_id ON run_versions(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun persists a completed run with its per-version results.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	published := 0
	if run.Published {
		published = 1
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, finished_at, outcome, published) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Outcome, published,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, vr := range run.Versions {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO run_versions (run_id, version, stage, result, error) VALUES (?, ?, ?, ?, ?)",
			run.ID, vr.Version, vr.Stage, vr.Result, vr.Error,
		)
		if err != nil {
			return fmt.Errorf("insert run version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListRuns retrieves the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, finished_at, outcome, published FROM runs ORDER BY started_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		var published int
		if err := rows.Scan(&r.ID, &started, &finished, &r.Outcome, &published); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0)
		r.FinishedAt = time.Unix(finished, 0)
		r.Published = published != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	for i := range runs {
		versions, err := s.versionsForRun(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Versions = versions
	}
	return runs, nil
}

func (s *SQLiteStore) versionsForRun(ctx context.Context, runID string) ([]VersionResult, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT version, stage, result, error FROM run_versions WHERE run_id = ? ORDER BY rowid",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query run versions: %w", err)
	}
	defer rows.Close()

	var out []VersionResult
	for rows.Next() {
		var vr VersionResult
		var errText sql.NullString
		if err := rows.Scan(&vr.Version, &vr.Stage, &vr.Result, &errText); err != nil {
			return nil, fmt.Errorf("scan run version: %w", err)
		}
		vr.Error = errText.String
		out = append(out, vr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
