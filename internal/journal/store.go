package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// StartRun records a new running extraction and returns the stored row.
func (s *Store) StartRun(ctx context.Context, id string, filters any, startPage, endPage int) (*Run, error) {
	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return nil, fmt.Errorf("encode filters: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, filters_json, start_page, end_page, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, StatusRunning, string(filtersJSON), startPage, endPage, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetByID(ctx, id)
}

// UpdateProgress records the pages, row counts, and current outputs of a
// running extraction. Called on every checkpoint.
func (s *Store) UpdateProgress(ctx context.Context, id string, pagesDone int, rows, skipped int64, outputs []string) error {
	outputsJSON, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("encode outputs: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET pages_done = ?, rows_written = ?, rows_skipped = ?, outputs_json = ?, updated_at = ?
         WHERE id = ?`,
		pagesDone, rows, skipped, string(outputsJSON), now, id,
	)
	if err != nil {
		return fmt.Errorf("update run progress: %w", err)
	}
	return nil
}

// FinishRun marks a run terminal with its final counters and classification.
func (s *Store) FinishRun(ctx context.Context, id string, status Status, pagesDone int, rows, skipped int64, outputs []string, errKind, errMessage string) error {
	outputsJSON, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("encode outputs: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, pages_done = ?, rows_written = ?, rows_skipped = ?,
         outputs_json = ?, error_kind = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		status, pagesDone, rows, skipped, string(outputsJSON), errKind, errMessage, now, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// GetByID fetches one run.
func (s *Store) GetByID(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return run, err
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+" ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Outputs decodes the run's output paths.
func (r *Run) Outputs() []string {
	var outputs []string
	_ = json.Unmarshal([]byte(r.OutputsJSON), &outputs)
	return outputs
}

const selectRuns = `SELECT id, status, filters_json, start_page, end_page, pages_done,
    rows_written, rows_skipped, outputs_json, error_kind, error_message, created_at, updated_at
    FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (*Run, error) {
	var run Run
	var createdAt, updatedAt string
	err := scanner.Scan(
		&run.ID, &run.Status, &run.FiltersJSON, &run.StartPage, &run.EndPage,
		&run.PagesDone, &run.RowsWritten, &run.RowsSkipped, &run.OutputsJSON,
		&run.ErrorKind, &run.ErrorMessage, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.CreatedAt = parseTimestamp(createdAt)
	run.UpdatedAt = parseTimestamp(updatedAt)
	return &run, nil
}

func parseTimestamp(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
