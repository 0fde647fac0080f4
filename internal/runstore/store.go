package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the run history database in stateDir.
func Open(stateDir string) (*Store, error) {
	if strings.TrimSpace(stateDir) == "" {
		return nil, errors.New("runstore: state directory must not be empty")
	}
	path := filepath.Join(stateDir, "runs.db")
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open run database %s: %w", path, err)
	}
	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database handle.
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

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// CreateRun inserts a new running record for the source file and returns it.
func (s *Store) CreateRun(ctx context.Context, sourceFile, displayTitle string) (*Run, error) {
	now := time.Now().UTC()
	run := &Run{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
		SourceFile:   sourceFile,
		DisplayTitle: displayTitle,
		Status:       StatusRunning,
	}
	err := s.execWithRetry(ctx, `
		INSERT INTO runs (id, created_at, updated_at, source_file, display_title, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(time.RFC3339Nano), run.UpdatedAt.Format(time.RFC3339Nano),
		run.SourceFile, run.DisplayTitle, string(run.Status))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// UpdateRun persists the mutable fields of the run.
func (s *Store) UpdateRun(ctx context.Context, run *Run) error {
	if run == nil || strings.TrimSpace(run.ID) == "" {
		return errors.New("runstore: run with id required")
	}
	run.UpdatedAt = time.Now().UTC()
	err := s.execWithRetry(ctx, `
		UPDATE runs
		SET updated_at = ?, asset_id = ?, asset_name = ?, job_id = ?,
			output_asset_id = ?, streaming_path = ?, status = ?, error_message = ?
		WHERE id = ?`,
		run.UpdatedAt.Format(time.RFC3339Nano), run.AssetID, run.AssetName, run.JobID,
		run.OutputAssetID, run.StreamingPath, string(run.Status), run.ErrorMessage, run.ID)
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun fetches a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, source_file, display_title, asset_id,
			asset_name, job_id, output_asset_id, streaming_path, status, error_message
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s not found", id)
		}
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return run, nil
}

// ListRecent returns up to limit runs, newest first. A non-positive limit
// returns everything.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]*Run, error) {
	query := `
		SELECT id, created_at, updated_at, source_file, display_title, asset_id,
			asset_name, job_id, output_asset_id, streaming_path, status, error_message
		FROM runs ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run                  Run
		createdAt, updatedAt string
		status               string
	)
	err := row.Scan(&run.ID, &createdAt, &updatedAt, &run.SourceFile, &run.DisplayTitle,
		&run.AssetID, &run.AssetName, &run.JobID, &run.OutputAssetID,
		&run.StreamingPath, &status, &run.ErrorMessage)
	if err != nil {
		return nil, err
	}
	run.Status = Status(status)
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if run.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &run, nil
}
