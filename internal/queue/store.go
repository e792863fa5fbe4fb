package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"nucliasync/internal/config"
)

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "queue.db"))
}

// OpenPath opens the queue database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
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

// Enqueue inserts a pending job unless an equivalent non-terminal job
// already exists. Returns false when the job was deduplicated. The partial
// unique index on dedup_key backs the check, so concurrent enqueues of the
// same tuple cannot both insert.
func (s *Store) Enqueue(ctx context.Context, hook, group string, args Args, notBefore time.Time) (bool, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return false, fmt.Errorf("marshal job args: %w", err)
	}

	now := time.Now().UTC()
	if notBefore.IsZero() {
		notBefore = now
	}

	res, err := s.db.ExecContext(ctx, `
        INSERT INTO jobs (hook, grp, args, dedup_key, content_id, content_type,
                          status, attempts, scheduled_at, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
        ON CONFLICT (dedup_key) WHERE status IN ('pending', 'running') DO NOTHING`,
		hook,
		group,
		string(payload),
		DedupKey(hook, group, args),
		args.ContentID,
		args.ContentType,
		StatusPending,
		notBefore.UTC().Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		// Older SQLite builds reject conflict targets on partial indexes;
		// the unique index still guarantees the invariant.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return false, nil
		}
		return false, fmt.Errorf("enqueue job: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("enqueue rows affected: %w", err)
	}
	return inserted > 0, nil
}

// HasScheduled reports whether a non-terminal job exists for the tuple.
func (s *Store) HasScheduled(ctx context.Context, hook, group string, args Args) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1) FROM jobs
        WHERE dedup_key = ? AND status IN ('pending', 'running')`,
		DedupKey(hook, group, args)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check scheduled job: %w", err)
	}
	return exists > 0, nil
}

// ClaimDue atomically transitions the oldest due pending job to running
// and returns it. Returns nil when no job is due. The single UPDATE keeps
// concurrent workers from claiming the same row.
func (s *Store) ClaimDue(ctx context.Context, now time.Time) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
        UPDATE jobs SET status = ?, updated_at = ?
        WHERE id = (
            SELECT id FROM jobs
            WHERE status = ? AND scheduled_at <= ?
            ORDER BY scheduled_at, id
            LIMIT 1
        ) AND status = ?
        RETURNING `+jobColumns,
		StatusRunning,
		now.UTC().Format(time.RFC3339Nano),
		StatusPending,
		now.UTC().Format(time.RFC3339Nano),
		StatusPending,
	)

	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim due job: %w", err)
	}
	return job, nil
}

// MarkComplete finishes a job successfully.
func (s *Store) MarkComplete(ctx context.Context, id int64) error {
	return s.setTerminal(ctx, id, StatusComplete, "")
}

// MarkFailed finishes a job as terminally failed. Failed jobs surface in
// status counts and are never retried.
func (s *Store) MarkFailed(ctx context.Context, id int64, lastError string) error {
	return s.setTerminal(ctx, id, StatusFailed, lastError)
}

// Discard removes a job without recording a failure. Used for jobs that
// can never succeed and should not alert an operator.
func (s *Store) Discard(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("discard job: %w", err)
	}
	return nil
}

// Reschedule returns a running job to pending with an incremented attempt
// count and a delayed due time.
func (s *Store) Reschedule(ctx context.Context, id int64, notBefore time.Time, lastError string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
        UPDATE jobs
        SET status = ?, attempts = attempts + 1, scheduled_at = ?, last_error = ?, updated_at = ?
        WHERE id = ?`,
		StatusPending,
		notBefore.UTC().Format(time.RFC3339Nano),
		nullableString(lastError),
		now.Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("reschedule job: %w", err)
	}
	return nil
}

// CancelGroup unschedules all pending jobs in a group. Running jobs are
// untouched; cancellation is cooperative.
func (s *Store) CancelGroup(ctx context.Context, group string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE grp = ? AND status = ?`, group, StatusPending)
	if err != nil {
		return 0, fmt.Errorf("cancel group: %w", err)
	}
	return res.RowsAffected()
}

// CancelGroupForType unschedules pending jobs in a group whose args carry
// the given content type.
func (s *Store) CancelGroupForType(ctx context.Context, group, contentType string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE grp = ? AND content_type = ? AND status = ?`,
		group, contentType, StatusPending)
	if err != nil {
		return 0, fmt.Errorf("cancel group for type: %w", err)
	}
	return res.RowsAffected()
}

// GroupCounts aggregates job statuses for one group.
func (s *Store) GroupCounts(ctx context.Context, group string) (Counts, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM jobs WHERE grp = ? GROUP BY status`, group)
	if err != nil {
		return Counts{}, fmt.Errorf("group counts: %w", err)
	}
	defer rows.Close()

	var counts Counts
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Counts{}, fmt.Errorf("scan group count: %w", err)
		}
		switch status {
		case StatusPending:
			counts.Pending = count
		case StatusRunning:
			counts.Running = count
		case StatusFailed:
			counts.Failed = count
		}
	}
	return counts, rows.Err()
}

// PendingCountForType counts pending jobs in a group for one content type.
// The content_type column is indexed, so this never scans argument JSON.
func (s *Store) PendingCountForType(ctx context.Context, group, contentType string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1) FROM jobs
        WHERE grp = ? AND content_type = ? AND status = ?`,
		group, contentType, StatusPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pending count for type: %w", err)
	}
	return count, nil
}

// List returns jobs filtered by group and optional statuses, ordered by
// scheduled time.
func (s *Store) List(ctx context.Context, group string, statuses ...Status) ([]*Job, error) {
	baseQuery := `SELECT ` + jobColumns + ` FROM jobs WHERE grp = ?`
	orderClause := ` ORDER BY scheduled_at, id`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause, group)
	} else {
		args := make([]any, 0, len(statuses)+1)
		args = append(args, group)
		for _, status := range statuses {
			args = append(args, status)
		}
		query := baseQuery + ` AND status IN (` + makePlaceholders(len(statuses)) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// GetByID fetches one job.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (s *Store) setTerminal(ctx context.Context, id int64, status Status, lastError string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
        UPDATE jobs SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		status, nullableString(lastError), now.Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return nil
}
