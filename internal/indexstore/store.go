package indexstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"nucliasync/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Record is one persisted content-to-resource mapping.
type Record struct {
	ContentID  int64
	ResourceID string
	SequenceID string
}

// Store manages index record persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the index database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "index.db"))
}

// OpenPath opens the index database at an explicit location.
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

// Upsert records a successful remote write. Replace-on-conflict keeps at
// most one record per content id under concurrent workers.
func (s *Store) Upsert(ctx context.Context, contentID int64, resourceID, sequenceID string) error {
	if resourceID == "" {
		return errors.New("resource id is required")
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO index_records (post_id, nuclia_rid, nuclia_seqid)
        VALUES (?, ?, ?)
        ON CONFLICT(post_id) DO UPDATE SET
            nuclia_rid = excluded.nuclia_rid,
            nuclia_seqid = excluded.nuclia_seqid`,
		contentID, resourceID, nullableString(sequenceID))
	if err != nil {
		return fmt.Errorf("upsert index record: %w", err)
	}
	return nil
}

// Get returns the remote resource id for a content id, or "" when the
// content has never been synced.
func (s *Store) Get(ctx context.Context, contentID int64) (string, error) {
	var rid string
	err := s.db.QueryRowContext(ctx,
		`SELECT nuclia_rid FROM index_records WHERE post_id = ?`, contentID).Scan(&rid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get index record: %w", err)
	}
	return rid, nil
}

// Delete removes the record for a content id. Deleting an absent record is a no-op.
func (s *Store) Delete(ctx context.Context, contentID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM index_records WHERE post_id = ?`, contentID); err != nil {
		return fmt.Errorf("delete index record: %w", err)
	}
	return nil
}

// ListAll returns every index record ordered by content id.
func (s *Store) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT post_id, nuclia_rid, COALESCE(nuclia_seqid, '') FROM index_records ORDER BY post_id`)
	if err != nil {
		return nil, fmt.Errorf("list index records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ContentID, &rec.ResourceID, &rec.SequenceID); err != nil {
			return nil, fmt.Errorf("scan index record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// List returns one page of index records ordered by content id.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT post_id, nuclia_rid, COALESCE(nuclia_seqid, '') FROM index_records
         ORDER BY post_id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list index records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ContentID, &rec.ResourceID, &rec.SequenceID); err != nil {
			return nil, fmt.Errorf("scan index record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FilterExisting returns the subset of ids that already have an index
// record. Used by bulk reindex to compute the unsynced set without a
// per-id round trip.
func (s *Store) FilterExisting(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	if len(ids) == 0 {
		return map[int64]struct{}{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT post_id FROM index_records WHERE post_id IN (` + makePlaceholders(len(ids)) + `)`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter index records: %w", err)
	}
	defer rows.Close()

	existing := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan index record id: %w", err)
		}
		existing[id] = struct{}{}
	}
	return existing, rows.Err()
}

// Count returns the number of synced content items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM index_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count index records: %w", err)
	}
	return count, nil
}

// ClearAll removes every index record. Used by the cache-clear admin action.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM index_records`); err != nil {
		return fmt.Errorf("clear index records: %w", err)
	}
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
