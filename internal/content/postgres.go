package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"nucliasync/internal/services"
)

// PostgresSource reads content items from the host system's Postgres
// database. All queries are read-only.
type PostgresSource struct {
	db *sql.DB
}

// OpenPostgres connects to the host content database.
func OpenPostgres(dsn string) (*PostgresSource, error) {
	if dsn == "" {
		return nil, services.Wrap(services.ErrConfiguration, "content", "open", "content_db.dsn is not set", nil)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open content db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PostgresSource{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresSource) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies database connectivity.
func (s *PostgresSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Item fetches one content item with its taxonomy term assignments.
func (s *PostgresSource) Item(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, content_type, status, password_protected, title, body,
               COALESCE(mime_type, ''), COALESCE(file_path, ''),
               COALESCE(permalink, ''), COALESCE(language, ''), created_at
        FROM content_items WHERE id = $1`, id)

	var (
		item              Item
		statusRaw         string
		passwordProtected bool
	)
	err := row.Scan(
		&item.ID,
		&item.Type,
		&statusRaw,
		&passwordProtected,
		&item.Title,
		&item.Body,
		&item.MimeType,
		&item.FilePath,
		&item.Permalink,
		&item.Language,
		&item.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "content", "item", fmt.Sprintf("content item %d does not exist", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("query content item %d: %w", id, err)
	}

	status, ok := ParseStatus(statusRaw)
	if !ok {
		status = StatusDraft
	}
	if passwordProtected && status == StatusPublished {
		status = StatusProtected
	}
	item.Status = status

	terms, err := s.itemTerms(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Terms = terms
	return &item, nil
}

// ListPublishedIDs pages through publicly visible item ids of one type.
// Attachments carry no publication state of their own, so the status
// filter is skipped for them.
func (s *PostgresSource) ListPublishedIDs(ctx context.Context, contentType string, limit, offset int) ([]int64, error) {
	query := `
        SELECT id FROM content_items
        WHERE content_type = $1 AND status = 'published' AND NOT password_protected
        ORDER BY id LIMIT $2 OFFSET $3`
	if contentType == TypeAttachment {
		query = `
        SELECT id FROM content_items
        WHERE content_type = $1 AND status <> 'trashed'
        ORDER BY id LIMIT $2 OFFSET $3`
	}

	rows, err := s.db.QueryContext(ctx, query, contentType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list content ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan content id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresSource) itemTerms(ctx context.Context, id int64) (map[string][]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT taxonomy, term_id FROM content_terms WHERE content_id = $1 ORDER BY taxonomy, term_id`, id)
	if err != nil {
		return nil, fmt.Errorf("query content terms: %w", err)
	}
	defer rows.Close()

	terms := make(map[string][]int64)
	for rows.Next() {
		var (
			taxonomy string
			termID   int64
		)
		if err := rows.Scan(&taxonomy, &termID); err != nil {
			return nil, fmt.Errorf("scan content term: %w", err)
		}
		terms[taxonomy] = append(terms[taxonomy], termID)
	}
	return terms, rows.Err()
}
