package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var _ SourceRepository = (*SourceRepo)(nil)

// SourceRepo handles database operations for sources
type SourceRepo struct {
	db *DB
}

func NewSourceRepository(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

func (r *SourceRepo) GetSource(ctx context.Context, id int64) (*Source, error) {
	var source Source
	err := r.db.GetContext(ctx, &source, `
		SELECT id, name, url, title, extract_content, last_refresh, created_at, updated_at
		FROM sources
		WHERE id = ?
	`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return &source, nil
}

func (r *SourceRepo) GetSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	err := r.db.SelectContext(ctx, &sources, `
		SELECT id, name, url, title, extract_content, last_refresh, created_at, updated_at
		FROM sources
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}

	return sources, nil
}

func (r *SourceRepo) GetSourceCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM sources")
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

// UpsertSource inserts a source or updates the one registered under the
// same URL, returning its id.
func (r *SourceRepo) UpsertSource(ctx context.Context, source Source) (int64, error) {
	now := time.Now().UTC().Truncate(time.Second)

	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO sources (name, url, title, extract_content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			name = excluded.name,
			title = excluded.title,
			extract_content = excluded.extract_content,
			updated_at = excluded.updated_at
		RETURNING id
	`, source.Name, source.URL, source.Title, source.ExtractContent, now, now).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to upsert source: %w", err)
	}

	return id, nil
}

func (r *SourceRepo) UpdateLastRefresh(ctx context.Context, id int64, refreshedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sources
		SET last_refresh = ?
		WHERE id = ?
	`, refreshedAt.UTC().Truncate(time.Second), id)
	if err != nil {
		return fmt.Errorf("failed to update last refresh: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}
