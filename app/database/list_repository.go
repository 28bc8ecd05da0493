package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var _ ListRepository = (*ListRepo)(nil)

// ListRepo handles database operations for lists and their source bindings
type ListRepo struct {
	db *DB
}

func NewListRepository(db *DB) *ListRepo {
	return &ListRepo{db: db}
}

const listColumns = `id, user_id, name, slug, description, is_public, created_at, updated_at`

// GetListBySlug returns a list visible to viewerID: public lists for anyone,
// private ones only for their owner. viewerID 0 is an anonymous viewer.
func (r *ListRepo) GetListBySlug(ctx context.Context, slug string, viewerID int64) (*List, error) {
	var list List
	err := r.db.GetContext(ctx, &list, `
		SELECT `+listColumns+`
		FROM lists
		WHERE slug = ?
		  AND (is_public = 1 OR (? <> 0 AND user_id = ?))
	`, slug, viewerID, viewerID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list by slug: %w", err)
	}

	return &list, nil
}

func (r *ListRepo) GetLists(ctx context.Context) ([]List, error) {
	var lists []List
	err := r.db.SelectContext(ctx, &lists, `SELECT `+listColumns+` FROM lists ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get lists: %w", err)
	}
	return lists, nil
}

// GetPublicLists returns every public list with the number of bound sources.
func (r *ListRepo) GetPublicLists(ctx context.Context) ([]ListSummary, error) {
	var lists []ListSummary
	err := r.db.SelectContext(ctx, &lists, `
		SELECT l.id, l.user_id, l.name, l.slug, l.description, l.is_public, l.created_at, l.updated_at,
		       COUNT(ls.id) AS source_count
		FROM lists l
		LEFT JOIN list_sources ls ON ls.list_id = l.id
		WHERE l.is_public = 1
		GROUP BY l.id
		ORDER BY l.name, l.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get public lists: %w", err)
	}
	return lists, nil
}

// UpsertList inserts a list or updates the one with the same slug.
func (r *ListRepo) UpsertList(ctx context.Context, list List) (int64, error) {
	now := time.Now().UTC().Truncate(time.Second)

	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO lists (user_id, name, slug, description, is_public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			description = excluded.description,
			is_public = excluded.is_public,
			updated_at = excluded.updated_at
		RETURNING id
	`, list.UserID, list.Name, list.Slug, list.Description, list.IsPublic, now, now).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to upsert list: %w", err)
	}

	return id, nil
}

func (r *ListRepo) GetListSources(ctx context.Context, listID int64) ([]ListSource, error) {
	var bindings []ListSource
	err := r.db.SelectContext(ctx, &bindings, `
		SELECT id, list_id, source_id,
		       COALESCE(author_whitelist, '') AS author_whitelist,
		       COALESCE(author_blacklist, '') AS author_blacklist,
		       COALESCE(category_whitelist, '') AS category_whitelist,
		       COALESCE(category_blacklist, '') AS category_blacklist
		FROM list_sources
		WHERE list_id = ?
		ORDER BY id
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to get list sources: %w", err)
	}
	return bindings, nil
}

// ReplaceListSources swaps the whole binding set of a list in one transaction.
func (r *ListRepo) ReplaceListSources(ctx context.Context, listID int64, bindings []ListSource) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM list_sources WHERE list_id = ?`, listID); err != nil {
		return fmt.Errorf("failed to delete list sources: %w", err)
	}

	for _, binding := range bindings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO list_sources (
				list_id, source_id, author_whitelist, author_blacklist,
				category_whitelist, category_blacklist
			) VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''))
		`, listID, binding.SourceID, binding.AuthorWhitelist, binding.AuthorBlacklist,
			binding.CategoryWhitelist, binding.CategoryBlacklist)
		if err != nil {
			return fmt.Errorf("failed to insert list source %d: %w", binding.SourceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit list sources: %w", err)
	}

	return nil
}
