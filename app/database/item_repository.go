package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

var _ ItemRepository = (*ItemRepo)(nil)

// ItemRepo handles database operations for feed items
type ItemRepo struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

func (r *ItemRepo) ExistsByGuid(ctx context.Context, sourceID int64, guid string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM feed_items WHERE source_id = ? AND guid = ?)`, sourceID, guid)
	if err != nil {
		return false, fmt.Errorf("failed to check item existence: %w", err)
	}
	return exists, nil
}

// InsertItem stores a new item. An item whose (source_id, guid) is already
// stored is left untouched and reported with inserted == false.
func (r *ItemRepo) InsertItem(ctx context.Context, item Item) (int64, bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO feed_items (
			source_id, guid, title, link, content, author,
			categories, image_url, pub_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_id, guid) DO NOTHING
	`, item.SourceID, item.GUID, item.Title, item.Link, item.Content, item.Author,
		item.Categories, item.ImageURL, item.PubDate.UTC().Truncate(time.Second),
		time.Now().UTC().Truncate(time.Second))
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read item id: %w", err)
	}

	return id, true, nil
}

// FindRecentBySource returns up to limit items of a source, newest first.
func (r *ItemRepo) FindRecentBySource(ctx context.Context, sourceID int64, limit int) ([]Item, error) {
	var items []Item
	err := r.db.SelectContext(ctx, &items, `
		SELECT i.id, i.source_id, i.guid, i.title, i.link, i.content, i.author,
		       i.categories, i.image_url, i.pub_date, i.created_at,
		       CASE WHEN s.title <> '' THEN s.title ELSE s.name END AS source_name,
		       s.url AS source_url
		FROM feed_items i
		JOIN sources s ON s.id = i.source_id
		WHERE i.source_id = ?
		ORDER BY i.pub_date DESC, i.id DESC
		LIMIT ?
	`, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent items: %w", err)
	}

	return items, nil
}

func (r *ItemRepo) GetItemCount(ctx context.Context, sourceID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM feed_items WHERE source_id = ?", sourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

// GetSourceAuthors returns the distinct author names seen on a source.
func (r *ItemRepo) GetSourceAuthors(ctx context.Context, sourceID int64) ([]string, error) {
	return r.distinctLabels(ctx, "author", sourceID)
}

// GetSourceCategories returns the distinct category labels seen on a source.
func (r *ItemRepo) GetSourceCategories(ctx context.Context, sourceID int64) ([]string, error) {
	return r.distinctLabels(ctx, "categories", sourceID)
}

func (r *ItemRepo) distinctLabels(ctx context.Context, column string, sourceID int64) ([]string, error) {
	var values []string
	query := fmt.Sprintf(`SELECT DISTINCT %[1]s FROM feed_items WHERE source_id = ? AND %[1]s <> ''`, column)
	if err := r.db.SelectContext(ctx, &values, query, sourceID); err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", column, err)
	}

	labels := lo.Uniq(lo.FlatMap(values, func(value string, _ int) []string {
		return SplitList(value)
	}))
	sort.Strings(labels)

	return labels, nil
}

// SplitList splits a stored comma-joined value into trimmed, non-empty parts.
func SplitList(value string) []string {
	return lo.FilterMap(strings.Split(value, ","), func(part string, _ int) (string, bool) {
		part = strings.TrimSpace(part)
		return part, part != ""
	})
}
