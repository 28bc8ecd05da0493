package database

import (
	"context"
	"time"
)

type SourceRepository interface {
	GetSource(ctx context.Context, id int64) (*Source, error)
	GetSources(ctx context.Context) ([]Source, error)
	GetSourceCount(ctx context.Context) (int, error)

	UpsertSource(ctx context.Context, source Source) (int64, error)
	UpdateLastRefresh(ctx context.Context, id int64, refreshedAt time.Time) error
}

type ItemRepository interface {
	ExistsByGuid(ctx context.Context, sourceID int64, guid string) (bool, error)
	InsertItem(ctx context.Context, item Item) (int64, bool, error)
	FindRecentBySource(ctx context.Context, sourceID int64, limit int) ([]Item, error)
	GetItemCount(ctx context.Context, sourceID int64) (int, error)

	GetSourceAuthors(ctx context.Context, sourceID int64) ([]string, error)
	GetSourceCategories(ctx context.Context, sourceID int64) ([]string, error)
}

type ListRepository interface {
	GetListBySlug(ctx context.Context, slug string, viewerID int64) (*List, error)
	GetLists(ctx context.Context) ([]List, error)
	GetPublicLists(ctx context.Context) ([]ListSummary, error)

	UpsertList(ctx context.Context, list List) (int64, error)
	GetListSources(ctx context.Context, listID int64) ([]ListSource, error)
	ReplaceListSources(ctx context.Context, listID int64, bindings []ListSource) error
}
