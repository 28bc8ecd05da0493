package api

import (
	"context"
	"time"

	"github.com/lysyi3m/rssync/app/cache"
	"github.com/lysyi3m/rssync/app/database"
	"github.com/lysyi3m/rssync/app/feed"
	"github.com/lysyi3m/rssync/app/tasks"
)

type GeneratorInterface interface {
	Run(list database.List, items []database.Item) (string, error)
}

type AggregatorInterface interface {
	Run(ctx context.Context, listID int64, limit int) ([]database.Item, error)
}

// ListCache stores rendered list documents. It is optional; a nil ListCache
// disables caching.
type ListCache interface {
	GetListData(ctx context.Context, key string) (string, bool, error)
	SetListData(ctx context.Context, key, content string, ttl time.Duration) error
	InvalidateLists(ctx context.Context) error
}

// cacheHealthReporter is implemented by caches that can report their state.
type cacheHealthReporter interface {
	Health(ctx context.Context) map[string]interface{}
}

var (
	_ cacheHealthReporter      = (*cache.Cache)(nil)
	_ GeneratorInterface       = (*feed.Generator)(nil)
	_ AggregatorInterface      = (*feed.Aggregator)(nil)
	_ ListCache                = (*cache.Cache)(nil)
	_ tasks.RefresherInterface = (*tasks.Refresher)(nil)
)

type Handler struct {
	sourceRepo database.SourceRepository
	itemRepo   database.ItemRepository
	listRepo   database.ListRepository
	aggregator AggregatorInterface
	generator  GeneratorInterface
	refresher  tasks.RefresherInterface
	cache      ListCache
	cacheTTL   time.Duration
}

type validateRequest struct {
	URL string `json:"url" binding:"required"`
}

// listItem is the JSON shape of an aggregated item.
type listItem struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Link       string    `json:"link"`
	Content    string    `json:"content"`
	Author     string    `json:"author,omitempty"`
	Categories []string  `json:"categories"`
	ImageURL   string    `json:"image_url,omitempty"`
	PubDate    time.Time `json:"pub_date"`
	Source     string    `json:"source"`
	SourceURL  string    `json:"source_url"`
}
