package tasks

import (
	"context"

	"github.com/lysyi3m/rssync/app/database"
)

// FetcherInterface retrieves raw bytes for a URL. Failures wrap feed.ErrFetch.
type FetcherInterface interface {
	Run(ctx context.Context, url string) ([]byte, error)
}

// RefresherInterface is what the HTTP layer needs from the ingestion engine.
// Example usage:
//
//	refresher := NewRefresher(sourceRepo, itemRepo, fetcher, parser, images, extractor, workerCount)
//	report, err := refresher.RefreshAll(ctx)
type RefresherInterface interface {
	RefreshSource(ctx context.Context, source database.Source) (int, error)
	RefreshAll(ctx context.Context) (Report, error)
	ValidateFeed(ctx context.Context, url string) bool
}
