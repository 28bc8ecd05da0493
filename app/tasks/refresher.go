package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lysyi3m/rssync/app/database"
	"github.com/lysyi3m/rssync/app/feed"
	"github.com/lysyi3m/rssync/app/metrics"
)

// FailedRefresh is the item count reported for a refresh that did not complete.
const FailedRefresh = -1

// Column limits of feed_items.
const (
	maxGUIDLength       = 500
	maxTitleLength      = 500
	maxLinkLength       = 500
	maxAuthorLength     = 255
	maxCategoriesLength = 500
	maxImageURLLength   = 1000
)

// Report summarizes a refresh of every source.
type Report struct {
	Total    int `json:"total"`
	Success  int `json:"success"`
	Failed   int `json:"failed"`
	NewItems int `json:"new_items"`
}

var _ RefresherInterface = (*Refresher)(nil)

// Refresher is the ingestion engine: it pulls a source's feed and stores the
// entries it has not seen before.
type Refresher struct {
	sourceRepo database.SourceRepository
	itemRepo   database.ItemRepository
	fetcher    FetcherInterface
	parser     *feed.Parser
	images     *feed.ImageResolver
	extractor  *feed.ContentExtractor
	pool       *WorkerPool
	now        func() time.Time
}

func NewRefresher(sourceRepo database.SourceRepository, itemRepo database.ItemRepository,
	fetcher FetcherInterface, parser *feed.Parser, images *feed.ImageResolver,
	extractor *feed.ContentExtractor, workerCount int) *Refresher {
	return &Refresher{
		sourceRepo: sourceRepo,
		itemRepo:   itemRepo,
		fetcher:    fetcher,
		parser:     parser,
		images:     images,
		extractor:  extractor,
		pool:       NewWorkerPool(workerCount),
		now:        time.Now,
	}
}

// RefreshSource fetches and stores new entries of one source and returns how
// many items were created. On any failure, a recovered panic included, it
// returns FailedRefresh and the error, and last_refresh is left untouched.
func (r *Refresher) RefreshSource(ctx context.Context, source database.Source) (newItems int, err error) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("unexpected failure: %v", rec)
		}

		duration := time.Since(start)
		if err != nil {
			newItems = FailedRefresh
			slog.Error("Source refresh failed", "source_id", source.ID, "source", source.Name, "duration", duration, "error", err)
			metrics.RecordRefresh(metrics.StatusFailure, duration.Seconds(), 0)
			return
		}
		metrics.RecordRefresh(metrics.StatusSuccess, duration.Seconds(), newItems)
	}()

	data, err := r.fetcher.Run(ctx, source.URL)
	if err != nil {
		return FailedRefresh, err
	}

	_, entries, err := r.parser.Run(data)
	if err != nil {
		return FailedRefresh, err
	}

	duplicates := 0
	for _, entry := range entries {
		guid := truncate(entry.GUID, maxGUIDLength)

		exists, err := r.itemRepo.ExistsByGuid(ctx, source.ID, guid)
		if err != nil {
			return FailedRefresh, fmt.Errorf("failed to check for duplicates: %w", err)
		}
		if exists {
			duplicates++
			continue
		}

		item := r.buildItem(ctx, source, entry)

		_, inserted, err := r.itemRepo.InsertItem(ctx, item)
		if err != nil {
			return FailedRefresh, fmt.Errorf("failed to store item: %w", err)
		}
		if !inserted {
			// Stored by an overlapping refresh in the meantime.
			duplicates++
			continue
		}
		newItems++
	}

	if err := r.sourceRepo.UpdateLastRefresh(ctx, source.ID, r.now()); err != nil {
		return FailedRefresh, fmt.Errorf("failed to update last refresh: %w", err)
	}

	slog.Info("Source refreshed",
		"source_id", source.ID,
		"source", source.Name,
		"duration", time.Since(start),
		"total", len(entries),
		"duplicates", duplicates,
		"new", newItems)

	return newItems, nil
}

// RefreshAll refreshes every source on the worker pool. A failing source is
// counted and never aborts the batch; the error is only for listing sources.
func (r *Refresher) RefreshAll(ctx context.Context) (Report, error) {
	sources, err := r.sourceRepo.GetSources(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to get sources: %w", err)
	}

	refreshTasks := make([]*RefreshSourceTask, len(sources))
	queue := make([]TaskInterface, len(sources))
	for i, source := range sources {
		refreshTasks[i] = NewRefreshSourceTask(source, r)
		queue[i] = refreshTasks[i]
	}

	r.pool.Run(ctx, queue)

	report := Report{Total: len(sources)}
	for _, task := range refreshTasks {
		if task.NewItems < 0 {
			report.Failed++
			continue
		}
		report.Success++
		report.NewItems += task.NewItems
	}

	slog.Info("Refresh completed",
		"total", report.Total,
		"success", report.Success,
		"failed", report.Failed,
		"new", report.NewItems)

	return report, nil
}

// ValidateFeed reports whether url serves something that parses as a feed.
func (r *Refresher) ValidateFeed(ctx context.Context, url string) bool {
	data, err := r.fetcher.Run(ctx, url)
	if err != nil {
		slog.Debug("Feed validation failed", "url", url, "error", err)
		return false
	}

	if _, _, err := r.parser.Run(data); err != nil {
		slog.Debug("Feed validation failed", "url", url, "error", err)
		return false
	}

	return true
}

func (r *Refresher) buildItem(ctx context.Context, source database.Source, entry feed.Entry) database.Item {
	if source.ExtractContent && strings.TrimSpace(entry.Content) == "" && entry.Link != "" {
		entry.Content = r.extractContent(ctx, source, entry.Link)
	}

	return database.Item{
		SourceID:   source.ID,
		GUID:       truncate(entry.GUID, maxGUIDLength),
		Title:      truncate(entry.Title, maxTitleLength),
		Link:       truncate(entry.Link, maxLinkLength),
		Content:    entry.Content,
		Author:     truncate(entry.Author(), maxAuthorLength),
		Categories: truncate(entry.CategoryList(), maxCategoriesLength),
		ImageURL:   truncate(r.images.Run(entry), maxImageURLLength),
		PubDate:    entry.PubDate,
	}
}

func (r *Refresher) extractContent(ctx context.Context, source database.Source, link string) string {
	data, err := r.fetcher.Run(ctx, link)
	if err != nil {
		slog.Debug("Content extraction skipped", "source_id", source.ID, "link", link, "error", err)
		return ""
	}

	content, err := r.extractor.Run(data, link)
	if err != nil {
		slog.Debug("Content extraction failed", "source_id", source.ID, "link", link, "error", err)
		return ""
	}

	return content
}

// truncate cuts s to at most limit characters without splitting a rune.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
