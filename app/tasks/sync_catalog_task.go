package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/rssync/app/database"
	"github.com/lysyi3m/rssync/app/feed"
)

// SyncCatalogTask writes the catalog's sources, lists and list bindings to
// the database. Bindings of each list are replaced wholesale.
type SyncCatalogTask struct {
	Task
	catalog    *feed.Catalog
	sourceRepo database.SourceRepository
	listRepo   database.ListRepository
}

func NewSyncCatalogTask(catalogDir string, catalog *feed.Catalog, sourceRepo database.SourceRepository, listRepo database.ListRepository) *SyncCatalogTask {
	return &SyncCatalogTask{
		Task:       NewTask(TaskTypeSyncCatalog, catalogDir),
		catalog:    catalog,
		sourceRepo: sourceRepo,
		listRepo:   listRepo,
	}
}

func (t *SyncCatalogTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	sourceIDs := make(map[string]int64)
	for _, sourceConfig := range t.catalog.GetSources() {
		id, err := t.sourceRepo.UpsertSource(ctx, database.Source{
			Name:           sourceConfig.Name,
			URL:            sourceConfig.URL,
			Title:          sourceConfig.Title,
			ExtractContent: sourceConfig.ExtractContent,
		})
		if err != nil {
			slog.Error("Task failed", "type", "SyncCatalog", "source", sourceConfig.Name, "error", err)
			return fmt.Errorf("failed to sync source %s: %w", sourceConfig.Name, err)
		}
		sourceIDs[sourceConfig.Name] = id
	}

	lists := t.catalog.GetLists()
	for _, listConfig := range lists {
		listID, err := t.listRepo.UpsertList(ctx, database.List{
			UserID:      listConfig.UserID,
			Name:        listConfig.Name,
			Slug:        listConfig.Slug,
			Description: listConfig.Description,
			IsPublic:    listConfig.Public,
		})
		if err != nil {
			slog.Error("Task failed", "type", "SyncCatalog", "list", listConfig.Slug, "error", err)
			return fmt.Errorf("failed to sync list %s: %w", listConfig.Slug, err)
		}

		bindings := make([]database.ListSource, 0, len(listConfig.Sources))
		for _, binding := range listConfig.Sources {
			bindings = append(bindings, database.ListSource{
				ListID:            listID,
				SourceID:          sourceIDs[binding.Source],
				AuthorWhitelist:   strings.Join(binding.AuthorWhitelist, ","),
				AuthorBlacklist:   strings.Join(binding.AuthorBlacklist, ","),
				CategoryWhitelist: strings.Join(binding.CategoryWhitelist, ","),
				CategoryBlacklist: strings.Join(binding.CategoryBlacklist, ","),
			})
		}

		if err := t.listRepo.ReplaceListSources(ctx, listID, bindings); err != nil {
			slog.Error("Task failed", "type", "SyncCatalog", "list", listConfig.Slug, "error", err)
			return fmt.Errorf("failed to sync sources of list %s: %w", listConfig.Slug, err)
		}
	}

	slog.Info("Task completed",
		"type", "SyncCatalog",
		"sources", len(sourceIDs),
		"lists", len(lists),
		"duration", t.GetDuration())

	return nil
}
