package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rssync/app/cache"
	"github.com/lysyi3m/rssync/app/cfg"
	"github.com/lysyi3m/rssync/app/database"
	"github.com/lysyi3m/rssync/app/feed"
	"github.com/lysyi3m/rssync/app/metrics"
	"github.com/lysyi3m/rssync/app/tasks"
)

const maxListLimit = 500

func NewHandler(sourceRepo database.SourceRepository, itemRepo database.ItemRepository,
	listRepo database.ListRepository, aggregator AggregatorInterface, generator GeneratorInterface,
	refresher tasks.RefresherInterface, listCache ListCache, cacheTTL time.Duration) *Handler {
	return &Handler{
		sourceRepo: sourceRepo,
		itemRepo:   itemRepo,
		listRepo:   listRepo,
		aggregator: aggregator,
		generator:  generator,
		refresher:  refresher,
		cache:      listCache,
		cacheTTL:   cacheTTL,
	}
}

func (h *Handler) GetListRSS(c *gin.Context) {
	h.renderListRSS(c, c.Param("slug"), 0)
}

func (h *Handler) APIGetUserListRSS(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	h.renderListRSS(c, c.Param("slug"), userID)
}

func (h *Handler) renderListRSS(c *gin.Context, slug string, viewerID int64) {
	ctx := c.Request.Context()

	list, ok := h.findList(c, slug, viewerID)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	key := cache.GenerateListKey(list.Slug, viewerID, "rss")
	if content, hit := h.cachedList(ctx, key); hit {
		metrics.RecordListRequest("rss", "hit")
		c.Header("Content-Type", "application/rss+xml; charset=utf-8")
		c.Header("X-Cache", "HIT")
		c.String(http.StatusOK, content)
		return
	}

	items, err := h.aggregate(ctx, list.ID, feed.DefaultListLimit)
	if err != nil {
		slog.Error("List aggregation failed", "list", list.Slug, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(*list, items)
	if err != nil {
		slog.Error("RSS generation error", "list", list.Slug, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	h.storeList(ctx, key, rss)
	metrics.RecordListRequest("rss", "miss")

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Header("X-Cache", "MISS")
	c.Header("X-List-Items", strconv.Itoa(len(items)))
	c.Header("X-Last-Updated", list.UpdatedAt.Format(time.RFC3339))

	c.String(http.StatusOK, rss)
}

// GetLists is the index of public lists.
func (h *Handler) GetLists(c *gin.Context) {
	lists, err := h.listRepo.GetPublicLists(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_public_lists", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := make([]gin.H, 0, len(lists))
	for _, list := range lists {
		result = append(result, gin.H{
			"name":         list.Name,
			"slug":         list.Slug,
			"description":  list.Description,
			"source_count": list.SourceCount,
			"rss":          "/lists/" + list.Slug + "/rss",
			"updated_at":   list.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"lists": result,
		"total": len(result),
	})
}

func (h *Handler) GetListItems(c *gin.Context) {
	limit := feed.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = min(parsed, maxListLimit)
	}

	list, ok := h.findList(c, c.Param("slug"), 0)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	items, err := h.aggregate(c.Request.Context(), list.ID, limit)
	if err != nil {
		slog.Error("List aggregation failed", "list", list.Slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load list items"})
		return
	}
	metrics.RecordListRequest("json", "none")

	result := make([]listItem, 0, len(items))
	for _, item := range items {
		result = append(result, listItem{
			ID:         item.ID,
			Title:      item.Title,
			Link:       item.Link,
			Content:    item.Content,
			Author:     item.Author,
			Categories: database.SplitList(item.Categories),
			ImageURL:   item.ImageURL,
			PubDate:    item.PubDate,
			Source:     item.SourceName,
			SourceURL:  item.SourceURL,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"list": gin.H{
			"name":        list.Name,
			"slug":        list.Slug,
			"description": list.Description,
		},
		"items": result,
		"total": len(result),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.GetVersion(),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(ctx); err == nil {
		health["sources"] = sourceCount
	}

	if lists, err := h.listRepo.GetLists(ctx); err == nil {
		health["lists"] = len(lists)
	}

	health["cache_enabled"] = h.cache != nil
	if reporter, ok := h.cache.(cacheHealthReporter); ok {
		health["cache"] = reporter.Health(ctx)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIRefreshAll(c *gin.Context) {
	ctx := c.Request.Context()

	report, err := h.refresher.RefreshAll(ctx)
	if err != nil {
		slog.Error("Refresh of all sources failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to refresh sources",
		})
		return
	}

	if report.NewItems > 0 {
		h.invalidateLists(ctx)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Refresh completed",
		"data":    report,
	})
}

func (h *Handler) APIRefreshSource(c *gin.Context) {
	ctx := c.Request.Context()

	source, ok := h.findSource(c)
	if !ok {
		return
	}

	newItems, err := h.refresher.RefreshSource(ctx, *source)
	if err != nil || newItems < 0 {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to refresh source",
		})
		return
	}

	if newItems > 0 {
		h.invalidateLists(ctx)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Source refreshed",
		"data": gin.H{
			"source_id":   source.ID,
			"source_name": source.DisplayName(),
			"new_items":   newItems,
		},
	})
}

func (h *Handler) APIValidateSource(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":   req.URL,
		"valid": h.refresher.ValidateFeed(c.Request.Context(), req.URL),
	})
}

func (h *Handler) APIGetSourceFacets(c *gin.Context) {
	ctx := c.Request.Context()

	source, ok := h.findSource(c)
	if !ok {
		return
	}

	authors, err := h.itemRepo.GetSourceAuthors(ctx, source.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_source_authors", "source_id", source.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	categories, err := h.itemRepo.GetSourceCategories(ctx, source.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_source_categories", "source_id", source.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	itemCount, err := h.itemRepo.GetItemCount(ctx, source.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_item_count", "source_id", source.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source_id":  source.ID,
		"item_count": itemCount,
		"authors":    authors,
		"categories": categories,
	})
}

// findSource resolves the :id parameter and writes the error response itself
// when it returns false.
func (h *Handler) findSource(c *gin.Context) (*database.Source, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid source id",
		})
		return nil, false
	}

	source, err := h.sourceRepo.GetSource(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Source not found",
		})
		return nil, false
	}
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Database error",
		})
		return nil, false
	}

	return source, true
}

func (h *Handler) findList(c *gin.Context, slug string, viewerID int64) (*database.List, bool) {
	list, err := h.listRepo.GetListBySlug(c.Request.Context(), slug, viewerID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			slog.Error("Database error", "operation", "get_list", "list", slug, "error", err)
		}
		return nil, false
	}
	return list, true
}

func (h *Handler) aggregate(ctx context.Context, listID int64, limit int) ([]database.Item, error) {
	start := time.Now()
	items, err := h.aggregator.Run(ctx, listID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate list %d: %w", listID, err)
	}
	metrics.RecordAggregation(time.Since(start).Seconds())
	return items, nil
}

func (h *Handler) cachedList(ctx context.Context, key string) (string, bool) {
	if h.cache == nil {
		return "", false
	}

	content, hit, err := h.cache.GetListData(ctx, key)
	if err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
		return "", false
	}
	return content, hit
}

func (h *Handler) storeList(ctx context.Context, key, content string) {
	if h.cache == nil {
		return
	}

	if err := h.cache.SetListData(ctx, key, content, h.cacheTTL); err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (h *Handler) invalidateLists(ctx context.Context) {
	if h.cache == nil {
		return
	}

	if err := h.cache.InvalidateLists(ctx); err != nil {
		slog.Warn("Cache invalidation failed", "error", err)
	}
}
