package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const listKeyPrefix = "list:"

// Cache keeps rendered list documents in Redis.
type Cache struct {
	client *redis.Client
}

type listData struct {
	Content   string `json:"content"`
	CachedAt  int64  `json:"cached_at"`
	ExpiresAt int64  `json:"expires_at"`
}

func NewCache(ctx context.Context, addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &Cache{client: client}, nil
}

// GenerateListKey builds the key for a list rendered for viewerID in the
// given format. The slug is hashed so arbitrary input stays a safe key.
func GenerateListKey(slug string, viewerID int64, format string) string {
	hash := sha256.Sum256([]byte(slug))
	return fmt.Sprintf("%s%x:%d:%s", listKeyPrefix, hash[:8], viewerID, format)
}

func (c *Cache) SetListData(ctx context.Context, key, content string, ttl time.Duration) error {
	now := time.Now()
	data, err := json.Marshal(listData{
		Content:   content,
		CachedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// GetListData returns the cached document and whether it was found.
func (c *Cache) GetListData(ctx context.Context, key string) (string, bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var data listData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		// Unreadable entries count as a miss.
		c.client.Del(ctx, key)
		return "", false, nil
	}

	return data.Content, true, nil
}

// InvalidateLists drops every cached list document. Called after refreshes
// so new items show up before the TTL runs out.
func (c *Cache) InvalidateLists(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, listKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan list keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete list keys: %w", err)
	}

	slog.Debug("List cache invalidated", "keys", len(keys))
	return nil
}

func (c *Cache) Health(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	if size, err := c.client.DBSize(ctx).Result(); err == nil {
		health["key_count"] = size
	}

	return health
}

func (c *Cache) Close() error {
	return c.client.Close()
}
