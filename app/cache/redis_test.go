package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestGenerateListKey(t *testing.T) {
	key1a := GenerateListKey("tech-news", 0, "rss")
	key1b := GenerateListKey("tech-news", 0, "rss")
	key2 := GenerateListKey("science", 0, "rss")

	if key1a != key1b {
		t.Errorf("Expected same key for same slug, got %s != %s", key1a, key1b)
	}

	if key1a == key2 {
		t.Errorf("Expected different keys for different slugs, but got same: %s", key1a)
	}

	if !strings.HasPrefix(key1a, listKeyPrefix) {
		t.Errorf("Expected key to start with %s, got %s", listKeyPrefix, key1a)
	}
}

func TestGenerateListKeySeparatesViewersAndFormats(t *testing.T) {
	anonymous := GenerateListKey("tech-news", 0, "rss")
	owner := GenerateListKey("tech-news", 7, "rss")
	json := GenerateListKey("tech-news", 0, "json")

	if anonymous == owner {
		t.Errorf("Expected viewer to be part of the key, got %s for both", anonymous)
	}
	if anonymous == json {
		t.Errorf("Expected format to be part of the key, got %s for both", anonymous)
	}
	if !strings.HasSuffix(owner, ":7:rss") {
		t.Errorf("Expected key to end with viewer and format, got %s", owner)
	}
}

func TestNewCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cache, err := NewCache(ctx, "127.0.0.1:1")
	if err == nil {
		cache.Close()
		t.Fatal("Expected error connecting to closed port, got nil")
	}
	if !strings.Contains(err.Error(), "failed to connect to Redis") {
		t.Errorf("Expected connection error, got: %v", err)
	}
}
