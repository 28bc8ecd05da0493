package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lysyi3m/rssync/app/feed"
)

func writeCatalogFile(t *testing.T, dir, kind, name, content string) {
	t.Helper()

	path := filepath.Join(dir, kind)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func runSync(t *testing.T, env *testEnv, dir string) {
	t.Helper()

	catalog := feed.NewCatalog(dir)
	if err := catalog.Run(); err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}

	task := NewSyncCatalogTask(dir, catalog, env.sourceRepo, env.listRepo)
	task.Start()
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

func TestSyncCatalogTask(t *testing.T) {
	env := newTestEnv(t, time.Second)
	dir := t.TempDir()
	ctx := context.Background()

	writeCatalogFile(t, dir, "sources", "news.yml", `url: "https://news.example.com/rss"`)
	writeCatalogFile(t, dir, "sources", "blog.yml", `
url: "https://blog.example.com/atom.xml"
title: "Blog"
extract_content: true
`)
	writeCatalogFile(t, dir, "lists", "tech.yml", `
name: "Tech"
user_id: 1
public: true
sources:
  - source: news
    category_blacklist: ["crypto", "nft"]
  - source: blog
    author_whitelist: ["alice"]
`)

	runSync(t, env, dir)

	sources, err := env.sourceRepo.GetSources(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got: %d", len(sources))
	}

	list, err := env.listRepo.GetListBySlug(ctx, "tech", 0)
	if err != nil {
		t.Fatalf("Expected public list, got: %v", err)
	}
	if list.Name != "Tech" || list.UserID != 1 {
		t.Errorf("Expected list 'Tech' owned by 1, got: %+v", list)
	}

	bindings, err := env.listRepo.GetListSources(ctx, list.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(bindings) != 2 {
		t.Fatalf("Expected 2 bindings, got: %d", len(bindings))
	}
	if bindings[0].CategoryBlacklist != "crypto,nft" {
		t.Errorf("Expected joined blacklist 'crypto,nft', got: %q", bindings[0].CategoryBlacklist)
	}
	if bindings[1].AuthorWhitelist != "alice" || bindings[1].CategoryBlacklist != "" {
		t.Errorf("Expected author whitelist only, got: %+v", bindings[1])
	}

	// Second sync replaces bindings and keeps source ids stable.
	writeCatalogFile(t, dir, "lists", "tech.yml", `
name: "Tech"
user_id: 1
public: false
sources:
  - source: blog
`)
	runSync(t, env, dir)

	if _, err := env.listRepo.GetListBySlug(ctx, "tech", 0); err == nil {
		t.Error("Expected list to be private after second sync")
	}

	bindings, err = env.listRepo.GetListSources(ctx, list.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(bindings) != 1 {
		t.Fatalf("Expected 1 binding after replace, got: %d", len(bindings))
	}

	resynced, err := env.sourceRepo.GetSources(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(resynced) != 2 || resynced[0].ID != sources[0].ID {
		t.Errorf("Expected source rows to be reused, got: %+v", resynced)
	}
}

func TestSyncCatalogTaskCancelled(t *testing.T) {
	env := newTestEnv(t, time.Second)
	task := NewSyncCatalogTask("unused", feed.NewCatalog("unused"), env.sourceRepo, env.listRepo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := task.Execute(ctx); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
