package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/rssync/app/database"
)

type mockItemFinder struct {
	items     map[int64][]database.Item
	requested map[int64]int
	err       error
	mu        sync.Mutex
}

func (m *mockItemFinder) FindRecentBySource(ctx context.Context, sourceID int64, limit int) ([]database.Item, error) {
	if m.err != nil {
		return nil, m.err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.requested == nil {
		m.requested = make(map[int64]int)
	}
	m.requested[sourceID] = limit

	items := m.items[sourceID]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

type mockBindingReader struct {
	bindings []database.ListSource
	err      error
}

func (m *mockBindingReader) GetListSources(ctx context.Context, listID int64) ([]database.ListSource, error) {
	return m.bindings, m.err
}

func TestAggregator_OrdersAcrossSources(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	finder := &mockItemFinder{items: map[int64][]database.Item{
		1: {
			{ID: 10, SourceID: 1, GUID: "a-new", PubDate: now},
			{ID: 11, SourceID: 1, GUID: "a-old", PubDate: now.Add(-2 * time.Hour)},
		},
		2: {
			{ID: 20, SourceID: 2, GUID: "b", PubDate: now.Add(-time.Hour)},
		},
	}}
	bindings := &mockBindingReader{bindings: []database.ListSource{{SourceID: 1}, {SourceID: 2}}}

	items, err := NewAggregator(finder, bindings, NewFilterer()).Run(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []string{"a-new", "b", "a-old"}
	if len(items) != len(expected) {
		t.Fatalf("Expected %d items, got %d", len(expected), len(items))
	}
	for i, guid := range expected {
		if items[i].GUID != guid {
			t.Errorf("Expected item %d to be '%s', got '%s'", i, guid, items[i].GUID)
		}
	}
}

func TestAggregator_TruncatesAndFetchesHeadroom(t *testing.T) {
	now := time.Now().UTC()

	var sourceItems []database.Item
	for i := 0; i < 10; i++ {
		sourceItems = append(sourceItems, database.Item{ID: int64(100 - i), SourceID: 1, PubDate: now.Add(-time.Duration(i) * time.Minute)})
	}

	finder := &mockItemFinder{items: map[int64][]database.Item{1: sourceItems, 2: sourceItems}}
	bindings := &mockBindingReader{bindings: []database.ListSource{{SourceID: 1}, {SourceID: 2}}}

	items, err := NewAggregator(finder, bindings, NewFilterer()).Run(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(items) != 3 {
		t.Errorf("Expected 3 items, got %d", len(items))
	}
	if finder.requested[1] != 6 || finder.requested[2] != 6 {
		t.Errorf("Expected 2x limit candidates per source, got %v", finder.requested)
	}
}

func TestAggregator_AppliesBindingFilters(t *testing.T) {
	now := time.Now().UTC()

	finder := &mockItemFinder{items: map[int64][]database.Item{
		1: {
			{ID: 1, SourceID: 1, Author: "Alice", PubDate: now},
			{ID: 2, SourceID: 1, Author: "Bob", PubDate: now.Add(-time.Minute)},
		},
		2: {
			{ID: 3, SourceID: 2, Author: "Bob", PubDate: now.Add(-2 * time.Minute)},
		},
	}}
	bindings := &mockBindingReader{bindings: []database.ListSource{
		{SourceID: 1, AuthorWhitelist: "alice"},
		{SourceID: 2},
	}}

	items, err := NewAggregator(finder, bindings, NewFilterer()).Run(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(items) != 2 || items[0].ID != 1 || items[1].ID != 3 {
		t.Errorf("Expected items 1 and 3, got %+v", items)
	}
}

func TestAggregator_TieBreakByID(t *testing.T) {
	now := time.Now().UTC()

	finder := &mockItemFinder{items: map[int64][]database.Item{
		1: {{ID: 5, SourceID: 1, PubDate: now}},
		2: {{ID: 9, SourceID: 2, PubDate: now}},
	}}
	bindings := &mockBindingReader{bindings: []database.ListSource{{SourceID: 1}, {SourceID: 2}}}

	items, _ := NewAggregator(finder, bindings, NewFilterer()).Run(context.Background(), 1, 10)
	if len(items) != 2 || items[0].ID != 9 || items[1].ID != 5 {
		t.Errorf("Expected ids [9 5], got %+v", items)
	}
}

func TestAggregator_DefaultLimitAndErrors(t *testing.T) {
	finder := &mockItemFinder{}
	bindings := &mockBindingReader{bindings: []database.ListSource{{SourceID: 1}}}

	if _, err := NewAggregator(finder, bindings, NewFilterer()).Run(context.Background(), 1, 0); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if finder.requested[1] != 2*DefaultListLimit {
		t.Errorf("Expected default limit headroom %d, got %d", 2*DefaultListLimit, finder.requested[1])
	}

	failing := &mockItemFinder{err: errors.New("database is locked")}
	if _, err := NewAggregator(failing, bindings, NewFilterer()).Run(context.Background(), 1, 10); err == nil {
		t.Error("Expected error from item finder")
	}

	brokenBindings := &mockBindingReader{err: errors.New("no such table")}
	if _, err := NewAggregator(finder, brokenBindings, NewFilterer()).Run(context.Background(), 1, 10); err == nil {
		t.Error("Expected error from binding reader")
	}
}
