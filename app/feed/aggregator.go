package feed

import (
	"context"
	"fmt"
	"slices"

	"github.com/lysyi3m/rssync/app/database"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultListLimit = 100

	// Candidates read per binding, as a multiple of the limit, to leave room
	// for items dropped by filters.
	candidateFactor  = 2
	maxParallelReads = 4
)

type recentItemFinder interface {
	FindRecentBySource(ctx context.Context, sourceID int64, limit int) ([]database.Item, error)
}

type listSourceReader interface {
	GetListSources(ctx context.Context, listID int64) ([]database.ListSource, error)
}

// Aggregator merges the filtered items of every source bound to a list.
type Aggregator struct {
	items    recentItemFinder
	bindings listSourceReader
	filterer *Filterer
}

func NewAggregator(items recentItemFinder, bindings listSourceReader, filterer *Filterer) *Aggregator {
	return &Aggregator{
		items:    items,
		bindings: bindings,
		filterer: filterer,
	}
}

// Run returns at most limit items of the list, newest first. Items with equal
// publication dates are ordered by descending id.
func (a *Aggregator) Run(ctx context.Context, listID int64, limit int) ([]database.Item, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	bindings, err := a.bindings.GetListSources(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to get list sources: %w", err)
	}

	perBinding := make([][]database.Item, len(bindings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)

	for i, binding := range bindings {
		g.Go(func() error {
			candidates, err := a.items.FindRecentBySource(gctx, binding.SourceID, candidateFactor*limit)
			if err != nil {
				return fmt.Errorf("failed to get items of source %d: %w", binding.SourceID, err)
			}
			perBinding[i] = a.filterer.Run(binding, candidates, limit)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []database.Item
	for _, items := range perBinding {
		merged = append(merged, items...)
	}

	slices.SortStableFunc(merged, func(x, y database.Item) int {
		if c := y.PubDate.Compare(x.PubDate); c != 0 {
			return c
		}
		switch {
		case x.ID > y.ID:
			return -1
		case x.ID < y.ID:
			return 1
		}
		return 0
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}

	return merged, nil
}
