package tasks

import (
	"context"

	"github.com/lysyi3m/rssync/app/database"
)

type RefreshSourceTask struct {
	Task
	Source    database.Source
	NewItems  int
	refresher *Refresher
}

func NewRefreshSourceTask(source database.Source, refresher *Refresher) *RefreshSourceTask {
	return &RefreshSourceTask{
		Task:      NewTask(TaskTypeRefreshSource, source.Name),
		Source:    source,
		NewItems:  FailedRefresh,
		refresher: refresher,
	}
}

func (t *RefreshSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	newItems, err := t.refresher.RefreshSource(ctx, t.Source)
	t.NewItems = newItems
	return err
}
