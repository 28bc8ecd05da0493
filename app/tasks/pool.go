package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const taskTimeout = 5 * time.Minute

// WorkerPool runs a batch of tasks on a fixed number of workers.
type WorkerPool struct {
	workerCount int
}

func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &WorkerPool{workerCount: workerCount}
}

// Run executes every task and returns once all of them have finished.
// A failing task never stops the others; each task keeps its own outcome.
func (p *WorkerPool) Run(ctx context.Context, tasks []TaskInterface) {
	if len(tasks) == 0 {
		return
	}

	workers := min(p.workerCount, len(tasks))
	taskQueue := make(chan TaskInterface, len(tasks))
	for _, task := range tasks {
		taskQueue <- task
	}
	close(taskQueue)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go p.worker(ctx, i, taskQueue, &wg)
	}
	wg.Wait()
}

func (p *WorkerPool) worker(ctx context.Context, id int, taskQueue <-chan TaskInterface, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range taskQueue {
		p.executeTask(ctx, id, task)
	}
}

func (p *WorkerPool) executeTask(ctx context.Context, workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Debug("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "subject", task.GetSubject(), "error", err)
	}
}
