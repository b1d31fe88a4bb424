package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/glazehq/glazer/internal/queue"
)

// Worker consumes finalize tasks off the durable queue. Runs in-process;
// durability comes from the queue surviving restarts, not from the worker.
type Worker struct {
	queue       queue.TaskQueue
	finalizer   *Finalizer
	logger      *zap.Logger
	concurrency int
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

func NewWorker(taskQueue queue.TaskQueue, finalizer *Finalizer, logger *zap.Logger, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		queue:       taskQueue,
		finalizer:   finalizer,
		logger:      logger,
		concurrency: concurrency,
		stopCh:      make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Starting pipeline workers", zap.Int("concurrency", w.concurrency))
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx)
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.logger.Info("Pipeline workers stopped")
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		task, err := w.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("Failed to dequeue task", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		switch task.Type {
		case queue.TaskFinalize:
			if err := w.finalizer.Run(ctx, *task); err != nil {
				w.logger.Error("Finalize task failed",
					zap.String("content_item", task.PublicID),
					zap.Error(err))
			}
		default:
			w.logger.Warn("Unknown task type", zap.String("type", task.Type))
		}
	}
}
