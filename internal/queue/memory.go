package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is an in-process TaskQueue for development and tests.
// Not durable: pending tasks are lost on restart.
type MemoryQueue struct {
	mu    sync.Mutex
	seen  map[string]bool
	tasks chan Task
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 128
	}
	return &MemoryQueue{
		seen:  make(map[string]bool),
		tasks: make(chan Task, capacity),
	}
}

func (q *MemoryQueue) EnqueueOnce(ctx context.Context, dedupKey string, task Task) (bool, error) {
	q.mu.Lock()
	if q.seen[dedupKey] {
		q.mu.Unlock()
		return false, nil
	}
	q.seen[dedupKey] = true
	q.mu.Unlock()

	select {
	case q.tasks <- task:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case task := <-q.tasks:
		return &task, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
