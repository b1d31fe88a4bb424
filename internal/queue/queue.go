// Package queue provides the durable task queue driving pipeline
// continuations. Job completion must not depend on a browser staying on the
// page, so finalize work is enqueued here and consumed by a worker.
package queue

import (
	"context"
	"time"
)

// TaskFinalize completes a content item once its async media jobs resolve
const TaskFinalize = "finalize"

type Task struct {
	Type          string    `json:"type"`
	ContentItemID uint      `json:"content_item_id"`
	PublicID      string    `json:"public_id"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
}

// TaskQueue is the queue abstraction. EnqueueOnce deduplicates on key so
// whichever of two racing producers wins, the task is delivered exactly once.
type TaskQueue interface {
	// EnqueueOnce pushes the task unless dedupKey was already used.
	// Returns true when the task was actually enqueued.
	EnqueueOnce(ctx context.Context, dedupKey string, task Task) (bool, error)
	// Dequeue blocks up to the given timeout; returns nil, nil on timeout.
	Dequeue(ctx context.Context, timeout time.Duration) (*Task, error)
}
