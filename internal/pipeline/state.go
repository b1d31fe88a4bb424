package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/glazehq/glazer/internal/models"
)

// Event is something that happened to a content item's lifecycle
type Event string

const (
	// EventGenerationStarted fires when an initial generation run begins
	EventGenerationStarted Event = "generation_started"
	// EventInitialSucceeded fires when blog+images both generated cleanly
	EventInitialSucceeded Event = "initial_generation_succeeded"
	// EventInitialFailed fires when any step of an initial run failed
	EventInitialFailed Event = "initial_generation_failed"
	// EventPublished fires once the finalize continuation completes
	EventPublished Event = "published"
)

// transitions is the single authoritative table. Partial regeneration runs
// deliberately fire no event: their failures land in LastError only.
var transitions = map[models.ContentStatus]map[Event]models.ContentStatus{
	models.StatusDraft: {
		EventGenerationStarted: models.StatusGenerating,
	},
	models.StatusGenerating: {
		// Re-entry lets an operator restart an item left in GENERATING
		// by a crashed run; status is never edited directly.
		EventGenerationStarted: models.StatusGenerating,
		EventInitialSucceeded:  models.StatusReview,
		EventInitialFailed:     models.StatusFailed,
		EventPublished:         models.StatusPublished,
	},
	models.StatusReview: {
		EventGenerationStarted: models.StatusGenerating,
		EventPublished:         models.StatusPublished,
	},
	models.StatusFailed: {
		EventGenerationStarted: models.StatusGenerating,
	},
	models.StatusPublished: {
		EventGenerationStarted: models.StatusGenerating,
	},
}

// ErrInvalidTransition is returned for event/status pairs not in the table
var ErrInvalidTransition = errors.New("invalid transition")

// Transition computes the successor status, rejecting anything not in the table
func Transition(current models.ContentStatus, ev Event) (models.ContentStatus, error) {
	next, ok := transitions[current][ev]
	if !ok {
		return current, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, current)
	}
	return next, nil
}

// Tracker applies lifecycle events to content items. It is the only place
// that writes the status column.
type Tracker struct {
	store  Store
	logger *zap.Logger
}

func NewTracker(store Store, logger *zap.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// Apply runs the transition and persists status plus the current pipeline step
func (t *Tracker) Apply(ctx context.Context, item *models.ContentItem, ev Event, step models.PipelineStep) error {
	next, err := Transition(item.Status, ev)
	if err != nil {
		t.logger.Warn("Rejected status transition",
			zap.String("content_item", item.PublicID),
			zap.String("event", string(ev)),
			zap.String("status", string(item.Status)))
		return err
	}

	item.Status = next
	item.PipelineStep = step
	if ev == EventPublished {
		now := time.Now()
		item.PublishedAt = &now
	}

	if err := t.store.SaveContentItem(ctx, item); err != nil {
		return fmt.Errorf("failed to persist status: %w", err)
	}

	t.logger.Info("Content item transitioned",
		zap.String("content_item", item.PublicID),
		zap.String("event", string(ev)),
		zap.String("status", string(next)))
	return nil
}

// SetStep updates the informational pipeline step without a status change
func (t *Tracker) SetStep(ctx context.Context, item *models.ContentItem, step models.PipelineStep) {
	item.PipelineStep = step
	if err := t.store.SaveContentItem(ctx, item); err != nil {
		t.logger.Error("Failed to persist pipeline step",
			zap.String("content_item", item.PublicID),
			zap.Error(err))
	}
}
