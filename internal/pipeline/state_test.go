package pipeline

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/glazehq/glazer/internal/models"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from models.ContentStatus
		ev   Event
		to   models.ContentStatus
		ok   bool
	}{
		{models.StatusDraft, EventGenerationStarted, models.StatusGenerating, true},
		{models.StatusGenerating, EventGenerationStarted, models.StatusGenerating, true},
		{models.StatusGenerating, EventInitialSucceeded, models.StatusReview, true},
		{models.StatusGenerating, EventInitialFailed, models.StatusFailed, true},
		{models.StatusGenerating, EventPublished, models.StatusPublished, true},
		{models.StatusReview, EventPublished, models.StatusPublished, true},
		{models.StatusReview, EventGenerationStarted, models.StatusGenerating, true},
		{models.StatusFailed, EventGenerationStarted, models.StatusGenerating, true},
		{models.StatusPublished, EventGenerationStarted, models.StatusGenerating, true},

		{models.StatusDraft, EventPublished, models.StatusDraft, false},
		{models.StatusDraft, EventInitialSucceeded, models.StatusDraft, false},
		{models.StatusPublished, EventPublished, models.StatusPublished, false},
		{models.StatusFailed, EventInitialFailed, models.StatusFailed, false},
		{models.StatusReview, EventInitialSucceeded, models.StatusReview, false},
	}

	for _, tc := range cases {
		got, err := Transition(tc.from, tc.ev)
		if tc.ok && err != nil {
			t.Errorf("%s on %s: unexpected error %v", tc.ev, tc.from, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s on %s: expected ErrInvalidTransition, got %v", tc.ev, tc.from, err)
		}
		if got != tc.to {
			t.Errorf("%s on %s: got %s, want %s", tc.ev, tc.from, got, tc.to)
		}
	}
}

func TestTrackerRestartsItemStuckInGenerating(t *testing.T) {
	store := newMockStore()
	item := &models.ContentItem{ID: 1, PublicID: "pub-1", Status: models.StatusGenerating}
	store.items[1] = item

	tracker := NewTracker(store, zap.NewNop())
	if err := tracker.Apply(context.Background(), item, EventGenerationStarted, models.StepBlog); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if item.Status != models.StatusGenerating {
		t.Errorf("status = %s, want GENERATING", item.Status)
	}
}

func TestTrackerApplySetsPublishedAt(t *testing.T) {
	store := newMockStore()
	item := &models.ContentItem{ID: 1, PublicID: "pub-1", Status: models.StatusReview}
	store.items[1] = item

	tracker := NewTracker(store, zap.NewNop())
	if err := tracker.Apply(context.Background(), item, EventPublished, models.StepIdle); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if item.Status != models.StatusPublished {
		t.Errorf("status = %s, want PUBLISHED", item.Status)
	}
	if item.PublishedAt == nil {
		t.Error("PublishedAt not set")
	}
}

func TestTrackerApplyRejectsAndLeavesItemUntouched(t *testing.T) {
	store := newMockStore()
	item := &models.ContentItem{ID: 1, PublicID: "pub-1", Status: models.StatusDraft}
	store.items[1] = item

	tracker := NewTracker(store, zap.NewNop())
	if err := tracker.Apply(context.Background(), item, EventPublished, models.StepIdle); err == nil {
		t.Fatal("expected rejection for DRAFT -> published")
	}

	if item.Status != models.StatusDraft {
		t.Errorf("status mutated on rejected transition: %s", item.Status)
	}
	if item.PublishedAt != nil {
		t.Error("PublishedAt set on rejected transition")
	}
}
