package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/glazehq/glazer/internal/embed"
	"github.com/glazehq/glazer/internal/models"
	"github.com/glazehq/glazer/internal/provider"
	"github.com/glazehq/glazer/internal/queue"
)

type mockStorage struct {
	err   error
	calls int
}

func (m *mockStorage) UploadFromURL(_ context.Context, _, objectName, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return "https://cdn.example/" + objectName, nil
}

type mockVideoHost struct {
	err   error
	calls int
}

func (m *mockVideoHost) Upload(_ context.Context, _, _, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return "yt-abc123", nil
}

type mockScheduler struct {
	err      error
	requests []provider.SchedulePostRequest
}

func (m *mockScheduler) CreatePost(_ context.Context, req provider.SchedulePostRequest) (*provider.ScheduledPost, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.requests = append(m.requests, req)
	return &provider.ScheduledPost{ID: "late-" + req.Platform, URL: "https://late.example/" + req.Platform}, nil
}

type mockDestination struct {
	liveContent string
	fetchErr    error
	updated     map[int]string
}

func (m *mockDestination) FetchContent(_ context.Context, _ int) (string, error) {
	if m.fetchErr != nil {
		return "", m.fetchErr
	}
	return m.liveContent, nil
}

func (m *mockDestination) UpdateContent(_ context.Context, postID int, html string) error {
	if m.updated == nil {
		m.updated = make(map[int]string)
	}
	m.updated[postID] = html
	return nil
}

type finalizerFixture struct {
	store     *mockStore
	storage   *mockStorage
	videoHost *mockVideoHost
	scheduler *mockScheduler
	dest      *mockDestination
	finalizer *Finalizer
}

func newFinalizerFixture() *finalizerFixture {
	store := newMockStore()
	store.items[1] = &models.ContentItem{ID: 1, PublicID: "pub-1", ClientID: 10, Status: models.StatusGenerating}
	store.clients[10] = &models.Client{
		ID:               10,
		Name:             "Acme Auto Glass",
		City:             "Tulsa",
		State:            "OK",
		YouTubeChannelID: "chan-acme",
		GetLateAccountID: "acct-acme",
	}
	store.blogs[1] = &models.BlogPost{
		ContentItemID:   1,
		Title:           "Can a cracked windshield be repaired?",
		WordPressPostID: 777,
		Content:         "<h2>Intro</h2><p>Local copy.</p><h2>Details</h2><p>More.</p>",
	}
	store.podcasts[1] = &models.Podcast{
		ContentItemID: 1,
		Status:        models.JobReady,
		AudioURL:      "https://audio.example/ep.mp3",
	}
	store.videos[1] = &models.Video{
		ContentItemID: 1,
		Type:          models.VideoShort,
		Status:        models.JobReady,
		VideoURL:      "https://provider.example/v.mp4",
		Title:         "Windshield repair in 60 seconds",
		Description:   "Quick look at resin injection.",
	}
	store.social[1] = []models.SocialPost{{
		ContentItemID: 1,
		Platform:      "instagram",
		Caption:       "Watch a chip disappear",
		MediaType:     "video",
		PublishStatus: models.PublishPending,
	}}

	f := &finalizerFixture{
		store:     store,
		storage:   &mockStorage{},
		videoHost: &mockVideoHost{},
		scheduler: &mockScheduler{},
		dest: &mockDestination{
			liveContent: "<h2>Intro</h2><p>Edited by an operator.</p><h2>Details</h2><p>More.</p>",
		},
	}
	f.finalizer = NewFinalizer(
		store,
		NewTracker(store, zap.NewNop()),
		f.storage,
		f.videoHost,
		f.scheduler,
		func(*models.Client) BlogDestination { return f.dest },
		nil,
		zap.NewNop(),
		true,
	)
	return f
}

func finalizeTask() queue.Task {
	return queue.Task{Type: queue.TaskFinalize, ContentItemID: 1, PublicID: "pub-1", EnqueuedAt: time.Now()}
}

func TestFinalizerHappyPathPublishesEverything(t *testing.T) {
	f := newFinalizerFixture()

	if err := f.finalizer.Run(context.Background(), finalizeTask()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if f.storage.calls != 1 {
		t.Errorf("storage uploads = %d, want 1", f.storage.calls)
	}
	if f.videoHost.calls != 1 {
		t.Errorf("youtube uploads = %d, want 1", f.videoHost.calls)
	}

	video := f.store.videos[1]
	if video.StorageURL != "https://cdn.example/videos/pub-1/short.mp4" {
		t.Errorf("storage URL = %q", video.StorageURL)
	}
	if video.YouTubeVideoID != "yt-abc123" {
		t.Errorf("youtube ID = %q", video.YouTubeVideoID)
	}

	if len(f.scheduler.requests) != 1 {
		t.Fatalf("scheduled posts = %d, want 1", len(f.scheduler.requests))
	}
	req := f.scheduler.requests[0]
	if req.Platform != "instagram" || req.MediaType != "video" {
		t.Errorf("unexpected social request: %+v", req)
	}
	if len(req.MediaURLs) != 1 || req.MediaURLs[0] != video.StorageURL {
		t.Errorf("social post should carry the durable video URL, got %v", req.MediaURLs)
	}
	saved := f.store.social[1][len(f.store.social[1])-1]
	if saved.PublishStatus != models.PublishScheduled || saved.ExternalPostID != "late-instagram" {
		t.Errorf("social post not marked scheduled: %+v", saved)
	}

	item := f.store.items[1]
	if !item.SchemaGenerated || item.SEOSchema == "" {
		t.Error("SEO schema not generated")
	}
	if item.Status != models.StatusPublished {
		t.Errorf("status = %s, want PUBLISHED", item.Status)
	}
	if item.PublishedAt == nil {
		t.Error("PublishedAt not set")
	}
	if !item.PodcastAddedToPost || !item.VideoAddedToPost {
		t.Error("embed flags not set")
	}

	pushed, ok := f.dest.updated[777]
	if !ok {
		t.Fatal("live post not updated")
	}
	if !strings.Contains(pushed, "Edited by an operator.") {
		t.Error("re-embed lost the live edits")
	}
	podcastAt := strings.Index(pushed, embed.MarkerClassPodcast)
	videoAt := strings.Index(pushed, embed.MarkerClassVideo)
	mapAt := strings.Index(pushed, embed.MarkerClassMap)
	if podcastAt < 0 || videoAt < 0 || mapAt < 0 {
		t.Fatalf("missing embeds: podcast=%d video=%d map=%d", podcastAt, videoAt, mapAt)
	}
	if !(podcastAt < videoAt && videoAt < mapAt) {
		t.Errorf("embed order wrong: podcast=%d video=%d map=%d", podcastAt, videoAt, mapAt)
	}
	if f.store.blogs[1].Content != pushed {
		t.Error("local blog copy not synced with the live post")
	}
}

func TestFinalizerFailedVideoStillPublishes(t *testing.T) {
	f := newFinalizerFixture()
	f.store.videos[1].Status = models.JobFailed
	f.store.videos[1].Error = "render failed"

	if err := f.finalizer.Run(context.Background(), finalizeTask()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if f.storage.calls != 0 || f.videoHost.calls != 0 {
		t.Error("failed video must not be uploaded anywhere")
	}
	if len(f.scheduler.requests) != 0 {
		t.Errorf("failed video dispatched to social: %+v", f.scheduler.requests)
	}

	item := f.store.items[1]
	if item.Status != models.StatusPublished {
		t.Errorf("status = %s, want PUBLISHED", item.Status)
	}
	if !item.SchemaGenerated {
		t.Error("schema skipped for failed video")
	}

	pushed := f.dest.updated[777]
	if !strings.Contains(pushed, embed.MarkerClassPodcast) {
		t.Error("podcast embed missing")
	}
	if strings.Contains(pushed, embed.MarkerClassVideo) {
		t.Error("failed video was embedded")
	}
	if item.VideoAddedToPost {
		t.Error("VideoAddedToPost set for failed video")
	}
}

func TestFinalizerFetchFailureFallsBackToLocalCopy(t *testing.T) {
	f := newFinalizerFixture()
	f.dest.fetchErr = errors.New("wordpress unreachable")

	if err := f.finalizer.Run(context.Background(), finalizeTask()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	pushed, ok := f.dest.updated[777]
	if !ok {
		t.Fatal("live post not updated despite fetch fallback")
	}
	if !strings.Contains(pushed, "Local copy.") {
		t.Error("fallback did not use the stored blog content")
	}
	if !strings.Contains(pushed, embed.MarkerClassPodcast) || !strings.Contains(pushed, embed.MarkerClassMap) {
		t.Error("embeds missing from fallback content")
	}
}

func TestFinalizerSkipsTrashedItem(t *testing.T) {
	f := newFinalizerFixture()
	delete(f.store.items, 1)

	if err := f.finalizer.Run(context.Background(), finalizeTask()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if f.storage.calls != 0 || f.videoHost.calls != 0 || len(f.dest.updated) != 0 {
		t.Error("trashed item must have no side effects")
	}
}

func TestFinalizerKeepsArtifactsWhenTransitionRefused(t *testing.T) {
	f := newFinalizerFixture()
	f.store.items[1].Status = models.StatusDraft

	if err := f.finalizer.Run(context.Background(), finalizeTask()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	item := f.store.items[1]
	if item.Status != models.StatusDraft {
		t.Errorf("status forced to %s on refused transition", item.Status)
	}
	if !item.SchemaGenerated || item.SEOSchema == "" {
		t.Error("schema lost when the publish transition was refused")
	}
	if _, ok := f.dest.updated[777]; !ok {
		t.Error("live post not updated when the publish transition was refused")
	}
}
