package publish

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/glazehq/glazer/internal/models"
	"github.com/glazehq/glazer/internal/pipeline"
)

type fixture struct {
	store     *mockStore
	site      *mockSite
	wrhq      *mockSite
	podcasts  *mockPodcastHost
	scheduler *mockScheduler
	runner    *Runner
}

func newFixture() *fixture {
	f := &fixture{
		store:     newMockStore(),
		site:      newMockSite(),
		wrhq:      newMockSite(),
		podcasts:  &mockPodcastHost{},
		scheduler: &mockScheduler{},
	}

	f.store.clients[10] = &models.Client{
		ID:               10,
		Name:             "Acme Auto Glass",
		City:             "Tulsa",
		State:            "OK",
		WordPressURL:     "https://acmeautoglass.example",
		WordPressUser:    "acme",
		WordPressAppPass: "xxxx",
		GetLateAccountID: "acct-acme",
		EnabledPlatforms: models.StringArray{"facebook", "instagram"},
		WRHQEnabled:      true,
	}
	f.store.items[1] = &models.ContentItem{
		ID:          1,
		PublicID:    "pub-1",
		ClientID:    10,
		PAAQuestion: "Can a cracked windshield be repaired?",
		Status:      models.StatusReview,
	}

	logger := zap.NewNop()
	tracker := pipeline.NewTracker(f.store, logger)
	f.runner = NewRunner(
		f.store,
		tracker,
		func(*models.Client) BlogSite { return f.site },
		f.wrhq,
		"acct-wrhq",
		f.podcasts,
		f.scheduler,
		pipeline.NopRecorder{},
		logger,
	)
	return f
}

func TestPublishBlogBlockedWithoutApproval(t *testing.T) {
	f := newFixture()
	f.store.items[1].BlogGenerated = true
	// BlogApproved deliberately left false

	results, err := f.runner.Publish(context.Background(), "pub-1", Request{PublishBlog: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !results.Blocked() {
		t.Fatal("unapproved blog should be blocked")
	}
	r, _ := results.Get(pipeline.StepKeyBlog)
	if r.Status != pipeline.StatusBlocked || !strings.Contains(r.Error, "approved") {
		t.Errorf("unexpected result: %+v", r)
	}
	if len(f.site.created) != 0 {
		t.Error("blocked publish must not reach WordPress")
	}
}

func TestPublishBlogBlockedWithoutGeneration(t *testing.T) {
	f := newFixture()

	results, err := f.runner.Publish(context.Background(), "pub-1", Request{PublishBlog: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	r, _ := results.Get(pipeline.StepKeyBlog)
	if r.Status != pipeline.StatusBlocked || !strings.Contains(r.Error, "generated") {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestPublishBlogFirstTimeCreatesPostAndTransitions(t *testing.T) {
	f := newFixture()
	item := f.store.items[1]
	item.BlogGenerated = true
	item.BlogApproved = true
	f.store.blogs[1] = &models.BlogPost{
		ContentItemID:    1,
		Title:            "Can a Cracked Windshield Be Repaired?",
		Slug:             "cracked-windshield-repair",
		Content:          "<p>Yes, often.</p>",
		FeaturedImageURL: "https://cdn.example/hero.jpg",
	}

	results, err := f.runner.Publish(context.Background(), "pub-1", Request{PublishBlog: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !results.OK() {
		t.Fatalf("publish failed: %v", results.Map())
	}

	if len(f.site.created) != 1 {
		t.Fatalf("expected 1 created post, got %d", len(f.site.created))
	}
	if f.site.created[0].FeaturedMediaID != 42 {
		t.Error("featured image was not sideloaded before create")
	}
	blog := f.store.blogs[1]
	if blog.WordPressPostID == 0 || blog.WordPressURL == "" || blog.PublishedAt == nil {
		t.Errorf("blog linkage not recorded: %+v", blog)
	}
	if item.Status != models.StatusPublished {
		t.Errorf("item status = %s, want PUBLISHED", item.Status)
	}
	if item.PublishedAt == nil {
		t.Error("PublishedAt not set")
	}
}

func TestPublishBlogSecondTimeUpdatesInPlace(t *testing.T) {
	f := newFixture()
	item := f.store.items[1]
	item.BlogGenerated = true
	item.BlogApproved = true
	item.Status = models.StatusPublished
	f.store.blogs[1] = &models.BlogPost{
		ContentItemID:   1,
		Title:           "Can a Cracked Windshield Be Repaired?",
		Slug:            "cracked-windshield-repair",
		Content:         "<p>Updated copy.</p>",
		WordPressPostID: 777,
	}

	results, err := f.runner.Publish(context.Background(), "pub-1", Request{PublishBlog: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !results.OK() {
		t.Fatalf("publish failed: %v", results.Map())
	}

	if len(f.site.created) != 0 {
		t.Error("republish must not create a second post")
	}
	if _, ok := f.site.updated[777]; !ok {
		t.Error("existing post 777 was not updated")
	}
	if f.store.blogs[1].WordPressPostID != 777 {
		t.Error("post ID changed on update")
	}
}

func TestPublishBlogFailureIsRecordedNotFatal(t *testing.T) {
	f := newFixture()
	item := f.store.items[1]
	item.BlogGenerated = true
	item.BlogApproved = true
	item.SocialGenerated = true
	item.SocialApproved = true
	f.store.blogs[1] = &models.BlogPost{ContentItemID: 1, Title: "T", Slug: "t", Content: "<p>x</p>"}
	f.store.social[1] = []models.SocialPost{
		{ContentItemID: 1, Platform: "facebook", Caption: "cta", PublishStatus: models.PublishPending},
	}
	f.site.createErr = errors.New("wordpress 500")

	results, err := f.runner.Publish(context.Background(), "pub-1", Request{PublishBlog: true, PublishSocial: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	blogRes, _ := results.Get(pipeline.StepKeyBlog)
	if blogRes.Success || !strings.Contains(blogRes.Error, "wordpress 500") {
		t.Errorf("blog failure not recorded: %+v", blogRes)
	}
	// Social still went out despite the blog failing
	socialRes, _ := results.Get(pipeline.StepKeySocial + ":facebook")
	if !socialRes.Success {
		t.Errorf("social dispatch should survive a blog failure: %+v", socialRes)
	}
	if item.Status == models.StatusPublished {
		t.Error("failed blog publish must not mark the item published")
	}
}

func TestPublishWRHQBlockedForUnenrolledClient(t *testing.T) {
	f := newFixture()
	f.store.clients[10].WRHQEnabled = false
	item := f.store.items[1]
	item.WRHQBlogGenerated = true
	item.WRHQBlogApproved = true
	item.WRHQSocialGenerated = true
	item.WRHQSocialApproved = true

	results, err := f.runner.Publish(context.Background(), "pub-1", Request{PublishWRHQBlog: true, PublishWRHQSocial: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	for _, key := range []string{pipeline.StepKeyWRHQBlog, pipeline.StepKeyWRHQSocial} {
		r, _ := results.Get(key)
		if r.Status != pipeline.StatusBlocked {
			t.Errorf("%s: expected blocked, got %+v", key, r)
		}
	}
}

func TestPublishPodcastAlreadyPublishedIsIdempotent(t *testing.T) {
	f := newFixture()
	item := f.store.items[1]
	item.PodcastGenerated = true
	item.PodcastApproved = true
	f.store.podcasts[1] = &models.Podcast{
		ContentItemID:  1,
		Status:         models.JobPublished,
		PlayerEmbedURL: "https://podbean.example/player/ep-1",
	}

	results, err := f.runner.Publish(context.Background(), "pub-1", Request{PublishPodcast: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	r, _ := results.Get(pipeline.StepKeyPodcast)
	if !r.Success {
		t.Fatalf("already-published podcast should report success: %+v", r)
	}
	if len(f.podcasts.episodes) != 0 {
		t.Error("must not publish a second episode")
	}
}

func TestPublishPodcastBlockedUntilAudioReady(t *testing.T) {
	f := newFixture()
	item := f.store.items[1]
	item.PodcastGenerated = true
	item.PodcastApproved = true
	f.store.podcasts[1] = &models.Podcast{ContentItemID: 1, Status: models.JobProcessing}

	results, err := f.runner.Publish(context.Background(), "pub-1", Request{PublishPodcast: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	r, _ := results.Get(pipeline.StepKeyPodcast)
	if r.Status != pipeline.StatusBlocked {
		t.Errorf("expected blocked, got %+v", r)
	}
}

func TestPublishPodcastReady(t *testing.T) {
	f := newFixture()
	item := f.store.items[1]
	item.PodcastGenerated = true
	item.PodcastApproved = true
	f.store.podcasts[1] = &models.Podcast{
		ContentItemID: 1,
		Status:        models.JobReady,
		Script:        "Welcome to the show.",
		AudioURL:      "https://audio.example/ep.mp3",
	}

	results, err := f.runner.Publish(context.Background(), "pub-1", Request{PublishPodcast: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !results.OK() {
		t.Fatalf("publish failed: %v", results.Map())
	}

	podcast := f.store.podcasts[1]
	if podcast.Status != models.JobPublished || podcast.PodbeanEpisodeID != "ep-1" || podcast.PlayerEmbedURL == "" {
		t.Errorf("episode linkage not recorded: %+v", podcast)
	}
	if podcast.PublishedAt == nil {
		t.Error("PublishedAt not set on podcast")
	}
}

func TestPublishPodcastDescriptionTruncatesOnRuneBoundary(t *testing.T) {
	f := newFixture()
	item := f.store.items[1]
	item.PodcastGenerated = true
	item.PodcastApproved = true
	f.store.podcasts[1] = &models.Podcast{
		ContentItemID: 1,
		Status:        models.JobReady,
		Script:        strings.Repeat("é", 600),
		AudioURL:      "https://audio.example/ep.mp3",
	}

	results, err := f.runner.Publish(context.Background(), "pub-1", Request{PublishPodcast: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !results.OK() {
		t.Fatalf("publish failed: %v", results.Map())
	}

	if len(f.podcasts.descriptions) != 1 {
		t.Fatalf("episodes published = %d, want 1", len(f.podcasts.descriptions))
	}
	desc := f.podcasts.descriptions[0]
	if !utf8.ValidString(desc) {
		t.Error("episode description contains a split multi-byte rune")
	}
	if n := utf8.RuneCountInString(desc); n > 500 {
		t.Errorf("episode description is %d runes, want at most 500", n)
	}
}

func TestPublishSocialSkipsNonPendingAndIsolatesFailures(t *testing.T) {
	f := newFixture()
	item := f.store.items[1]
	item.SocialGenerated = true
	item.SocialApproved = true
	f.store.social[1] = []models.SocialPost{
		{ContentItemID: 1, Platform: "facebook", Caption: "fb", Hashtags: models.StringArray{"#glass"}, PublishStatus: models.PublishPending},
		{ContentItemID: 1, Platform: "instagram", Caption: "ig", PublishStatus: models.PublishPending},
		{ContentItemID: 1, Platform: "tiktok", Caption: "tt", PublishStatus: models.PublishDone},
	}
	f.scheduler.errFor = map[string]error{"instagram": errors.New("rate limited")}

	results, err := f.runner.Publish(context.Background(), "pub-1", Request{PublishSocial: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	fb, _ := results.Get(pipeline.StepKeySocial + ":facebook")
	if !fb.Success {
		t.Errorf("facebook should succeed: %+v", fb)
	}
	ig, _ := results.Get(pipeline.StepKeySocial + ":instagram")
	if ig.Success || !strings.Contains(ig.Error, "rate limited") {
		t.Errorf("instagram failure not isolated: %+v", ig)
	}
	if _, ok := results.Get(pipeline.StepKeySocial + ":tiktok"); ok {
		t.Error("already-published rows must be skipped")
	}

	if len(f.scheduler.requests) != 1 {
		t.Fatalf("expected 1 dispatched request, got %d", len(f.scheduler.requests))
	}
	if !strings.Contains(f.scheduler.requests[0].Caption, "#glass") {
		t.Error("hashtags not appended to caption")
	}

	if f.store.social[1][0].PublishStatus != models.PublishDone {
		t.Error("facebook row not marked published")
	}
	if f.store.social[1][1].PublishStatus != models.PublishFailed {
		t.Error("instagram row not marked failed")
	}
}

func TestRepublishBlogBlockedBeforeFirstPublish(t *testing.T) {
	f := newFixture()
	f.store.blogs[1] = &models.BlogPost{ContentItemID: 1, Title: "T", Content: "<p>x</p>"}

	results, err := f.runner.RepublishBlog(context.Background(), "pub-1")
	if err != nil {
		t.Fatalf("RepublishBlog: %v", err)
	}
	r, _ := results.Get(pipeline.StepKeyEmbeds)
	if r.Status != pipeline.StatusBlocked {
		t.Errorf("expected blocked, got %+v", r)
	}
}

func TestRepublishBlogRebuildsEmbedsFromLiveContent(t *testing.T) {
	f := newFixture()
	f.store.blogs[1] = &models.BlogPost{
		ContentItemID:   1,
		Title:           "T",
		Content:         "<p>stale local copy</p>",
		WordPressPostID: 777,
		WordPressURL:    "https://blog.example/?p=777",
	}
	f.store.podcasts[1] = &models.Podcast{
		ContentItemID:  1,
		Status:         models.JobPublished,
		PlayerEmbedURL: "https://podbean.example/player/ep-1",
	}
	f.site.liveContent = `<h1>Title</h1><p>Intro edited by the client.</p><h2>Details</h2><p>Body.</p>`

	results, err := f.runner.RepublishBlog(context.Background(), "pub-1")
	if err != nil {
		t.Fatalf("RepublishBlog: %v", err)
	}
	if !results.OK() {
		t.Fatalf("republish failed: %v", results.Map())
	}

	html, ok := f.site.updatedHTML[777]
	if !ok {
		t.Fatal("live post was not updated")
	}
	if !strings.Contains(html, "Intro edited by the client.") {
		t.Error("live edits were lost")
	}
	if !strings.Contains(html, "podbean.example/player/ep-1") {
		t.Error("podcast embed missing from rebuilt content")
	}
	if f.store.blogs[1].Content != html {
		t.Error("local copy not synced with pushed content")
	}
}

func TestRepublishBlogFallsBackToLocalCopyWhenFetchFails(t *testing.T) {
	f := newFixture()
	f.store.blogs[1] = &models.BlogPost{
		ContentItemID:   1,
		Title:           "T",
		Content:         "<h2>Local</h2><p>local copy</p>",
		WordPressPostID: 777,
	}
	f.site.fetchErr = errors.New("wordpress timeout")

	results, err := f.runner.RepublishBlog(context.Background(), "pub-1")
	if err != nil {
		t.Fatalf("RepublishBlog: %v", err)
	}
	if !results.OK() {
		t.Fatalf("republish failed: %v", results.Map())
	}
	if html := f.site.updatedHTML[777]; !strings.Contains(html, "local copy") {
		t.Errorf("local fallback not used: %q", html)
	}
}

func TestPublishRejectsUnknownItem(t *testing.T) {
	f := newFixture()
	if _, err := f.runner.Publish(context.Background(), "nope", Request{PublishBlog: true}); !errors.Is(err, pipeline.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
