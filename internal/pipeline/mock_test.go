package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/glazehq/glazer/internal/models"
	"github.com/glazehq/glazer/internal/provider"
	"github.com/glazehq/glazer/internal/queue"
)

// mockStore keeps everything in maps keyed by content item id
type mockStore struct {
	mu sync.Mutex

	items     map[uint]*models.ContentItem
	clients   map[uint]*models.Client
	blogs     map[uint]*models.BlogPost
	wrhqBlogs map[uint]*models.WRHQBlogPost
	images    map[uint][]models.Image
	podcasts  map[uint]*models.Podcast
	videos    map[uint]*models.Video
	social    map[uint][]models.SocialPost
	wrhqSoc   map[uint][]models.WRHQSocialPost

	saveItemErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		items:     make(map[uint]*models.ContentItem),
		clients:   make(map[uint]*models.Client),
		blogs:     make(map[uint]*models.BlogPost),
		wrhqBlogs: make(map[uint]*models.WRHQBlogPost),
		images:    make(map[uint][]models.Image),
		podcasts:  make(map[uint]*models.Podcast),
		videos:    make(map[uint]*models.Video),
		social:    make(map[uint][]models.SocialPost),
		wrhqSoc:   make(map[uint][]models.WRHQSocialPost),
	}
}

func (s *mockStore) ContentItemByPublicID(_ context.Context, publicID string) (*models.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.PublicID == publicID {
			return item, nil
		}
	}
	return nil, ErrNotFound
}

func (s *mockStore) ContentItemByID(_ context.Context, id uint) (*models.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *mockStore) SaveContentItem(_ context.Context, item *models.ContentItem) error {
	if s.saveItemErr != nil {
		return s.saveItemErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	return nil
}

func (s *mockStore) ClientByID(_ context.Context, id uint) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return client, nil
}

func (s *mockStore) BlogPostByContentItem(_ context.Context, id uint) (*models.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.blogs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return post, nil
}

func (s *mockStore) UpsertBlogPost(_ context.Context, post *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blogs[post.ContentItemID] = post
	return nil
}

func (s *mockStore) WRHQBlogPostByContentItem(_ context.Context, id uint) (*models.WRHQBlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.wrhqBlogs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return post, nil
}

func (s *mockStore) UpsertWRHQBlogPost(_ context.Context, post *models.WRHQBlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wrhqBlogs[post.ContentItemID] = post
	return nil
}

func (s *mockStore) ImagesByContentItem(_ context.Context, id uint) ([]models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images[id], nil
}

func (s *mockStore) ReplaceImages(_ context.Context, id uint, images []models.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[id] = images
	return nil
}

func (s *mockStore) PodcastByContentItem(_ context.Context, id uint) (*models.Podcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	podcast, ok := s.podcasts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return podcast, nil
}

func (s *mockStore) UpsertPodcast(_ context.Context, podcast *models.Podcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.podcasts[podcast.ContentItemID] = podcast
	return nil
}

func (s *mockStore) PodcastsProcessing(_ context.Context) ([]models.Podcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Podcast
	for _, p := range s.podcasts {
		if p.Status == models.JobProcessing {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *mockStore) VideoByContentItem(_ context.Context, id uint, _ models.VideoType) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return video, nil
}

func (s *mockStore) UpsertVideo(_ context.Context, video *models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ContentItemID] = video
	return nil
}

func (s *mockStore) VideosProcessing(_ context.Context) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Video
	for _, v := range s.videos {
		if v.Status == models.JobProcessing {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *mockStore) SocialPostsByContentItem(_ context.Context, id uint) ([]models.SocialPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.social[id], nil
}

func (s *mockStore) ReplaceSocialPosts(_ context.Context, id uint, posts []models.SocialPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.social[id] = posts
	return nil
}

func (s *mockStore) SaveSocialPost(_ context.Context, post *models.SocialPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.social[post.ContentItemID] = append(s.social[post.ContentItemID], *post)
	return nil
}

func (s *mockStore) WRHQSocialPostsByContentItem(_ context.Context, id uint) ([]models.WRHQSocialPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrhqSoc[id], nil
}

func (s *mockStore) ReplaceWRHQSocialPosts(_ context.Context, id uint, posts []models.WRHQSocialPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wrhqSoc[id] = posts
	return nil
}

func (s *mockStore) SaveWRHQSocialPost(_ context.Context, post *models.WRHQSocialPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wrhqSoc[post.ContentItemID] = append(s.wrhqSoc[post.ContentItemID], *post)
	return nil
}

// mockText returns canned artifacts, with per-method error overrides
type mockText struct {
	blogErr       error
	captionErr    error
	captionErrFor map[string]error
	scriptErr     error
}

func (m *mockText) GenerateBlog(_ context.Context, req provider.BlogRequest) (*provider.BlogResult, error) {
	if m.blogErr != nil {
		return nil, m.blogErr
	}
	title := "How To Fix " + req.Question
	if req.Mirror {
		title = "Directory: " + req.Question
	}
	return &provider.BlogResult{
		Title:           title,
		ContentHTML:     "<h1>" + title + "</h1><p>Answer body.</p>",
		MetaTitle:       title,
		MetaDescription: "Short answer to " + req.Question,
	}, nil
}

func (m *mockText) GenerateCaption(_ context.Context, req provider.CaptionRequest) (*provider.CaptionResult, error) {
	if m.captionErr != nil {
		return nil, m.captionErr
	}
	if err := m.captionErrFor[req.Platform]; err != nil {
		return nil, err
	}
	return &provider.CaptionResult{
		Caption:  "Caption for " + req.Platform,
		Hashtags: []string{"#autoglass"},
	}, nil
}

func (m *mockText) GeneratePodcastScript(_ context.Context, blogTitle, _ string, _ provider.BusinessContext) (string, error) {
	if m.scriptErr != nil {
		return "", m.scriptErr
	}
	return "HOST A: Welcome to " + blogTitle, nil
}

func (m *mockText) GenerateVideoScript(_ context.Context, question string, _ provider.BusinessContext) (string, string, error) {
	if m.scriptErr != nil {
		return "", "", m.scriptErr
	}
	return "Short: " + question, "Scene 1: windshield close-up", nil
}

type mockImages struct {
	err   error
	calls int
}

func (m *mockImages) Generate(_ context.Context, _ provider.ImageRequest) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("https://img.example/%d.png", m.calls), nil
}

// mockJobs serves both the podcast and video job interfaces
type mockJobs struct {
	createErr error
	state     *provider.JobState
	stateErr  error
	created   int
}

func (m *mockJobs) CreateJob(_ context.Context, _, _ string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created++
	return fmt.Sprintf("job-%d", m.created), nil
}

func (m *mockJobs) GetJob(_ context.Context, _ string) (*provider.JobState, error) {
	if m.stateErr != nil {
		return nil, m.stateErr
	}
	return m.state, nil
}

// mockQueue records enqueued tasks with the same dedup contract as the real ones
type mockQueue struct {
	mu    sync.Mutex
	seen  map[string]bool
	tasks []queue.Task
}

func newMockQueue() *mockQueue {
	return &mockQueue{seen: make(map[string]bool)}
}

func (q *mockQueue) EnqueueOnce(_ context.Context, dedupKey string, task queue.Task) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.seen[dedupKey] {
		return false, nil
	}
	q.seen[dedupKey] = true
	q.tasks = append(q.tasks, task)
	return true, nil
}

func (q *mockQueue) Dequeue(_ context.Context, _ time.Duration) (*queue.Task, error) {
	return nil, nil
}

func (q *mockQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
