package publish

import (
	"context"
	"fmt"
	"sync"

	"github.com/glazehq/glazer/internal/models"
	"github.com/glazehq/glazer/internal/pipeline"
	"github.com/glazehq/glazer/internal/provider"
	"github.com/glazehq/glazer/internal/publish/podbean"
	"github.com/glazehq/glazer/internal/publish/wordpress"
)

// mockStore carries just enough state for publish runs. One content item,
// keyed artifacts by content-item ID.
type mockStore struct {
	mu       sync.Mutex
	items    map[uint]*models.ContentItem
	clients  map[uint]*models.Client
	blogs    map[uint]*models.BlogPost
	wrhqBlog map[uint]*models.WRHQBlogPost
	podcasts map[uint]*models.Podcast
	videos   map[uint]*models.Video
	social   map[uint][]models.SocialPost
	wrhqSoc  map[uint][]models.WRHQSocialPost
}

func newMockStore() *mockStore {
	return &mockStore{
		items:    make(map[uint]*models.ContentItem),
		clients:  make(map[uint]*models.Client),
		blogs:    make(map[uint]*models.BlogPost),
		wrhqBlog: make(map[uint]*models.WRHQBlogPost),
		podcasts: make(map[uint]*models.Podcast),
		videos:   make(map[uint]*models.Video),
		social:   make(map[uint][]models.SocialPost),
		wrhqSoc:  make(map[uint][]models.WRHQSocialPost),
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
	return nil, pipeline.ErrNotFound
}

func (s *mockStore) ContentItemByID(_ context.Context, id uint) (*models.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, pipeline.ErrNotFound
	}
	return item, nil
}

func (s *mockStore) SaveContentItem(_ context.Context, item *models.ContentItem) error {
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
		return nil, pipeline.ErrNotFound
	}
	return client, nil
}

func (s *mockStore) BlogPostByContentItem(_ context.Context, id uint) (*models.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blog, ok := s.blogs[id]
	if !ok {
		return nil, pipeline.ErrNotFound
	}
	return blog, nil
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
	blog, ok := s.wrhqBlog[id]
	if !ok {
		return nil, pipeline.ErrNotFound
	}
	return blog, nil
}

func (s *mockStore) UpsertWRHQBlogPost(_ context.Context, post *models.WRHQBlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wrhqBlog[post.ContentItemID] = post
	return nil
}

func (s *mockStore) ImagesByContentItem(_ context.Context, _ uint) ([]models.Image, error) {
	return nil, nil
}

func (s *mockStore) ReplaceImages(_ context.Context, _ uint, _ []models.Image) error {
	return nil
}

func (s *mockStore) PodcastByContentItem(_ context.Context, id uint) (*models.Podcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	podcast, ok := s.podcasts[id]
	if !ok {
		return nil, pipeline.ErrNotFound
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
	return nil, nil
}

func (s *mockStore) VideoByContentItem(_ context.Context, id uint, _ models.VideoType) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return nil, pipeline.ErrNotFound
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
	return nil, nil
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

func (s *mockStore) SaveSocialPost(_ context.Context, _ *models.SocialPost) error {
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

func (s *mockStore) SaveWRHQSocialPost(_ context.Context, _ *models.WRHQSocialPost) error {
	return nil
}

// mockSite records WordPress calls
type mockSite struct {
	mu           sync.Mutex
	created      []wordpress.Post
	updated      map[int]wordpress.Post
	updatedHTML  map[int]string
	liveContent  string
	fetchErr     error
	createErr    error
	updateErr    error
	sideloadErr  error
	nextPostID   int
	sideloaded   []string
}

func newMockSite() *mockSite {
	return &mockSite{
		updated:     make(map[int]wordpress.Post),
		updatedHTML: make(map[int]string),
		nextPostID:  100,
	}
}

func (m *mockSite) CreatePost(_ context.Context, post wordpress.Post) (int, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return 0, "", m.createErr
	}
	m.nextPostID++
	m.created = append(m.created, post)
	return m.nextPostID, fmt.Sprintf("https://blog.example/?p=%d", m.nextPostID), nil
}

func (m *mockSite) UpdatePost(_ context.Context, postID int, post wordpress.Post) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return "", m.updateErr
	}
	m.updated[postID] = post
	return fmt.Sprintf("https://blog.example/?p=%d", postID), nil
}

func (m *mockSite) FetchContent(_ context.Context, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return "", m.fetchErr
	}
	return m.liveContent, nil
}

func (m *mockSite) UpdateContent(_ context.Context, postID int, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatedHTML[postID] = html
	return nil
}

func (m *mockSite) SideloadMedia(_ context.Context, imageURL, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sideloadErr != nil {
		return 0, m.sideloadErr
	}
	m.sideloaded = append(m.sideloaded, imageURL)
	return 42, nil
}

type mockPodcastHost struct {
	publishErr   error
	episodes     []string
	descriptions []string
}

func (m *mockPodcastHost) PublishEpisode(_ context.Context, title, description, _ string) (*podbean.Episode, error) {
	if m.publishErr != nil {
		return nil, m.publishErr
	}
	m.episodes = append(m.episodes, title)
	m.descriptions = append(m.descriptions, description)
	return &podbean.Episode{ID: "ep-1", PlayerURL: "https://podbean.example/player/ep-1"}, nil
}

type mockScheduler struct {
	mu       sync.Mutex
	errFor   map[string]error
	requests []provider.SchedulePostRequest
}

func (m *mockScheduler) CreatePost(_ context.Context, req provider.SchedulePostRequest) (*provider.ScheduledPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errFor[req.Platform]; ok {
		return nil, err
	}
	m.requests = append(m.requests, req)
	return &provider.ScheduledPost{
		ID:  "late-" + req.Platform,
		URL: "https://getlate.example/" + req.Platform,
	}, nil
}
