package pipeline

import (
	"context"
	"errors"

	"github.com/glazehq/glazer/internal/models"
)

// ErrNotFound is returned by Store lookups for missing rows. The poller
// treats it as "item trashed mid-flight" and no-ops.
var ErrNotFound = errors.New("not found")

// Store is the persistence surface the pipeline needs. The gorm
// implementation lives in internal/service; tests supply mocks.
type Store interface {
	ContentItemByPublicID(ctx context.Context, publicID string) (*models.ContentItem, error)
	ContentItemByID(ctx context.Context, id uint) (*models.ContentItem, error)
	SaveContentItem(ctx context.Context, item *models.ContentItem) error
	ClientByID(ctx context.Context, id uint) (*models.Client, error)

	BlogPostByContentItem(ctx context.Context, contentItemID uint) (*models.BlogPost, error)
	UpsertBlogPost(ctx context.Context, post *models.BlogPost) error
	WRHQBlogPostByContentItem(ctx context.Context, contentItemID uint) (*models.WRHQBlogPost, error)
	UpsertWRHQBlogPost(ctx context.Context, post *models.WRHQBlogPost) error

	ImagesByContentItem(ctx context.Context, contentItemID uint) ([]models.Image, error)
	ReplaceImages(ctx context.Context, contentItemID uint, images []models.Image) error

	PodcastByContentItem(ctx context.Context, contentItemID uint) (*models.Podcast, error)
	UpsertPodcast(ctx context.Context, podcast *models.Podcast) error
	PodcastsProcessing(ctx context.Context) ([]models.Podcast, error)

	VideoByContentItem(ctx context.Context, contentItemID uint, videoType models.VideoType) (*models.Video, error)
	UpsertVideo(ctx context.Context, video *models.Video) error
	VideosProcessing(ctx context.Context) ([]models.Video, error)

	SocialPostsByContentItem(ctx context.Context, contentItemID uint) ([]models.SocialPost, error)
	ReplaceSocialPosts(ctx context.Context, contentItemID uint, posts []models.SocialPost) error
	SaveSocialPost(ctx context.Context, post *models.SocialPost) error

	WRHQSocialPostsByContentItem(ctx context.Context, contentItemID uint) ([]models.WRHQSocialPost, error)
	ReplaceWRHQSocialPosts(ctx context.Context, contentItemID uint, posts []models.WRHQSocialPost) error
	SaveWRHQSocialPost(ctx context.Context, post *models.WRHQSocialPost) error
}

// Recorder is the slice of the monitoring service the pipeline records to
type Recorder interface {
	RecordStepError(contentItemID uint, step, message string)
	RecordMetric(name string, value float64, tags map[string]string)
}

// NopRecorder satisfies Recorder for tests and optional wiring
type NopRecorder struct{}

func (NopRecorder) RecordStepError(uint, string, string)          {}
func (NopRecorder) RecordMetric(string, float64, map[string]string) {}
