package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/glazehq/glazer/internal/models"
	"github.com/glazehq/glazer/internal/pipeline"
)

// GormStore backs pipeline.Store with postgres. Missing rows are mapped to
// pipeline.ErrNotFound so callers never see gorm errors.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pipeline.ErrNotFound
	}
	return err
}

func (s *GormStore) ContentItemByPublicID(ctx context.Context, publicID string) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := s.db.WithContext(ctx).Where("public_id = ?", publicID).First(&item).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &item, nil
}

func (s *GormStore) ContentItemByID(ctx context.Context, id uint) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &item, nil
}

func (s *GormStore) SaveContentItem(ctx context.Context, item *models.ContentItem) error {
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *GormStore) ClientByID(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &client, nil
}

func (s *GormStore) BlogPostByContentItem(ctx context.Context, contentItemID uint) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := s.db.WithContext(ctx).Where("content_item_id = ?", contentItemID).First(&post).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &post, nil
}

func (s *GormStore) UpsertBlogPost(ctx context.Context, post *models.BlogPost) error {
	return s.db.WithContext(ctx).Save(post).Error
}

func (s *GormStore) WRHQBlogPostByContentItem(ctx context.Context, contentItemID uint) (*models.WRHQBlogPost, error) {
	var post models.WRHQBlogPost
	if err := s.db.WithContext(ctx).Where("content_item_id = ?", contentItemID).First(&post).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &post, nil
}

func (s *GormStore) UpsertWRHQBlogPost(ctx context.Context, post *models.WRHQBlogPost) error {
	return s.db.WithContext(ctx).Save(post).Error
}

func (s *GormStore) ImagesByContentItem(ctx context.Context, contentItemID uint) ([]models.Image, error) {
	var images []models.Image
	err := s.db.WithContext(ctx).Where("content_item_id = ?", contentItemID).Order("id").Find(&images).Error
	return images, err
}

// ReplaceImages swaps the full image set in one transaction; image runs
// always regenerate everything
func (s *GormStore) ReplaceImages(ctx context.Context, contentItemID uint, images []models.Image) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_item_id = ?", contentItemID).Delete(&models.Image{}).Error; err != nil {
			return err
		}
		if len(images) == 0 {
			return nil
		}
		return tx.Create(&images).Error
	})
}

func (s *GormStore) PodcastByContentItem(ctx context.Context, contentItemID uint) (*models.Podcast, error) {
	var podcast models.Podcast
	if err := s.db.WithContext(ctx).Where("content_item_id = ?", contentItemID).First(&podcast).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &podcast, nil
}

func (s *GormStore) UpsertPodcast(ctx context.Context, podcast *models.Podcast) error {
	return s.db.WithContext(ctx).Save(podcast).Error
}

func (s *GormStore) PodcastsProcessing(ctx context.Context) ([]models.Podcast, error) {
	var podcasts []models.Podcast
	err := s.db.WithContext(ctx).Where("status = ?", models.JobProcessing).Find(&podcasts).Error
	return podcasts, err
}

func (s *GormStore) VideoByContentItem(ctx context.Context, contentItemID uint, videoType models.VideoType) (*models.Video, error) {
	var video models.Video
	if err := s.db.WithContext(ctx).Where("content_item_id = ? AND type = ?", contentItemID, videoType).First(&video).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &video, nil
}

func (s *GormStore) UpsertVideo(ctx context.Context, video *models.Video) error {
	return s.db.WithContext(ctx).Save(video).Error
}

func (s *GormStore) VideosProcessing(ctx context.Context) ([]models.Video, error) {
	var videos []models.Video
	err := s.db.WithContext(ctx).Where("status = ?", models.JobProcessing).Find(&videos).Error
	return videos, err
}

func (s *GormStore) SocialPostsByContentItem(ctx context.Context, contentItemID uint) ([]models.SocialPost, error) {
	var posts []models.SocialPost
	err := s.db.WithContext(ctx).Where("content_item_id = ?", contentItemID).Order("platform").Find(&posts).Error
	return posts, err
}

func (s *GormStore) ReplaceSocialPosts(ctx context.Context, contentItemID uint, posts []models.SocialPost) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("content_item_id = ?", contentItemID).Delete(&models.SocialPost{}).Error; err != nil {
			return err
		}
		if len(posts) == 0 {
			return nil
		}
		return tx.Create(&posts).Error
	})
}

func (s *GormStore) SaveSocialPost(ctx context.Context, post *models.SocialPost) error {
	return s.db.WithContext(ctx).Save(post).Error
}

func (s *GormStore) WRHQSocialPostsByContentItem(ctx context.Context, contentItemID uint) ([]models.WRHQSocialPost, error) {
	var posts []models.WRHQSocialPost
	err := s.db.WithContext(ctx).Where("content_item_id = ?", contentItemID).Order("platform").Find(&posts).Error
	return posts, err
}

func (s *GormStore) ReplaceWRHQSocialPosts(ctx context.Context, contentItemID uint, posts []models.WRHQSocialPost) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("content_item_id = ?", contentItemID).Delete(&models.WRHQSocialPost{}).Error; err != nil {
			return err
		}
		if len(posts) == 0 {
			return nil
		}
		return tx.Create(&posts).Error
	})
}

func (s *GormStore) SaveWRHQSocialPost(ctx context.Context, post *models.WRHQSocialPost) error {
	return s.db.WithContext(ctx).Save(post).Error
}

// TrashContentItem soft-deletes the item and its assets. External jobs still
// in flight are not cancelled; the poller no-ops when the row is gone.
func (s *GormStore) TrashContentItem(ctx context.Context, item *models.ContentItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.BlogPost{}, &models.WRHQBlogPost{},
			&models.SocialPost{}, &models.WRHQSocialPost{},
		} {
			if err := tx.Where("content_item_id = ?", item.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(item).Error
	})
}

// ContentItemsByClient lists items for the admin dashboard, newest first
func (s *GormStore) ContentItemsByClient(ctx context.Context, clientID uint, limit, offset int) ([]models.ContentItem, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ContentItem{})
	if clientID != 0 {
		query = query.Where("client_id = ?", clientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.ContentItem
	err := query.Preload("Client").Order("created_at desc").Limit(limit).Offset(offset).Find(&items).Error
	return items, total, err
}

func (s *GormStore) CreateContentItem(ctx context.Context, item *models.ContentItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}
