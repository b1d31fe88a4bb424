package models

import (
	"time"

	"gorm.io/gorm"
)

// JobStatus tracks a long-running external generation job (podcast, video)
type JobStatus string

const (
	JobProcessing JobStatus = "PROCESSING"
	JobReady      JobStatus = "READY"
	JobPublished  JobStatus = "PUBLISHED"
	JobFailed     JobStatus = "FAILED"
)

// Resolved reports whether the job reached a terminal state. A FAILED job
// counts as resolved so a dead video never blocks the rest of the post.
func (s JobStatus) Resolved() bool {
	return s == JobReady || s == JobPublished || s == JobFailed
}

// BlogPost is the client-site article, 1:1 with a content item. Content is
// written by generation and later mutated in place by embed splicing.
type BlogPost struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ContentItemID uint   `gorm:"uniqueIndex;not null" json:"content_item_id"`
	Title         string `gorm:"not null;size:500" json:"title"`
	Slug          string `gorm:"size:500" json:"slug"`
	Content       string `gorm:"type:text" json:"content"`
	MetaTitle     string `gorm:"size:500" json:"meta_title"`
	MetaDescription string `gorm:"size:1000" json:"meta_description"`
	FeaturedImageURL string `gorm:"size:1000" json:"featured_image_url"`

	WordPressPostID int        `json:"wordpress_post_id"`
	WordPressURL    string     `gorm:"size:1000" json:"wordpress_url"`
	PublishedAt     *time.Time `json:"published_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// WRHQBlogPost mirrors the article onto the partner directory site
type WRHQBlogPost struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ContentItemID uint   `gorm:"uniqueIndex;not null" json:"content_item_id"`
	Title         string `gorm:"not null;size:500" json:"title"`
	Slug          string `gorm:"size:500" json:"slug"`
	Content       string `gorm:"type:text" json:"content"`
	MetaTitle     string `gorm:"size:500" json:"meta_title"`
	MetaDescription string `gorm:"size:1000" json:"meta_description"`
	FeaturedImageURL string `gorm:"size:1000" json:"featured_image_url"`

	WordPressPostID int        `json:"wordpress_post_id"`
	WordPressURL    string     `gorm:"size:1000" json:"wordpress_url"`
	PublishedAt     *time.Time `json:"published_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// ImageType tags what a generated image is for
type ImageType string

const (
	ImageBlogFeatured  ImageType = "BLOG_FEATURED"
	ImageBlogBody      ImageType = "BLOG_BODY"
	ImageInstagramFeed ImageType = "INSTAGRAM_FEED"
	ImageFacebookFeed  ImageType = "FACEBOOK_FEED"
	ImageWRHQFeatured  ImageType = "WRHQ_FEATURED"
)

// Image rows are deleted and regenerated wholesale on each image run
type Image struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ContentItemID uint      `gorm:"not null;index" json:"content_item_id"`
	Type          ImageType `gorm:"size:50;not null" json:"type"`
	URL           string    `gorm:"size:1000;not null" json:"url"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	Prompt        string    `gorm:"type:text" json:"prompt"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Podcast is 1:1 with a content item; generation is an external async job
type Podcast struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ContentItemID uint      `gorm:"uniqueIndex;not null" json:"content_item_id"`
	Script        string    `gorm:"type:text" json:"script"`
	ProviderJobID string    `gorm:"size:200;index" json:"provider_job_id"`
	Status        JobStatus `gorm:"size:50;default:'PROCESSING'" json:"status"`
	AudioURL      string    `gorm:"size:1000" json:"audio_url"`
	DurationSecs  int       `json:"duration_secs"`
	PlayerEmbedURL string   `gorm:"size:1000" json:"player_embed_url"`
	PodbeanEpisodeID string `gorm:"size:200" json:"podbean_episode_id"`
	Error         string    `gorm:"type:text" json:"error"`
	PublishedAt   *time.Time `json:"published_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// VideoType distinguishes video rows per content item
type VideoType string

const (
	VideoShort VideoType = "SHORT"
)

// Video follows the same provider-job pattern as Podcast, one row per type
type Video struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ContentItemID uint      `gorm:"not null;index" json:"content_item_id"`
	Type          VideoType `gorm:"size:50;not null;default:'SHORT'" json:"type"`
	ProviderJobID string    `gorm:"size:200;index" json:"provider_job_id"`
	Status        JobStatus `gorm:"size:50;default:'PROCESSING'" json:"status"`
	VideoURL      string    `gorm:"size:1000" json:"video_url"`
	ThumbnailURL  string    `gorm:"size:1000" json:"thumbnail_url"`
	StorageURL    string    `gorm:"size:1000" json:"storage_url"`
	DurationSecs  int       `json:"duration_secs"`
	Title         string    `gorm:"size:500" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	YouTubeVideoID string   `gorm:"size:100" json:"youtube_video_id"`
	Error         string    `gorm:"type:text" json:"error"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
