package models

import (
	"time"

	"gorm.io/gorm"
)

// ContentStatus is the coarse lifecycle state of a content item. All
// mutations go through pipeline.Transition; nothing writes the column directly.
type ContentStatus string

const (
	StatusDraft      ContentStatus = "DRAFT"
	StatusGenerating ContentStatus = "GENERATING"
	StatusReview     ContentStatus = "REVIEW"
	StatusPublished  ContentStatus = "PUBLISHED"
	StatusFailed     ContentStatus = "FAILED"
)

// PipelineStep labels which generation phase is in progress
type PipelineStep string

const (
	StepIdle       PipelineStep = ""
	StepBlog       PipelineStep = "blog"
	StepImages     PipelineStep = "images"
	StepPodcast    PipelineStep = "podcast"
	StepSocial     PipelineStep = "social"
	StepWRHQBlog   PipelineStep = "wrhq_blog"
	StepWRHQSocial PipelineStep = "wrhq_social"
	StepShortVideo PipelineStep = "short_video"
	StepFinalize   PipelineStep = "finalize"
)

// ContentItem is the per-topic unit of work tracked through the
// generation/publish pipeline. Seeded from a People Also Ask question.
type ContentItem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	PublicID    string `gorm:"uniqueIndex;not null;size:36" json:"public_id"`
	ClientID    uint   `gorm:"not null;index" json:"client_id"`
	PAAQuestion string `gorm:"not null;size:500" json:"paa_question"`

	Status       ContentStatus `gorm:"size:50;default:'DRAFT'" json:"status"`
	PipelineStep PipelineStep  `gorm:"size:50;default:''" json:"pipeline_step"`

	// Per-artifact completion flags
	BlogGenerated       bool `gorm:"default:false" json:"blog_generated"`
	ImagesGenerated     bool `gorm:"default:false" json:"images_generated"`
	SocialGenerated     bool `gorm:"default:false" json:"social_generated"`
	WRHQBlogGenerated   bool `gorm:"default:false" json:"wrhq_blog_generated"`
	WRHQSocialGenerated bool `gorm:"default:false" json:"wrhq_social_generated"`
	PodcastGenerated    bool `gorm:"default:false" json:"podcast_generated"`
	ShortVideoGenerated bool `gorm:"default:false" json:"short_video_generated"`
	SchemaGenerated     bool `gorm:"default:false" json:"schema_generated"`

	// Per-artifact approval flags, set by operators through PATCH
	BlogApproved       bool `gorm:"default:false" json:"blog_approved"`
	ImagesApproved     bool `gorm:"default:false" json:"images_approved"`
	SocialApproved     bool `gorm:"default:false" json:"social_approved"`
	WRHQBlogApproved   bool `gorm:"default:false" json:"wrhq_blog_approved"`
	WRHQSocialApproved bool `gorm:"default:false" json:"wrhq_social_approved"`
	PodcastApproved    bool `gorm:"default:false" json:"podcast_approved"`
	ShortVideoApproved bool `gorm:"default:false" json:"short_video_approved"`

	PodcastAddedToPost bool `gorm:"default:false" json:"podcast_added_to_post"`
	VideoAddedToPost   bool `gorm:"default:false" json:"video_added_to_post"`

	// JSON-serialized step-result map from the last generation run
	LastError string `gorm:"type:text" json:"last_error"`

	// JSON-LD structured data generated during finalize
	SEOSchema string `gorm:"type:text" json:"seo_schema"`

	PublishedAt *time.Time     `json:"published_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Client Client `gorm:"foreignKey:ClientID" json:"client"`
}
