package models

import (
	"time"

	"gorm.io/gorm"
)

// PublishState tracks whether a social post has been handed to the scheduler
type PublishState string

const (
	PublishPending   PublishState = "PENDING"
	PublishScheduled PublishState = "SCHEDULED"
	PublishDone      PublishState = "PUBLISHED"
	PublishFailed    PublishState = "FAILED"
)

// SocialPost holds one generated caption per platform for a content item
type SocialPost struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	ContentItemID uint        `gorm:"not null;index" json:"content_item_id"`
	Platform      string      `gorm:"size:50;not null" json:"platform"`
	Caption       string      `gorm:"type:text" json:"caption"`
	Hashtags      StringArray `gorm:"type:text[]" json:"hashtags"`
	MediaURLs     StringArray `gorm:"type:text[]" json:"media_urls"`
	MediaType     string      `gorm:"size:50" json:"media_type"`

	Approved      bool         `gorm:"default:false" json:"approved"`
	PublishStatus PublishState `gorm:"size:50;default:'PENDING'" json:"publish_status"`

	ExternalPostID  string     `gorm:"size:200" json:"external_post_id"`
	ExternalPostURL string     `gorm:"size:1000" json:"external_post_url"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	PublishedAt     *time.Time `json:"published_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// WRHQSocialPost is the partner-site mirror of SocialPost
type WRHQSocialPost struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	ContentItemID uint        `gorm:"not null;index" json:"content_item_id"`
	Platform      string      `gorm:"size:50;not null" json:"platform"`
	Caption       string      `gorm:"type:text" json:"caption"`
	Hashtags      StringArray `gorm:"type:text[]" json:"hashtags"`
	MediaURLs     StringArray `gorm:"type:text[]" json:"media_urls"`
	MediaType     string      `gorm:"size:50" json:"media_type"`

	Approved      bool         `gorm:"default:false" json:"approved"`
	PublishStatus PublishState `gorm:"size:50;default:'PENDING'" json:"publish_status"`

	ExternalPostID  string     `gorm:"size:200" json:"external_post_id"`
	ExternalPostURL string     `gorm:"size:1000" json:"external_post_url"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	PublishedAt     *time.Time `json:"published_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
