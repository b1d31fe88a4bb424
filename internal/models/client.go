package models

import (
	"time"

	"gorm.io/gorm"
)

// Client is a tenant: one franchise business with its own branding,
// publishing credentials and platform flags.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:200" json:"name"`
	Slug      string         `gorm:"uniqueIndex;not null;size:200" json:"slug"`
	City      string         `gorm:"size:100" json:"city"`
	State     string         `gorm:"size:50" json:"state"`
	BrandVoice string        `gorm:"type:text" json:"brand_voice"`
	CTAText   string         `gorm:"size:500" json:"cta_text"`
	Phone     string         `gorm:"size:50" json:"phone"`
	WebsiteURL string        `gorm:"size:500" json:"website_url"`

	// Service-area locations, used for map embeds and local SEO copy
	ServiceAreas StringArray `gorm:"type:text[]" json:"service_areas"`

	// WordPress credentials (application password auth)
	WordPressURL     string `gorm:"size:500" json:"wordpress_url"`
	WordPressUser    string `gorm:"size:200" json:"wordpress_user"`
	WordPressAppPass string `gorm:"size:200" json:"-"`

	// Social scheduling
	GetLateAccountID string      `gorm:"size:200" json:"getlate_account_id"`
	EnabledPlatforms StringArray `gorm:"type:text[]" json:"enabled_platforms"`

	YouTubeChannelID string `gorm:"size:200" json:"youtube_channel_id"`
	WRHQEnabled      bool   `gorm:"default:false" json:"wrhq_enabled"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
