package models

import (
	"time"
)

// ErrorLog persists operator-facing failures from the pipeline and publishers
type ErrorLog struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Level         string     `gorm:"size:20;not null;index" json:"level"`
	Source        string     `gorm:"size:100;not null;index" json:"source"`
	Platform      string     `gorm:"size:100;index" json:"platform"`
	ContentItemID *uint      `gorm:"index" json:"content_item_id"`
	Step          string     `gorm:"size:50;index" json:"step"`
	Title         string     `gorm:"size:500;not null" json:"title"`
	Message       string     `gorm:"type:text;not null" json:"message"`
	Context       string     `gorm:"type:jsonb" json:"context"`
	Resolved      bool       `gorm:"default:false;index" json:"resolved"`
	ResolvedAt    *time.Time `json:"resolved_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// MetricsSample is a single counter/gauge observation
type MetricsSample struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MetricName string    `gorm:"size:100;not null;index" json:"metric_name"`
	MetricType string    `gorm:"size:50;not null" json:"metric_type"`
	Value      float64   `gorm:"not null" json:"value"`
	Tags       string    `gorm:"type:jsonb" json:"tags"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PipelineStats aggregates pipeline throughput per day
type PipelineStats struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Date               time.Time `gorm:"uniqueIndex;not null" json:"date"`
	TotalContentItems  int       `gorm:"default:0" json:"total_content_items"`
	ItemsInReview      int       `gorm:"default:0" json:"items_in_review"`
	ItemsPublished     int       `gorm:"default:0" json:"items_published"`
	ItemsFailed        int       `gorm:"default:0" json:"items_failed"`
	PodcastsProcessing int       `gorm:"default:0" json:"podcasts_processing"`
	VideosProcessing   int       `gorm:"default:0" json:"videos_processing"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
