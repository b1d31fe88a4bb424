package service

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/glazehq/glazer/internal/models"
)

type MonitoringService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewMonitoringService(db *gorm.DB, logger *zap.Logger) *MonitoringService {
	return &MonitoringService{
		db:     db,
		logger: logger,
	}
}

// RecordError persists an operator-facing failure
func (m *MonitoringService) RecordError(level, source, title, message string, options ...ErrorLogOption) error {
	errorLog := &models.ErrorLog{
		Level:   level,
		Source:  source,
		Title:   title,
		Message: message,
	}

	for _, option := range options {
		option(errorLog)
	}

	return m.db.Create(errorLog).Error
}

type ErrorLogOption func(*models.ErrorLog)

func WithPlatform(platform string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.Platform = platform
	}
}

func WithContentItem(contentItemID uint) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.ContentItemID = &contentItemID
	}
}

func WithStep(step string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		e.Step = step
	}
}

func WithContext(context map[string]interface{}) ErrorLogOption {
	return func(e *models.ErrorLog) {
		if contextBytes, err := json.Marshal(context); err == nil {
			e.Context = string(contextBytes)
		}
	}
}

// RecordStepError satisfies the pipeline recorder interface
func (m *MonitoringService) RecordStepError(contentItemID uint, step, message string) {
	if err := m.RecordError("error", "pipeline", "Pipeline step failed", message,
		WithContentItem(contentItemID), WithStep(step)); err != nil {
		m.logger.Error("Failed to record step error", zap.Error(err))
	}
}

// RecordMetric stores a single counter observation
func (m *MonitoringService) RecordMetric(name string, value float64, tags map[string]string) {
	var tagsJSON string
	if tags != nil {
		if tagsBytes, err := json.Marshal(tags); err == nil {
			tagsJSON = string(tagsBytes)
		}
	}

	metric := &models.MetricsSample{
		MetricName: name,
		MetricType: "counter",
		Value:      value,
		Tags:       tagsJSON,
		Timestamp:  time.Now(),
	}

	if err := m.db.Create(metric).Error; err != nil {
		m.logger.Error("Failed to record metric", zap.String("name", name), zap.Error(err))
	}
}

// UpdatePipelineStats refreshes today's throughput counters
func (m *MonitoringService) UpdatePipelineStats() error {
	today := time.Now().Truncate(24 * time.Hour)

	var stats models.PipelineStats
	result := m.db.Where("date = ?", today).First(&stats)

	var totalItems, inReview, published, failed int64
	m.db.Model(&models.ContentItem{}).Count(&totalItems)
	m.db.Model(&models.ContentItem{}).Where("status = ?", models.StatusReview).Count(&inReview)
	m.db.Model(&models.ContentItem{}).Where("status = ?", models.StatusPublished).Count(&published)
	m.db.Model(&models.ContentItem{}).Where("status = ?", models.StatusFailed).Count(&failed)

	var podcastsProcessing, videosProcessing int64
	m.db.Model(&models.Podcast{}).Where("status = ?", models.JobProcessing).Count(&podcastsProcessing)
	m.db.Model(&models.Video{}).Where("status = ?", models.JobProcessing).Count(&videosProcessing)

	if result.Error == gorm.ErrRecordNotFound {
		stats = models.PipelineStats{
			Date:               today,
			TotalContentItems:  int(totalItems),
			ItemsInReview:      int(inReview),
			ItemsPublished:     int(published),
			ItemsFailed:        int(failed),
			PodcastsProcessing: int(podcastsProcessing),
			VideosProcessing:   int(videosProcessing),
		}
		return m.db.Create(&stats).Error
	}

	return m.db.Model(&stats).Updates(map[string]interface{}{
		"total_content_items": totalItems,
		"items_in_review":     inReview,
		"items_published":     published,
		"items_failed":        failed,
		"podcasts_processing": podcastsProcessing,
		"videos_processing":   videosProcessing,
	}).Error
}

// GetRecentErrors returns the most recent error logs for the dashboard
func (m *MonitoringService) GetRecentErrors(limit int) ([]models.ErrorLog, error) {
	var errors []models.ErrorLog
	err := m.db.Order("created_at desc").
		Limit(limit).
		Find(&errors).Error
	return errors, err
}

// GetPipelineStats returns daily throughput rows for the last N days
func (m *MonitoringService) GetPipelineStats(days int) ([]models.PipelineStats, error) {
	var stats []models.PipelineStats
	startDate := time.Now().AddDate(0, 0, -days).Truncate(24 * time.Hour)

	err := m.db.Where("date >= ?", startDate).
		Order("date desc").
		Find(&stats).Error
	return stats, err
}

// CleanupOldData prunes stale metrics, stats and resolved error logs
func (m *MonitoringService) CleanupOldData(daysToKeep int) error {
	cutoffDate := time.Now().AddDate(0, 0, -daysToKeep)

	if err := m.db.Where("timestamp < ?", cutoffDate).Delete(&models.MetricsSample{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup metrics samples: %w", err)
	}

	if err := m.db.Where("date < ?", cutoffDate).Delete(&models.PipelineStats{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup pipeline stats: %w", err)
	}

	if err := m.db.Where("created_at < ? AND resolved = ?", cutoffDate, true).Delete(&models.ErrorLog{}).Error; err != nil {
		return fmt.Errorf("failed to cleanup resolved errors: %w", err)
	}

	return nil
}
