package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/glazehq/glazer/internal/models"
	"github.com/glazehq/glazer/internal/pipeline"
	"github.com/glazehq/glazer/internal/publish"
)

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "TOTP code is required"})
		return
	}

	if !s.Auth.ValidateCode(req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid TOTP code"})
		return
	}

	token := s.Auth.CreateSession()
	c.SetCookie("auth_token", token, int(s.Auth.SessionTTL().Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
}

func (s *Server) handleCreateContent(c *gin.Context) {
	var req struct {
		ClientID    uint   `json:"clientId" binding:"required"`
		PAAQuestion string `json:"paaQuestion" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := s.Store.ClientByID(c.Request.Context(), req.ClientID); err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		s.Logger.Error("Failed to load client", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create content item"})
		return
	}

	item := &models.ContentItem{
		PublicID:    uuid.NewString(),
		ClientID:    req.ClientID,
		PAAQuestion: strings.TrimSpace(req.PAAQuestion),
		Status:      models.StatusDraft,
	}
	if err := s.Store.CreateContentItem(c.Request.Context(), item); err != nil {
		s.Logger.Error("Failed to create content item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create content item"})
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (s *Server) handleListContent(c *gin.Context) {
	var clientID uint
	if raw := c.Query("client_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client_id"})
			return
		}
		clientID = uint(parsed)
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	items, total, err := s.Store.ContentItemsByClient(c.Request.Context(), clientID, limit, offset)
	if err != nil {
		s.Logger.Error("Failed to list content items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list content items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (s *Server) handleGetContent(c *gin.Context) {
	item, ok := s.loadItem(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, item)
}

// patchableFields is the allow-list for partial updates. Status moves only
// through the pipeline's transition function, never through PATCH.
var patchableFields = map[string]func(*models.ContentItem, any) bool{
	"paa_question":          func(i *models.ContentItem, v any) bool { return setString(&i.PAAQuestion, v) },
	"blog_approved":         func(i *models.ContentItem, v any) bool { return setBool(&i.BlogApproved, v) },
	"images_approved":       func(i *models.ContentItem, v any) bool { return setBool(&i.ImagesApproved, v) },
	"social_approved":       func(i *models.ContentItem, v any) bool { return setBool(&i.SocialApproved, v) },
	"wrhq_blog_approved":    func(i *models.ContentItem, v any) bool { return setBool(&i.WRHQBlogApproved, v) },
	"wrhq_social_approved":  func(i *models.ContentItem, v any) bool { return setBool(&i.WRHQSocialApproved, v) },
	"podcast_approved":      func(i *models.ContentItem, v any) bool { return setBool(&i.PodcastApproved, v) },
	"short_video_approved":  func(i *models.ContentItem, v any) bool { return setBool(&i.ShortVideoApproved, v) },
}

func setBool(dst *bool, v any) bool {
	b, ok := v.(bool)
	if ok {
		*dst = b
	}
	return ok
}

func setString(dst *string, v any) bool {
	str, ok := v.(string)
	if ok && strings.TrimSpace(str) != "" {
		*dst = strings.TrimSpace(str)
		return true
	}
	return false
}

func (s *Server) handleUpdateContent(c *gin.Context) {
	item, ok := s.loadItem(c)
	if !ok {
		return
	}

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	for name, value := range fields {
		apply, allowed := patchableFields[name]
		if !allowed {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Field not updatable: " + name})
			return
		}
		if !apply(item, value) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid value for field: " + name})
			return
		}
	}

	if err := s.Store.SaveContentItem(c.Request.Context(), item); err != nil {
		s.Logger.Error("Failed to update content item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update content item"})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) handleTrashContent(c *gin.Context) {
	item, ok := s.loadItem(c)
	if !ok {
		return
	}

	// External jobs still running are left alone; the poller no-ops once
	// the row is gone
	if err := s.Store.TrashContentItem(c.Request.Context(), item); err != nil {
		s.Logger.Error("Failed to trash content item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trash content item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Content item trashed"})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req pipeline.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	results, ok, err := s.Generator.Generate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Content item not found"})
			return
		}
		if errors.Is(err, pipeline.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "Content item is not in a state that allows generation"})
			return
		}
		s.Logger.Error("Generation run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": ok, "results": results.Map()})
}

func (s *Server) handlePublish(c *gin.Context) {
	var req publish.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	if !req.Any() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No publish steps selected"})
		return
	}

	results, err := s.Publisher.Publish(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Content item not found"})
			return
		}
		s.Logger.Error("Publish run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Publish failed"})
		return
	}

	status := http.StatusOK
	if results.Blocked() {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"success": results.OK(), "results": results.Map()})
}

func (s *Server) handleRepublishBlog(c *gin.Context) {
	results, err := s.Publisher.RepublishBlog(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Content item not found"})
			return
		}
		s.Logger.Error("Republish run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Republish failed"})
		return
	}

	status := http.StatusOK
	if results.Blocked() {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"success": results.OK(), "results": results.Map()})
}

func (s *Server) handlePodcastStatus(c *gin.Context) {
	item, ok := s.loadItem(c)
	if !ok {
		return
	}

	podcast, err := s.Store.PodcastByContentItem(c.Request.Context(), item.ID)
	if errors.Is(err, pipeline.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"status": "not_found"})
		return
	}
	if err != nil {
		s.Logger.Error("Failed to load podcast", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load podcast"})
		return
	}

	// Opportunistic check so a dashboard poll can observe completion before
	// the background poller's next tick
	if podcast.Status == models.JobProcessing {
		if _, err := s.Poller.CheckPodcastJob(c.Request.Context(), podcast); err != nil {
			s.Logger.Warn("Podcast status check failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           strings.ToLower(string(podcast.Status)),
		"audio_url":        podcast.AudioURL,
		"player_embed_url": podcast.PlayerEmbedURL,
		"duration_secs":    podcast.DurationSecs,
		"error":            podcast.Error,
	})
}

func (s *Server) handleVideoStatus(c *gin.Context) {
	item, ok := s.loadItem(c)
	if !ok {
		return
	}

	video, err := s.Store.VideoByContentItem(c.Request.Context(), item.ID, models.VideoShort)
	if errors.Is(err, pipeline.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"status": "not_found"})
		return
	}
	if err != nil {
		s.Logger.Error("Failed to load video", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load video"})
		return
	}

	if video.Status == models.JobProcessing {
		if _, err := s.Poller.CheckVideoJob(c.Request.Context(), video); err != nil {
			s.Logger.Warn("Video status check failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           strings.ToLower(string(video.Status)),
		"video_url":        video.VideoURL,
		"storage_url":      video.StorageURL,
		"thumbnail_url":    video.ThumbnailURL,
		"youtube_video_id": video.YouTubeVideoID,
		"duration_secs":    video.DurationSecs,
		"error":            video.Error,
	})
}

func (s *Server) handleRecentErrors(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	errorLogs, err := s.Monitoring.GetRecentErrors(limit)
	if err != nil {
		s.Logger.Error("Failed to load error logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load error logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"errors": errorLogs})
}

func (s *Server) handlePipelineStats(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 90 {
			days = parsed
		}
	}

	stats, err := s.Monitoring.GetPipelineStats(days)
	if err != nil {
		s.Logger.Error("Failed to load pipeline stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pipeline stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// loadItem resolves the :id path param (public id) to a content item,
// writing the error response itself when the lookup fails
func (s *Server) loadItem(c *gin.Context) (*models.ContentItem, bool) {
	item, err := s.Store.ContentItemByPublicID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, pipeline.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content item not found"})
		return nil, false
	}
	if err != nil {
		s.Logger.Error("Failed to load content item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load content item"})
		return nil, false
	}
	return item, true
}
