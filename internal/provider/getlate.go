package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/glazehq/glazer/internal/config"
)

// GetLateClient implements SocialScheduler against the GetLate API
type GetLateClient struct {
	config *config.GetLateConfig
	client *http.Client
	logger *zap.Logger
}

func NewGetLateClient(cfg *config.GetLateConfig, logger *zap.Logger) *GetLateClient {
	return &GetLateClient{
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}
}

func (c *GetLateClient) CreatePost(ctx context.Context, req SchedulePostRequest) (*ScheduledPost, error) {
	mediaItems := make([]map[string]string, 0, len(req.MediaURLs))
	for _, u := range req.MediaURLs {
		mediaItems = append(mediaItems, map[string]string{
			"type": req.MediaType,
			"url":  u,
		})
	}

	body := map[string]any{
		"content": req.Caption,
		"platforms": []map[string]any{{
			"platform":  req.Platform,
			"accountId": req.AccountID,
		}},
		"mediaItems": mediaItems,
		"publishNow": true,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/posts", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("getlate API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		Post struct {
			ID        string `json:"_id"`
			Platforms []struct {
				Platform    string `json:"platform"`
				PlatformURL string `json:"platformUrl"`
			} `json:"platforms"`
		} `json:"post"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Post.ID == "" {
		return nil, fmt.Errorf("getlate API returned empty post id")
	}

	post := &ScheduledPost{ID: response.Post.ID}
	for _, p := range response.Post.Platforms {
		if p.Platform == req.Platform && p.PlatformURL != "" {
			post.URL = p.PlatformURL
		}
	}

	c.logger.Info("Social post dispatched",
		zap.String("platform", req.Platform),
		zap.String("post_id", post.ID))

	return post, nil
}
