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

// YouTubeClient implements VideoHost against the YouTube Data API using the
// simple (non-resumable) upload path; shorts are small enough for it.
type YouTubeClient struct {
	config *config.YouTubeConfig
	client *http.Client
	logger *zap.Logger
}

func NewYouTubeClient(cfg *config.YouTubeConfig, logger *zap.Logger) *YouTubeClient {
	return &YouTubeClient{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Minute},
		logger: logger,
	}
}

func (c *YouTubeClient) Upload(ctx context.Context, videoURL, title, description string) (string, error) {
	srcReq, err := http.NewRequestWithContext(ctx, "GET", videoURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create source request: %w", err)
	}

	srcResp, err := c.client.Do(srcReq)
	if err != nil {
		return "", fmt.Errorf("failed to fetch video asset: %w", err)
	}
	defer srcResp.Body.Close()

	if srcResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("video asset returned status %d", srcResp.StatusCode)
	}

	metadata := map[string]any{
		"snippet": map[string]any{
			"title":       title,
			"description": description,
			"categoryId":  "2", // Autos & Vehicles
		},
		"status": map[string]any{
			"privacyStatus":           "public",
			"selfDeclaredMadeForKids": false,
		},
	}

	// Start a resumable session with the metadata, then send the bytes
	metaBody, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	initReq, err := http.NewRequestWithContext(ctx, "POST",
		"https://www.googleapis.com/upload/youtube/v3/videos?uploadType=resumable&part=snippet,status",
		bytes.NewBuffer(metaBody))
	if err != nil {
		return "", fmt.Errorf("failed to create init request: %w", err)
	}
	initReq.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	initReq.Header.Set("Content-Type", "application/json")

	initResp, err := c.client.Do(initReq)
	if err != nil {
		return "", fmt.Errorf("failed to initiate upload: %w", err)
	}
	defer initResp.Body.Close()

	if initResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(initResp.Body)
		return "", fmt.Errorf("youtube API returned status %d: %s", initResp.StatusCode, string(respBody))
	}

	sessionURL := initResp.Header.Get("Location")
	if sessionURL == "" {
		return "", fmt.Errorf("youtube API returned no upload session")
	}

	uploadReq, err := http.NewRequestWithContext(ctx, "PUT", sessionURL, srcResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	uploadReq.Header.Set("Content-Type", "video/mp4")
	if srcResp.ContentLength > 0 {
		uploadReq.ContentLength = srcResp.ContentLength
	}

	resp, err := c.client.Do(uploadReq)
	if err != nil {
		return "", fmt.Errorf("failed to upload video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("youtube upload returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if response.ID == "" {
		return "", fmt.Errorf("youtube API returned empty video id")
	}

	c.logger.Info("Video uploaded to YouTube", zap.String("video_id", response.ID))
	return response.ID, nil
}
