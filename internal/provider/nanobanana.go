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

// NanoBananaClient implements ImageGenerator against the Gemini image API
type NanoBananaClient struct {
	config *config.NanoBananaConfig
	client *http.Client
	logger *zap.Logger
}

func NewNanoBananaClient(cfg *config.NanoBananaConfig, logger *zap.Logger) *NanoBananaClient {
	return &NanoBananaClient{
		config: cfg,
		client: &http.Client{Timeout: 120 * time.Second},
		logger: logger,
	}
}

func (c *NanoBananaClient) Generate(ctx context.Context, req ImageRequest) (string, error) {
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateImage", c.config.Model)

	body := map[string]any{
		"prompt": map[string]string{"text": req.Prompt},
		"imageGenerationConfig": map[string]any{
			"width":          req.Width,
			"height":         req.Height,
			"numberOfImages": 1,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("x-goog-api-key", c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("image API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Images) == 0 || response.Images[0].URL == "" {
		return "", fmt.Errorf("image API returned no images")
	}

	c.logger.Debug("Image generated",
		zap.Int("width", req.Width),
		zap.Int("height", req.Height))

	return response.Images[0].URL, nil
}
