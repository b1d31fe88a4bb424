package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/glazehq/glazer/internal/config"
)

// GCSClient implements MediaStorage against the Cloud Storage JSON upload
// API. Provider asset URLs expire; finished audio/video is copied here so
// embeds keep working.
type GCSClient struct {
	config *config.StorageConfig
	client *http.Client
	logger *zap.Logger
}

func NewGCSClient(cfg *config.StorageConfig, logger *zap.Logger) *GCSClient {
	return &GCSClient{
		config: cfg,
		// Media copies can be large
		client: &http.Client{Timeout: 10 * time.Minute},
		logger: logger,
	}
}

func (c *GCSClient) UploadFromURL(ctx context.Context, sourceURL, objectName, contentType string) (string, error) {
	srcReq, err := http.NewRequestWithContext(ctx, "GET", sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create source request: %w", err)
	}

	srcResp, err := c.client.Do(srcReq)
	if err != nil {
		return "", fmt.Errorf("failed to fetch source asset: %w", err)
	}
	defer srcResp.Body.Close()

	if srcResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("source asset returned status %d", srcResp.StatusCode)
	}

	uploadURL := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		c.config.BaseURL, c.config.Bucket, url.QueryEscape(objectName))

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, srcResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Content-Type", contentType)
	if srcResp.ContentLength > 0 {
		req.ContentLength = srcResp.ContentLength
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload to storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("storage API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	publicURL := fmt.Sprintf("%s/%s/%s", c.config.BaseURL, c.config.Bucket, objectName)
	c.logger.Info("Asset uploaded to storage",
		zap.String("object", objectName),
		zap.String("url", publicURL))

	return publicURL, nil
}
