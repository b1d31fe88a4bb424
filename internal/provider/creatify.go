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

// CreatifyClient implements VideoJobs against the Creatify render queue
type CreatifyClient struct {
	config *config.CreatifyConfig
	client *http.Client
	logger *zap.Logger
}

func NewCreatifyClient(cfg *config.CreatifyConfig, logger *zap.Logger) *CreatifyClient {
	return &CreatifyClient{
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}
}

func (c *CreatifyClient) setAuth(req *http.Request) {
	req.Header.Set("X-API-ID", c.config.APIID)
	req.Header.Set("X-API-KEY", c.config.APIKey)
}

func (c *CreatifyClient) CreateJob(ctx context.Context, title, script string) (string, error) {
	body := map[string]any{
		"name":         title,
		"script":       script,
		"aspect_ratio": "9:16",
		"video_length": 45,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/lipsyncs/", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	c.setAuth(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("creatify API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if response.ID == "" {
		return "", fmt.Errorf("creatify API returned empty job id")
	}

	c.logger.Info("Video job created", zap.String("job_id", response.ID))
	return response.ID, nil
}

func (c *CreatifyClient) GetJob(ctx context.Context, jobID string) (*JobState, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.config.BaseURL+"/api/lipsyncs/"+jobID+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("creatify API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		Status       string  `json:"status"`
		VideoOutput  string  `json:"video_output"`
		VideoThumbnail string `json:"video_thumbnail"`
		Duration     float64 `json:"duration"`
		FailedReason string  `json:"failed_reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	state := &JobState{
		ResultURL:    response.VideoOutput,
		ThumbnailURL: response.VideoThumbnail,
		DurationSecs: int(response.Duration),
		Error:        response.FailedReason,
	}

	switch response.Status {
	case "done":
		state.Status = JobStateCompleted
	case "failed", "rejected":
		state.Status = JobStateFailed
		if state.Error == "" {
			state.Error = "video render failed"
		}
	default:
		// pending, in_queue, running
		state.Status = JobStateProcessing
	}

	return state, nil
}
