package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/glazehq/glazer/internal/config"
)

// AutoContentClient implements PodcastJobs against the AutoContent API.
// Audio generation runs on their queue; CreateJob returns immediately with
// a request id the poller checks later.
type AutoContentClient struct {
	config *config.AutoContentConfig
	client *http.Client
	logger *zap.Logger
}

func NewAutoContentClient(cfg *config.AutoContentConfig, logger *zap.Logger) *AutoContentClient {
	return &AutoContentClient{
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}
}

func (c *AutoContentClient) CreateJob(ctx context.Context, title, script string) (string, error) {
	body := map[string]any{
		"resources":   []map[string]string{{"type": "text", "content": script}},
		"text":        fmt.Sprintf("Two-host podcast episode: %s", title),
		"outputType":  "audio",
		"includeCitations": false,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/content/create", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("autocontent API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if response.RequestID == "" {
		return "", fmt.Errorf("autocontent API returned empty request id")
	}

	c.logger.Info("Podcast job created", zap.String("job_id", response.RequestID))
	return response.RequestID, nil
}

func (c *AutoContentClient) GetJob(ctx context.Context, jobID string) (*JobState, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.config.BaseURL+"/content/status/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("autocontent API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		Status       int    `json:"status"`
		AudioURL     string `json:"audio_url"`
		AudioDuration float64 `json:"audio_duration"`
		ErrorMessage string `json:"error_message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	state := &JobState{
		ResultURL:    response.AudioURL,
		DurationSecs: int(response.AudioDuration),
		Error:        response.ErrorMessage,
	}

	// AutoContent reports status as a percentage; 100 means done
	switch {
	case response.ErrorMessage != "" || response.Status < 0:
		state.Status = JobStateFailed
		if state.Error == "" {
			state.Error = "audio generation failed"
		}
	case response.Status >= 100 && strings.TrimSpace(response.AudioURL) != "":
		state.Status = JobStateCompleted
	default:
		state.Status = JobStateProcessing
	}

	return state, nil
}
