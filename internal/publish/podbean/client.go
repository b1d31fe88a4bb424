// Package podbean publishes podcast episodes through the Podbean API using
// client-credentials OAuth.
package podbean

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	client       *http.Client
	logger       *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(baseURL, clientID, clientSecret string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("podbean token API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = response.AccessToken
	// refresh a minute early
	c.tokenExpiry = time.Now().Add(time.Duration(response.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

// Episode is a published Podbean episode
type Episode struct {
	ID        string
	PlayerURL string
	Permalink string
}

// PublishEpisode creates a published episode from a remote audio URL
func (c *Client) PublishEpisode(ctx context.Context, title, description, audioURL string) (*Episode, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"access_token":    {token},
		"title":           {title},
		"content":         {description},
		"status":          {"publish"},
		"type":            {"public"},
		"remote_media_url": {audioURL},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/episodes", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("podbean API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Episode struct {
			ID           string `json:"id"`
			PlayerURL    string `json:"player_url"`
			PermalinkURL string `json:"permalink_url"`
		} `json:"episode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Episode.ID == "" {
		return nil, fmt.Errorf("podbean API returned no episode id")
	}

	c.logger.Info("Podbean episode published", zap.String("episode_id", response.Episode.ID))
	return &Episode{
		ID:        response.Episode.ID,
		PlayerURL: response.Episode.PlayerURL,
		Permalink: response.Episode.PermalinkURL,
	}, nil
}
