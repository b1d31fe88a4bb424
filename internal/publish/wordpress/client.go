// Package wordpress is a minimal WordPress REST v2 client scoped to what the
// pipeline needs: creating/updating posts, reading a post body back for
// re-embedding, and sideloading a featured image.
package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	user    string
	appPass string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL, user, appPass string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		user:    user,
		appPass: appPass,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

func (c *Client) setAuth(req *http.Request) {
	token := base64.StdEncoding.EncodeToString([]byte(c.user + ":" + c.appPass))
	req.Header.Set("Authorization", "Basic "+token)
}

// Post is the subset of WP post fields the pipeline writes
type Post struct {
	Title           string
	Content         string
	Slug            string
	Excerpt         string
	Status          string // "publish" or "draft"
	FeaturedMediaID int
}

type postResponse struct {
	ID      int    `json:"id"`
	Link    string `json:"link"`
	Content struct {
		Rendered string `json:"rendered"`
		Raw      string `json:"raw"`
	} `json:"content"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/wp-json/wp/v2"+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setAuth(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("wordpress API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CreatePost publishes a new post and returns its id and public link
func (c *Client) CreatePost(ctx context.Context, post Post) (int, string, error) {
	body := map[string]any{
		"title":   post.Title,
		"content": post.Content,
		"slug":    post.Slug,
		"excerpt": post.Excerpt,
		"status":  post.Status,
	}
	if post.FeaturedMediaID != 0 {
		body["featured_media"] = post.FeaturedMediaID
	}

	var response postResponse
	if err := c.do(ctx, "POST", "/posts", body, &response); err != nil {
		return 0, "", err
	}
	if response.ID == 0 {
		return 0, "", fmt.Errorf("wordpress API returned no post id")
	}

	c.logger.Info("WordPress post created", zap.Int("post_id", response.ID))
	return response.ID, response.Link, nil
}

// UpdatePost rewrites an existing post's fields
func (c *Client) UpdatePost(ctx context.Context, postID int, post Post) (string, error) {
	body := map[string]any{
		"title":   post.Title,
		"content": post.Content,
		"slug":    post.Slug,
		"excerpt": post.Excerpt,
	}
	if post.Status != "" {
		body["status"] = post.Status
	}
	if post.FeaturedMediaID != 0 {
		body["featured_media"] = post.FeaturedMediaID
	}

	var response postResponse
	if err := c.do(ctx, "POST", fmt.Sprintf("/posts/%d", postID), body, &response); err != nil {
		return "", err
	}
	return response.Link, nil
}

// FetchContent reads the current post body, preferring the raw (editable)
// representation over the rendered one
func (c *Client) FetchContent(ctx context.Context, postID int) (string, error) {
	var response postResponse
	if err := c.do(ctx, "GET", fmt.Sprintf("/posts/%d?context=edit", postID), nil, &response); err != nil {
		return "", err
	}
	if response.Content.Raw != "" {
		return response.Content.Raw, nil
	}
	return response.Content.Rendered, nil
}

// UpdateContent rewrites only the post body
func (c *Client) UpdateContent(ctx context.Context, postID int, html string) error {
	return c.do(ctx, "POST", fmt.Sprintf("/posts/%d", postID), map[string]any{"content": html}, nil)
}

// SideloadMedia fetches an image URL and uploads it to the media library,
// returning the attachment id for use as featured media
func (c *Client) SideloadMedia(ctx context.Context, imageURL, filename string) (int, error) {
	srcReq, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create source request: %w", err)
	}
	srcResp, err := c.client.Do(srcReq)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer srcResp.Body.Close()
	if srcResp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("image source returned status %d", srcResp.StatusCode)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/wp-json/wp/v2/media", srcResp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to create media request: %w", err)
	}
	c.setAuth(req)
	contentType := srcResp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if srcResp.ContentLength > 0 {
		req.ContentLength = srcResp.ContentLength
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("wordpress media API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return response.ID, nil
}
