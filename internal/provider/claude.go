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
	"github.com/glazehq/glazer/pkg/util"
)

// ClaudeClient implements TextGenerator against the Anthropic messages API
type ClaudeClient struct {
	config *config.ClaudeConfig
	client *http.Client
	logger *zap.Logger
}

func NewClaudeClient(cfg *config.ClaudeConfig, logger *zap.Logger) *ClaudeClient {
	return &ClaudeClient{
		config: cfg,
		client: &http.Client{Timeout: 120 * time.Second},
		logger: logger,
	}
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *ClaudeClient) complete(ctx context.Context, system, prompt string) (string, error) {
	body := map[string]any{
		"model":      c.config.Model,
		"max_tokens": c.config.MaxTokens,
		"system":     system,
		"messages":   []claudeMessage{{Role: "user", Content: prompt}},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.anthropic.com/v1/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("anthropic-version", c.config.APIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("claude API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var response claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("claude API error %s: %s", response.Error.Type, response.Error.Message)
	}

	var sb strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("claude API returned empty completion")
	}
	return text, nil
}

// completeJSON asks for a JSON object and decodes it into out, tolerating
// code fences the model sometimes wraps around the payload
func (c *ClaudeClient) completeJSON(ctx context.Context, system, prompt string, out any) error {
	text, err := c.complete(ctx, system, prompt+"\n\nRespond with a single JSON object and nothing else.")
	if err != nil {
		return err
	}

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), out); err != nil {
		return fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return nil
}

func businessPrompt(biz BusinessContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Business: %s, an auto glass repair and replacement shop in %s, %s.\n", biz.BusinessName, biz.City, biz.State)
	if len(biz.ServiceAreas) > 0 {
		fmt.Fprintf(&sb, "Service areas: %s.\n", strings.Join(biz.ServiceAreas, ", "))
	}
	if biz.BrandVoice != "" {
		fmt.Fprintf(&sb, "Brand voice: %s.\n", biz.BrandVoice)
	}
	if biz.CTAText != "" {
		fmt.Fprintf(&sb, "Call to action to close with: %s\n", biz.CTAText)
	}
	if biz.Phone != "" {
		fmt.Fprintf(&sb, "Phone: %s.\n", biz.Phone)
	}
	return sb.String()
}

func (c *ClaudeClient) GenerateBlog(ctx context.Context, req BlogRequest) (*BlogResult, error) {
	system := "You are an SEO content writer for local auto glass businesses. You write accurate, helpful articles answering real customer questions."
	audience := "the business's own blog"
	if req.Mirror {
		audience = "a national auto glass directory site; keep branding light and mention the featured shop once"
	}

	prompt := fmt.Sprintf(`%s
Write a blog post answering the question: "%s" for %s.

Return JSON with fields:
- "title": post title (60 chars max)
- "content": full article as clean HTML using h2/h3 headings and p tags, 800-1200 words
- "meta_title": SEO title tag
- "meta_description": SEO meta description (155 chars max)`,
		businessPrompt(req.Business), req.Question, audience)

	var result struct {
		Title           string `json:"title"`
		Content         string `json:"content"`
		MetaTitle       string `json:"meta_title"`
		MetaDescription string `json:"meta_description"`
	}
	if err := c.completeJSON(ctx, system, prompt, &result); err != nil {
		return nil, fmt.Errorf("blog generation failed: %w", err)
	}
	if result.Title == "" || result.Content == "" {
		return nil, fmt.Errorf("blog generation returned incomplete result")
	}

	return &BlogResult{
		Title:           result.Title,
		ContentHTML:     result.Content,
		MetaTitle:       result.MetaTitle,
		MetaDescription: result.MetaDescription,
	}, nil
}

func (c *ClaudeClient) GenerateCaption(ctx context.Context, req CaptionRequest) (*CaptionResult, error) {
	system := "You write short, engaging social media captions for local service businesses."
	subject := fmt.Sprintf(`the article "%s"`, req.BlogTitle)
	if req.ForVideo {
		subject = "a 45-second explainer video on the same topic"
	}

	prompt := fmt.Sprintf(`%s
Write a %s caption promoting %s. Topic question: "%s".
Article excerpt: %s

Return JSON with fields:
- "caption": platform-appropriate caption text without hashtags
- "hashtags": array of 3-6 hashtag words without the # prefix`,
		businessPrompt(req.Business), req.Platform, subject, req.Question,
		util.Truncate(req.BlogExcerpt, 600))

	var result struct {
		Caption  string   `json:"caption"`
		Hashtags []string `json:"hashtags"`
	}
	if err := c.completeJSON(ctx, system, prompt, &result); err != nil {
		return nil, fmt.Errorf("caption generation for %s failed: %w", req.Platform, err)
	}
	if result.Caption == "" {
		return nil, fmt.Errorf("caption generation for %s returned empty caption", req.Platform)
	}

	hashtags := make([]string, 0, len(result.Hashtags))
	for _, h := range result.Hashtags {
		if formatted := util.FormatHashtag(h); formatted != "" {
			hashtags = append(hashtags, formatted)
		}
	}

	return &CaptionResult{Caption: result.Caption, Hashtags: hashtags}, nil
}

func (c *ClaudeClient) GeneratePodcastScript(ctx context.Context, blogTitle, blogHTML string, biz BusinessContext) (string, error) {
	system := "You adapt written articles into natural two-host podcast conversations."
	prompt := fmt.Sprintf(`%s
Adapt the following article into a 3-4 minute two-host podcast segment.
Plain text, speaker labels HOST A / HOST B, no sound directions.

Title: %s

%s`, businessPrompt(biz), blogTitle, util.Truncate(stripTags(blogHTML), 6000))

	script, err := c.complete(ctx, system, prompt)
	if err != nil {
		return "", fmt.Errorf("podcast script generation failed: %w", err)
	}
	return script, nil
}

func (c *ClaudeClient) GenerateVideoScript(ctx context.Context, question string, biz BusinessContext) (string, string, error) {
	system := "You write punchy scripts for short-form vertical videos."
	prompt := fmt.Sprintf(`%s
Write a 45-second short-form video script answering: "%s".

Return JSON with fields:
- "title": video title (70 chars max)
- "script": spoken narration only, around 110 words`,
		businessPrompt(biz), question)

	var result struct {
		Title  string `json:"title"`
		Script string `json:"script"`
	}
	if err := c.completeJSON(ctx, system, prompt, &result); err != nil {
		return "", "", fmt.Errorf("video script generation failed: %w", err)
	}
	if result.Script == "" {
		return "", "", fmt.Errorf("video script generation returned empty script")
	}
	return result.Title, result.Script, nil
}

// stripTags flattens HTML to text well enough for prompt context
func stripTags(s string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			sb.WriteRune(' ')
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
