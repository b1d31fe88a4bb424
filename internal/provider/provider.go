// Package provider wraps the external generation and media services the
// pipeline calls into: text (Claude), images (Nano-Banana), podcast jobs
// (AutoContent), video jobs (Creatify), durable storage, YouTube and the
// GetLate social scheduler. Everything here is a thin request/response
// client; retries are the operator's job, not ours.
package provider

import (
	"context"
)

// BusinessContext carries the tenant branding every prompt needs
type BusinessContext struct {
	BusinessName string
	City         string
	State        string
	ServiceAreas []string
	BrandVoice   string
	CTAText      string
	Phone        string
	WebsiteURL   string
}

type BlogRequest struct {
	Question string
	Business BusinessContext
	// Mirror asks for a rewritten variant suitable for the partner
	// directory site instead of the client's own blog
	Mirror bool
}

type BlogResult struct {
	Title           string
	ContentHTML     string
	MetaTitle       string
	MetaDescription string
}

type CaptionRequest struct {
	Platform string
	Question string
	BlogTitle string
	BlogExcerpt string
	Business  BusinessContext
	// ForVideo captions promote the short video rather than the article
	ForVideo bool
}

type CaptionResult struct {
	Caption  string
	Hashtags []string
}

// TextGenerator produces all written artifacts
type TextGenerator interface {
	GenerateBlog(ctx context.Context, req BlogRequest) (*BlogResult, error)
	GenerateCaption(ctx context.Context, req CaptionRequest) (*CaptionResult, error)
	GeneratePodcastScript(ctx context.Context, blogTitle, blogHTML string, biz BusinessContext) (string, error)
	GenerateVideoScript(ctx context.Context, question string, biz BusinessContext) (title, script string, err error)
}

type ImageRequest struct {
	Prompt string
	Width  int
	Height int
}

// ImageGenerator returns a hosted URL for a rendered image
type ImageGenerator interface {
	Generate(ctx context.Context, req ImageRequest) (string, error)
}

// JobState is the normalized view of an external async job
type JobState struct {
	Status       string // "processing", "completed", "failed"
	ResultURL    string
	ThumbnailURL string
	DurationSecs int
	Error        string
}

const (
	JobStateProcessing = "processing"
	JobStateCompleted  = "completed"
	JobStateFailed     = "failed"
)

// PodcastJobs drives the async audio generation queue
type PodcastJobs interface {
	CreateJob(ctx context.Context, title, script string) (jobID string, err error)
	GetJob(ctx context.Context, jobID string) (*JobState, error)
}

// VideoJobs drives the async short-form video render queue
type VideoJobs interface {
	CreateJob(ctx context.Context, title, script string) (jobID string, err error)
	GetJob(ctx context.Context, jobID string) (*JobState, error)
}

// MediaStorage copies provider-hosted assets onto durable storage
type MediaStorage interface {
	UploadFromURL(ctx context.Context, sourceURL, objectName, contentType string) (string, error)
}

// VideoHost uploads finished videos to a public channel
type VideoHost interface {
	Upload(ctx context.Context, videoURL, title, description string) (videoID string, err error)
}

type SchedulePostRequest struct {
	AccountID string
	Platform  string
	Caption   string
	MediaURLs []string
	MediaType string
}

type ScheduledPost struct {
	ID  string
	URL string
}

// SocialScheduler dispatches captions to the social scheduling service
type SocialScheduler interface {
	CreatePost(ctx context.Context, req SchedulePostRequest) (*ScheduledPost, error)
}
