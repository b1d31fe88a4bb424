// Package publish pushes approved artifacts to their destination systems:
// the client's WordPress site, the partner directory, Podbean and the social
// scheduler. Every step validates its generation/approval preconditions
// server-side; a blocked step is reported, never silently skipped.
package publish

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/glazehq/glazer/internal/models"
	"github.com/glazehq/glazer/internal/pipeline"
	"github.com/glazehq/glazer/internal/provider"
	"github.com/glazehq/glazer/internal/publish/podbean"
	"github.com/glazehq/glazer/internal/publish/wordpress"
	"github.com/glazehq/glazer/pkg/util"
)

// BlogSite is the WordPress surface publishing needs. Satisfied by
// *wordpress.Client; tests supply mocks.
type BlogSite interface {
	CreatePost(ctx context.Context, post wordpress.Post) (int, string, error)
	UpdatePost(ctx context.Context, postID int, post wordpress.Post) (string, error)
	FetchContent(ctx context.Context, postID int) (string, error)
	UpdateContent(ctx context.Context, postID int, html string) error
	SideloadMedia(ctx context.Context, imageURL, filename string) (int, error)
}

// BlogSiteFactory builds a per-client WordPress client from the client's
// stored application-password credentials
type BlogSiteFactory func(client *models.Client) BlogSite

// PodcastHost publishes a finished audio file as an episode. Satisfied by
// *podbean.Client.
type PodcastHost interface {
	PublishEpisode(ctx context.Context, title, description, audioURL string) (*podbean.Episode, error)
}

// Request selects which approved artifacts to push live
type Request struct {
	PublishBlog       bool `json:"publishBlog"`
	PublishWRHQBlog   bool `json:"publishWrhqBlog"`
	PublishPodcast    bool `json:"publishPodcast"`
	PublishSocial     bool `json:"publishSocial"`
	PublishWRHQSocial bool `json:"publishWrhqSocial"`
}

func (r Request) Any() bool {
	return r.PublishBlog || r.PublishWRHQBlog || r.PublishPodcast || r.PublishSocial || r.PublishWRHQSocial
}

// Runner executes publish steps with the same per-step isolation as the
// generation runner: one destination failing never aborts the others.
type Runner struct {
	store       pipeline.Store
	tracker     *pipeline.Tracker
	siteFactory BlogSiteFactory
	wrhqSite    BlogSite
	wrhqAccount string
	podcasts    PodcastHost
	scheduler   provider.SocialScheduler
	recorder    pipeline.Recorder
	logger      *zap.Logger
}

func NewRunner(
	store pipeline.Store,
	tracker *pipeline.Tracker,
	siteFactory BlogSiteFactory,
	wrhqSite BlogSite,
	wrhqAccount string,
	podcasts PodcastHost,
	scheduler provider.SocialScheduler,
	recorder pipeline.Recorder,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		store:       store,
		tracker:     tracker,
		siteFactory: siteFactory,
		wrhqSite:    wrhqSite,
		wrhqAccount: wrhqAccount,
		podcasts:    podcasts,
		scheduler:   scheduler,
		recorder:    recorder,
		logger:      logger,
	}
}

func blocked(reason string) pipeline.StepResult {
	return pipeline.StepResult{Success: false, Status: pipeline.StatusBlocked, Error: reason}
}

// Publish runs the selected publish steps and returns the per-step results.
// Steps whose generation or approval flags are unset are recorded as blocked.
func (r *Runner) Publish(ctx context.Context, publicID string, req Request) (*pipeline.ResultSet, error) {
	item, err := r.store.ContentItemByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	client, err := r.store.ClientByID(ctx, item.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	results := pipeline.NewResultSet()

	if req.PublishBlog {
		switch {
		case !item.BlogGenerated:
			results.Set(pipeline.StepKeyBlog, blocked("blog has not been generated"))
		case !item.BlogApproved:
			results.Set(pipeline.StepKeyBlog, blocked("blog has not been approved"))
		default:
			r.publishBlog(ctx, item, client, results)
		}
	}

	if req.PublishWRHQBlog {
		switch {
		case !client.WRHQEnabled:
			results.Set(pipeline.StepKeyWRHQBlog, blocked("client is not enrolled in the partner directory"))
		case !item.WRHQBlogGenerated:
			results.Set(pipeline.StepKeyWRHQBlog, blocked("partner directory blog has not been generated"))
		case !item.WRHQBlogApproved:
			results.Set(pipeline.StepKeyWRHQBlog, blocked("partner directory blog has not been approved"))
		default:
			r.publishWRHQBlog(ctx, item, results)
		}
	}

	if req.PublishPodcast {
		switch {
		case !item.PodcastGenerated:
			results.Set(pipeline.StepKeyPodcast, blocked("podcast has not finished generating"))
		case !item.PodcastApproved:
			results.Set(pipeline.StepKeyPodcast, blocked("podcast has not been approved"))
		default:
			r.publishPodcast(ctx, item, results)
		}
	}

	if req.PublishSocial {
		switch {
		case !item.SocialGenerated:
			results.Set(pipeline.StepKeySocial, blocked("social posts have not been generated"))
		case !item.SocialApproved:
			results.Set(pipeline.StepKeySocial, blocked("social posts have not been approved"))
		default:
			r.publishSocial(ctx, item, client, results)
		}
	}

	if req.PublishWRHQSocial {
		switch {
		case !client.WRHQEnabled:
			results.Set(pipeline.StepKeyWRHQSocial, blocked("client is not enrolled in the partner directory"))
		case !item.WRHQSocialGenerated:
			results.Set(pipeline.StepKeyWRHQSocial, blocked("partner directory social posts have not been generated"))
		case !item.WRHQSocialApproved:
			results.Set(pipeline.StepKeyWRHQSocial, blocked("partner directory social posts have not been approved"))
		default:
			r.publishWRHQSocial(ctx, item, results)
		}
	}

	if err := r.store.SaveContentItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save content item: %w", err)
	}

	r.recorder.RecordMetric("publish_steps", float64(results.Len()), map[string]string{
		"success": fmt.Sprintf("%t", results.OK()),
	})
	r.logger.Info("Publish run completed",
		zap.String("content_item", item.PublicID),
		zap.Int("steps", results.Len()),
		zap.Bool("success", results.OK()))
	return results, nil
}

func (r *Runner) publishBlog(ctx context.Context, item *models.ContentItem, client *models.Client, results *pipeline.ResultSet) {
	blog, err := r.store.BlogPostByContentItem(ctx, item.ID)
	if err != nil {
		results.Fail(pipeline.StepKeyBlog, fmt.Errorf("failed to load blog post: %w", err))
		return
	}
	if r.siteFactory == nil || client.WordPressURL == "" {
		results.Fail(pipeline.StepKeyBlog, fmt.Errorf("client has no WordPress credentials"))
		return
	}
	site := r.siteFactory(client)

	url, err := r.pushPost(ctx, site, blog.WordPressPostID, blogToPost(blog.Title, blog.Slug, blog.MetaDescription, blog.Content), blog.FeaturedImageURL, func(id int) { blog.WordPressPostID = id })
	if err != nil {
		results.Fail(pipeline.StepKeyBlog, err)
		r.recorder.RecordStepError(item.ID, pipeline.StepKeyBlog, err.Error())
		return
	}

	now := time.Now()
	blog.WordPressURL = url
	blog.PublishedAt = &now
	if err := r.store.UpsertBlogPost(ctx, blog); err != nil {
		results.Fail(pipeline.StepKeyBlog, fmt.Errorf("failed to save blog post: %w", err))
		return
	}

	// The live post exists now; the item is published even if the finalize
	// continuation has not run yet. A refused transition just means the
	// status already moved on.
	if item.Status != models.StatusPublished {
		if err := r.tracker.Apply(ctx, item, pipeline.EventPublished, models.StepIdle); err != nil {
			r.logger.Warn("Publish transition refused",
				zap.String("content_item", item.PublicID),
				zap.String("status", string(item.Status)))
		}
	}

	results.Set(pipeline.StepKeyBlog, pipeline.StepResult{Success: true, Title: blog.Title, URL: url})
}

func (r *Runner) publishWRHQBlog(ctx context.Context, item *models.ContentItem, results *pipeline.ResultSet) {
	blog, err := r.store.WRHQBlogPostByContentItem(ctx, item.ID)
	if err != nil {
		results.Fail(pipeline.StepKeyWRHQBlog, fmt.Errorf("failed to load partner blog post: %w", err))
		return
	}
	if r.wrhqSite == nil {
		results.Fail(pipeline.StepKeyWRHQBlog, fmt.Errorf("partner directory site is not configured"))
		return
	}

	url, err := r.pushPost(ctx, r.wrhqSite, blog.WordPressPostID, blogToPost(blog.Title, blog.Slug, blog.MetaDescription, blog.Content), blog.FeaturedImageURL, func(id int) { blog.WordPressPostID = id })
	if err != nil {
		results.Fail(pipeline.StepKeyWRHQBlog, err)
		r.recorder.RecordStepError(item.ID, pipeline.StepKeyWRHQBlog, err.Error())
		return
	}

	now := time.Now()
	blog.WordPressURL = url
	blog.PublishedAt = &now
	if err := r.store.UpsertWRHQBlogPost(ctx, blog); err != nil {
		results.Fail(pipeline.StepKeyWRHQBlog, fmt.Errorf("failed to save partner blog post: %w", err))
		return
	}
	results.Set(pipeline.StepKeyWRHQBlog, pipeline.StepResult{Success: true, Title: blog.Title, URL: url})
}

func blogToPost(title, slug, excerpt, content string) wordpress.Post {
	return wordpress.Post{
		Title:   title,
		Slug:    slug,
		Excerpt: excerpt,
		Content: content,
		Status:  "publish",
	}
}

// pushPost creates or updates the post depending on whether it has been
// published before, sideloading the featured image on first publish
func (r *Runner) pushPost(ctx context.Context, site BlogSite, postID int, post wordpress.Post, featuredURL string, setID func(int)) (string, error) {
	if postID != 0 {
		url, err := site.UpdatePost(ctx, postID, post)
		if err != nil {
			return "", fmt.Errorf("failed to update post: %w", err)
		}
		return url, nil
	}

	if featuredURL != "" {
		mediaID, err := site.SideloadMedia(ctx, featuredURL, post.Slug+"-featured.jpg")
		if err != nil {
			// A missing featured image is cosmetic; publish anyway
			r.logger.Warn("Failed to sideload featured image", zap.Error(err))
		} else {
			post.FeaturedMediaID = mediaID
		}
	}

	id, url, err := site.CreatePost(ctx, post)
	if err != nil {
		return "", fmt.Errorf("failed to create post: %w", err)
	}
	setID(id)
	return url, nil
}

func (r *Runner) publishPodcast(ctx context.Context, item *models.ContentItem, results *pipeline.ResultSet) {
	podcast, err := r.store.PodcastByContentItem(ctx, item.ID)
	if err != nil {
		results.Fail(pipeline.StepKeyPodcast, fmt.Errorf("failed to load podcast: %w", err))
		return
	}
	if podcast.Status == models.JobPublished {
		results.Set(pipeline.StepKeyPodcast, pipeline.StepResult{Success: true, Status: string(podcast.Status), URL: podcast.PlayerEmbedURL})
		return
	}
	if podcast.Status != models.JobReady || podcast.AudioURL == "" {
		results.Set(pipeline.StepKeyPodcast, blocked(fmt.Sprintf("podcast audio is not ready (status %s)", podcast.Status)))
		return
	}
	if r.podcasts == nil {
		results.Fail(pipeline.StepKeyPodcast, fmt.Errorf("podcast host is not configured"))
		return
	}

	title := item.PAAQuestion
	if blog, err := r.store.BlogPostByContentItem(ctx, item.ID); err == nil && blog.Title != "" {
		title = blog.Title
	}

	episode, err := r.podcasts.PublishEpisode(ctx, title, util.Truncate(podcast.Script, 500), podcast.AudioURL)
	if err != nil {
		results.Fail(pipeline.StepKeyPodcast, err)
		r.recorder.RecordStepError(item.ID, pipeline.StepKeyPodcast, err.Error())
		return
	}

	now := time.Now()
	podcast.PodbeanEpisodeID = episode.ID
	podcast.PlayerEmbedURL = episode.PlayerURL
	podcast.Status = models.JobPublished
	podcast.PublishedAt = &now
	if err := r.store.UpsertPodcast(ctx, podcast); err != nil {
		results.Fail(pipeline.StepKeyPodcast, fmt.Errorf("failed to save podcast: %w", err))
		return
	}
	results.Set(pipeline.StepKeyPodcast, pipeline.StepResult{Success: true, Status: string(models.JobPublished), URL: episode.PlayerURL})
}

func (r *Runner) publishSocial(ctx context.Context, item *models.ContentItem, client *models.Client, results *pipeline.ResultSet) {
	if r.scheduler == nil || client.GetLateAccountID == "" {
		results.Fail(pipeline.StepKeySocial, fmt.Errorf("client has no social scheduler account"))
		return
	}

	posts, err := r.store.SocialPostsByContentItem(ctx, item.ID)
	if err != nil {
		results.Fail(pipeline.StepKeySocial, fmt.Errorf("failed to load social posts: %w", err))
		return
	}

	dispatched := r.dispatchPosts(ctx, item, client.GetLateAccountID, socialRows(posts), pipeline.StepKeySocial, results,
		func(i int) error { return r.store.SaveSocialPost(ctx, &posts[i]) })
	results.Set(pipeline.StepKeySocial, pipeline.StepResult{Success: dispatched.ok, Count: dispatched.count, Error: dispatched.err})
}

func (r *Runner) publishWRHQSocial(ctx context.Context, item *models.ContentItem, results *pipeline.ResultSet) {
	if r.scheduler == nil || r.wrhqAccount == "" {
		results.Fail(pipeline.StepKeyWRHQSocial, fmt.Errorf("partner directory scheduler account is not configured"))
		return
	}

	posts, err := r.store.WRHQSocialPostsByContentItem(ctx, item.ID)
	if err != nil {
		results.Fail(pipeline.StepKeyWRHQSocial, fmt.Errorf("failed to load partner social posts: %w", err))
		return
	}

	dispatched := r.dispatchPosts(ctx, item, r.wrhqAccount, wrhqSocialRows(posts), pipeline.StepKeyWRHQSocial, results,
		func(i int) error { return r.store.SaveWRHQSocialPost(ctx, &posts[i]) })
	results.Set(pipeline.StepKeyWRHQSocial, pipeline.StepResult{Success: dispatched.ok, Count: dispatched.count, Error: dispatched.err})
}

// socialRow is the platform-independent view dispatchPosts works over
type socialRow struct {
	platform  string
	caption   string
	hashtags  []string
	mediaURLs []string
	mediaType string
	pending   bool
	markDone  func(id, url string, at time.Time)
	markFail  func()
}

func socialRows(posts []models.SocialPost) []socialRow {
	rows := make([]socialRow, len(posts))
	for i := range posts {
		p := &posts[i]
		rows[i] = socialRow{
			platform:  p.Platform,
			caption:   p.Caption,
			hashtags:  p.Hashtags,
			mediaURLs: p.MediaURLs,
			mediaType: p.MediaType,
			pending:   p.PublishStatus == models.PublishPending,
			markDone: func(id, url string, at time.Time) {
				p.ExternalPostID = id
				p.ExternalPostURL = url
				p.PublishStatus = models.PublishDone
				p.PublishedAt = &at
			},
			markFail: func() { p.PublishStatus = models.PublishFailed },
		}
	}
	return rows
}

func wrhqSocialRows(posts []models.WRHQSocialPost) []socialRow {
	rows := make([]socialRow, len(posts))
	for i := range posts {
		p := &posts[i]
		rows[i] = socialRow{
			platform:  p.Platform,
			caption:   p.Caption,
			hashtags:  p.Hashtags,
			mediaURLs: p.MediaURLs,
			mediaType: p.MediaType,
			pending:   p.PublishStatus == models.PublishPending,
			markDone: func(id, url string, at time.Time) {
				p.ExternalPostID = id
				p.ExternalPostURL = url
				p.PublishStatus = models.PublishDone
				p.PublishedAt = &at
			},
			markFail: func() { p.PublishStatus = models.PublishFailed },
		}
	}
	return rows
}

type dispatchOutcome struct {
	ok    bool
	count int
	err   string
}

// dispatchPosts pushes each pending row to the scheduler, recording a
// per-platform result entry. One platform failing never stops the rest.
func (r *Runner) dispatchPosts(ctx context.Context, item *models.ContentItem, accountID string, rows []socialRow, stepKey string, results *pipeline.ResultSet, save func(i int) error) dispatchOutcome {
	outcome := dispatchOutcome{ok: true}
	for i, row := range rows {
		if !row.pending {
			continue
		}

		caption := row.caption
		for _, tag := range row.hashtags {
			caption += " " + tag
		}

		post, err := r.scheduler.CreatePost(ctx, provider.SchedulePostRequest{
			AccountID: accountID,
			Platform:  row.platform,
			Caption:   caption,
			MediaURLs: row.mediaURLs,
			MediaType: row.mediaType,
		})
		key := stepKey + ":" + row.platform
		if err != nil {
			row.markFail()
			outcome.ok = false
			outcome.err = err.Error()
			results.Fail(key, err)
			r.recorder.RecordStepError(item.ID, key, err.Error())
		} else {
			row.markDone(post.ID, post.URL, time.Now())
			outcome.count++
			results.Set(key, pipeline.StepResult{Success: true, URL: post.URL})
		}

		if err := save(i); err != nil {
			outcome.ok = false
			outcome.err = err.Error()
			results.Fail(key, fmt.Errorf("failed to save %s post: %w", row.platform, err))
		}
	}
	return outcome
}

// RepublishBlog rebuilds the full embed set from current artifact state and
// pushes the result to the live WordPress post. Safe to run repeatedly.
func (r *Runner) RepublishBlog(ctx context.Context, publicID string) (*pipeline.ResultSet, error) {
	item, err := r.store.ContentItemByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	client, err := r.store.ClientByID(ctx, item.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	results := pipeline.NewResultSet()

	blog, err := r.store.BlogPostByContentItem(ctx, item.ID)
	if err != nil {
		results.Fail(pipeline.StepKeyEmbeds, fmt.Errorf("failed to load blog post: %w", err))
		return results, nil
	}
	if blog.WordPressPostID == 0 {
		results.Set(pipeline.StepKeyEmbeds, blocked("blog has not been published yet"))
		return results, nil
	}
	if r.siteFactory == nil || client.WordPressURL == "" {
		results.Fail(pipeline.StepKeyEmbeds, fmt.Errorf("client has no WordPress credentials"))
		return results, nil
	}
	site := r.siteFactory(client)

	content := blog.Content
	if fetched, err := site.FetchContent(ctx, blog.WordPressPostID); err != nil {
		r.logger.Warn("Failed to fetch live post content, using local copy",
			zap.String("content_item", item.PublicID),
			zap.Error(err))
	} else {
		content = fetched
	}

	podcast, _ := r.store.PodcastByContentItem(ctx, item.ID)
	video, vErr := r.store.VideoByContentItem(ctx, item.ID, models.VideoShort)
	if vErr != nil {
		video = nil
	}

	content = pipeline.RebuildEmbeds(content, item, client, podcast, video)

	blog.Content = content
	if err := r.store.UpsertBlogPost(ctx, blog); err != nil {
		results.Fail(pipeline.StepKeyEmbeds, fmt.Errorf("failed to save embedded content: %w", err))
		return results, nil
	}
	if err := r.store.SaveContentItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save content item: %w", err)
	}

	if err := site.UpdateContent(ctx, blog.WordPressPostID, content); err != nil {
		results.Fail(pipeline.StepKeyEmbeds, fmt.Errorf("failed to update live post: %w", err))
		r.recorder.RecordStepError(item.ID, pipeline.StepKeyEmbeds, err.Error())
		return results, nil
	}

	results.Set(pipeline.StepKeyEmbeds, pipeline.StepResult{Success: true, URL: blog.WordPressURL})
	r.logger.Info("Blog republished with rebuilt embeds",
		zap.String("content_item", item.PublicID),
		zap.Int("wordpress_post_id", blog.WordPressPostID))
	return results, nil
}
