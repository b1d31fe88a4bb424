package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/glazehq/glazer/internal/embed"
	"github.com/glazehq/glazer/internal/models"
	"github.com/glazehq/glazer/internal/provider"
	"github.com/glazehq/glazer/internal/queue"
)

// BlogDestination is the slice of the WordPress client the continuation
// needs: reading a live post's body and writing it back after re-embedding.
type BlogDestination interface {
	FetchContent(ctx context.Context, postID int) (string, error)
	UpdateContent(ctx context.Context, postID int, html string) error
}

// BlogDestinationFactory builds a destination from per-tenant credentials
type BlogDestinationFactory func(client *models.Client) BlogDestination

// Finalizer runs the remaining pipeline once both async media jobs have
// resolved: storage upload, YouTube upload, video social dispatch, SEO
// schema, and re-embedding everything into the live blog post.
type Finalizer struct {
	store     Store
	tracker   *Tracker
	storage   provider.MediaStorage
	videoHost provider.VideoHost
	scheduler provider.SocialScheduler
	wpFactory BlogDestinationFactory
	recorder  Recorder
	logger    *zap.Logger
	youtube   bool
}

func NewFinalizer(
	store Store,
	tracker *Tracker,
	storage provider.MediaStorage,
	videoHost provider.VideoHost,
	scheduler provider.SocialScheduler,
	wpFactory BlogDestinationFactory,
	recorder Recorder,
	logger *zap.Logger,
	youtubeEnabled bool,
) *Finalizer {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Finalizer{
		store:     store,
		tracker:   tracker,
		storage:   storage,
		videoHost: videoHost,
		scheduler: scheduler,
		wpFactory: wpFactory,
		recorder:  recorder,
		logger:    logger,
		youtube:   youtubeEnabled,
	}
}

// Run executes the finalize task. Step failures are isolated: a dead video
// upload must not stop schema generation or the post going live.
func (f *Finalizer) Run(ctx context.Context, task queue.Task) error {
	item, err := f.store.ContentItemByID(ctx, task.ContentItemID)
	if errors.Is(err, ErrNotFound) {
		// Trashed while the job was in flight; nothing left to update
		f.logger.Info("Skipping finalize for trashed content item",
			zap.Uint("content_item_id", task.ContentItemID))
		return nil
	}
	if err != nil {
		return err
	}

	client, err := f.store.ClientByID(ctx, item.ClientID)
	if err != nil {
		return fmt.Errorf("failed to load client: %w", err)
	}

	f.tracker.SetStep(ctx, item, models.StepFinalize)
	results := NewResultSet()

	video, vErr := f.store.VideoByContentItem(ctx, item.ID, models.VideoShort)
	if vErr == nil && video.Status == models.JobReady {
		f.finalizeVideo(ctx, item, client, video, results)
	}

	podcast, _ := f.store.PodcastByContentItem(ctx, item.ID)
	blog, _ := f.store.BlogPostByContentItem(ctx, item.ID)

	// Schema runs regardless of how the media jobs ended
	if vErr != nil {
		video = nil
	}
	item.SEOSchema = BuildSEOSchema(item, client, blog, podcast, video)
	item.SchemaGenerated = true
	results.Set(StepKeySchema, StepResult{Success: true})

	if blog != nil {
		f.reembed(ctx, item, client, blog, podcast, video, results)
	} else {
		results.Fail(StepKeyEmbeds, fmt.Errorf("no blog post to embed into"))
	}

	if err := f.tracker.Apply(ctx, item, EventPublished, models.StepIdle); err != nil {
		// Status may have drifted (e.g. an operator restarted generation);
		// keep the artifact updates even when the transition is refused
		if saveErr := f.store.SaveContentItem(ctx, item); saveErr != nil {
			return saveErr
		}
	}

	f.recorder.RecordMetric("finalize_complete", 1, map[string]string{
		"success": fmt.Sprintf("%t", results.OK()),
	})
	f.logger.Info("Finalize continuation completed",
		zap.String("content_item", item.PublicID),
		zap.Bool("success", results.OK()))
	return nil
}

func (f *Finalizer) finalizeVideo(ctx context.Context, item *models.ContentItem, client *models.Client, video *models.Video, results *ResultSet) {
	if video.StorageURL == "" && f.storage != nil {
		object := fmt.Sprintf("videos/%s/short.mp4", item.PublicID)
		url, err := f.storage.UploadFromURL(ctx, video.VideoURL, object, "video/mp4")
		if err != nil {
			results.Fail(StepKeyStorage, err)
			f.recorder.RecordStepError(item.ID, StepKeyStorage, err.Error())
		} else {
			video.StorageURL = url
			results.Set(StepKeyStorage, StepResult{Success: true, URL: url})
		}
	}

	if f.youtube && f.videoHost != nil && client.YouTubeChannelID != "" && video.YouTubeVideoID == "" {
		source := video.StorageURL
		if source == "" {
			source = video.VideoURL
		}
		id, err := f.videoHost.Upload(ctx, source, video.Title, video.Description)
		if err != nil {
			results.Fail(StepKeyYouTube, err)
			f.recorder.RecordStepError(item.ID, StepKeyYouTube, err.Error())
		} else {
			video.YouTubeVideoID = id
			results.Set(StepKeyYouTube, StepResult{Success: true, JobID: id})
		}
	}

	if err := f.store.UpsertVideo(ctx, video); err != nil {
		f.logger.Error("Failed to persist video after finalize",
			zap.String("content_item", item.PublicID),
			zap.Error(err))
	}

	f.dispatchVideoSocial(ctx, item, client, video, results)
}

// dispatchVideoSocial pushes pending video social posts to the scheduler
func (f *Finalizer) dispatchVideoSocial(ctx context.Context, item *models.ContentItem, client *models.Client, video *models.Video, results *ResultSet) {
	if f.scheduler == nil || client.GetLateAccountID == "" {
		return
	}

	posts, err := f.store.SocialPostsByContentItem(ctx, item.ID)
	if err != nil {
		return
	}

	mediaURL := video.StorageURL
	if mediaURL == "" {
		mediaURL = video.VideoURL
	}

	for i := range posts {
		post := &posts[i]
		if post.MediaType != "video" || post.PublishStatus != models.PublishPending {
			continue
		}

		scheduled, err := f.scheduler.CreatePost(ctx, provider.SchedulePostRequest{
			AccountID: client.GetLateAccountID,
			Platform:  post.Platform,
			Caption:   post.Caption,
			MediaURLs: []string{mediaURL},
			MediaType: "video",
		})
		key := StepKeyVideoSocial + ":" + post.Platform
		if err != nil {
			post.PublishStatus = models.PublishFailed
			results.Fail(key, err)
			f.recorder.RecordStepError(item.ID, key, err.Error())
		} else {
			post.PublishStatus = models.PublishScheduled
			post.ExternalPostID = scheduled.ID
			post.ExternalPostURL = scheduled.URL
			results.Set(key, StepResult{Success: true, JobID: scheduled.ID})
		}
		if err := f.store.SaveSocialPost(ctx, post); err != nil {
			f.logger.Error("Failed to persist social post dispatch",
				zap.String("platform", post.Platform),
				zap.Error(err))
		}
	}
}

// RebuildEmbeds strips every previously inserted embed from content, splices
// all currently ready embeds back in, and flags the item for what landed.
// Running it twice over its own output is a no-op.
func RebuildEmbeds(content string, item *models.ContentItem, client *models.Client, podcast *models.Podcast, video *models.Video) string {
	content = embed.Strip(content)

	if podcast != nil && (podcast.Status == models.JobReady || podcast.Status == models.JobPublished) {
		snippet := ""
		switch {
		case podcast.PlayerEmbedURL != "":
			snippet = embed.PodcastEmbed(podcast.PlayerEmbedURL)
		case podcast.AudioURL != "":
			snippet = embed.PodcastAudioEmbed(podcast.AudioURL)
		}
		if snippet != "" {
			content = embed.Insert(content, snippet, embed.AfterHeadingN(1))
			item.PodcastAddedToPost = true
		}
	}

	if video != nil && video.Status.Resolved() && video.Status != models.JobFailed {
		videoURL := video.StorageURL
		if videoURL == "" {
			videoURL = video.VideoURL
		}
		content = embed.Insert(content, embed.VideoEmbed(video.YouTubeVideoID, videoURL), embed.AfterHeadingN(2))
		item.VideoAddedToPost = true
	}

	return embed.Insert(content, embed.MapEmbed(client.Name, client.City, client.State), embed.AtEnd())
}

// reembed rebuilds the post body with every ready embed and pushes it live
func (f *Finalizer) reembed(ctx context.Context, item *models.ContentItem, client *models.Client, blog *models.BlogPost, podcast *models.Podcast, video *models.Video, results *ResultSet) {
	content := blog.Content

	var dest BlogDestination
	if blog.WordPressPostID != 0 && f.wpFactory != nil {
		dest = f.wpFactory(client)
		if fetched, err := dest.FetchContent(ctx, blog.WordPressPostID); err != nil {
			// Live fetch failed: fall back to the local copy so the embeds
			// still land somewhere recoverable
			f.logger.Warn("Failed to fetch live post content, using local copy",
				zap.String("content_item", item.PublicID),
				zap.Error(err))
		} else {
			content = fetched
		}
	}

	content = RebuildEmbeds(content, item, client, podcast, video)

	blog.Content = content
	if err := f.store.UpsertBlogPost(ctx, blog); err != nil {
		results.Fail(StepKeyEmbeds, fmt.Errorf("failed to save embedded content: %w", err))
		return
	}

	if dest != nil {
		if err := dest.UpdateContent(ctx, blog.WordPressPostID, content); err != nil {
			results.Fail(StepKeyEmbeds, fmt.Errorf("failed to update live post: %w", err))
			f.recorder.RecordStepError(item.ID, StepKeyEmbeds, err.Error())
			return
		}
	}

	results.Set(StepKeyEmbeds, StepResult{Success: true})
}
