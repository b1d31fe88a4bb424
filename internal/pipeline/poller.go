package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/glazehq/glazer/internal/models"
	"github.com/glazehq/glazer/internal/provider"
	"github.com/glazehq/glazer/internal/queue"
)

// Poller watches PROCESSING podcast and video rows and folds external job
// results back into the database. Completion no longer depends on a browser
// polling the status endpoints; those endpoints call into the same checks.
type Poller struct {
	store       Store
	podcastJobs provider.PodcastJobs
	videoJobs   provider.VideoJobs
	queue       queue.TaskQueue
	logger      *zap.Logger
	interval    time.Duration
	enabled     bool
	ticker      *time.Ticker
	stopCh      chan struct{}
}

func NewPoller(
	store Store,
	podcastJobs provider.PodcastJobs,
	videoJobs provider.VideoJobs,
	taskQueue queue.TaskQueue,
	logger *zap.Logger,
	interval time.Duration,
	enabled bool,
) *Poller {
	return &Poller{
		store:       store,
		podcastJobs: podcastJobs,
		videoJobs:   videoJobs,
		queue:       taskQueue,
		logger:      logger,
		interval:    interval,
		enabled:     enabled,
		stopCh:      make(chan struct{}),
	}
}

func (p *Poller) Start(ctx context.Context) error {
	if !p.enabled {
		p.logger.Info("Job poller is disabled")
		return nil
	}

	p.logger.Info("Starting job poller", zap.Duration("interval", p.interval))
	p.ticker = time.NewTicker(p.interval)

	go func() {
		for {
			select {
			case <-p.ticker.C:
				p.pollOnce(ctx)
			case <-p.stopCh:
				p.logger.Info("Job poller stopped")
				return
			case <-ctx.Done():
				p.logger.Info("Job poller context cancelled")
				return
			}
		}
	}()

	return nil
}

func (p *Poller) Stop() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
	close(p.stopCh)
}

func (p *Poller) pollOnce(ctx context.Context) {
	podcasts, err := p.store.PodcastsProcessing(ctx)
	if err != nil {
		p.logger.Error("Failed to list processing podcasts", zap.Error(err))
	}
	for i := range podcasts {
		if _, err := p.CheckPodcastJob(ctx, &podcasts[i]); err != nil {
			p.logger.Error("Podcast job check failed",
				zap.String("job_id", podcasts[i].ProviderJobID),
				zap.Error(err))
		}
	}

	videos, err := p.store.VideosProcessing(ctx)
	if err != nil {
		p.logger.Error("Failed to list processing videos", zap.Error(err))
	}
	for i := range videos {
		if _, err := p.CheckVideoJob(ctx, &videos[i]); err != nil {
			p.logger.Error("Video job check failed",
				zap.String("job_id", videos[i].ProviderJobID),
				zap.Error(err))
		}
	}
}

// CheckPodcastJob runs one status check against the provider. On a terminal
// result it updates the row, flips the item flag, and considers finalize.
// Still-processing jobs cause no side effects.
func (p *Poller) CheckPodcastJob(ctx context.Context, podcast *models.Podcast) (bool, error) {
	if podcast.Status != models.JobProcessing || podcast.ProviderJobID == "" {
		return false, nil
	}

	state, err := p.podcastJobs.GetJob(ctx, podcast.ProviderJobID)
	if err != nil {
		return false, err
	}

	switch state.Status {
	case provider.JobStateCompleted:
		podcast.Status = models.JobReady
		podcast.AudioURL = state.ResultURL
		podcast.DurationSecs = state.DurationSecs
	case provider.JobStateFailed:
		podcast.Status = models.JobFailed
		podcast.Error = state.Error
	default:
		return false, nil
	}

	if err := p.store.UpsertPodcast(ctx, podcast); err != nil {
		return false, fmt.Errorf("failed to persist podcast result: %w", err)
	}

	item, err := p.store.ContentItemByID(ctx, podcast.ContentItemID)
	if errors.Is(err, ErrNotFound) {
		// Item trashed while the external job kept running; nothing to do
		return true, nil
	}
	if err != nil {
		return true, err
	}

	if podcast.Status == models.JobReady {
		item.PodcastGenerated = true
		if err := p.store.SaveContentItem(ctx, item); err != nil {
			return true, err
		}
	}

	p.maybeFinalize(ctx, item)
	return true, nil
}

// CheckVideoJob mirrors CheckPodcastJob for the video render queue
func (p *Poller) CheckVideoJob(ctx context.Context, video *models.Video) (bool, error) {
	if video.Status != models.JobProcessing || video.ProviderJobID == "" {
		return false, nil
	}

	state, err := p.videoJobs.GetJob(ctx, video.ProviderJobID)
	if err != nil {
		return false, err
	}

	switch state.Status {
	case provider.JobStateCompleted:
		video.Status = models.JobReady
		video.VideoURL = state.ResultURL
		video.ThumbnailURL = state.ThumbnailURL
		video.DurationSecs = state.DurationSecs
	case provider.JobStateFailed:
		video.Status = models.JobFailed
		video.Error = state.Error
	default:
		return false, nil
	}

	if err := p.store.UpsertVideo(ctx, video); err != nil {
		return false, fmt.Errorf("failed to persist video result: %w", err)
	}

	item, err := p.store.ContentItemByID(ctx, video.ContentItemID)
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return true, err
	}

	if video.Status == models.JobReady {
		item.ShortVideoGenerated = true
		if err := p.store.SaveContentItem(ctx, item); err != nil {
			return true, err
		}
	}

	p.maybeFinalize(ctx, item)
	return true, nil
}

// maybeFinalize enqueues the continuation once both async artifacts are
// resolved. A FAILED sibling counts as resolved: a dead video must not keep
// the rest of the post from going live. The queue's dedup key guarantees the
// continuation fires exactly once per item no matter which job lands last.
func (p *Poller) maybeFinalize(ctx context.Context, item *models.ContentItem) {
	if !p.siblingResolved(ctx, item) {
		return
	}

	enqueued, err := p.queue.EnqueueOnce(ctx, "finalize:"+item.PublicID, queue.Task{
		Type:          queue.TaskFinalize,
		ContentItemID: item.ID,
		PublicID:      item.PublicID,
		EnqueuedAt:    time.Now(),
	})
	if err != nil {
		p.logger.Error("Failed to enqueue finalize task",
			zap.String("content_item", item.PublicID),
			zap.Error(err))
		return
	}
	if enqueued {
		p.logger.Info("Finalize task enqueued", zap.String("content_item", item.PublicID))
	}
}

// siblingResolved reports whether every async artifact the item has reached
// a terminal state. Artifacts that were never requested don't block.
func (p *Poller) siblingResolved(ctx context.Context, item *models.ContentItem) bool {
	if podcast, err := p.store.PodcastByContentItem(ctx, item.ID); err == nil {
		if !podcast.Status.Resolved() {
			return false
		}
	}
	if video, err := p.store.VideoByContentItem(ctx, item.ID, models.VideoShort); err == nil {
		if !video.Status.Resolved() {
			return false
		}
	}
	return true
}
