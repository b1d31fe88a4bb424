package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/glazehq/glazer/internal/models"
	"github.com/glazehq/glazer/internal/provider"
	"github.com/glazehq/glazer/pkg/util"
)

// GenerateRequest selects which artifacts to (re)generate
type GenerateRequest struct {
	GenerateBlog         bool `json:"generateBlog"`
	GeneratePodcast      bool `json:"generatePodcast"`
	GenerateImages       bool `json:"generateImages"`
	GenerateSocial       bool `json:"generateSocial"`
	GenerateWRHQBlog     bool `json:"generateWrhqBlog"`
	GenerateWRHQSocial   bool `json:"generateWrhqSocial"`
	GenerateShortVideo   bool `json:"generateShortVideo"`
	RegenVideoDescription bool `json:"regenVideoDescription"`
	GenerateVideoSocial  bool `json:"generateVideoSocial"`
}

// Initial reports whether this is an initial generation run: blog and images
// together. Only initial runs move the coarse status.
func (r GenerateRequest) Initial() bool {
	return r.GenerateBlog && r.GenerateImages
}

func (r GenerateRequest) any() bool {
	return r.GenerateBlog || r.GeneratePodcast || r.GenerateImages || r.GenerateSocial ||
		r.GenerateWRHQBlog || r.GenerateWRHQSocial || r.GenerateShortVideo ||
		r.RegenVideoDescription || r.GenerateVideoSocial
}

// Runner executes generation steps for one content item. Steps run in
// dependency order; each step's failure is isolated into the result set and
// never aborts its siblings.
type Runner struct {
	store       Store
	tracker     *Tracker
	text        provider.TextGenerator
	images      provider.ImageGenerator
	podcastJobs provider.PodcastJobs
	videoJobs   provider.VideoJobs
	recorder    Recorder
	logger      *zap.Logger
	wrhqEnabled bool
}

func NewRunner(
	store Store,
	tracker *Tracker,
	text provider.TextGenerator,
	images provider.ImageGenerator,
	podcastJobs provider.PodcastJobs,
	videoJobs provider.VideoJobs,
	recorder Recorder,
	logger *zap.Logger,
	wrhqEnabled bool,
) *Runner {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Runner{
		store:       store,
		tracker:     tracker,
		text:        text,
		images:      images,
		podcastJobs: podcastJobs,
		videoJobs:   videoJobs,
		recorder:    recorder,
		logger:      logger,
		wrhqEnabled: wrhqEnabled,
	}
}

// Generate runs the requested steps and returns the per-step result set plus
// the overall success (logical AND across steps).
func (r *Runner) Generate(ctx context.Context, publicID string, req GenerateRequest) (*ResultSet, bool, error) {
	if !req.any() {
		return nil, false, fmt.Errorf("no generation steps requested")
	}

	item, err := r.store.ContentItemByPublicID(ctx, publicID)
	if err != nil {
		return nil, false, err
	}
	client, err := r.store.ClientByID(ctx, item.ClientID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load client: %w", err)
	}

	biz := businessContext(client)
	results := NewResultSet()

	if req.Initial() {
		if err := r.tracker.Apply(ctx, item, EventGenerationStarted, models.StepBlog); err != nil {
			return nil, false, err
		}
	}

	// Ordering matters: blog feeds the podcast script and social captions,
	// images feed the WRHQ feature image.
	if req.GenerateBlog {
		r.runStep(ctx, item, models.StepBlog, StepKeyBlog, results, func() (StepResult, error) {
			return r.generateBlog(ctx, item, biz)
		})
	}

	if req.GenerateImages {
		r.runStep(ctx, item, models.StepImages, StepKeyImages, results, func() (StepResult, error) {
			return r.generateImages(ctx, item, client, biz)
		})
	}

	if req.GeneratePodcast {
		r.runStep(ctx, item, models.StepPodcast, StepKeyPodcast, results, func() (StepResult, error) {
			return r.generatePodcast(ctx, item, biz)
		})
	}

	if req.GenerateSocial {
		r.generateSocial(ctx, item, client, biz, results)
	}

	if req.GenerateWRHQBlog {
		r.runStep(ctx, item, models.StepWRHQBlog, StepKeyWRHQBlog, results, func() (StepResult, error) {
			return r.generateWRHQBlog(ctx, item, client, biz)
		})
	}

	if req.GenerateWRHQSocial {
		r.runStep(ctx, item, models.StepWRHQSocial, StepKeyWRHQSocial, results, func() (StepResult, error) {
			return r.generateWRHQSocial(ctx, item, client, biz)
		})
	}

	if req.GenerateShortVideo {
		r.runStep(ctx, item, models.StepShortVideo, StepKeyShortVideo, results, func() (StepResult, error) {
			return r.generateShortVideo(ctx, item, biz)
		})
	}

	if req.RegenVideoDescription {
		r.runStep(ctx, item, models.StepShortVideo, StepKeyVideoDesc, results, func() (StepResult, error) {
			return r.regenVideoDescription(ctx, item, biz)
		})
	}

	if req.GenerateVideoSocial {
		r.runStep(ctx, item, models.StepSocial, StepKeyVideoSocial, results, func() (StepResult, error) {
			return r.generateVideoSocial(ctx, item, client, biz)
		})
	}

	success := results.OK()

	// Initial runs move status and serialize failures into LastError.
	// Partial runs only touch LastError, leaving status alone (soft
	// failures: the dashboard keeps showing the last coarse state).
	item.PipelineStep = models.StepIdle
	if req.Initial() {
		if success {
			item.LastError = ""
			if err := r.tracker.Apply(ctx, item, EventInitialSucceeded, models.StepIdle); err != nil {
				return results, success, err
			}
		} else {
			item.LastError = results.JSON()
			if err := r.tracker.Apply(ctx, item, EventInitialFailed, models.StepIdle); err != nil {
				return results, success, err
			}
		}
	} else {
		item.LastError = results.JSON()
		if err := r.store.SaveContentItem(ctx, item); err != nil {
			return results, success, fmt.Errorf("failed to persist run result: %w", err)
		}
	}

	return results, success, nil
}

// runStep executes one step with failure isolation
func (r *Runner) runStep(ctx context.Context, item *models.ContentItem, step models.PipelineStep, key string, results *ResultSet, fn func() (StepResult, error)) {
	r.tracker.SetStep(ctx, item, step)

	result, err := fn()
	if err != nil {
		r.logger.Error("Generation step failed",
			zap.String("content_item", item.PublicID),
			zap.String("step", key),
			zap.Error(err))
		r.recorder.RecordStepError(item.ID, key, err.Error())
		r.recorder.RecordMetric("generation_failure", 1, map[string]string{"step": key})
		results.Fail(key, err)
		return
	}

	result.Success = true
	results.Set(key, result)
	r.recorder.RecordMetric("generation_success", 1, map[string]string{"step": key})
}

func (r *Runner) generateBlog(ctx context.Context, item *models.ContentItem, biz provider.BusinessContext) (StepResult, error) {
	blog, err := r.text.GenerateBlog(ctx, provider.BlogRequest{Question: item.PAAQuestion, Business: biz})
	if err != nil {
		return StepResult{}, err
	}

	post := &models.BlogPost{
		ContentItemID:   item.ID,
		Title:           blog.Title,
		Slug:            util.GenerateSlug(blog.Title),
		Content:         blog.ContentHTML,
		MetaTitle:       blog.MetaTitle,
		MetaDescription: blog.MetaDescription,
	}
	if existing, err := r.store.BlogPostByContentItem(ctx, item.ID); err == nil {
		// Regeneration rewrites content but keeps the WordPress linkage
		post.ID = existing.ID
		post.WordPressPostID = existing.WordPressPostID
		post.WordPressURL = existing.WordPressURL
		post.PublishedAt = existing.PublishedAt
	}
	if err := r.store.UpsertBlogPost(ctx, post); err != nil {
		return StepResult{}, fmt.Errorf("failed to save blog post: %w", err)
	}

	item.BlogGenerated = true
	return StepResult{Title: blog.Title}, nil
}

// imageSpec describes the fixed set of renditions regenerated wholesale
type imageSpec struct {
	imgType models.ImageType
	width   int
	height  int
	prompt  string
}

func (r *Runner) generateImages(ctx context.Context, item *models.ContentItem, client *models.Client, biz provider.BusinessContext) (StepResult, error) {
	base := fmt.Sprintf("Photorealistic image for an auto glass repair business in %s, %s, themed on: %s. No text overlays.",
		client.City, client.State, item.PAAQuestion)

	specs := []imageSpec{
		{models.ImageBlogFeatured, 1200, 675, base + " Wide editorial hero shot."},
		{models.ImageBlogBody, 800, 600, base + " Close-up detail of windshield repair."},
		{models.ImageInstagramFeed, 1080, 1080, base + " Square social media composition."},
		{models.ImageFacebookFeed, 1200, 630, base + " Link preview composition."},
		{models.ImageWRHQFeatured, 1200, 675, base + " Neutral branding, directory listing style."},
	}

	images := make([]models.Image, 0, len(specs))
	for _, spec := range specs {
		url, err := r.images.Generate(ctx, provider.ImageRequest{
			Prompt: spec.prompt,
			Width:  spec.width,
			Height: spec.height,
		})
		if err != nil {
			return StepResult{}, fmt.Errorf("failed to generate %s image: %w", spec.imgType, err)
		}
		images = append(images, models.Image{
			ContentItemID: item.ID,
			Type:          spec.imgType,
			URL:           url,
			Width:         spec.width,
			Height:        spec.height,
			Prompt:        spec.prompt,
		})
	}

	// Wholesale replace: no incremental image updates
	if err := r.store.ReplaceImages(ctx, item.ID, images); err != nil {
		return StepResult{}, fmt.Errorf("failed to save images: %w", err)
	}

	item.ImagesGenerated = true
	return StepResult{Count: len(images)}, nil
}

func (r *Runner) generatePodcast(ctx context.Context, item *models.ContentItem, biz provider.BusinessContext) (StepResult, error) {
	// The script derives from blog content, so blog generation must have run
	blog, err := r.store.BlogPostByContentItem(ctx, item.ID)
	if err != nil {
		return StepResult{}, fmt.Errorf("blog post required before podcast generation: %w", err)
	}

	script, err := r.text.GeneratePodcastScript(ctx, blog.Title, blog.Content, biz)
	if err != nil {
		return StepResult{}, err
	}

	jobID, err := r.podcastJobs.CreateJob(ctx, blog.Title, script)
	if err != nil {
		return StepResult{}, fmt.Errorf("failed to create podcast job: %w", err)
	}

	podcast := &models.Podcast{
		ContentItemID: item.ID,
		Script:        script,
		ProviderJobID: jobID,
		Status:        models.JobProcessing,
	}
	if existing, err := r.store.PodcastByContentItem(ctx, item.ID); err == nil {
		podcast.ID = existing.ID
	}
	if err := r.store.UpsertPodcast(ctx, podcast); err != nil {
		return StepResult{}, fmt.Errorf("failed to save podcast: %w", err)
	}

	// Fire and forget: the poller flips PodcastGenerated on completion
	return StepResult{JobID: jobID, Status: "processing"}, nil
}

func (r *Runner) generateSocial(ctx context.Context, item *models.ContentItem, client *models.Client, biz provider.BusinessContext, results *ResultSet) {
	r.tracker.SetStep(ctx, item, models.StepSocial)

	platforms := []string(client.EnabledPlatforms)
	if len(platforms) == 0 {
		results.Fail(StepKeySocial, fmt.Errorf("client has no enabled platforms"))
		return
	}

	blog, err := r.store.BlogPostByContentItem(ctx, item.ID)
	if err != nil {
		results.Fail(StepKeySocial, fmt.Errorf("blog post required before social generation: %w", err))
		return
	}

	images, _ := r.store.ImagesByContentItem(ctx, item.ID)

	// Fan out across platforms; failures stay per-platform
	var (
		g, gctx = errgroup.WithContext(ctx)
		posts   = make([]models.SocialPost, len(platforms))
		ok      = make([]bool, len(platforms))
	)
	for i, platform := range platforms {
		g.Go(func() error {
			caption, err := r.text.GenerateCaption(gctx, provider.CaptionRequest{
				Platform:    platform,
				Question:    item.PAAQuestion,
				BlogTitle:   blog.Title,
				BlogExcerpt: blog.MetaDescription,
				Business:    biz,
			})
			if err != nil {
				results.Fail(socialKey(platform), err)
				r.recorder.RecordStepError(item.ID, socialKey(platform), err.Error())
				return nil
			}

			posts[i] = models.SocialPost{
				ContentItemID: item.ID,
				Platform:      platform,
				Caption:       caption.Caption,
				Hashtags:      caption.Hashtags,
				MediaURLs:     platformMedia(platform, images),
				MediaType:     "image",
				PublishStatus: models.PublishPending,
			}
			ok[i] = true
			results.Set(socialKey(platform), StepResult{Success: true})
			return nil
		})
	}
	_ = g.Wait()

	kept := make([]models.SocialPost, 0, len(posts))
	for i := range posts {
		if ok[i] {
			kept = append(kept, posts[i])
		}
	}
	if len(kept) == 0 {
		return
	}

	if err := r.store.ReplaceSocialPosts(ctx, item.ID, kept); err != nil {
		results.Fail(StepKeySocial, fmt.Errorf("failed to save social posts: %w", err))
		return
	}

	item.SocialGenerated = true
	results.Set(StepKeySocial, StepResult{Success: true, Count: len(kept)})
}

func socialKey(platform string) string {
	return StepKeySocial + ":" + strings.ToLower(platform)
}

// platformMedia picks the fitting rendition for a platform
func platformMedia(platform string, images []models.Image) models.StringArray {
	want := models.ImageFacebookFeed
	if strings.EqualFold(platform, "instagram") || strings.EqualFold(platform, "tiktok") {
		want = models.ImageInstagramFeed
	}
	for _, img := range images {
		if img.Type == want {
			return models.StringArray{img.URL}
		}
	}
	// Fall back to the featured image when the rendition is missing
	for _, img := range images {
		if img.Type == models.ImageBlogFeatured {
			return models.StringArray{img.URL}
		}
	}
	return models.StringArray{}
}

func (r *Runner) generateWRHQBlog(ctx context.Context, item *models.ContentItem, client *models.Client, biz provider.BusinessContext) (StepResult, error) {
	if !r.wrhqEnabled || !client.WRHQEnabled {
		return StepResult{}, fmt.Errorf("WRHQ mirroring is not enabled for this client")
	}

	blog, err := r.text.GenerateBlog(ctx, provider.BlogRequest{Question: item.PAAQuestion, Business: biz, Mirror: true})
	if err != nil {
		return StepResult{}, err
	}

	// Reuse the landscape rendition generated earlier as the feature image
	var featured string
	if images, err := r.store.ImagesByContentItem(ctx, item.ID); err == nil {
		for _, img := range images {
			if img.Type == models.ImageWRHQFeatured {
				featured = img.URL
				break
			}
			if img.Type == models.ImageBlogFeatured && featured == "" {
				featured = img.URL
			}
		}
	}

	post := &models.WRHQBlogPost{
		ContentItemID:    item.ID,
		Title:            blog.Title,
		Slug:             util.GenerateSlug(blog.Title),
		Content:          blog.ContentHTML,
		MetaTitle:        blog.MetaTitle,
		MetaDescription:  blog.MetaDescription,
		FeaturedImageURL: featured,
	}
	if existing, err := r.store.WRHQBlogPostByContentItem(ctx, item.ID); err == nil {
		post.ID = existing.ID
		post.WordPressPostID = existing.WordPressPostID
		post.WordPressURL = existing.WordPressURL
		post.PublishedAt = existing.PublishedAt
	}
	if err := r.store.UpsertWRHQBlogPost(ctx, post); err != nil {
		return StepResult{}, fmt.Errorf("failed to save WRHQ blog post: %w", err)
	}

	item.WRHQBlogGenerated = true
	return StepResult{Title: blog.Title}, nil
}

func (r *Runner) generateWRHQSocial(ctx context.Context, item *models.ContentItem, client *models.Client, biz provider.BusinessContext) (StepResult, error) {
	if !r.wrhqEnabled || !client.WRHQEnabled {
		return StepResult{}, fmt.Errorf("WRHQ mirroring is not enabled for this client")
	}

	wrhqBlog, err := r.store.WRHQBlogPostByContentItem(ctx, item.ID)
	if err != nil {
		return StepResult{}, fmt.Errorf("WRHQ blog post required before WRHQ social generation: %w", err)
	}

	// The directory site posts to a fixed pair of platforms
	platforms := []string{"facebook", "instagram"}
	posts := make([]models.WRHQSocialPost, 0, len(platforms))
	for _, platform := range platforms {
		caption, err := r.text.GenerateCaption(ctx, provider.CaptionRequest{
			Platform:    platform,
			Question:    item.PAAQuestion,
			BlogTitle:   wrhqBlog.Title,
			BlogExcerpt: wrhqBlog.MetaDescription,
			Business:    biz,
		})
		if err != nil {
			return StepResult{}, err
		}
		posts = append(posts, models.WRHQSocialPost{
			ContentItemID: item.ID,
			Platform:      platform,
			Caption:       caption.Caption,
			Hashtags:      caption.Hashtags,
			MediaURLs:     models.StringArray{wrhqBlog.FeaturedImageURL},
			MediaType:     "image",
			PublishStatus: models.PublishPending,
		})
	}

	if err := r.store.ReplaceWRHQSocialPosts(ctx, item.ID, posts); err != nil {
		return StepResult{}, fmt.Errorf("failed to save WRHQ social posts: %w", err)
	}

	item.WRHQSocialGenerated = true
	return StepResult{Count: len(posts)}, nil
}

func (r *Runner) generateShortVideo(ctx context.Context, item *models.ContentItem, biz provider.BusinessContext) (StepResult, error) {
	title, script, err := r.text.GenerateVideoScript(ctx, item.PAAQuestion, biz)
	if err != nil {
		return StepResult{}, err
	}

	jobID, err := r.videoJobs.CreateJob(ctx, title, script)
	if err != nil {
		return StepResult{}, fmt.Errorf("failed to create video job: %w", err)
	}

	video := &models.Video{
		ContentItemID: item.ID,
		Type:          models.VideoShort,
		ProviderJobID: jobID,
		Status:        models.JobProcessing,
		Title:         title,
		Description:   script,
	}
	if existing, err := r.store.VideoByContentItem(ctx, item.ID, models.VideoShort); err == nil {
		video.ID = existing.ID
	}
	if err := r.store.UpsertVideo(ctx, video); err != nil {
		return StepResult{}, fmt.Errorf("failed to save video: %w", err)
	}

	return StepResult{JobID: jobID, Status: "processing"}, nil
}

func (r *Runner) regenVideoDescription(ctx context.Context, item *models.ContentItem, biz provider.BusinessContext) (StepResult, error) {
	video, err := r.store.VideoByContentItem(ctx, item.ID, models.VideoShort)
	if err != nil {
		return StepResult{}, fmt.Errorf("no video to regenerate description for: %w", err)
	}

	caption, err := r.text.GenerateCaption(ctx, provider.CaptionRequest{
		Platform: "youtube",
		Question: item.PAAQuestion,
		BlogTitle: video.Title,
		Business: biz,
		ForVideo: true,
	})
	if err != nil {
		return StepResult{}, err
	}

	video.Description = caption.Caption
	if err := r.store.UpsertVideo(ctx, video); err != nil {
		return StepResult{}, fmt.Errorf("failed to save video description: %w", err)
	}
	return StepResult{Title: video.Title}, nil
}

func (r *Runner) generateVideoSocial(ctx context.Context, item *models.ContentItem, client *models.Client, biz provider.BusinessContext) (StepResult, error) {
	video, err := r.store.VideoByContentItem(ctx, item.ID, models.VideoShort)
	if err != nil {
		return StepResult{}, fmt.Errorf("no video to promote: %w", err)
	}

	platforms := []string(client.EnabledPlatforms)
	if len(platforms) == 0 {
		return StepResult{}, fmt.Errorf("client has no enabled platforms")
	}

	mediaURL := video.StorageURL
	if mediaURL == "" {
		mediaURL = video.VideoURL
	}

	count := 0
	for _, platform := range platforms {
		caption, err := r.text.GenerateCaption(ctx, provider.CaptionRequest{
			Platform: platform,
			Question: item.PAAQuestion,
			BlogTitle: video.Title,
			Business: biz,
			ForVideo: true,
		})
		if err != nil {
			return StepResult{}, err
		}
		post := &models.SocialPost{
			ContentItemID: item.ID,
			Platform:      platform,
			Caption:       caption.Caption,
			Hashtags:      caption.Hashtags,
			MediaURLs:     models.StringArray{mediaURL},
			MediaType:     "video",
			PublishStatus: models.PublishPending,
		}
		if err := r.store.SaveSocialPost(ctx, post); err != nil {
			return StepResult{}, fmt.Errorf("failed to save video social post: %w", err)
		}
		count++
	}

	return StepResult{Count: count}, nil
}

func businessContext(client *models.Client) provider.BusinessContext {
	return provider.BusinessContext{
		BusinessName: client.Name,
		City:         client.City,
		State:        client.State,
		ServiceAreas: client.ServiceAreas,
		BrandVoice:   client.BrandVoice,
		CTAText:      client.CTAText,
		Phone:        client.Phone,
		WebsiteURL:   client.WebsiteURL,
	}
}
