package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/glazehq/glazer/internal/config"
	"github.com/glazehq/glazer/internal/models"
	"github.com/glazehq/glazer/internal/pipeline"
	"github.com/glazehq/glazer/internal/provider"
	"github.com/glazehq/glazer/internal/publish"
	"github.com/glazehq/glazer/internal/publish/podbean"
	"github.com/glazehq/glazer/internal/publish/wordpress"
	"github.com/glazehq/glazer/internal/queue"
	"github.com/glazehq/glazer/internal/service"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Store      *service.GormStore
	Auth       *service.AuthService
	Monitoring *service.MonitoringService
	Stats      *service.StatsUpdater

	// Pipeline
	Generator *pipeline.Runner
	Publisher *publish.Runner
	Poller    *pipeline.Poller
	Worker    *pipeline.Worker
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store := service.NewGormStore(db)
	monitoring := service.NewMonitoringService(db, logger)
	auth := service.NewAuthService(logger, cfg.Auth.TOTPSecret, cfg.Auth.SessionSecret, cfg.Auth.SessionTTLDuration())
	tracker := pipeline.NewTracker(store, logger)

	// Providers
	text := provider.NewClaudeClient(&cfg.Providers.Claude, logger)
	images := provider.NewNanoBananaClient(&cfg.Providers.NanoBanana, logger)
	podcastJobs := provider.NewAutoContentClient(&cfg.Providers.AutoContent, logger)
	videoJobs := provider.NewCreatifyClient(&cfg.Providers.Creatify, logger)
	storage := provider.NewGCSClient(&cfg.Providers.Storage, logger)
	videoHost := provider.NewYouTubeClient(&cfg.Providers.YouTube, logger)
	scheduler := provider.NewGetLateClient(&cfg.Providers.GetLate, logger)
	podcastHost := podbean.NewClient(cfg.Providers.Podbean.BaseURL, cfg.Providers.Podbean.ClientID, cfg.Providers.Podbean.ClientSecret, logger)

	wpFactory := func(client *models.Client) publish.BlogSite {
		return wordpress.NewClient(client.WordPressURL, client.WordPressUser, client.WordPressAppPass, logger)
	}
	destFactory := func(client *models.Client) pipeline.BlogDestination {
		return wpFactory(client)
	}
	var wrhqSite publish.BlogSite
	if cfg.WRHQ.Enabled {
		wrhqSite = wordpress.NewClient(cfg.WRHQ.WordPressURL, cfg.WRHQ.WordPressUser, cfg.WRHQ.WordPressAppPass, logger)
	}

	// Finalize task queue: redis when configured, in-process otherwise
	var taskQueue queue.TaskQueue
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		taskQueue = queue.NewRedisQueue(redisClient, cfg.Worker.QueueKey, logger)
	} else {
		logger.Warn("Redis disabled, using in-process finalize queue")
		taskQueue = queue.NewMemoryQueue(0)
	}

	generator := pipeline.NewRunner(store, tracker, text, images, podcastJobs, videoJobs, monitoring, logger, cfg.WRHQ.Enabled)
	finalizer := pipeline.NewFinalizer(store, tracker, storage, videoHost, scheduler, destFactory, monitoring, logger, cfg.Providers.YouTube.Enabled)
	publisher := publish.NewRunner(store, tracker, wpFactory, wrhqSite, cfg.WRHQ.GetLateAccountID, podcastHost, scheduler, monitoring, logger)
	poller := pipeline.NewPoller(store, podcastJobs, videoJobs, taskQueue, logger, cfg.Poller.IntervalDuration(), !cfg.Poller.Disabled)
	worker := pipeline.NewWorker(taskQueue, finalizer, logger, cfg.Worker.Concurrency)
	stats := service.NewStatsUpdater(monitoring, logger, time.Hour)

	// Create router
	router := gin.New()

	srv := &Server{
		Config:     cfg,
		DB:         db,
		Router:     router,
		Logger:     logger,
		Store:      store,
		Auth:       auth,
		Monitoring: monitoring,
		Stats:      stats,
		Generator:  generator,
		Publisher:  publisher,
		Poller:     poller,
		Worker:     worker,
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	api := s.Router.Group("/api/v1")
	{
		api.POST("/auth/login", s.handleLogin)

		content := api.Group("/content", s.Auth.AuthMiddleware())
		{
			content.POST("", s.handleCreateContent)
			content.GET("", s.handleListContent)
			content.GET("/:id", s.handleGetContent)
			content.PATCH("/:id", s.handleUpdateContent)
			content.DELETE("/:id", s.handleTrashContent)

			content.POST("/:id/generate", s.handleGenerate)
			content.POST("/:id/publish", s.handlePublish)
			content.POST("/:id/republish-blog", s.handleRepublishBlog)

			content.GET("/:id/podcast-status", s.handlePodcastStatus)
			content.GET("/:id/video-status", s.handleVideoStatus)
		}

		monitoring := api.Group("/monitoring", s.Auth.AuthMiddleware())
		{
			monitoring.GET("/errors", s.handleRecentErrors)
			monitoring.GET("/stats", s.handlePipelineStats)
		}
	}
}

func (s *Server) Start(ctx context.Context) error {
	// Background loops
	if err := s.Poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}
	s.Worker.Start(ctx)
	s.Stats.Start(ctx)

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop background loops first so nothing writes during teardown
	s.Poller.Stop()
	s.Worker.Stop()
	s.Stats.Stop()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
