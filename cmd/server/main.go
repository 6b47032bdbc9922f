// Package main runs the streaming site HTTP server with WebSocket push and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pulsecast/backend/config"
	"github.com/pulsecast/backend/internal/announcements"
	"github.com/pulsecast/backend/internal/auth"
	"github.com/pulsecast/backend/internal/middleware"
	"github.com/pulsecast/backend/internal/models"
	"github.com/pulsecast/backend/internal/platform"
	"github.com/pulsecast/backend/internal/realtime"
	"github.com/pulsecast/backend/internal/reconcile"
	"github.com/pulsecast/backend/internal/recordings"
	"github.com/pulsecast/backend/internal/sitesettings"
	"github.com/pulsecast/backend/internal/streams"
	"github.com/pulsecast/backend/internal/webhooks"
	"github.com/pulsecast/backend/pkg/database"
	"github.com/pulsecast/backend/pkg/queue"
	"github.com/pulsecast/backend/pkg/redis"
	"github.com/pulsecast/backend/pkg/response"
	"github.com/pulsecast/backend/pkg/utils"
)

// statusFanout invalidates the short-TTL status cache before pushing the
// update, so pollers see the transition as fast as WebSocket clients.
type statusFanout struct {
	cache *streams.StatusCache
	next  *realtime.StatusNotifier
}

func (f *statusFanout) StreamStatusChanged(stream *models.Stream, status models.StreamStatus, platformStatus *models.PlatformStatus) {
	f.cache.Invalidate(context.Background())
	f.next.StreamStatusChanged(stream, status, platformStatus)
}

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(redisPubSub, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)
	seedAdmin(ctx, authRepo, cfg.Admin, logger)

	// Streams and reconciliation
	streamRepo := streams.NewRepository(pool)
	platformClient := platform.NewClient(platform.Config{
		BaseURL:     cfg.Platform.BaseURL,
		TokenID:     cfg.Platform.TokenID,
		TokenSecret: cfg.Platform.TokenSecret,
		Timeout:     time.Duration(cfg.Platform.RequestTimeoutSec) * time.Second,
	}, logger)

	// Recordings
	recordingRepo := recordings.NewRepository(pool)
	recordingHandler := recordings.NewHandler(recordingRepo, streamRepo, logger)

	statusCache := streams.NewStatusCache(rdb.Client, time.Duration(cfg.Reconcile.StatusCacheTTLSec)*time.Second, logger)
	notifier := &statusFanout{
		cache: statusCache,
		next:  realtime.NewStatusNotifier(redisPubSub, hub, logger),
	}
	reconciler := reconcile.New(streamRepo, platformClient, recordingRepo, notifier, logger)
	streamHandler := streams.NewHandler(streamRepo, reconciler, statusCache, cfg.Platform.DefaultPlaybackID, logger)
	platformHandler := platform.NewHandler(platformClient, streamRepo, logger)

	// Webhook intake
	jobQueue := queue.NewQueue(rdb.Client, logger)
	deduper := webhooks.NewRedisDeduper(rdb.Client, time.Duration(cfg.Reconcile.DedupTTLHours)*time.Hour, logger)
	webhookHandler := webhooks.NewHandler(streamRepo, recordingRepo, deduper, jobQueue, notifier, cfg.Platform.WebhookSecret, logger)

	// Site content
	announcementRepo := announcements.NewRepository(pool)
	announcementHandler := announcements.NewHandler(announcementRepo, logger)
	settingsRepo := sitesettings.NewRepository(pool)
	settingsHandler := sitesettings.NewHandler(settingsRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public read surface
	router.GET("/stream/status", streamHandler.Status)
	router.GET("/stream/viewers", func(c *gin.Context) {
		response.OK(c, gin.H{"viewers": hub.ViewerCount()})
	})
	router.GET("/streams", streamHandler.List)
	router.GET("/streams/:slug", streamHandler.GetBySlug)
	router.GET("/streams/:slug/recordings", recordingHandler.ListByStream)
	router.GET("/announcements", announcementHandler.ListActive)
	router.GET("/settings", settingsHandler.Get)

	// Auth (public)
	router.POST("/auth/login", authHandler.Login)

	// Webhooks (no JWT; signature verified in handler when configured)
	router.POST("/platform/webhooks", webhookHandler.Handle)

	// Operator API (JWT required)
	api := router.Group("/platform")
	api.Use(middleware.JWT(jwtService))
	{
		api.POST("/streams", platformHandler.Create)
		api.GET("/streams", platformHandler.List)
		api.GET("/streams/:id", platformHandler.Get)
		api.DELETE("/streams/:id", middleware.RequireRole("admin"), platformHandler.Delete)

		api.POST("/reconcile", func(c *gin.Context) {
			var req struct {
				StreamID string `json:"stream_id" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				response.BadRequest(c, "invalid request: "+err.Error())
				return
			}
			id, err := uuid.Parse(req.StreamID)
			if err != nil {
				response.BadRequest(c, "invalid stream_id")
				return
			}
			stream, err := streamRepo.GetByID(c.Request.Context(), id)
			if err != nil {
				response.Internal(c, "failed to load stream")
				return
			}
			if stream == nil {
				response.NotFound(c, "stream not found")
				return
			}
			if err := jobQueue.EnqueueReconcile(c.Request.Context(), queue.ReconcilePayload{StreamID: id, Reason: "manual"}); err != nil {
				response.Internal(c, "failed to enqueue reconcile")
				return
			}
			response.OK(c, gin.H{"enqueued": true})
		})

		api.GET("/announcements", announcementHandler.List)
		api.POST("/announcements", announcementHandler.Create)
		api.PATCH("/announcements/:id/toggle", announcementHandler.Toggle)
		api.DELETE("/announcements/:id", announcementHandler.Delete)

		api.PUT("/settings", settingsHandler.Update)

		api.GET("/operators", middleware.RequireRole("admin"), authHandler.ListOperators)
		api.POST("/operators", middleware.RequireRole("admin"), authHandler.CreateOperator)
	}

	// WebSocket (public viewer push)
	router.GET("/ws", realtime.ServeWs(hub, logger))

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go func() {
		if err := hub.Run(hubCtx); err != nil {
			logger.Error("hub subscription ended", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	hubCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// seedAdmin creates the first operator account from configuration when the
// table is empty. Without it a fresh deploy has no way to log in.
func seedAdmin(ctx context.Context, repo *auth.Repository, admin config.AdminConfig, logger *zap.Logger) {
	if admin.Email == "" || admin.Password == "" {
		return
	}
	n, err := repo.Count(ctx)
	if err != nil {
		logger.Warn("admin seed check failed", zap.Error(err))
		return
	}
	if n > 0 {
		return
	}
	hash, err := utils.HashPassword(admin.Password)
	if err != nil {
		logger.Warn("admin seed hash failed", zap.Error(err))
		return
	}
	if _, err := repo.Create(ctx, admin.Email, hash, admin.Name, models.RoleAdmin); err != nil {
		logger.Warn("admin seed failed", zap.Error(err))
		return
	}
	logger.Info("seeded admin operator", zap.String("email", admin.Email))
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
