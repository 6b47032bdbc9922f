// Package main runs the background worker: reconcile job consumer plus the
// periodic drift sweep.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pulsecast/backend/config"
	"github.com/pulsecast/backend/internal/platform"
	"github.com/pulsecast/backend/internal/realtime"
	"github.com/pulsecast/backend/internal/reconcile"
	"github.com/pulsecast/backend/internal/recordings"
	"github.com/pulsecast/backend/internal/streams"
	"github.com/pulsecast/backend/internal/worker"
	"github.com/pulsecast/backend/pkg/database"
	"github.com/pulsecast/backend/pkg/queue"
	"github.com/pulsecast/backend/pkg/redis"
)

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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	streamRepo := streams.NewRepository(pool)
	platformClient := platform.NewClient(platform.Config{
		BaseURL:     cfg.Platform.BaseURL,
		TokenID:     cfg.Platform.TokenID,
		TokenSecret: cfg.Platform.TokenSecret,
		Timeout:     time.Duration(cfg.Platform.RequestTimeoutSec) * time.Second,
	}, logger)

	recordingRepo := recordings.NewRepository(pool)

	// Publish-only notifier: the server's hub subscribes and fans out.
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	notifier := realtime.NewStatusNotifier(redisPubSub, nil, logger)
	reconciler := reconcile.New(streamRepo, platformClient, recordingRepo, notifier, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewProcessor(streamRepo, reconciler, jobQueue, logger)
	sweeper := worker.NewSweeper(streamRepo, jobQueue, time.Duration(cfg.Reconcile.SweepIntervalSec)*time.Second, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	go sweeper.Run(workerCtx)
	logger.Info("worker started",
		zap.Int("sweep_interval_sec", cfg.Reconcile.SweepIntervalSec))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
