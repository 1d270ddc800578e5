package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"studentattendance/internal/attendance"
	"studentattendance/internal/config"
	"studentattendance/internal/jobs"
	"studentattendance/internal/logging"
	"studentattendance/internal/queue"
	"studentattendance/internal/store"
)

// Worker ends stale sessions and announces them on the event bus.
func main() {
	cfg := config.Load()
	logger := logging.Must(cfg.Env).Named("worker")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs, err := store.OpenDocuments(ctx, cfg)
	if err != nil {
		logger.Fatal("document store connect failed", zap.Error(err))
	}
	defer docs.Close(context.Background())
	if cfg.StoreBackend == "memory" {
		logger.Warn("worker is sweeping a private in-memory store; set STORE_BACKEND to share data with the api")
	}

	var bus attendance.Publisher
	if cfg.BusBackend == "redis" {
		redisClient := store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
		if !redisClient.Healthy(ctx) {
			logger.Warn("redis not reachable, session_ended events will be dropped", zap.String("addr", cfg.RedisAddr))
		}
		bus = queue.NewRedisPubSub(redisClient.Client, cfg.BusChannel)
	}

	att := attendance.NewService(
		attendance.NewRepository(docs, cfg.HistoryBatchSize),
		bus, nil, logger,
		attendance.Options{},
	)

	logger.Info("worker started",
		zap.Duration("interval", cfg.ExpiryInterval),
		zap.Duration("maxAge", cfg.SessionMaxAge))
	done := jobs.StartSessionExpiry(ctx, jobs.ExpiryConfig{
		Interval: cfg.ExpiryInterval,
		MaxAge:   cfg.SessionMaxAge,
		Timeout:  cfg.RequestTimeout,
	}, att, logger)

	<-done
	<-ctx.Done()
	logger.Info("worker stopped")
}
