package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"studentattendance/internal/attendance"
	"studentattendance/internal/auth"
	"studentattendance/internal/config"
	"studentattendance/internal/handler"
	"studentattendance/internal/httpmiddleware"
	"studentattendance/internal/identity"
	"studentattendance/internal/live"
	"studentattendance/internal/logging"
	"studentattendance/internal/metrics"
	"studentattendance/internal/profile"
	"studentattendance/internal/queue"
	"studentattendance/internal/store"
	"studentattendance/internal/timetable"
)

func main() {
	cfg := config.Load()
	logger := logging.Must(cfg.Env)
	defer logger.Sync()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs, err := store.OpenDocuments(ctx, cfg)
	if err != nil {
		return err
	}
	defer docs.Close(context.Background())
	logger.Info("document store ready", zap.String("backend", cfg.StoreBackend))

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	redisUp := redisClient.Healthy(ctx)
	if !redisUp {
		logger.Warn("redis not reachable, using in-process bus and revocation", zap.String("addr", cfg.RedisAddr))
	}

	var bus queue.Queue
	if cfg.BusBackend == "redis" && redisUp {
		bus = queue.NewRedisPubSub(redisClient.Client, cfg.BusChannel)
	} else {
		bus = queue.NewInMemory(256)
	}
	var revoker auth.Revoker = auth.NewMemoryRevoker()
	if redisUp {
		revoker = auth.NewRedisRevoker(redisClient.Client)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	att := attendance.NewService(
		attendance.NewRepository(docs, cfg.HistoryBatchSize),
		bus, m, logger.Named("attendance"),
		attendance.Options{SwallowListErrors: cfg.SwallowSessionListErrors},
	)
	hub := live.NewHub(m, logger.Named("live"))
	go func() {
		if err := hub.Dispatch(ctx, bus); err != nil && ctx.Err() == nil {
			logger.Error("live dispatcher stopped", zap.Error(err))
		}
	}()

	h := handler.New(handler.Deps{
		Identity:   identity.NewDirectory(docs, logger.Named("identity")),
		Attendance: att,
		Profiles:   profile.NewManager(docs, logger.Named("profile")),
		Timetable:  timetable.NewManager(docs, logger.Named("timetable")),
		Hub:        hub,
		Tokens: auth.Issuer{
			Name:       cfg.JWTIssuer,
			Key:        []byte(cfg.JWTSigningKey),
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		},
		Revoker:        revoker,
		Logger:         logger.Named("http"),
		RequestTimeout: cfg.RequestTimeout,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware(httpmiddleware.ClientIP))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if cfg.BusBackend == "redis" && !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "store": cfg.StoreBackend, "redis": redisHealthy})
	})
	h.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
	return nil
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
