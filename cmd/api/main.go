package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/batch4k/internal/api"
	"github.com/dunamismax/batch4k/internal/config"
	"github.com/dunamismax/batch4k/internal/pipeline"
	"github.com/dunamismax/batch4k/internal/ratelimit"
	"github.com/dunamismax/batch4k/internal/resize"
	"github.com/dunamismax/batch4k/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmsgprefix)

	shutdownTracing, err := telemetry.SetupTracing(context.Background(), cfg.Tracing, logger)
	if err != nil {
		logger.Fatalf("tracing setup failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	if err := resize.Startup(); err != nil {
		logger.Fatalf("resize runtime startup failed: %v", err)
	}
	defer resize.Shutdown()

	filter, err := resize.ParseFilter(cfg.Resize.Filter)
	if err != nil {
		logger.Fatalf("invalid resize config: %v", err)
	}
	processor, err := pipeline.NewProcessor(filter)
	if err != nil {
		logger.Fatalf("initialize pipeline processor: %v", err)
	}

	opts := api.Options{
		UserIDHeader:   cfg.API.UserIDHeader,
		MaxUploadBytes: cfg.API.MaxUploadBytes,
	}
	if cfg.RateLimit.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Printf("redis client close error: %v", err)
			}
		}()

		limiter, err := ratelimit.NewRedisTokenBucket(redisClient, cfg.RateLimit.Capacity, cfg.RateLimit.Window, cfg.RateLimit.KeyPrefix)
		if err != nil {
			logger.Fatalf("initialize rate limiter: %v", err)
		}
		opts.RateLimiter = limiter
		logger.Printf("rate limiting enabled capacity=%d window=%s redis=%s", cfg.RateLimit.Capacity, cfg.RateLimit.Window, cfg.RateLimit.RedisAddr)
	}

	app := api.NewServer(logger, processor, opts)

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s resampler=%s", cfg.API.Addr, processor.Resampler())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Println("shutting down")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}
