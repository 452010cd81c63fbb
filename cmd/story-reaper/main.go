package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/wayfareapp/wayfare-service/internal/cache"
	"github.com/wayfareapp/wayfare-service/internal/config"
	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/storage/postgres"
)

// StoryReaper periodically soft-deletes stories past their 24h display
// window. Expiry is still enforced at read time; the sweep only keeps the
// stories table from accumulating dead rows.
type StoryReaper struct {
	storage  storage.Storage
	interval time.Duration
	logger   *slog.Logger
}

func NewStoryReaper(store storage.Storage, interval time.Duration) *StoryReaper {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &StoryReaper{
		storage:  store,
		interval: interval,
		logger:   logger,
	}
}

func (sr *StoryReaper) Start(ctx context.Context) {
	ticker := time.NewTicker(sr.interval)
	defer ticker.Stop()

	sr.logger.Info("Story reaper started",
		"interval", sr.interval.String())

	// Run once immediately on startup
	sr.reapExpiredStories(ctx)

	for {
		select {
		case <-ctx.Done():
			sr.logger.Info("Story reaper shutting down")
			return
		case <-ticker.C:
			sr.reapExpiredStories(ctx)
		}
	}
}

func (sr *StoryReaper) reapExpiredStories(ctx context.Context) {
	startTime := time.Now()

	count, err := sr.storage.SoftDeleteExpiredStories(ctx)
	if err != nil {
		sr.logger.Error("Failed to reap expired stories",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	duration := time.Since(startTime)

	sr.logger.Info("Completed expired stories sweep",
		"stories_reaped", count,
		"duration_ms", duration.Milliseconds(),
		"duration", duration.String())
}

func main() {
	// Load config
	cfg := config.MustLoad()

	// Initialize database connection
	pg, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// The sweep goes through the cache wrapper so a reaped story also drops
	// the cached story rail.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	store := cache.NewService(pg, redisClient)

	// Create reaper with 1-minute interval
	reaper := NewStoryReaper(store, time.Minute)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	reaper.Start(ctx)

	slog.Info("Story reaper stopped")
}
