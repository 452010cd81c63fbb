package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// setupTestRedis creates an in-memory Redis server for testing
func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
		DB:   0,
	})

	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		t.Fatalf("Failed to connect to test Redis: %v", err)
	}

	cleanup := func() {
		redisClient.Close()
		mr.Close()
	}

	return redisClient, cleanup
}

func TestLimiterAllow(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	limiter := New(redisClient, 5, 5)

	ctx := context.Background()
	userID := "user_1"
	action := "comments"

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, userID, action)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, userID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("Expected request to be denied after limit reached")
	}

	remaining, err := limiter.Remaining(ctx, userID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("Expected 0 remaining tokens, got %d", remaining)
	}
}

func TestLimiterRemaining(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	limiter := New(redisClient, 10, 10)

	ctx := context.Background()
	userID := "user_2"
	action := "reactions"

	remaining, err := limiter.Remaining(ctx, userID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 10 {
		t.Fatalf("Expected 10 remaining tokens, got %d", remaining)
	}

	for i := 0; i < 3; i++ {
		limiter.Allow(ctx, userID, action)
	}

	remaining, err = limiter.Remaining(ctx, userID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 7 {
		t.Fatalf("Expected 7 remaining tokens, got %d", remaining)
	}
}

func TestLimiterReset(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	limiter := New(redisClient, 5, 5)

	ctx := context.Background()
	userID := "user_3"
	action := "stories"

	for i := 0; i < 5; i++ {
		limiter.Allow(ctx, userID, action)
	}

	if err := limiter.Reset(ctx, userID, action); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	remaining, err := limiter.Remaining(ctx, userID, action)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 5 {
		t.Fatalf("Expected 5 remaining tokens after reset, got %d", remaining)
	}
}
