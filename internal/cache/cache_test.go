package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/types"
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

// stubStorage embeds the interface so only the methods a test exercises need
// implementations.
type stubStorage struct {
	storage.Storage
	storyGroupCalls int
	groups          []types.StoryGroup
	categoryCalls   int
	categories      []types.Category
}

func (s *stubStorage) StoryGroups(context.Context) ([]types.StoryGroup, error) {
	s.storyGroupCalls++
	return s.groups, nil
}

func (s *stubStorage) Categories(context.Context) ([]types.Category, error) {
	s.categoryCalls++
	return s.categories, nil
}

func (s *stubStorage) CreateStory(context.Context, string, string, types.MediaType) (string, error) {
	return "new-story", nil
}

func TestStoryGroupsCachedAcrossReads(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	stub := &stubStorage{groups: []types.StoryGroup{{UserID: "a"}}}
	svc := NewService(stub, redisClient)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		groups, err := svc.StoryGroups(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(groups) != 1 || groups[0].UserID != "a" {
			t.Fatalf("unexpected groups: %+v", groups)
		}
	}

	if stub.storyGroupCalls != 1 {
		t.Fatalf("expected a single storage read, got %d", stub.storyGroupCalls)
	}
}

func TestCreateStoryInvalidatesGroups(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	stub := &stubStorage{groups: []types.StoryGroup{{UserID: "a"}}}
	svc := NewService(stub, redisClient)

	ctx := context.Background()
	if _, err := svc.StoryGroups(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.CreateStory(ctx, "a", "media.jpg", types.MediaTypeImage); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.StoryGroups(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.storyGroupCalls != 2 {
		t.Fatalf("expected re-fetch after story creation, got %d calls", stub.storyGroupCalls)
	}
}

func TestCategoriesCached(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	stub := &stubStorage{categories: []types.Category{{Name: "Food", Image: "food.jpg"}}}
	svc := NewService(stub, redisClient)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		cats, err := svc.Categories(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cats) != 1 || cats[0].Name != "Food" {
			t.Fatalf("unexpected categories: %+v", cats)
		}
	}

	if stub.categoryCalls != 1 {
		t.Fatalf("expected a single storage read, got %d", stub.categoryCalls)
	}
}
