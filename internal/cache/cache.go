// Package cache decorates the storage layer with Redis caching for the hot
// read paths: the story rail groups, the category chips, and single posts.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/types"
	"github.com/wayfareapp/wayfare-service/internal/types/admin"
	"github.com/wayfareapp/wayfare-service/internal/types/users"
)

// Cache key patterns
const (
	StoryGroupsKey = "stories:groups"
	CategoriesKey  = "feed:categories"
	PostKey        = "post:%s" // post:postID
)

// Cache durations
const (
	StoryGroupsDuration = 45 * time.Second
	CategoriesDuration  = 5 * time.Minute
	PostDuration        = 10 * time.Second
)

// Service wraps a storage.Storage with Redis caching. Everything not cached
// passes straight through, so it satisfies storage.Storage itself.
type Service struct {
	storage storage.Storage
	redis   *redis.Client
}

func NewService(storage storage.Storage, redisClient *redis.Client) *Service {
	return &Service{
		storage: storage,
		redis:   redisClient,
	}
}

// StoryGroups serves the raw (unfiltered) rail groups from cache when warm.
// Expiry filtering happens above this layer at read time, so a cached group
// crossing its 24h boundary still renders correctly.
func (c *Service) StoryGroups(ctx context.Context) ([]types.StoryGroup, error) {
	cached, err := c.redis.Get(ctx, StoryGroupsKey).Result()
	if err == nil {
		var groups []types.StoryGroup
		if err := json.Unmarshal([]byte(cached), &groups); err == nil {
			return groups, nil
		}
	}

	groups, err := c.storage.StoryGroups(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(groups); err == nil {
		c.redis.Set(ctx, StoryGroupsKey, data, StoryGroupsDuration)
	}

	return groups, nil
}

func (c *Service) Categories(ctx context.Context) ([]types.Category, error) {
	cached, err := c.redis.Get(ctx, CategoriesKey).Result()
	if err == nil {
		var cats []types.Category
		if err := json.Unmarshal([]byte(cached), &cats); err == nil {
			return cats, nil
		}
	}

	cats, err := c.storage.Categories(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cats); err == nil {
		c.redis.Set(ctx, CategoriesKey, data, CategoriesDuration)
	}

	return cats, nil
}

func (c *Service) GetPostByID(ctx context.Context, postID string) (types.Post, error) {
	key := fmt.Sprintf(PostKey, postID)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var post types.Post
		if err := json.Unmarshal([]byte(cached), &post); err == nil {
			return post, nil
		}
	}

	post, err := c.storage.GetPostByID(ctx, postID)
	if err != nil {
		return types.Post{}, err
	}

	if data, err := json.Marshal(post); err == nil {
		c.redis.Set(ctx, key, data, PostDuration)
	}

	return post, nil
}

func (c *Service) invalidatePost(ctx context.Context, postID string) {
	c.redis.Del(ctx, fmt.Sprintf(PostKey, postID))
}

func (c *Service) invalidateStoryGroups(ctx context.Context) {
	c.redis.Del(ctx, StoryGroupsKey)
}

// Write paths invalidate whatever they touched, then pass through.

func (c *Service) CreateStory(ctx context.Context, authorID, mediaURL string, mediaType types.MediaType) (string, error) {
	id, err := c.storage.CreateStory(ctx, authorID, mediaURL, mediaType)
	if err != nil {
		return "", err
	}
	c.invalidateStoryGroups(ctx)
	return id, nil
}

func (c *Service) DeleteStory(ctx context.Context, storyID, requesterID string) error {
	if err := c.storage.DeleteStory(ctx, storyID, requesterID); err != nil {
		return err
	}
	c.invalidateStoryGroups(ctx)
	return nil
}

func (c *Service) SoftDeleteExpiredStories(ctx context.Context) (int, error) {
	n, err := c.storage.SoftDeleteExpiredStories(ctx)
	if err == nil && n > 0 {
		c.invalidateStoryGroups(ctx)
	}
	return n, err
}

func (c *Service) SetPostLike(ctx context.Context, postID, userID string, liked bool) (int, error) {
	count, err := c.storage.SetPostLike(ctx, postID, userID, liked)
	if err != nil {
		return 0, err
	}
	c.invalidatePost(ctx, postID)
	return count, nil
}

func (c *Service) SetPostSave(ctx context.Context, postID, userID string, saved bool) error {
	if err := c.storage.SetPostSave(ctx, postID, userID, saved); err != nil {
		return err
	}
	c.invalidatePost(ctx, postID)
	return nil
}

func (c *Service) DeletePost(ctx context.Context, postID, requesterID string) error {
	if err := c.storage.DeletePost(ctx, postID, requesterID); err != nil {
		return err
	}
	c.invalidatePost(ctx, postID)
	return nil
}

// Pure passthroughs below; these paths have no caching story yet.

func (c *Service) CreateUser(ctx context.Context, email, passwordHash, name string) (string, error) {
	return c.storage.CreateUser(ctx, email, passwordHash, name)
}

func (c *Service) GetUserByEmail(ctx context.Context, email string) (users.User, string, error) {
	return c.storage.GetUserByEmail(ctx, email)
}

func (c *Service) GetUserByID(ctx context.Context, id string) (users.User, error) {
	return c.storage.GetUserByID(ctx, id)
}

func (c *Service) GetProfile(ctx context.Context, userID string) (users.Profile, error) {
	return c.storage.GetProfile(ctx, userID)
}

func (c *Service) GetStoryByID(ctx context.Context, storyID string) (types.Story, error) {
	return c.storage.GetStoryByID(ctx, storyID)
}

func (c *Service) RecordStoryView(ctx context.Context, storyID, viewerID string) error {
	return c.storage.RecordStoryView(ctx, storyID, viewerID)
}

func (c *Service) SetStoryLike(ctx context.Context, storyID, userID string, liked bool) error {
	return c.storage.SetStoryLike(ctx, storyID, userID, liked)
}

func (c *Service) CreatePost(ctx context.Context, post types.Post) (string, error) {
	return c.storage.CreatePost(ctx, post)
}

func (c *Service) FeedPosts(ctx context.Context) ([]types.Post, error) {
	return c.storage.FeedPosts(ctx)
}

func (c *Service) Comments(ctx context.Context, contentID string) ([]types.Comment, error) {
	return c.storage.Comments(ctx, contentID)
}

func (c *Service) AddComment(ctx context.Context, contentID string, comment types.Comment) (string, error) {
	return c.storage.AddComment(ctx, contentID, comment)
}

func (c *Service) AddReply(ctx context.Context, contentID, commentID string, reply types.Reply) (string, error) {
	return c.storage.AddReply(ctx, contentID, commentID, reply)
}

func (c *Service) EditComment(ctx context.Context, commentID, requesterID, text string) error {
	return c.storage.EditComment(ctx, commentID, requesterID, text)
}

func (c *Service) DeleteComment(ctx context.Context, commentID, requesterID string) error {
	return c.storage.DeleteComment(ctx, commentID, requesterID)
}

func (c *Service) SetCommentLike(ctx context.Context, commentID, userID string, liked bool) (int, error) {
	return c.storage.SetCommentLike(ctx, commentID, userID, liked)
}

func (c *Service) ListUsers(ctx context.Context, q admin.UserQuery) (admin.UserPage, error) {
	return c.storage.ListUsers(ctx, q)
}

func (c *Service) BanUser(ctx context.Context, userID, reason string) error {
	return c.storage.BanUser(ctx, userID, reason)
}

func (c *Service) UnbanUser(ctx context.Context, userID string) error {
	return c.storage.UnbanUser(ctx, userID)
}

func (c *Service) SetUserRole(ctx context.Context, userID string, role users.Role) error {
	return c.storage.SetUserRole(ctx, userID, role)
}

func (c *Service) DeleteUser(ctx context.Context, userID string) error {
	return c.storage.DeleteUser(ctx, userID)
}

func (c *Service) DashboardStats(ctx context.Context) (admin.DashboardStats, error) {
	return c.storage.DashboardStats(ctx)
}

func (c *Service) AppendAuditLog(ctx context.Context, entry admin.AuditEntry) error {
	return c.storage.AppendAuditLog(ctx, entry)
}

func (c *Service) AuditLogs(ctx context.Context, q admin.LogQuery) (admin.LogPage, error) {
	return c.storage.AuditLogs(ctx, q)
}
