package storage

import (
	"context"
	"errors"

	"github.com/wayfareapp/wayfare-service/internal/types"
	"github.com/wayfareapp/wayfare-service/internal/types/admin"
	"github.com/wayfareapp/wayfare-service/internal/types/users"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrNotOwner  = errors.New("not the owner")
	ErrEmailUsed = errors.New("email already registered")
)

type Storage interface {
	// users
	CreateUser(ctx context.Context, email, passwordHash, name string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (users.User, string, error)
	GetUserByID(ctx context.Context, id string) (users.User, error)
	GetProfile(ctx context.Context, userID string) (users.Profile, error)

	// stories
	CreateStory(ctx context.Context, authorID, mediaURL string, mediaType types.MediaType) (string, error)
	StoryGroups(ctx context.Context) ([]types.StoryGroup, error)
	GetStoryByID(ctx context.Context, storyID string) (types.Story, error)
	RecordStoryView(ctx context.Context, storyID, viewerID string) error
	SetStoryLike(ctx context.Context, storyID, userID string, liked bool) error
	DeleteStory(ctx context.Context, storyID, requesterID string) error
	SoftDeleteExpiredStories(ctx context.Context) (int, error)

	// posts
	CreatePost(ctx context.Context, post types.Post) (string, error)
	FeedPosts(ctx context.Context) ([]types.Post, error)
	GetPostByID(ctx context.Context, postID string) (types.Post, error)
	SetPostLike(ctx context.Context, postID, userID string, liked bool) (int, error)
	SetPostSave(ctx context.Context, postID, userID string, saved bool) error
	DeletePost(ctx context.Context, postID, requesterID string) error

	// comments (contentID is a post or story id)
	Comments(ctx context.Context, contentID string) ([]types.Comment, error)
	AddComment(ctx context.Context, contentID string, comment types.Comment) (string, error)
	AddReply(ctx context.Context, contentID, commentID string, reply types.Reply) (string, error)
	EditComment(ctx context.Context, commentID, requesterID, text string) error
	DeleteComment(ctx context.Context, commentID, requesterID string) error
	SetCommentLike(ctx context.Context, commentID, userID string, liked bool) (int, error)

	// categories
	Categories(ctx context.Context) ([]types.Category, error)

	// admin
	ListUsers(ctx context.Context, q admin.UserQuery) (admin.UserPage, error)
	BanUser(ctx context.Context, userID, reason string) error
	UnbanUser(ctx context.Context, userID string) error
	SetUserRole(ctx context.Context, userID string, role users.Role) error
	DeleteUser(ctx context.Context, userID string) error
	DashboardStats(ctx context.Context) (admin.DashboardStats, error)
	AppendAuditLog(ctx context.Context, entry admin.AuditEntry) error
	AuditLogs(ctx context.Context, q admin.LogQuery) (admin.LogPage, error)
}
