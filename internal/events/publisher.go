package events

import (
	"time"

	"github.com/wayfareapp/wayfare-service/internal/types"
)

// Publisher interface for publishing real-time events
type Publisher interface {
	PublishPostLiked(postID, userID string, liked bool, likesCount int) error
	PublishPostSaved(postID, userID string, saved bool) error
	PublishCommentAdded(contentID, commentID, userID string) error
	PublishStoryViewed(storyID, viewerID, authorID string) error
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	BroadcastToTopic(topic string, event *types.Event)
	IsUserConnected(userID string) bool
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub WebSocketHub
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

// PublishPostLiked pushes the new like state to everyone watching the post.
// Subscribers use it to keep their counters in sync without refetching.
func (p *EventPublisher) PublishPostLiked(postID, userID string, liked bool, likesCount int) error {
	eventData := &types.PostReactionEvent{
		PostID:     postID,
		UserID:     userID,
		Active:     liked,
		LikesCount: likesCount,
	}

	event := types.NewEvent(types.EventPostLiked, eventData)
	p.hub.BroadcastToTopic(types.PostTopic(postID), event)

	return nil
}

// PublishPostSaved pushes a save-state change to the post topic.
func (p *EventPublisher) PublishPostSaved(postID, userID string, saved bool) error {
	eventData := &types.PostReactionEvent{
		PostID: postID,
		UserID: userID,
		Active: saved,
	}

	event := types.NewEvent(types.EventPostSaved, eventData)
	p.hub.BroadcastToTopic(types.PostTopic(postID), event)

	return nil
}

// PublishCommentAdded notifies post-topic subscribers that the thread grew.
func (p *EventPublisher) PublishCommentAdded(contentID, commentID, userID string) error {
	eventData := &types.CommentAddedEvent{
		ContentID: contentID,
		CommentID: commentID,
		UserID:    userID,
	}

	event := types.NewEvent(types.EventCommentAdded, eventData)
	p.hub.BroadcastToTopic(types.PostTopic(contentID), event)

	return nil
}

// PublishStoryViewed publishes a story viewed event to the story author
func (p *EventPublisher) PublishStoryViewed(storyID, viewerID, authorID string) error {
	// Don't send notification if the author viewed their own story
	if viewerID == authorID {
		return nil
	}

	// Only send if the author is connected
	if !p.hub.IsUserConnected(authorID) {
		return nil
	}

	eventData := &types.StoryViewedEvent{
		StoryID:  storyID,
		ViewerID: viewerID,
		ViewedAt: time.Now().UTC().Format(time.RFC3339),
	}

	event := types.NewEvent(types.EventStoryViewed, eventData)
	p.hub.BroadcastToUser(authorID, event)

	return nil
}
