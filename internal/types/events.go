package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventPostLiked    EventType = "post.liked"
	EventPostSaved    EventType = "post.saved"
	EventStoryViewed  EventType = "story.viewed"
	EventCommentAdded EventType = "comment.added"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// PostReactionEvent carries a post's like/save state to subscribers of the
// post topic. This is the only live subscription the app keeps open.
type PostReactionEvent struct {
	PostID     string `json:"post_id"`
	UserID     string `json:"user_id"`
	Active     bool   `json:"active"`
	LikesCount int    `json:"likes_count"`
}

// StoryViewedEvent notifies a story author that someone viewed their story.
type StoryViewedEvent struct {
	StoryID  string `json:"story_id"`
	ViewerID string `json:"viewer_id"`
	ViewedAt string `json:"viewed_at"`
}

// CommentAddedEvent notifies post-topic subscribers of a new comment.
type CommentAddedEvent struct {
	ContentID string `json:"content_id"`
	CommentID string `json:"comment_id"`
	UserID    string `json:"user_id"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// PostTopic is the subscription topic for a single post's reaction state.
func PostTopic(postID string) string {
	return "post:" + postID
}
