package types

import (
	"bytes"
	"encoding/json"
	"time"
)

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// StoryLifetime is the display window for a story after creation.
const StoryLifetime = 24 * time.Hour

type Story struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar"`
	MediaURL   string    `json:"media_url"`
	MediaType  MediaType `json:"media_type"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Views      []string  `json:"views"`
	Likes      []string  `json:"likes"`
}

// Live reports whether the story is still display-eligible. Expiry is a
// read-time predicate; expired rows may well still exist in storage.
func (s Story) Live(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// StoryGroup is one author's slot in the story rail.
type StoryGroup struct {
	UserID     string  `json:"user_id"`
	UserName   string  `json:"user_name"`
	UserAvatar string  `json:"user_avatar"`
	IsSelf     bool    `json:"is_self"`
	Stories    []Story `json:"stories"`
}

// Location is a post's location tag. The wire format is either a bare string
// (free text) or a structured object; both decode into this one type so
// nothing downstream has to branch on shape.
type Location struct {
	Name     string  `json:"name"`
	Address  string  `json:"address,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	Verified bool    `json:"verified,omitempty"`
}

func (l *Location) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return err
		}
		*l = Location{Name: name}
		return nil
	}

	type plain Location
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*l = Location(p)
	return nil
}

func (l Location) IsZero() bool {
	return l == Location{}
}

type Post struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	ImageURLs     []string  `json:"image_urls"`
	VideoURLs     []string  `json:"video_urls"`
	Caption       string    `json:"caption"`
	Category      string    `json:"category"`
	Location      Location  `json:"location"`
	Likes         []string  `json:"likes"`
	LikesCount    int       `json:"likes_count"`
	SavedBy       []string  `json:"saved_by"`
	CommentsCount int       `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`

	// Viewer annotations, set once per fetch by feed assembly.
	Liked bool `json:"liked"`
	Saved bool `json:"saved"`
}

// Comment is a top-level comment on a post or story. Replies nest exactly one
// level: Reply has no replies field, so deeper nesting cannot be expressed.
type Comment struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	UserName   string     `json:"user_name"`
	UserAvatar string     `json:"user_avatar"`
	Text       string     `json:"text"`
	CreatedAt  time.Time  `json:"created_at"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`
	Likes      []string   `json:"likes"`
	LikesCount int        `json:"likes_count"`
	Replies    []Reply    `json:"replies"`
}

type Reply struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	UserName   string     `json:"user_name"`
	UserAvatar string     `json:"user_avatar"`
	Text       string     `json:"text"`
	CreatedAt  time.Time  `json:"created_at"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`
	Likes      []string   `json:"likes"`
	LikesCount int        `json:"likes_count"`
}

type Category struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// DefaultCategories is the fallback chip set when the stored list is empty or
// entirely malformed.
var DefaultCategories = []Category{
	{Name: "Adventure", Image: "https://cdn.wayfare.app/categories/adventure.jpg"},
	{Name: "Beaches", Image: "https://cdn.wayfare.app/categories/beaches.jpg"},
	{Name: "City Breaks", Image: "https://cdn.wayfare.app/categories/city-breaks.jpg"},
	{Name: "Food", Image: "https://cdn.wayfare.app/categories/food.jpg"},
	{Name: "Nature", Image: "https://cdn.wayfare.app/categories/nature.jpg"},
	{Name: "Culture", Image: "https://cdn.wayfare.app/categories/culture.jpg"},
}

// SetContains reports membership of id in an id set.
func SetContains(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// AddToSet appends id unless already present.
func AddToSet(set []string, id string) []string {
	if SetContains(set, id) {
		return set
	}
	return append(set, id)
}

// RemoveFromSet removes every occurrence of id.
func RemoveFromSet(set []string, id string) []string {
	out := set[:0]
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
