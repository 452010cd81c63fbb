// Package feed produces the ordered post list a viewer sees, applying the
// viewer's like/save annotations and at most one active filter.
package feed

import (
	"strings"

	"github.com/wayfareapp/wayfare-service/internal/types"
)

// Filter is the zero-or-one active feed restriction. When both a location and
// a category are set, location wins.
type Filter struct {
	Location     string
	Category     string
	PinnedPostID string
}

// Annotate stamps the viewer's like/save state onto each post by set
// membership. Done once per fetch, not reactively.
func Annotate(posts []types.Post, viewerID string) []types.Post {
	for i := range posts {
		posts[i].Liked = types.SetContains(posts[i].Likes, viewerID)
		posts[i].Saved = types.SetContains(posts[i].SavedBy, viewerID)
	}
	return posts
}

// Apply restricts posts to the active filter. Location takes precedence over
// category; with a location filter the pinned post (if it matches) moves to
// the top and the rest keep fetch order.
func Apply(posts []types.Post, f Filter) []types.Post {
	if f.Location != "" {
		return applyLocation(posts, f.Location, f.PinnedPostID)
	}
	if f.Category != "" {
		out := make([]types.Post, 0, len(posts))
		for _, p := range posts {
			if strings.EqualFold(p.Category, f.Category) {
				out = append(out, p)
			}
		}
		return out
	}
	return posts
}

func applyLocation(posts []types.Post, location, pinnedID string) []types.Post {
	out := make([]types.Post, 0, len(posts))
	pinned := -1
	for _, p := range posts {
		if !matchesLocation(p, location) {
			continue
		}
		if p.ID == pinnedID {
			pinned = len(out)
		}
		out = append(out, p)
	}

	if pinned > 0 {
		top := out[pinned]
		copy(out[1:pinned+1], out[:pinned])
		out[0] = top
	}

	return out
}

// matchesLocation compares case-insensitively against the post's location
// name. Free-text locations are normalized into Name at the decode boundary,
// so one comparison covers both wire shapes.
func matchesLocation(p types.Post, location string) bool {
	return p.Location.Name != "" && strings.EqualFold(p.Location.Name, location)
}

// Assemble is the full pipeline: annotate for the viewer, then filter.
func Assemble(posts []types.Post, viewerID string, f Filter) []types.Post {
	return Apply(Annotate(posts, viewerID), f)
}

// ValidCategories keeps only chips with a non-empty name and image. An empty
// validated list falls back to the fixed default set.
func ValidCategories(fetched []types.Category) []types.Category {
	out := make([]types.Category, 0, len(fetched))
	for _, c := range fetched {
		if c.Name != "" && c.Image != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return types.DefaultCategories
	}
	return out
}
