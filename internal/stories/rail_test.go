package stories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wayfareapp/wayfare-service/internal/types"
	"github.com/wayfareapp/wayfare-service/internal/types/users"
)

type fakeProfiles struct {
	avatars map[string]string
	fail    map[string]bool
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID string) (users.Profile, error) {
	if f.fail[userID] {
		return users.Profile{}, errors.New("backend unavailable")
	}
	return users.Profile{UserID: userID, Avatar: f.avatars[userID]}, nil
}

var railNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return railNow }

func story(id, userID string, age time.Duration) types.Story {
	created := railNow.Add(-age)
	return types.Story{
		ID:        id,
		UserID:    userID,
		MediaType: types.MediaTypeImage,
		CreatedAt: created,
		ExpiresAt: created.Add(types.StoryLifetime),
	}
}

func TestAssembleFiltersExpiredStories(t *testing.T) {
	rail := NewRail(&fakeProfiles{avatars: map[string]string{"a": "x"}}, "default.png", fixedNow)

	groups := []types.StoryGroup{{
		UserID: "a",
		Stories: []types.Story{
			story("fresh", "a", types.StoryLifetime-time.Second),
			story("stale", "a", types.StoryLifetime+time.Second),
		},
	}}

	out := rail.Assemble(context.Background(), "viewer", groups)
	if len(out) != 1 {
		t.Fatalf("expected 1 group, got %d", len(out))
	}
	if len(out[0].Stories) != 1 || out[0].Stories[0].ID != "fresh" {
		t.Fatalf("expected only the fresh story, got %+v", out[0].Stories)
	}
}

func TestAssembleDropsAuthorsWithNoLiveStories(t *testing.T) {
	rail := NewRail(&fakeProfiles{avatars: map[string]string{}}, "default.png", fixedNow)

	groups := []types.StoryGroup{
		{UserID: "expired", Stories: []types.Story{story("s1", "expired", 25 * time.Hour)}},
		{UserID: "live", Stories: []types.Story{story("s2", "live", time.Hour)}},
	}

	out := rail.Assemble(context.Background(), "viewer", groups)
	if len(out) != 1 || out[0].UserID != "live" {
		t.Fatalf("expected only the live author, got %+v", out)
	}
}

func TestAssembleSelfGroupFirst(t *testing.T) {
	rail := NewRail(&fakeProfiles{avatars: map[string]string{}}, "default.png", fixedNow)

	groups := []types.StoryGroup{
		{UserID: "b", Stories: []types.Story{story("s1", "b", time.Hour)}},
		{UserID: "c", Stories: []types.Story{story("s2", "c", time.Hour)}},
		{UserID: "me", Stories: []types.Story{story("s3", "me", time.Hour)}},
	}

	out := rail.Assemble(context.Background(), "me", groups)
	if len(out) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(out))
	}
	if out[0].UserID != "me" || !out[0].IsSelf {
		t.Fatalf("expected viewer's group first, got %+v", out[0])
	}
	// Others keep backend order.
	if out[1].UserID != "b" || out[2].UserID != "c" {
		t.Fatalf("expected b then c after self, got %s, %s", out[1].UserID, out[2].UserID)
	}
}

func TestAssembleAvatarResolution(t *testing.T) {
	profiles := &fakeProfiles{avatars: map[string]string{"fresh": "profile.png"}}
	rail := NewRail(profiles, "default.png", fixedNow)

	groups := []types.StoryGroup{
		{UserID: "fresh", UserAvatar: "embedded.png", Stories: []types.Story{story("s1", "fresh", time.Hour)}},
		{UserID: "embedded", UserAvatar: "embedded.png", Stories: []types.Story{story("s2", "embedded", time.Hour)}},
		{UserID: "none", Stories: []types.Story{story("s3", "none", time.Hour)}},
	}

	out := rail.Assemble(context.Background(), "viewer", groups)
	if len(out) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(out))
	}
	if out[0].UserAvatar != "profile.png" {
		t.Fatalf("profile avatar must win over embedded, got %q", out[0].UserAvatar)
	}
	if out[1].UserAvatar != "embedded.png" {
		t.Fatalf("embedded avatar must be kept when profile has none, got %q", out[1].UserAvatar)
	}
	if out[2].UserAvatar != "default.png" {
		t.Fatalf("default avatar expected, got %q", out[2].UserAvatar)
	}
	if out[0].Stories[0].UserAvatar != "profile.png" {
		t.Fatal("resolved avatar must propagate to the group's stories")
	}
}

func TestAssembleOmitsAuthorOnProfileError(t *testing.T) {
	profiles := &fakeProfiles{avatars: map[string]string{}, fail: map[string]bool{"broken": true}}
	rail := NewRail(profiles, "default.png", fixedNow)

	groups := []types.StoryGroup{
		{UserID: "broken", Stories: []types.Story{story("s1", "broken", time.Hour)}},
		{UserID: "ok", Stories: []types.Story{story("s2", "ok", time.Hour)}},
	}

	out := rail.Assemble(context.Background(), "viewer", groups)
	if len(out) != 1 || out[0].UserID != "ok" {
		t.Fatalf("author with failing profile lookup must be omitted silently, got %+v", out)
	}
}
