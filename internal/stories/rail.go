// Package stories assembles the story rail: the per-author groups of
// time-limited media posts shown at the top of the feed.
package stories

import (
	"context"
	"log/slog"
	"time"

	"github.com/wayfareapp/wayfare-service/internal/types"
	"github.com/wayfareapp/wayfare-service/internal/types/users"
)

// ProfileSource yields the freshest known profile for an author. The avatar
// embedded in a story record is a snapshot from upload time and may be stale.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (users.Profile, error)
}

type Rail struct {
	profiles      ProfileSource
	defaultAvatar string
	now           func() time.Time
}

func NewRail(profiles ProfileSource, defaultAvatar string, now func() time.Time) *Rail {
	if now == nil {
		now = time.Now
	}
	return &Rail{
		profiles:      profiles,
		defaultAvatar: defaultAvatar,
		now:           now,
	}
}

// Assemble filters the fetched groups down to what the viewer should see now:
//   - within each group only stories with expires_at in the future survive;
//     expiry is evaluated here, at read time, because storage may hold expired
//     rows indefinitely
//   - a group with zero live stories is dropped entirely
//   - each surviving group gets its avatar refreshed from the profile source
//   - the viewer's own group, if present, is moved to the front; everyone else
//     keeps the order storage returned
//
// A failed profile lookup drops that author from the rail; the rest of the
// rail is still served.
func (r *Rail) Assemble(ctx context.Context, viewerID string, groups []types.StoryGroup) []types.StoryGroup {
	now := r.now()

	out := make([]types.StoryGroup, 0, len(groups))
	selfIdx := -1
	for _, g := range groups {
		live := make([]types.Story, 0, len(g.Stories))
		for _, s := range g.Stories {
			if s.Live(now) {
				live = append(live, s)
			}
		}
		if len(live) == 0 {
			continue
		}

		g.Stories = live
		g.IsSelf = g.UserID == viewerID

		avatar, ok := r.resolveAvatar(ctx, g)
		if !ok {
			continue
		}
		g.UserAvatar = avatar
		for i := range g.Stories {
			g.Stories[i].UserAvatar = avatar
		}

		if g.IsSelf {
			selfIdx = len(out)
		}
		out = append(out, g)
	}

	if selfIdx > 0 {
		self := out[selfIdx]
		copy(out[1:selfIdx+1], out[:selfIdx])
		out[0] = self
	}

	return out
}

// resolveAvatar prefers the freshly fetched profile avatar, then the avatar
// embedded in the group, then the configured default. A lookup error omits
// the author rather than surfacing a partial-data failure.
func (r *Rail) resolveAvatar(ctx context.Context, g types.StoryGroup) (string, bool) {
	prof, err := r.profiles.GetProfile(ctx, g.UserID)
	if err != nil {
		slog.Warn("story rail: profile lookup failed, omitting author",
			slog.String("user_id", g.UserID),
			slog.String("error", err.Error()))
		return "", false
	}

	if prof.Avatar != "" {
		return prof.Avatar, true
	}
	if g.UserAvatar != "" {
		return g.UserAvatar, true
	}
	return r.defaultAvatar, true
}
