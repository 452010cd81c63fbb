package comments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfareapp/wayfare-service/internal/types"
)

// fakeClock is advanced manually so TTL boundaries are exact.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
}

type fakeStore struct {
	threads    map[string][]types.Comment
	fetchCalls int
	nextID     int
	failEdit   bool
	failDelete bool
	failLike   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{threads: make(map[string][]types.Comment)}
}

func (f *fakeStore) Comments(_ context.Context, contentID string) ([]types.Comment, error) {
	f.fetchCalls++
	return append([]types.Comment(nil), f.threads[contentID]...), nil
}

func (f *fakeStore) AddComment(_ context.Context, contentID string, c types.Comment) (string, error) {
	f.nextID++
	c.ID = "srv-" + string(rune('0'+f.nextID))
	f.threads[contentID] = append(f.threads[contentID], c)
	return c.ID, nil
}

func (f *fakeStore) AddReply(_ context.Context, contentID, commentID string, r types.Reply) (string, error) {
	f.nextID++
	r.ID = "srv-" + string(rune('0'+f.nextID))
	thread := f.threads[contentID]
	for i := range thread {
		if thread[i].ID == commentID {
			thread[i].Replies = append(thread[i].Replies, r)
			return r.ID, nil
		}
	}
	return "", errors.New("parent not found")
}

func (f *fakeStore) EditComment(_ context.Context, commentID, requesterID, text string) error {
	if f.failEdit {
		return errors.New("edit rejected")
	}
	for _, thread := range f.threads {
		for i := range thread {
			if thread[i].ID == commentID {
				thread[i].Text = text
			}
		}
	}
	return nil
}

func (f *fakeStore) DeleteComment(_ context.Context, commentID, requesterID string) error {
	if f.failDelete {
		return errors.New("delete rejected")
	}
	return nil
}

func (f *fakeStore) SetCommentLike(_ context.Context, commentID, userID string, liked bool) (int, error) {
	if f.failLike {
		return 0, errors.New("like rejected")
	}
	return 0, nil
}

func TestThreadServedFromCacheWithinTTL(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	store.threads["p1"] = []types.Comment{{ID: "c1", Text: "hi"}}
	svc := NewService(store, DefaultTTL, clock.Now)

	_, err := svc.Thread(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 1, store.fetchCalls)

	clock.Advance(29 * time.Second)
	_, err = svc.Thread(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.fetchCalls, "second request within 30s must be served from cache")

	clock.Advance(2 * time.Second) // 31s past the fetch
	_, err = svc.Thread(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, store.fetchCalls, "request after TTL must re-fetch")
}

func TestAddCommentRoundTrip(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	svc := NewService(store, DefaultTTL, clock.Now)

	fetchesBefore := store.fetchCalls
	id, thread, err := svc.AddComment(context.Background(), "p1", types.Comment{UserID: "u1", Text: "first!"})
	require.NoError(t, err)

	// The new comment triggers an immediate re-fetch for server-assigned ids.
	assert.Equal(t, fetchesBefore+1, store.fetchCalls)
	require.Len(t, thread, 1)
	assert.Equal(t, "first!", thread[0].Text)
	assert.Equal(t, "u1", thread[0].UserID)
	assert.Equal(t, id, thread[0].ID)
}

func TestAddCommentReturnsAssignedID(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	// An existing comment with the same timestamp makes thread order useless
	// for recovering the new comment's id.
	store.threads["p1"] = []types.Comment{{ID: "old", UserID: "u0", Text: "earlier", CreatedAt: clock.Now()}}
	svc := NewService(store, DefaultTTL, clock.Now)

	id, thread, err := svc.AddComment(context.Background(), "p1", types.Comment{UserID: "u1", Text: "new"})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.NotEqual(t, "old", id)

	found := false
	for _, c := range thread {
		if c.ID == id {
			found = true
			assert.Equal(t, "new", c.Text)
		}
	}
	assert.True(t, found, "returned id must name the comment that was just added")
}

func TestAddReplyMergesWithoutRefetch(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	store.threads["p1"] = []types.Comment{{ID: "c1", Text: "root"}}
	svc := NewService(store, DefaultTTL, clock.Now)

	_, err := svc.Thread(context.Background(), "p1")
	require.NoError(t, err)
	fetches := store.fetchCalls

	require.NoError(t, svc.AddReply(context.Background(), "p1", "c1", types.Reply{UserID: "u2", Text: "me too"}))
	assert.Equal(t, fetches, store.fetchCalls, "replies rely entirely on the optimistic merge")

	thread, err := svc.Thread(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, thread[0].Replies, 1)
	assert.Equal(t, "me too", thread[0].Replies[0].Text)
}

func TestEditAppliesOnlyOnSuccess(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	store.threads["p1"] = []types.Comment{{ID: "c1", UserID: "u1", Text: "before"}}
	svc := NewService(store, DefaultTTL, clock.Now)

	_, err := svc.Thread(context.Background(), "p1")
	require.NoError(t, err)

	store.failEdit = true
	err = svc.Edit(context.Background(), "p1", "c1", "u1", "after")
	require.Error(t, err)

	thread, err := svc.Thread(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "before", thread[0].Text, "failed edit must not mutate local state")

	store.failEdit = false
	require.NoError(t, svc.Edit(context.Background(), "p1", "c1", "u1", "after"))

	thread, err = svc.Thread(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "after", thread[0].Text)
	assert.NotNil(t, thread[0].EditedAt)
}

func TestDeleteAppliesOnlyOnSuccess(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	store.threads["p1"] = []types.Comment{{ID: "c1", UserID: "u1", Text: "root"}}
	svc := NewService(store, DefaultTTL, clock.Now)

	_, err := svc.Thread(context.Background(), "p1")
	require.NoError(t, err)

	store.failDelete = true
	require.Error(t, svc.Delete(context.Background(), "p1", "c1", "u1"))
	thread, _ := svc.Thread(context.Background(), "p1")
	assert.Len(t, thread, 1, "failed delete must not mutate local state")

	store.failDelete = false
	require.NoError(t, svc.Delete(context.Background(), "p1", "c1", "u1"))
	thread, _ = svc.Thread(context.Background(), "p1")
	assert.Empty(t, thread)
}

func TestToggleLikeSeedsAndClamps(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	store.threads["p1"] = []types.Comment{{ID: "c1", Likes: []string{"other"}, LikesCount: 1}}
	svc := NewService(store, DefaultTTL, clock.Now)

	_, err := svc.Thread(context.Background(), "p1")
	require.NoError(t, err)

	// Seeded from the fetched comment: count 1, viewer not among likers.
	liked, count, err := svc.ToggleLike(context.Background(), "p1", "c1", "uA")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 2, count)

	liked, count, err = svc.ToggleLike(context.Background(), "p1", "c1", "uA")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 1, count)
}

func TestToggleLikeNeverGoesNegative(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	svc := NewService(store, DefaultTTL, clock.Now)

	// Unseeded comment, count starts at zero.
	liked, count, err := svc.ToggleLike(context.Background(), "p1", "cX", "uA")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	_, count, err = svc.ToggleLike(context.Background(), "p1", "cX", "uA")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// A second unlike from a user who never liked must clamp at zero.
	_, count, err = svc.ToggleLike(context.Background(), "p1", "cX", "uB")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	_, count, err = svc.ToggleLike(context.Background(), "p1", "cX", "uB")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	_, count, err = svc.ToggleLike(context.Background(), "p1", "cX", "uB")
	require.NoError(t, err)
	_, count, err = svc.ToggleLike(context.Background(), "p1", "cX", "uB")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 0, "counter must never go negative")
}

func TestToggleLikeRevertsOnStoreFailure(t *testing.T) {
	clock := newFakeClock()
	store := newFakeStore()
	store.failLike = true
	svc := NewService(store, DefaultTTL, clock.Now)

	liked, count, err := svc.ToggleLike(context.Background(), "p1", "c1", "uA")
	require.Error(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)
}
