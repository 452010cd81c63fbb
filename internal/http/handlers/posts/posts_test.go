package posts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfareapp/wayfare-service/internal/http/middleware"
	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/types"
)

// fakeStore keeps one post in memory and applies like toggles with set
// semantics, the same contract the SQL layer provides with its conflict-free
// insert. Unused Storage methods panic via the embedded nil interface.
type fakeStore struct {
	storage.Storage
	post types.Post
}

func (f *fakeStore) GetPostByID(_ context.Context, postID string) (types.Post, error) {
	if postID != f.post.ID {
		return types.Post{}, storage.ErrNotFound
	}
	return f.post, nil
}

func (f *fakeStore) SetPostLike(_ context.Context, postID, userID string, liked bool) (int, error) {
	if postID != f.post.ID {
		return 0, storage.ErrNotFound
	}
	if liked {
		f.post.Likes = types.AddToSet(f.post.Likes, userID)
	} else {
		f.post.Likes = types.RemoveFromSet(f.post.Likes, userID)
	}
	f.post.LikesCount = len(f.post.Likes)
	return f.post.LikesCount, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishPostLiked(postID, userID string, liked bool, likesCount int) error {
	return nil
}
func (noopPublisher) PublishPostSaved(postID, userID string, saved bool) error        { return nil }
func (noopPublisher) PublishCommentAdded(contentID, commentID, userID string) error   { return nil }
func (noopPublisher) PublishStoryViewed(storyID, viewerID, authorID string) error     { return nil }

func likeRequest(t *testing.T, mux *http.ServeMux, userID, postID string, active bool) *httptest.ResponseRecorder {
	t.Helper()

	body := `{"active":false}`
	if active {
		body = `{"active":true}`
	}
	req := httptest.NewRequest(http.MethodPost, "/posts/"+postID+"/like", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestLikePostIdempotent(t *testing.T) {
	store := &fakeStore{post: types.Post{ID: "p1", UserID: "author"}}

	mux := http.NewServeMux()
	mux.Handle("POST /posts/{id}/like", LikePost(store, noopPublisher{}))

	rec := likeRequest(t, mux, "u1", "p1", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var first map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))
	assert.Equal(t, 1, first["likes_count"])

	// Liking an already-liked post must not bump the count or duplicate the id.
	rec = likeRequest(t, mux, "u1", "p1", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var second map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))
	assert.Equal(t, 1, second["likes_count"])
	assert.Equal(t, []string{"u1"}, store.post.Likes)
}

func TestUnlikeRemovesExactlyOneLiker(t *testing.T) {
	store := &fakeStore{post: types.Post{ID: "p1", Likes: []string{"u1", "u2"}, LikesCount: 2}}

	mux := http.NewServeMux()
	mux.Handle("POST /posts/{id}/like", LikePost(store, noopPublisher{}))

	rec := likeRequest(t, mux, "u1", "p1", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp["likes_count"])
	assert.Equal(t, []string{"u2"}, store.post.Likes)

	// A repeat unlike is a no-op.
	rec = likeRequest(t, mux, "u1", "p1", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp["likes_count"])
}

func TestLikeUnknownPostReturnsNotFound(t *testing.T) {
	store := &fakeStore{post: types.Post{ID: "p1"}}

	mux := http.NewServeMux()
	mux.Handle("POST /posts/{id}/like", LikePost(store, noopPublisher{}))

	rec := likeRequest(t, mux, "u1", "missing", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
