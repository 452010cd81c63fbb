package posts

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/wayfareapp/wayfare-service/internal/events"
	"github.com/wayfareapp/wayfare-service/internal/feed"
	"github.com/wayfareapp/wayfare-service/internal/http/middleware"
	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/types"
	"github.com/wayfareapp/wayfare-service/internal/utils/response"
)

// PostCreateRequest is the create-post payload. Location accepts either a
// bare string or a structured object.
type PostCreateRequest struct {
	ImageURLs []string       `json:"image_urls"`
	VideoURLs []string       `json:"video_urls"`
	Caption   string         `json:"caption" validate:"required"`
	Category  string         `json:"category" validate:"required"`
	Location  types.Location `json:"location"`
}

type reactionRequest struct {
	Active bool `json:"active"`
}

// Feed returns the post feed
// @Summary Get the post feed
// @Description Newest-first posts with viewer annotations. At most one filter applies; location beats category.
// @Tags posts
// @Produce json
// @Param location query string false "Location name filter"
// @Param category query string false "Category filter"
// @Param pinned query string false "Post ID to pin on top of a location-filtered feed"
// @Success 200 {object} response.Response "Post feed"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /posts [get]
func Feed(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		posts, err := store.FeedPosts(r.Context())
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		filter := feed.Filter{
			Location:     r.URL.Query().Get("location"),
			Category:     r.URL.Query().Get("category"),
			PinnedPostID: r.URL.Query().Get("pinned"),
		}

		assembled := feed.Assemble(posts, userID, filter)
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Posts fetched successfully", assembled))
	}
}

// Categories returns the category chip list
// @Summary Get feed categories
// @Description Validated category chips; falls back to the default set when the stored list is unusable
// @Tags posts
// @Produce json
// @Success 200 {object} response.Response "Categories"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /categories [get]
func Categories(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fetched, err := store.Categories(r.Context())
		if err != nil {
			slog.Error("Failed to fetch categories, serving defaults", slog.String("error", err.Error()))
			fetched = nil
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Categories fetched successfully", feed.ValidCategories(fetched)))
	}
}

// CreatePost handles creating a new post
// @Summary Create a new post
// @Tags posts
// @Accept json
// @Produce json
// @Param post body PostCreateRequest true "Post content"
// @Success 201 {object} map[string]string "Post created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /posts [post]
func CreatePost(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req PostCreateRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		err = validate.Struct(req)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if len(req.ImageURLs) == 0 && len(req.VideoURLs) == 0 {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("post must carry at least one media url")))
			return
		}

		postID, err := store.CreatePost(r.Context(), types.Post{
			UserID:    userID,
			ImageURLs: req.ImageURLs,
			VideoURLs: req.VideoURLs,
			Caption:   req.Caption,
			Category:  req.Category,
			Location:  req.Location,
		})
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		slog.Info("Post created with ID:", slog.String("post_id", postID))

		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": postID})
	}
}

// GetPost returns a single post
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} response.Response "Post"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /posts/{id} [get]
func GetPost(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		postID := r.PathValue("id")
		if postID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("post ID is required")))
			return
		}

		post, err := store.GetPostByID(r.Context(), postID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("post not found")))
				return
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		annotated := feed.Annotate([]types.Post{post}, userID)
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Post fetched successfully", annotated[0]))
	}
}

// LikePost sets or clears the viewer's like and pushes the new count to
// post-topic subscribers
// @Summary Like or unlike a post
// @Tags posts
// @Accept json
// @Param id path string true "Post ID"
// @Param body body reactionRequest true "Desired like state"
// @Success 200 {object} map[string]int "Updated like count"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /posts/{id}/like [post]
func LikePost(store storage.Storage, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		postID := r.PathValue("id")
		var req reactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		count, err := store.SetPostLike(r.Context(), postID, userID, req.Active)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("post not found")))
				return
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		if err := publisher.PublishPostLiked(postID, userID, req.Active, count); err != nil {
			slog.Error("Failed to publish like event", slog.String("error", err.Error()))
		}

		response.WriteJSON(w, http.StatusOK, map[string]int{"likes_count": count})
	}
}

// SavePost sets or clears the viewer's save on a post
// @Summary Save or unsave a post
// @Tags posts
// @Accept json
// @Param id path string true "Post ID"
// @Param body body reactionRequest true "Desired save state"
// @Success 200 {object} response.Response "Save state updated"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /posts/{id}/save [post]
func SavePost(store storage.Storage, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		postID := r.PathValue("id")
		var req reactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := store.SetPostSave(r.Context(), postID, userID, req.Active); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("post not found")))
				return
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		if err := publisher.PublishPostSaved(postID, userID, req.Active); err != nil {
			slog.Error("Failed to publish save event", slog.String("error", err.Error()))
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Save state updated", nil))
	}
}

// DeletePost removes one of the viewer's own posts
// @Summary Delete a post
// @Tags posts
// @Param id path string true "Post ID"
// @Success 200 {object} response.Response "Post deleted"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not the owner"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /posts/{id} [delete]
func DeletePost(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		postID := r.PathValue("id")
		err := store.DeletePost(r.Context(), postID, userID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("post not found")))
			return
		case errors.Is(err, storage.ErrNotOwner):
			response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errors.New("not the post owner")))
			return
		case err != nil:
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Post deleted successfully", nil))
	}
}
