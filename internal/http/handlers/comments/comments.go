package comments

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	commentsvc "github.com/wayfareapp/wayfare-service/internal/comments"
	"github.com/wayfareapp/wayfare-service/internal/events"
	"github.com/wayfareapp/wayfare-service/internal/http/middleware"
	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/types"
	"github.com/wayfareapp/wayfare-service/internal/utils/response"
)

type commentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// Thread returns the comment thread for a content item
// @Summary Get a comment thread
// @Description Comments for a post or story, served through a short TTL cache
// @Tags comments
// @Produce json
// @Param id path string true "Content ID"
// @Success 200 {object} response.Response "Comment thread"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /content/{id}/comments [get]
func Thread(svc *commentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		contentID := r.PathValue("id")
		if contentID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("content ID is required")))
			return
		}

		thread, err := svc.Thread(r.Context(), contentID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Comments fetched successfully", thread))
	}
}

// AddComment posts a new top-level comment and returns the refreshed thread
// @Summary Add a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Content ID"
// @Param comment body commentRequest true "Comment text"
// @Success 201 {object} response.Response "Refreshed comment thread"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /content/{id}/comments [post]
func AddComment(svc *commentsvc.Service, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		contentID := r.PathValue("id")
		req, ok := decodeCommentRequest(w, r)
		if !ok {
			return
		}

		commentID, thread, err := svc.AddComment(r.Context(), contentID, types.Comment{
			UserID: userID,
			Text:   req.Text,
		})
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		// Best effort: the comment is persisted either way.
		if err := publisher.PublishCommentAdded(contentID, commentID, userID); err != nil {
			slog.Error("Failed to publish comment event", slog.String("error", err.Error()))
		}

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Comment added successfully", thread))
	}
}

// AddReply posts a reply under a top-level comment
// @Summary Reply to a comment
// @Description Replies nest exactly one level; replying to a reply is rejected
// @Tags comments
// @Accept json
// @Param id path string true "Content ID"
// @Param comment_id path string true "Parent comment ID"
// @Param reply body commentRequest true "Reply text"
// @Success 201 {object} response.Response "Reply added"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Comment not found"
// @Security BearerAuth
// @Router /content/{id}/comments/{comment_id}/replies [post]
func AddReply(svc *commentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		contentID := r.PathValue("id")
		commentID := r.PathValue("comment_id")
		req, ok := decodeCommentRequest(w, r)
		if !ok {
			return
		}

		err := svc.AddReply(r.Context(), contentID, commentID, types.Reply{
			UserID: userID,
			Text:   req.Text,
		})
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("comment not found")))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Reply added successfully", nil))
	}
}

// EditComment updates a comment's text
// @Summary Edit a comment
// @Description Only the author may edit; local state changes only after the store confirms
// @Tags comments
// @Accept json
// @Param id path string true "Content ID"
// @Param comment_id path string true "Comment ID"
// @Param comment body commentRequest true "New text"
// @Success 200 {object} response.Response "Comment edited"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not the author"
// @Failure 404 {object} response.Response "Comment not found"
// @Security BearerAuth
// @Router /content/{id}/comments/{comment_id} [patch]
func EditComment(svc *commentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		contentID := r.PathValue("id")
		commentID := r.PathValue("comment_id")
		req, ok := decodeCommentRequest(w, r)
		if !ok {
			return
		}

		err := svc.Edit(r.Context(), contentID, commentID, userID, req.Text)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("comment not found")))
			return
		case errors.Is(err, storage.ErrNotOwner):
			response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errors.New("not the comment author")))
			return
		case err != nil:
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Comment edited successfully", nil))
	}
}

// DeleteComment removes a comment or reply
// @Summary Delete a comment
// @Tags comments
// @Param id path string true "Content ID"
// @Param comment_id path string true "Comment ID"
// @Success 200 {object} response.Response "Comment deleted"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not the author"
// @Failure 404 {object} response.Response "Comment not found"
// @Security BearerAuth
// @Router /content/{id}/comments/{comment_id} [delete]
func DeleteComment(svc *commentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		contentID := r.PathValue("id")
		commentID := r.PathValue("comment_id")

		err := svc.Delete(r.Context(), contentID, commentID, userID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("comment not found")))
			return
		case errors.Is(err, storage.ErrNotOwner):
			response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errors.New("not the comment author")))
			return
		case err != nil:
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Comment deleted successfully", nil))
	}
}

// ToggleLike flips the viewer's like on a comment
// @Summary Like or unlike a comment
// @Tags comments
// @Produce json
// @Param id path string true "Content ID"
// @Param comment_id path string true "Comment ID"
// @Success 200 {object} map[string]interface{} "New like state and count"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Comment not found"
// @Security BearerAuth
// @Router /content/{id}/comments/{comment_id}/like [post]
func ToggleLike(svc *commentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		contentID := r.PathValue("id")
		commentID := r.PathValue("comment_id")

		liked, count, err := svc.ToggleLike(r.Context(), contentID, commentID, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("comment not found")))
				return
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"liked":       liked,
			"likes_count": count,
		})
	}
}

func decodeCommentRequest(w http.ResponseWriter, r *http.Request) (commentRequest, bool) {
	var req commentRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
		return req, false
	} else if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return req, false
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
			return req, false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return req, false
	}

	return req, true
}
