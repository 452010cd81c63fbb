package playback

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/wayfareapp/wayfare-service/internal/http/middleware"
	"github.com/wayfareapp/wayfare-service/internal/playback"
	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/utils/response"
)

type openRequest struct {
	AuthorID string `json:"author_id"`
}

type openResponse struct {
	SessionID string            `json:"session_id"`
	Snapshot  playback.Snapshot `json:"snapshot"`
}

// eventRequest is one viewer interaction. DurationMS only matters for
// media_loaded on a video.
type eventRequest struct {
	Type       string `json:"type"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Open       bool   `json:"open,omitempty"`
}

// OpenSession starts a viewer session over an author's live stories
// @Summary Open a story viewer session
// @Tags playback
// @Accept json
// @Produce json
// @Param body body openRequest true "Author whose stories to view"
// @Success 201 {object} openResponse "Session opened"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "No live stories for author"
// @Security BearerAuth
// @Router /playback/sessions [post]
func OpenSession(store storage.Storage, manager *playback.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req openRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) || (err == nil && req.AuthorID == "") {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("author_id is required")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		groups, err := store.StoryGroups(r.Context())
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		now := time.Now()
		var media []playback.StoryMedia
		for _, g := range groups {
			if g.UserID != req.AuthorID {
				continue
			}
			for _, s := range g.Stories {
				if s.Live(now) {
					media = append(media, playback.StoryMedia{ID: s.ID, MediaType: s.MediaType})
				}
			}
		}
		if len(media) == 0 {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("no live stories for author")))
			return
		}

		id := manager.Open(media)

		var snap playback.Snapshot
		manager.With(id, func(s *playback.Session) { snap = s.Snapshot() })

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Session opened", openResponse{
			SessionID: id,
			Snapshot:  snap,
		}))
	}
}

// SessionEvent applies a viewer interaction to a session
// @Summary Send a playback event
// @Description Event types: tap_left, tap_right, toggle_pause, comments, media_loaded, media_buffering
// @Tags playback
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param body body eventRequest true "Event"
// @Success 200 {object} playback.Snapshot "State after the event"
// @Failure 400 {object} response.Response "Unknown event type"
// @Failure 404 {object} response.Response "No such session"
// @Security BearerAuth
// @Router /playback/sessions/{id}/events [post]
func SessionEvent(manager *playback.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		sessionID := r.PathValue("id")

		var req eventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		var snap playback.Snapshot
		unknown := false
		err := manager.With(sessionID, func(s *playback.Session) {
			switch req.Type {
			case "tap_left":
				s.TapLeft()
			case "tap_right":
				s.TapRight()
			case "toggle_pause":
				s.TogglePause()
			case "comments":
				s.SetCommentsOpen(req.Open)
			case "media_loaded":
				s.MediaLoaded(time.Duration(req.DurationMS) * time.Millisecond)
			case "media_buffering":
				s.MediaBuffering()
			default:
				unknown = true
			}
			snap = s.Snapshot()
		})
		if errors.Is(err, playback.ErrNoSession) {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(playback.ErrNoSession))
			return
		}
		if unknown {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("unknown event type")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Event applied", snap))
	}
}

// SessionState returns the current snapshot of a session
// @Summary Get playback state
// @Tags playback
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} playback.Snapshot "Current state"
// @Failure 404 {object} response.Response "No such session"
// @Security BearerAuth
// @Router /playback/sessions/{id} [get]
func SessionState(manager *playback.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		sessionID := r.PathValue("id")

		var snap playback.Snapshot
		err := manager.With(sessionID, func(s *playback.Session) { snap = s.Snapshot() })
		if errors.Is(err, playback.ErrNoSession) {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(playback.ErrNoSession))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("State fetched successfully", snap))
	}
}

// CloseSession drops a session
// @Summary Close a viewer session
// @Tags playback
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response "Session closed"
// @Security BearerAuth
// @Router /playback/sessions/{id} [delete]
func CloseSession(manager *playback.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		manager.Close(r.PathValue("id"))
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Session closed", nil))
	}
}
