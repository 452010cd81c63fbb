package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wayfareapp/wayfare-service/internal/http/middleware"
	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/types/admin"
	"github.com/wayfareapp/wayfare-service/internal/types/users"
	"github.com/wayfareapp/wayfare-service/internal/utils/response"
)

type banRequest struct {
	Reason string `json:"reason"`
}

type roleRequest struct {
	Role users.Role `json:"role"`
}

// ListUsers returns a filtered, paged user list
// @Summary List users
// @Tags admin
// @Produce json
// @Param page query int false "Page, 1-based"
// @Param limit query int false "Page size"
// @Param search query string false "Match against email or name"
// @Param role query string false "Role filter"
// @Param status query string false "Status filter"
// @Success 200 {object} admin.UserPage "Users"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Forbidden"
// @Security BearerAuth
// @Router /admin/users [get]
func ListUsers(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := admin.UserQuery{
			Page:   queryInt(r, "page", 1),
			Limit:  queryInt(r, "limit", 20),
			Search: r.URL.Query().Get("search"),
			Role:   users.Role(r.URL.Query().Get("role")),
			Status: users.Status(r.URL.Query().Get("status")),
		}

		page, err := store.ListUsers(r.Context(), q)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Users fetched successfully", page))
	}
}

// BanUser bans a user account
// @Summary Ban a user
// @Tags admin
// @Accept json
// @Param id path string true "User ID"
// @Param body body banRequest false "Ban reason"
// @Success 200 {object} response.Response "User banned"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "User not found"
// @Security BearerAuth
// @Router /admin/users/{id}/ban [post]
func BanUser(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, targetID, ok := adminAndTarget(w, r)
		if !ok {
			return
		}

		if adminID == targetID {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("cannot ban yourself")))
			return
		}

		var req banRequest
		json.NewDecoder(r.Body).Decode(&req)

		if err := store.BanUser(r.Context(), targetID, req.Reason); err != nil {
			writeUserError(w, err)
			return
		}

		audit(r, store, adminID, admin.ActionBanUser, targetID, req.Reason)
		response.WriteJSON(w, http.StatusOK, response.RequestOK("User banned successfully", nil))
	}
}

// UnbanUser lifts a ban
// @Summary Unban a user
// @Tags admin
// @Param id path string true "User ID"
// @Success 200 {object} response.Response "User unbanned"
// @Failure 404 {object} response.Response "User not found"
// @Security BearerAuth
// @Router /admin/users/{id}/unban [post]
func UnbanUser(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, targetID, ok := adminAndTarget(w, r)
		if !ok {
			return
		}

		if err := store.UnbanUser(r.Context(), targetID); err != nil {
			writeUserError(w, err)
			return
		}

		audit(r, store, adminID, admin.ActionUnbanUser, targetID, "")
		response.WriteJSON(w, http.StatusOK, response.RequestOK("User unbanned successfully", nil))
	}
}

// SetRole changes a user's role
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Param id path string true "User ID"
// @Param body body roleRequest true "New role"
// @Success 200 {object} response.Response "Role updated"
// @Failure 400 {object} response.Response "Unknown role"
// @Failure 404 {object} response.Response "User not found"
// @Security BearerAuth
// @Router /admin/users/{id}/role [post]
func SetRole(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, targetID, ok := adminAndTarget(w, r)
		if !ok {
			return
		}

		var req roleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		if !users.ValidRole(req.Role) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("unknown role")))
			return
		}

		if adminID == targetID {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("cannot change your own role")))
			return
		}

		if err := store.SetUserRole(r.Context(), targetID, req.Role); err != nil {
			writeUserError(w, err)
			return
		}

		audit(r, store, adminID, admin.ActionChangeRole, targetID, string(req.Role))
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Role updated successfully", nil))
	}
}

// DeleteUser removes a user account and its content
// @Summary Delete a user
// @Tags admin
// @Param id path string true "User ID"
// @Success 200 {object} response.Response "User deleted"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func DeleteUser(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, targetID, ok := adminAndTarget(w, r)
		if !ok {
			return
		}

		if adminID == targetID {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("cannot delete yourself")))
			return
		}

		if err := store.DeleteUser(r.Context(), targetID); err != nil {
			writeUserError(w, err)
			return
		}

		audit(r, store, adminID, admin.ActionDeleteUser, targetID, "")
		response.WriteJSON(w, http.StatusOK, response.RequestOK("User deleted successfully", nil))
	}
}

// Dashboard returns aggregate platform counters
// @Summary Get dashboard statistics
// @Tags admin
// @Produce json
// @Success 200 {object} admin.DashboardStats "Statistics"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /admin/analytics/dashboard [get]
func Dashboard(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.DashboardStats(r.Context())
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Stats fetched successfully", stats))
	}
}

// Logs returns the admin audit trail
// @Summary Get audit logs
// @Tags admin
// @Produce json
// @Param page query int false "Page, 1-based"
// @Param limit query int false "Page size"
// @Param admin_id query string false "Filter by acting admin"
// @Param action query string false "Filter by action"
// @Success 200 {object} admin.LogPage "Audit entries"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /admin/logs [get]
func Logs(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := admin.LogQuery{
			Page:    queryInt(r, "page", 1),
			Limit:   queryInt(r, "limit", 50),
			AdminID: r.URL.Query().Get("admin_id"),
			Action:  r.URL.Query().Get("action"),
		}

		page, err := store.AuditLogs(r.Context(), q)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Logs fetched successfully", page))
	}
}

func adminAndTarget(w http.ResponseWriter, r *http.Request) (adminID, targetID string, ok bool) {
	adminID, ok = middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
		return "", "", false
	}

	targetID = r.PathValue("id")
	if targetID == "" {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("user ID is required")))
		return "", "", false
	}
	return adminID, targetID, true
}

func writeUserError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("user not found")))
		return
	}
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}

// audit records the action; a failed append is logged, not surfaced, so the
// admin action itself still succeeds.
func audit(r *http.Request, store storage.Storage, adminID, action, targetID, reason string) {
	err := store.AppendAuditLog(r.Context(), admin.AuditEntry{
		AdminID:  adminID,
		Action:   action,
		TargetID: targetID,
		Reason:   reason,
	})
	if err != nil {
		slog.Error("Failed to append audit log",
			slog.String("action", action),
			slog.String("error", err.Error()))
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
