package middleware

import (
	"errors"
	"net/http"

	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/types/users"
	"github.com/wayfareapp/wayfare-service/internal/utils/response"
)

// RequireRole gates a route on the requester's role, looked up from storage
// rather than trusted from the token so demotions take effect immediately.
func RequireRole(store storage.Storage, minimum users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("user not authenticated")))
				return
			}

			user, err := store.GetUserByID(r.Context(), userID)
			if err != nil {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("unknown user")))
				return
			}

			if !user.Role.AtLeast(minimum) {
				response.WriteJSON(w, http.StatusForbidden, response.GeneralError(
					errors.New("insufficient permissions")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin restricts a route to admin accounts.
func RequireAdmin(store storage.Storage) func(http.Handler) http.Handler {
	return RequireRole(store, users.RoleAdmin)
}

// RequireModerator allows moderators and admins.
func RequireModerator(store storage.Storage) func(http.Handler) http.Handler {
	return RequireRole(store, users.RoleModerator)
}
