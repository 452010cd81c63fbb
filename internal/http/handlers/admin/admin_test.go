package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfareapp/wayfare-service/internal/http/middleware"
	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/types/admin"
	"github.com/wayfareapp/wayfare-service/internal/types/users"
)

// fakeStore records role changes and audit entries; unused Storage methods
// panic via the embedded nil interface.
type fakeStore struct {
	storage.Storage
	roles   map[string]users.Role
	entries []admin.AuditEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{roles: make(map[string]users.Role)}
}

func (f *fakeStore) SetUserRole(_ context.Context, userID string, role users.Role) error {
	if userID == "missing" {
		return storage.ErrNotFound
	}
	f.roles[userID] = role
	return nil
}

func (f *fakeStore) AppendAuditLog(_ context.Context, entry admin.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

// newRoleMux registers the role-change route the way the server wires it:
// POST is the documented surface, PATCH is kept as an alias.
func newRoleMux(store storage.Storage) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /admin/users/{id}/role", SetRole(store))
	mux.Handle("PATCH /admin/users/{id}/role", SetRole(store))
	return mux
}

func roleChange(mux *http.ServeMux, method, adminID, targetID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/admin/users/"+targetID+"/role", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, adminID))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSetRoleAcceptsPost(t *testing.T) {
	store := newFakeStore()
	mux := newRoleMux(store)

	rec := roleChange(mux, http.MethodPost, "admin-1", "u1", `{"role":"moderator"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, users.RoleModerator, store.roles["u1"])

	require.Len(t, store.entries, 1)
	assert.Equal(t, admin.ActionChangeRole, store.entries[0].Action)
	assert.Equal(t, "admin-1", store.entries[0].AdminID)
	assert.Equal(t, "u1", store.entries[0].TargetID)
}

func TestSetRolePatchAliasStillRoutes(t *testing.T) {
	store := newFakeStore()
	mux := newRoleMux(store)

	rec := roleChange(mux, http.MethodPatch, "admin-1", "u1", `{"role":"moderator"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, users.RoleModerator, store.roles["u1"])
}

func TestSetRoleRejectsUnknownRole(t *testing.T) {
	store := newFakeStore()
	mux := newRoleMux(store)

	rec := roleChange(mux, http.MethodPost, "admin-1", "u1", `{"role":"overlord"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.roles)
}

func TestSetRoleRejectsSelfChange(t *testing.T) {
	store := newFakeStore()
	mux := newRoleMux(store)

	rec := roleChange(mux, http.MethodPost, "admin-1", "admin-1", `{"role":"user"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.roles)
}
