package admin

import (
	"time"

	"github.com/wayfareapp/wayfare-service/internal/types/users"
)

// UserQuery is the paging/filter envelope for GET /admin/users.
type UserQuery struct {
	Page   int
	Limit  int
	Search string
	Role   users.Role
	Status users.Status
}

type UserPage struct {
	Data  []users.User `json:"data"`
	Total int          `json:"total"`
}

type DashboardStats struct {
	TotalUsers        int `json:"totalUsers"`
	ActiveUsers       int `json:"activeUsers"`
	BannedUsers       int `json:"bannedUsers"`
	TotalPosts        int `json:"totalPosts"`
	PendingReports    int `json:"pendingReports"`
	NewUsersLast30Day int `json:"newUsersLast30Days"`
	TotalReports      int `json:"totalReports"`
}

type AuditEntry struct {
	ID        string    `json:"id"`
	AdminID   string    `json:"admin_id"`
	Action    string    `json:"action"`
	TargetID  string    `json:"target_id"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type LogQuery struct {
	Page    int
	Limit   int
	AdminID string
	Action  string
}

type LogPage struct {
	Data  []AuditEntry `json:"data"`
	Total int          `json:"total"`
}

// Audit actions recorded by the admin handlers.
const (
	ActionBanUser    = "user.ban"
	ActionUnbanUser  = "user.unban"
	ActionChangeRole = "user.role"
	ActionDeleteUser = "user.delete"
)
