package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/types/admin"
	"github.com/wayfareapp/wayfare-service/internal/types/users"
)

const defaultPageSize = 20

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultPageSize
	}
	return page, limit
}

func (p *Postgres) ListUsers(ctx context.Context, q admin.UserQuery) (admin.UserPage, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	where := []string{"1=1"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Search != "" {
		ph := arg("%" + strings.ToLower(q.Search) + "%")
		where = append(where, fmt.Sprintf("(LOWER(email) LIKE %s OR LOWER(name) LIKE %s)", ph, ph))
	}
	if q.Role != "" {
		where = append(where, "role = "+arg(string(q.Role)))
	}
	if q.Status != "" {
		where = append(where, "status = "+arg(string(q.Status)))
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := p.Db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE `+cond, args...).Scan(&total); err != nil {
		return admin.UserPage{}, err
	}

	query := fmt.Sprintf(`
	SELECT id, email, name, avatar, role, status, ban_reason, created_at, last_active_at
	FROM users WHERE %s
	ORDER BY created_at DESC
	LIMIT %s OFFSET %s`, cond, arg(limit), arg((page-1)*limit))

	rows, err := p.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return admin.UserPage{}, err
	}
	defer rows.Close()

	result := admin.UserPage{Total: total, Data: []users.User{}}
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Avatar, &u.Role, &u.Status, &u.BanReason, &u.CreatedAt, &u.LastActiveAt); err != nil {
			return admin.UserPage{}, err
		}
		result.Data = append(result.Data, u)
	}

	return result, rows.Err()
}

func (p *Postgres) BanUser(ctx context.Context, userID, reason string) error {
	return p.mutateUser(ctx, userID,
		`UPDATE users SET status = 'banned', ban_reason = $2 WHERE id = $1`, reason)
}

func (p *Postgres) UnbanUser(ctx context.Context, userID string) error {
	return p.mutateUser(ctx, userID,
		`UPDATE users SET status = 'active', ban_reason = '' WHERE id = $1`)
}

func (p *Postgres) SetUserRole(ctx context.Context, userID string, role users.Role) error {
	return p.mutateUser(ctx, userID,
		`UPDATE users SET role = $2 WHERE id = $1`, string(role))
}

func (p *Postgres) DeleteUser(ctx context.Context, userID string) error {
	return p.mutateUser(ctx, userID, `DELETE FROM users WHERE id = $1`)
}

func (p *Postgres) mutateUser(ctx context.Context, userID, query string, extra ...interface{}) error {
	args := append([]interface{}{userID}, extra...)
	res, err := p.Db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	return nil
}

func (p *Postgres) DashboardStats(ctx context.Context) (admin.DashboardStats, error) {
	var stats admin.DashboardStats
	query := `
	SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM users WHERE status = 'active' AND last_active_at > CURRENT_TIMESTAMP - INTERVAL '30 days'),
		(SELECT COUNT(*) FROM users WHERE status = 'banned'),
		(SELECT COUNT(*) FROM posts WHERE deleted_at IS NULL),
		(SELECT COUNT(*) FROM users WHERE created_at > CURRENT_TIMESTAMP - INTERVAL '30 days')
	`

	err := p.Db.QueryRowContext(ctx, query).Scan(
		&stats.TotalUsers, &stats.ActiveUsers, &stats.BannedUsers, &stats.TotalPosts, &stats.NewUsersLast30Day)
	if err != nil {
		return admin.DashboardStats{}, err
	}

	// Reports live in a separate moderation service; the dashboard shows zero
	// until that lands.
	return stats, nil
}

func (p *Postgres) AppendAuditLog(ctx context.Context, entry admin.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO admin_audit_logs (id, admin_id, action, target_id, reason, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.Db.ExecContext(ctx, query,
		entry.ID, entry.AdminID, entry.Action, entry.TargetID, entry.Reason, entry.CreatedAt)
	return err
}

func (p *Postgres) AuditLogs(ctx context.Context, q admin.LogQuery) (admin.LogPage, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	where := []string{"1=1"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.AdminID != "" {
		where = append(where, "admin_id = "+arg(q.AdminID))
	}
	if q.Action != "" {
		where = append(where, "action = "+arg(q.Action))
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := p.Db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin_audit_logs WHERE `+cond, args...).Scan(&total); err != nil {
		return admin.LogPage{}, err
	}

	query := fmt.Sprintf(`
	SELECT id, admin_id, action, target_id, reason, created_at
	FROM admin_audit_logs WHERE %s
	ORDER BY created_at DESC
	LIMIT %s OFFSET %s`, cond, arg(limit), arg((page-1)*limit))

	rows, err := p.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return admin.LogPage{}, err
	}
	defer rows.Close()

	result := admin.LogPage{Total: total, Data: []admin.AuditEntry{}}
	for rows.Next() {
		var e admin.AuditEntry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.TargetID, &e.Reason, &e.CreatedAt); err != nil {
			return admin.LogPage{}, err
		}
		result.Data = append(result.Data, e)
	}

	return result, rows.Err()
}
