package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wayfareapp/wayfare-service/internal/config"
	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/types/users"
)

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	pg := &Postgres{Db: db}
	if err := pg.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			avatar TEXT NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'moderator', 'admin')),
			status VARCHAR(20) NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'banned')),
			ban_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_active_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS stories (
			id TEXT PRIMARY KEY,
			author_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			media_url TEXT NOT NULL,
			media_type VARCHAR(10) NOT NULL CHECK (media_type IN ('image', 'video')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS story_views (
			story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			viewer_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			viewed_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (story_id, viewer_id)
		);`,
		`CREATE TABLE IF NOT EXISTS story_likes (
			story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			liked_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (story_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			author_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			caption TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			image_urls TEXT[] NOT NULL DEFAULT '{}',
			video_urls TEXT[] NOT NULL DEFAULT '{}',
			location_name TEXT NOT NULL DEFAULT '',
			location_address TEXT NOT NULL DEFAULT '',
			location_lat DOUBLE PRECISION NOT NULL DEFAULT 0,
			location_lon DOUBLE PRECISION NOT NULL DEFAULT 0,
			location_verified BOOLEAN NOT NULL DEFAULT FALSE,
			comments_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS post_likes (
			post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			liked_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (post_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS post_saves (
			post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			saved_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (post_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			content_id TEXT NOT NULL,
			parent_id TEXT REFERENCES comments(id) ON DELETE CASCADE,
			author_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			edited_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS comments_content_idx ON comments(content_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS comment_likes (
			comment_id TEXT NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			liked_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (comment_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS categories (
			name TEXT PRIMARY KEY,
			image TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS admin_audit_logs (
			id TEXT PRIMARY KEY,
			admin_id TEXT NOT NULL,
			action TEXT NOT NULL,
			target_id TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) CreateUser(ctx context.Context, email, passwordHash, name string) (string, error) {
	id := uuid.New().String()
	query := `
	INSERT INTO users (id, email, password, name)
	VALUES ($1, $2, $3, $4)
	`

	if _, err := p.Db.ExecContext(ctx, query, id, email, passwordHash, name); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return "", storage.ErrEmailUsed
		}
		return "", err
	}

	return id, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (users.User, string, error) {
	var u users.User
	var hash string
	query := `
	SELECT id, email, password, name, avatar, role, status, ban_reason, created_at, last_active_at
	FROM users WHERE email = $1
	`

	err := p.Db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &hash, &u.Name, &u.Avatar, &u.Role, &u.Status, &u.BanReason, &u.CreatedAt, &u.LastActiveAt)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, "", storage.ErrNotFound
	}
	if err != nil {
		return users.User{}, "", err
	}

	return u, hash, nil
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (users.User, error) {
	var u users.User
	query := `
	SELECT id, email, name, avatar, role, status, ban_reason, created_at, last_active_at
	FROM users WHERE id = $1
	`

	err := p.Db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Name, &u.Avatar, &u.Role, &u.Status, &u.BanReason, &u.CreatedAt, &u.LastActiveAt)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, storage.ErrNotFound
	}
	if err != nil {
		return users.User{}, err
	}

	return u, nil
}

func (p *Postgres) GetProfile(ctx context.Context, userID string) (users.Profile, error) {
	var prof users.Profile
	query := `SELECT id, name, avatar FROM users WHERE id = $1`

	err := p.Db.QueryRowContext(ctx, query, userID).Scan(&prof.UserID, &prof.Name, &prof.Avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return users.Profile{}, storage.ErrNotFound
	}
	if err != nil {
		return users.Profile{}, err
	}

	return prof, nil
}

func (p *Postgres) touchLastActive(ctx context.Context, userID string) {
	// Best effort; a stale last_active_at only skews the dashboard counter.
	p.Db.ExecContext(ctx, `UPDATE users SET last_active_at = $2 WHERE id = $1`, userID, time.Now().UTC())
}
