package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wayfareapp/wayfare-service/internal/storage"
	"github.com/wayfareapp/wayfare-service/internal/types"
)

func (p *Postgres) CreatePost(ctx context.Context, post types.Post) (string, error) {
	id := uuid.New().String()
	query := `
	INSERT INTO posts (id, author_id, caption, category, image_urls, video_urls,
		location_name, location_address, location_lat, location_lon, location_verified)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := p.Db.ExecContext(ctx, query,
		id, post.UserID, post.Caption, post.Category,
		pq.Array(post.ImageURLs), pq.Array(post.VideoURLs),
		post.Location.Name, post.Location.Address, post.Location.Lat, post.Location.Lon, post.Location.Verified)
	if err != nil {
		return "", err
	}

	p.touchLastActive(ctx, post.UserID)
	return id, nil
}

// FeedPosts returns all feed-eligible posts, newest first, with like/save id
// sets preloaded in batch queries.
func (p *Postgres) FeedPosts(ctx context.Context) ([]types.Post, error) {
	query := `
	SELECT p.id, p.author_id, u.name, p.caption, p.category, p.image_urls, p.video_urls,
		p.location_name, p.location_address, p.location_lat, p.location_lon, p.location_verified,
		p.comments_count, p.created_at
	FROM posts p
	JOIN users u ON u.id = p.author_id
	WHERE p.deleted_at IS NULL
	ORDER BY p.created_at DESC
	`

	rows, err := p.Db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []types.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := p.attachPostSets(ctx, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

func scanPost(rows *sql.Rows) (types.Post, error) {
	var post types.Post
	err := rows.Scan(
		&post.ID, &post.UserID, &post.UserName, &post.Caption, &post.Category,
		pq.Array(&post.ImageURLs), pq.Array(&post.VideoURLs),
		&post.Location.Name, &post.Location.Address, &post.Location.Lat, &post.Location.Lon, &post.Location.Verified,
		&post.CommentsCount, &post.CreatedAt)
	return post, err
}

func (p *Postgres) attachPostSets(ctx context.Context, posts []types.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, len(posts))
	index := make(map[string]int, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
		index[post.ID] = i
	}

	rows, err := p.Db.QueryContext(ctx, `
		SELECT post_id, user_id, 'like' FROM post_likes WHERE post_id = ANY($1)
		UNION ALL
		SELECT post_id, user_id, 'save' FROM post_saves WHERE post_id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var postID, userID, kind string
		if err := rows.Scan(&postID, &userID, &kind); err != nil {
			return err
		}
		i := index[postID]
		switch kind {
		case "like":
			posts[i].Likes = append(posts[i].Likes, userID)
		case "save":
			posts[i].SavedBy = append(posts[i].SavedBy, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range posts {
		posts[i].LikesCount = len(posts[i].Likes)
	}
	return nil
}

func (p *Postgres) GetPostByID(ctx context.Context, postID string) (types.Post, error) {
	query := `
	SELECT p.id, p.author_id, u.name, p.caption, p.category, p.image_urls, p.video_urls,
		p.location_name, p.location_address, p.location_lat, p.location_lon, p.location_verified,
		p.comments_count, p.created_at
	FROM posts p
	JOIN users u ON u.id = p.author_id
	WHERE p.id = $1 AND p.deleted_at IS NULL
	`

	rows, err := p.Db.QueryContext(ctx, query, postID)
	if err != nil {
		return types.Post{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return types.Post{}, err
		}
		return types.Post{}, storage.ErrNotFound
	}

	post, err := scanPost(rows)
	if err != nil {
		return types.Post{}, err
	}
	rows.Close()

	one := []types.Post{post}
	if err := p.attachPostSets(ctx, one); err != nil {
		return types.Post{}, err
	}

	return one[0], nil
}

// SetPostLike toggles the viewer's membership in the post's like set and
// returns the resulting like count. The insert path is idempotent, so a
// duplicate like neither grows the set nor bumps the count.
func (p *Postgres) SetPostLike(ctx context.Context, postID, userID string, liked bool) (int, error) {
	var query string
	if liked {
		query = `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
		`
	} else {
		query = `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`
	}

	if _, err := p.Db.ExecContext(ctx, query, postID, userID); err != nil {
		return 0, err
	}

	var count int
	err := p.Db.QueryRowContext(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&count)
	return count, err
}

func (p *Postgres) SetPostSave(ctx context.Context, postID, userID string, saved bool) error {
	var query string
	if saved {
		query = `
		INSERT INTO post_saves (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
		`
	} else {
		query = `DELETE FROM post_saves WHERE post_id = $1 AND user_id = $2`
	}

	_, err := p.Db.ExecContext(ctx, query, postID, userID)
	return err
}

func (p *Postgres) DeletePost(ctx context.Context, postID, requesterID string) error {
	var authorID string
	err := p.Db.QueryRowContext(ctx, `SELECT author_id FROM posts WHERE id = $1 AND deleted_at IS NULL`, postID).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}
	if authorID != requesterID {
		return storage.ErrNotOwner
	}

	_, err = p.Db.ExecContext(ctx, `UPDATE posts SET deleted_at = $2 WHERE id = $1`, postID, time.Now().UTC())
	return err
}

func (p *Postgres) Categories(ctx context.Context) ([]types.Category, error) {
	rows, err := p.Db.QueryContext(ctx, `SELECT name, image FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []types.Category
	for rows.Next() {
		var c types.Category
		if err := rows.Scan(&c.Name, &c.Image); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}

	return cats, rows.Err()
}
