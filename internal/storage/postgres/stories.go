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

func (p *Postgres) CreateStory(ctx context.Context, authorID, mediaURL string, mediaType types.MediaType) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	query := `
	INSERT INTO stories (id, author_id, media_url, media_type, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.Db.ExecContext(ctx, query, id, authorID, mediaURL, mediaType, now, now.Add(types.StoryLifetime))
	if err != nil {
		return "", err
	}

	p.touchLastActive(ctx, authorID)
	return id, nil
}

// StoryGroups returns all non-deleted stories grouped by author, newest author
// activity first within a group. Expired stories are NOT filtered here; the
// rail applies the read-time expiry predicate.
func (p *Postgres) StoryGroups(ctx context.Context) ([]types.StoryGroup, error) {
	query := `
	SELECT s.id, s.author_id, u.name, u.avatar, s.media_url, s.media_type, s.created_at, s.expires_at
	FROM stories s
	JOIN users u ON u.id = s.author_id
	WHERE s.deleted_at IS NULL
	ORDER BY s.author_id, s.created_at ASC
	`

	rows, err := p.Db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []types.Story
	for rows.Next() {
		var s types.Story
		if err := rows.Scan(&s.ID, &s.UserID, &s.UserName, &s.UserAvatar, &s.MediaURL, &s.MediaType, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		stories = append(stories, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := p.attachStorySets(ctx, stories); err != nil {
		return nil, err
	}

	// Group by author preserving row order.
	var groups []types.StoryGroup
	index := make(map[string]int)
	for _, s := range stories {
		i, ok := index[s.UserID]
		if !ok {
			groups = append(groups, types.StoryGroup{
				UserID:     s.UserID,
				UserName:   s.UserName,
				UserAvatar: s.UserAvatar,
			})
			i = len(groups) - 1
			index[s.UserID] = i
		}
		groups[i].Stories = append(groups[i].Stories, s)
	}

	return groups, nil
}

// attachStorySets loads views and likes for a batch of stories in two queries
// instead of two per story.
func (p *Postgres) attachStorySets(ctx context.Context, stories []types.Story) error {
	if len(stories) == 0 {
		return nil
	}

	ids := make([]string, len(stories))
	index := make(map[string]int, len(stories))
	for i, s := range stories {
		ids[i] = s.ID
		index[s.ID] = i
	}

	load := func(query string) error {
		rows, err := p.Db.QueryContext(ctx, query, pq.Array(ids))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var storyID, userID, kind string
			if err := rows.Scan(&storyID, &userID, &kind); err != nil {
				return err
			}
			i := index[storyID]
			switch kind {
			case "view":
				stories[i].Views = append(stories[i].Views, userID)
			case "like":
				stories[i].Likes = append(stories[i].Likes, userID)
			}
		}
		return rows.Err()
	}

	err := load(`SELECT story_id, viewer_id, 'view' FROM story_views WHERE story_id = ANY($1) ORDER BY viewed_at`)
	if err != nil {
		return err
	}
	return load(`SELECT story_id, user_id, 'like' FROM story_likes WHERE story_id = ANY($1) ORDER BY liked_at`)
}

func (p *Postgres) GetStoryByID(ctx context.Context, storyID string) (types.Story, error) {
	var s types.Story
	query := `
	SELECT s.id, s.author_id, u.name, u.avatar, s.media_url, s.media_type, s.created_at, s.expires_at
	FROM stories s
	JOIN users u ON u.id = s.author_id
	WHERE s.id = $1 AND s.deleted_at IS NULL
	`

	err := p.Db.QueryRowContext(ctx, query, storyID).Scan(
		&s.ID, &s.UserID, &s.UserName, &s.UserAvatar, &s.MediaURL, &s.MediaType, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Story{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Story{}, err
	}

	one := []types.Story{s}
	if err := p.attachStorySets(ctx, one); err != nil {
		return types.Story{}, err
	}

	return one[0], nil
}

// RecordStoryView is idempotent: one view per viewer per story.
func (p *Postgres) RecordStoryView(ctx context.Context, storyID, viewerID string) error {
	query := `
	INSERT INTO story_views (story_id, viewer_id)
	VALUES ($1, $2)
	ON CONFLICT (story_id, viewer_id) DO NOTHING
	`

	_, err := p.Db.ExecContext(ctx, query, storyID, viewerID)
	return err
}

// SetStoryLike toggles membership in the story's like set. Liking an already
// liked story and unliking an unliked one are both no-ops.
func (p *Postgres) SetStoryLike(ctx context.Context, storyID, userID string, liked bool) error {
	var query string
	if liked {
		query = `
		INSERT INTO story_likes (story_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (story_id, user_id) DO NOTHING
		`
	} else {
		query = `DELETE FROM story_likes WHERE story_id = $1 AND user_id = $2`
	}

	_, err := p.Db.ExecContext(ctx, query, storyID, userID)
	return err
}

// DeleteStory soft-deletes; only the owner may delete.
func (p *Postgres) DeleteStory(ctx context.Context, storyID, requesterID string) error {
	var authorID string
	err := p.Db.QueryRowContext(ctx, `SELECT author_id FROM stories WHERE id = $1 AND deleted_at IS NULL`, storyID).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}
	if authorID != requesterID {
		return storage.ErrNotOwner
	}

	_, err = p.Db.ExecContext(ctx, `UPDATE stories SET deleted_at = $2 WHERE id = $1`, storyID, time.Now().UTC())
	return err
}

func (p *Postgres) SoftDeleteExpiredStories(ctx context.Context) (int, error) {
	query := `
	UPDATE stories SET deleted_at = CURRENT_TIMESTAMP
	WHERE deleted_at IS NULL AND expires_at <= CURRENT_TIMESTAMP
	`

	res, err := p.Db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	return int(n), err
}
