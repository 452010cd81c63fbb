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

// Comments returns the thread for a post or story: top-level comments in
// creation order, each with its replies in creation order. Replies are one
// level deep; a reply's id never appears as another row's parent.
func (p *Postgres) Comments(ctx context.Context, contentID string) ([]types.Comment, error) {
	query := `
	SELECT c.id, c.parent_id, c.author_id, u.name, u.avatar, c.text, c.created_at, c.edited_at
	FROM comments c
	JOIN users u ON u.id = c.author_id
	WHERE c.content_id = $1
	ORDER BY c.created_at ASC
	`

	rows, err := p.Db.QueryContext(ctx, query, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type row struct {
		id, parentID, authorID, name, avatar, text string
		createdAt                                  time.Time
		editedAt                                   *time.Time
	}

	var all []row
	for rows.Next() {
		var r row
		var parent sql.NullString
		if err := rows.Scan(&r.id, &parent, &r.authorID, &r.name, &r.avatar, &r.text, &r.createdAt, &r.editedAt); err != nil {
			return nil, err
		}
		r.parentID = parent.String
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.id
	}
	likes, err := p.commentLikes(ctx, ids)
	if err != nil {
		return nil, err
	}

	var comments []types.Comment
	index := make(map[string]int)
	for _, r := range all {
		if r.parentID == "" {
			comments = append(comments, types.Comment{
				ID:         r.id,
				UserID:     r.authorID,
				UserName:   r.name,
				UserAvatar: r.avatar,
				Text:       r.text,
				CreatedAt:  r.createdAt,
				EditedAt:   r.editedAt,
				Likes:      likes[r.id],
				LikesCount: len(likes[r.id]),
			})
			index[r.id] = len(comments) - 1
		}
	}
	for _, r := range all {
		if r.parentID == "" {
			continue
		}
		i, ok := index[r.parentID]
		if !ok {
			// Parent was deleted or is itself a reply; drop the orphan.
			continue
		}
		comments[i].Replies = append(comments[i].Replies, types.Reply{
			ID:         r.id,
			UserID:     r.authorID,
			UserName:   r.name,
			UserAvatar: r.avatar,
			Text:       r.text,
			CreatedAt:  r.createdAt,
			EditedAt:   r.editedAt,
			Likes:      likes[r.id],
			LikesCount: len(likes[r.id]),
		})
	}

	return comments, nil
}

func (p *Postgres) commentLikes(ctx context.Context, commentIDs []string) (map[string][]string, error) {
	likes := make(map[string][]string, len(commentIDs))
	if len(commentIDs) == 0 {
		return likes, nil
	}

	rows, err := p.Db.QueryContext(ctx,
		`SELECT comment_id, user_id FROM comment_likes WHERE comment_id = ANY($1) ORDER BY liked_at`,
		pq.Array(commentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var commentID, userID string
		if err := rows.Scan(&commentID, &userID); err != nil {
			return nil, err
		}
		likes[commentID] = append(likes[commentID], userID)
	}

	return likes, rows.Err()
}

func (p *Postgres) AddComment(ctx context.Context, contentID string, comment types.Comment) (string, error) {
	id := uuid.New().String()
	query := `
	INSERT INTO comments (id, content_id, author_id, text)
	VALUES ($1, $2, $3, $4)
	`

	if _, err := p.Db.ExecContext(ctx, query, id, contentID, comment.UserID, comment.Text); err != nil {
		return "", err
	}

	// Best effort; comments_count is a denormalized counter on posts.
	p.Db.ExecContext(ctx, `UPDATE posts SET comments_count = comments_count + 1 WHERE id = $1`, contentID)

	return id, nil
}

// AddReply inserts a second-level comment. Replying to a reply is rejected so
// nesting stays one level deep.
func (p *Postgres) AddReply(ctx context.Context, contentID, commentID string, reply types.Reply) (string, error) {
	var parent sql.NullString
	err := p.Db.QueryRowContext(ctx, `SELECT parent_id FROM comments WHERE id = $1 AND content_id = $2`, commentID, contentID).Scan(&parent)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if parent.Valid {
		return "", errors.New("cannot reply to a reply")
	}

	id := uuid.New().String()
	query := `
	INSERT INTO comments (id, content_id, parent_id, author_id, text)
	VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := p.Db.ExecContext(ctx, query, id, contentID, commentID, reply.UserID, reply.Text); err != nil {
		return "", err
	}

	return id, nil
}

func (p *Postgres) EditComment(ctx context.Context, commentID, requesterID, text string) error {
	res, err := p.Db.ExecContext(ctx,
		`UPDATE comments SET text = $3, edited_at = $4 WHERE id = $1 AND author_id = $2`,
		commentID, requesterID, text, time.Now().UTC())
	if err != nil {
		return err
	}

	return p.requireOwnedRow(ctx, res, commentID)
}

func (p *Postgres) DeleteComment(ctx context.Context, commentID, requesterID string) error {
	var contentID string
	err := p.Db.QueryRowContext(ctx, `SELECT content_id FROM comments WHERE id = $1`, commentID).Scan(&contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return err
	}

	res, err := p.Db.ExecContext(ctx,
		`DELETE FROM comments WHERE id = $1 AND author_id = $2`, commentID, requesterID)
	if err != nil {
		return err
	}
	if err := p.requireOwnedRow(ctx, res, commentID); err != nil {
		return err
	}

	p.Db.ExecContext(ctx,
		`UPDATE posts SET comments_count = GREATEST(comments_count - 1, 0) WHERE id = $1`, contentID)
	return nil
}

// requireOwnedRow distinguishes "no such comment" from "not yours" after a
// WHERE id AND author_id mutation touched zero rows.
func (p *Postgres) requireOwnedRow(ctx context.Context, res sql.Result, commentID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := p.Db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrNotOwner
}

// SetCommentLike toggles the user's like on a comment and returns the
// resulting count, which can never be negative: unliking an unliked comment
// deletes zero rows.
func (p *Postgres) SetCommentLike(ctx context.Context, commentID, userID string, liked bool) (int, error) {
	var query string
	if liked {
		query = `
		INSERT INTO comment_likes (comment_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (comment_id, user_id) DO NOTHING
		`
	} else {
		query = `DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`
	}

	if _, err := p.Db.ExecContext(ctx, query, commentID, userID); err != nil {
		return 0, err
	}

	var count int
	err := p.Db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comment_likes WHERE comment_id = $1`, commentID).Scan(&count)
	return count, err
}
