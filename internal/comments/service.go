package comments

import (
	"context"
	"sync"
	"time"

	"github.com/wayfareapp/wayfare-service/internal/types"
)

// Store is the slice of persistent storage the comment service talks to.
type Store interface {
	Comments(ctx context.Context, contentID string) ([]types.Comment, error)
	AddComment(ctx context.Context, contentID string, comment types.Comment) (string, error)
	AddReply(ctx context.Context, contentID, commentID string, reply types.Reply) (string, error)
	EditComment(ctx context.Context, commentID, requesterID, text string) error
	DeleteComment(ctx context.Context, commentID, requesterID string) error
	SetCommentLike(ctx context.Context, commentID, userID string, liked bool) (int, error)
}

type likeEntry struct {
	count   int
	likedBy map[string]bool
}

// Service serves comment threads through the TTL cache and applies mutations.
// Adds are merged optimistically; a new top-level comment additionally forces
// an immediate re-fetch so server-assigned ids replace the optimistic ones.
// Edits and deletes apply to local state only after the store confirms them;
// the store's answer is authoritative.
type Service struct {
	store Store
	cache *Cache
	now   func() time.Time

	mu    sync.Mutex
	likes map[string]*likeEntry // keyed by comment id, seeded on first sight
}

func NewService(store Store, ttl time.Duration, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store: store,
		cache: NewCache(ttl, now),
		now:   now,
		likes: make(map[string]*likeEntry),
	}
}

// Thread returns the comment list for a content item, served from the cache
// while fresh and re-fetched once the TTL has elapsed.
func (s *Service) Thread(ctx context.Context, contentID string) ([]types.Comment, error) {
	if cached, ok := s.cache.Get(contentID); ok {
		return cached, nil
	}

	fetched, err := s.store.Comments(ctx, contentID)
	if err != nil {
		return nil, err
	}

	s.cache.Put(contentID, fetched)
	s.seedLikeState(fetched)
	return fetched, nil
}

// AddComment persists a new top-level comment, merges it optimistically, then
// re-fetches the thread so the caller sees server-assigned state. Returns the
// server-assigned comment id alongside the refreshed thread.
func (s *Service) AddComment(ctx context.Context, contentID string, comment types.Comment) (string, []types.Comment, error) {
	id, err := s.store.AddComment(ctx, contentID, comment)
	if err != nil {
		return "", nil, err
	}

	comment.ID = id
	comment.CreatedAt = s.now()
	s.cache.Mutate(contentID, func(thread []types.Comment) []types.Comment {
		return append(thread, comment)
	})

	fetched, err := s.store.Comments(ctx, contentID)
	if err != nil {
		// The optimistic merge already holds the comment; serve that.
		if cached, ok := s.cache.Get(contentID); ok {
			return id, cached, nil
		}
		return "", nil, err
	}

	s.cache.Put(contentID, fetched)
	s.seedLikeState(fetched)
	return id, fetched, nil
}

// AddReply persists a reply and merges it into the parent optimistically.
// No re-fetch: the merge is all the reconciliation replies get.
func (s *Service) AddReply(ctx context.Context, contentID, commentID string, reply types.Reply) error {
	id, err := s.store.AddReply(ctx, contentID, commentID, reply)
	if err != nil {
		return err
	}

	reply.ID = id
	reply.CreatedAt = s.now()
	s.cache.Mutate(contentID, func(thread []types.Comment) []types.Comment {
		for i := range thread {
			if thread[i].ID == commentID {
				thread[i].Replies = append(thread[i].Replies, reply)
				break
			}
		}
		return thread
	})

	return nil
}

// Edit updates a comment's text. The local copy changes only after the store
// confirms; a failed edit leaves the cached thread untouched.
func (s *Service) Edit(ctx context.Context, contentID, commentID, requesterID, text string) error {
	if err := s.store.EditComment(ctx, commentID, requesterID, text); err != nil {
		return err
	}

	editedAt := s.now()
	s.cache.Mutate(contentID, func(thread []types.Comment) []types.Comment {
		for i := range thread {
			if thread[i].ID == commentID {
				thread[i].Text = text
				thread[i].EditedAt = &editedAt
				return thread
			}
			for j := range thread[i].Replies {
				if thread[i].Replies[j].ID == commentID {
					thread[i].Replies[j].Text = text
					thread[i].Replies[j].EditedAt = &editedAt
					return thread
				}
			}
		}
		return thread
	})

	return nil
}

// Delete removes a comment or reply, locally only after the store confirms.
func (s *Service) Delete(ctx context.Context, contentID, commentID, requesterID string) error {
	if err := s.store.DeleteComment(ctx, commentID, requesterID); err != nil {
		return err
	}

	s.cache.Mutate(contentID, func(thread []types.Comment) []types.Comment {
		out := thread[:0]
		for _, c := range thread {
			if c.ID == commentID {
				continue
			}
			replies := c.Replies[:0]
			for _, r := range c.Replies {
				if r.ID != commentID {
					replies = append(replies, r)
				}
			}
			c.Replies = replies
			out = append(out, c)
		}
		return out
	})

	return nil
}

// ToggleLike flips the viewer's like on a comment. The boolean and counter
// are seeded from the fetched comment the first time it is seen; the counter
// is clamped at zero, so duplicate unlikes can never drive it negative. The
// local state is optimistic and reverted if the store rejects the toggle.
func (s *Service) ToggleLike(ctx context.Context, contentID, commentID, userID string) (liked bool, count int, err error) {
	s.mu.Lock()
	e, ok := s.likes[commentID]
	if !ok {
		e = &likeEntry{likedBy: make(map[string]bool)}
		s.likes[commentID] = e
	}

	wasLiked := e.likedBy[userID]
	liked = !wasLiked
	e.likedBy[userID] = liked
	if liked {
		e.count++
	} else if e.count > 0 {
		e.count--
	}
	count = e.count
	s.mu.Unlock()

	if _, err := s.store.SetCommentLike(ctx, commentID, userID, liked); err != nil {
		s.mu.Lock()
		e.likedBy[userID] = wasLiked
		if liked {
			if e.count > 0 {
				e.count--
			}
		} else {
			e.count++
		}
		count = e.count
		s.mu.Unlock()
		return wasLiked, count, err
	}

	s.cache.Mutate(contentID, func(thread []types.Comment) []types.Comment {
		for i := range thread {
			if thread[i].ID == commentID {
				if liked {
					thread[i].Likes = types.AddToSet(thread[i].Likes, userID)
				} else {
					thread[i].Likes = types.RemoveFromSet(thread[i].Likes, userID)
				}
				thread[i].LikesCount = count
				break
			}
		}
		return thread
	})

	return liked, count, nil
}

// seedLikeState initializes the per-comment like bookkeeping from fetched
// data, once per comment. Re-fetches never reseed: the cached counter only
// reconciles on explicit like/unlike actions.
func (s *Service) seedLikeState(thread []types.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seed := func(id string, likes []string, likesCount int) {
		if _, seen := s.likes[id]; seen {
			return
		}
		e := &likeEntry{count: likesCount, likedBy: make(map[string]bool, len(likes))}
		for _, u := range likes {
			e.likedBy[u] = true
		}
		s.likes[id] = e
	}

	for _, c := range thread {
		seed(c.ID, c.Likes, c.LikesCount)
		for _, r := range c.Replies {
			seed(r.ID, r.Likes, r.LikesCount)
		}
	}
}
