// Package comments keeps a time-boxed local copy of each content item's
// comment thread and applies user actions to it optimistically.
package comments

import (
	"sync"
	"time"

	"github.com/wayfareapp/wayfare-service/internal/types"
)

// DefaultTTL bounds how stale a served comment list may be.
const DefaultTTL = 30 * time.Second

type entry struct {
	comments  []types.Comment
	fetchedAt time.Time
}

// Cache is an explicit TTL cache keyed by content id. The clock is injected
// so freshness boundaries are testable; there is deliberately no package
// level cache map.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry),
	}
}

// Get returns the cached thread iff it is still fresh.
func (c *Cache) Get(contentID string) ([]types.Comment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[contentID]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return cloneThread(e.comments), true
}

// Put overwrites the entry and restarts its freshness window.
func (c *Cache) Put(contentID string, comments []types.Comment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[contentID] = entry{
		comments:  cloneThread(comments),
		fetchedAt: c.now(),
	}
}

// Mutate applies an optimistic edit to the cached thread without touching the
// fetch timestamp: local merges never extend the staleness bound.
func (c *Cache) Mutate(contentID string, fn func([]types.Comment) []types.Comment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[contentID]
	if !ok {
		return
	}
	e.comments = fn(e.comments)
	c.entries[contentID] = e
}

func (c *Cache) Invalidate(contentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, contentID)
}

func cloneThread(comments []types.Comment) []types.Comment {
	out := make([]types.Comment, len(comments))
	copy(out, comments)
	for i := range out {
		out[i].Replies = append([]types.Reply(nil), out[i].Replies...)
		out[i].Likes = append([]string(nil), out[i].Likes...)
	}
	return out
}
