package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNoSession = errors.New("no such playback session")

// reapAfterTicks keeps a finished session around long enough for the viewer
// to observe the closed state before the manager drops it.
const reapAfterTicks = 600 // 30s at the timer cadence

type managed struct {
	session     *Session
	closedTicks int
}

// Manager owns the live viewer sessions and drives their timers from a single
// tick loop. Sessions are in-memory only: there is no persistence of playback
// position, so reopening a story always starts at zero.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managed
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*managed)}
}

// Open creates a session over the given story list and returns its id.
func (m *Manager) Open(stories []StoryMedia) string {
	id := uuid.New().String()

	m.mu.Lock()
	m.sessions[id] = &managed{session: NewSession(stories)}
	m.mu.Unlock()

	return id
}

// With runs fn against the named session under the manager lock.
func (m *Manager) With(id string, fn func(*Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return ErrNoSession
	}
	fn(e.session)
	return nil
}

// Close drops a session.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Run ticks every live session at the timer cadence and eventually reaps
// sessions whose viewer reached the end. Returns when ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tickAll()
		}
	}
}

func (m *Manager) tickAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.sessions {
		e.session.Tick(TickInterval)
		if e.session.Closed() {
			e.closedTicks++
			if e.closedTicks >= reapAfterTicks {
				delete(m.sessions, id)
			}
		}
	}
}
