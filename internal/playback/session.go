// Package playback models a story viewer session: a per-story progress bar
// that advances on a fixed tick and walks an author's story list.
package playback

import (
	"time"

	"github.com/wayfareapp/wayfare-service/internal/types"
)

const (
	// DefaultDuration is how long an image story plays, and the stand-in for
	// a video until its real duration is discovered on load.
	DefaultDuration = 5000 * time.Millisecond

	// TickInterval is the progress timer cadence.
	TickInterval = 50 * time.Millisecond
)

// Phase is the observable state of a session.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhasePlaying Phase = "playing"
	PhasePaused  Phase = "paused"
	PhaseClosed  Phase = "closed"
)

// StoryMedia is the slice of a story a session needs.
type StoryMedia struct {
	ID        string
	MediaType types.MediaType
}

// Session steps through one author's stories. Progress runs 0..100 and only
// accrues while all three gates are open: not paused, comments panel closed,
// media loaded. A closed gate freezes the bar without resetting it.
type Session struct {
	stories []StoryMedia

	idx          int
	progress     float64
	duration     time.Duration
	paused       bool
	commentsOpen bool
	loaded       bool
	closed       bool
}

// Snapshot is a read-only view of the session for transport.
type Snapshot struct {
	StoryID  string  `json:"story_id"`
	Index    int     `json:"index"`
	Progress float64 `json:"progress"`
	Phase    Phase   `json:"phase"`
	Paused   bool    `json:"paused"`
}

func NewSession(stories []StoryMedia) *Session {
	return &Session{
		stories:  stories,
		duration: DefaultDuration,
		closed:   len(stories) == 0,
	}
}

func (s *Session) running() bool {
	return !s.closed && s.loaded && !s.paused && !s.commentsOpen
}

// Tick advances progress by one timer step. At 100 the session moves to the
// next story, or closes if this was the last one.
func (s *Session) Tick(elapsed time.Duration) {
	if !s.running() || s.duration <= 0 {
		return
	}

	s.progress += float64(elapsed) / float64(s.duration) * 100
	if s.progress >= 100 {
		s.advance()
	}
}

// MediaLoaded marks the current story's media ready. For videos the reported
// duration replaces the default; images always play the default window.
func (s *Session) MediaLoaded(duration time.Duration) {
	if s.closed {
		return
	}
	s.loaded = true
	if s.current().MediaType == types.MediaTypeVideo && duration > 0 {
		s.duration = duration
	}
}

// MediaBuffering drops the loaded gate, freezing progress until the media
// reports ready again.
func (s *Session) MediaBuffering() {
	s.loaded = false
}

// TogglePause flips the manual pause gate. It is independent of the comments
// gate; both must be open for the timer to run.
func (s *Session) TogglePause() {
	if !s.closed {
		s.paused = !s.paused
	}
}

func (s *Session) SetCommentsOpen(open bool) {
	s.commentsOpen = open
}

// TapLeft moves to the previous story; at the first story it is a no-op.
func (s *Session) TapLeft() {
	if s.closed || s.idx == 0 {
		return
	}
	s.idx--
	s.resetStory()
}

// TapRight behaves exactly like natural completion: next story, or close when
// there is none.
func (s *Session) TapRight() {
	if s.closed {
		return
	}
	s.advance()
}

func (s *Session) advance() {
	if s.idx+1 >= len(s.stories) {
		s.closed = true
		s.progress = 100
		return
	}
	s.idx++
	s.resetStory()
}

// resetStory restarts the per-story state: progress at zero, duration back to
// the image default until re-discovered, media not yet loaded.
func (s *Session) resetStory() {
	s.progress = 0
	s.duration = DefaultDuration
	s.loaded = false
}

func (s *Session) current() StoryMedia {
	if s.idx < len(s.stories) {
		return s.stories[s.idx]
	}
	return StoryMedia{}
}

func (s *Session) Closed() bool { return s.closed }

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		StoryID:  s.current().ID,
		Index:    s.idx,
		Progress: s.progress,
		Paused:   s.paused,
	}
	switch {
	case s.closed:
		snap.Phase = PhaseClosed
	case !s.loaded:
		snap.Phase = PhaseLoading
	case s.paused || s.commentsOpen:
		snap.Phase = PhasePaused
	default:
		snap.Phase = PhasePlaying
	}
	return snap
}
