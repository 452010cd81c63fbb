package playback

import (
	"testing"
	"time"

	"github.com/wayfareapp/wayfare-service/internal/types"
)

func imageStories(ids ...string) []StoryMedia {
	out := make([]StoryMedia, len(ids))
	for i, id := range ids {
		out[i] = StoryMedia{ID: id, MediaType: types.MediaTypeImage}
	}
	return out
}

func tickFor(s *Session, d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += TickInterval {
		s.Tick(TickInterval)
	}
}

func TestImageStoryCompletesInFiveSeconds(t *testing.T) {
	s := NewSession(imageStories("a", "b"))
	s.MediaLoaded(0)

	tickFor(s, DefaultDuration-TickInterval)
	if snap := s.Snapshot(); snap.StoryID != "a" {
		t.Fatalf("story must not advance before its duration elapses, on %q at %.1f%%", snap.StoryID, snap.Progress)
	}

	s.Tick(TickInterval)
	if snap := s.Snapshot(); snap.StoryID != "b" || snap.Progress != 0 {
		t.Fatalf("expected advance to b with progress reset, got %+v", snap)
	}
}

func TestLastStoryCompletionClosesSession(t *testing.T) {
	s := NewSession(imageStories("only"))
	s.MediaLoaded(0)

	tickFor(s, DefaultDuration)
	if !s.Closed() {
		t.Fatal("completing the last story must close the viewer")
	}
	if s.Snapshot().Phase != PhaseClosed {
		t.Fatalf("expected closed phase, got %s", s.Snapshot().Phase)
	}
}

func TestGatesFreezeWithoutReset(t *testing.T) {
	cases := []struct {
		name string
		gate func(*Session, bool)
	}{
		{"pause", func(s *Session, on bool) {
			// TogglePause flips, so only toggle on transitions.
			s.TogglePause()
		}},
		{"comments", func(s *Session, on bool) { s.SetCommentsOpen(on) }},
		{"buffering", func(s *Session, on bool) {
			if on {
				s.MediaBuffering()
			} else {
				s.MediaLoaded(0)
			}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession(imageStories("a"))
			s.MediaLoaded(0)

			tickFor(s, 2*time.Second)
			before := s.Snapshot().Progress
			if before <= 0 {
				t.Fatal("expected some progress before freezing")
			}

			tc.gate(s, true)
			tickFor(s, 10*time.Second)
			if got := s.Snapshot().Progress; got != before {
				t.Fatalf("gated session must freeze, progress went %f -> %f", before, got)
			}

			tc.gate(s, false)
			s.Tick(TickInterval)
			if got := s.Snapshot().Progress; got <= before {
				t.Fatalf("reopened gate must resume from %f, got %f", before, got)
			}
		})
	}
}

func TestPauseIndependentOfCommentsGate(t *testing.T) {
	s := NewSession(imageStories("a"))
	s.MediaLoaded(0)

	s.TogglePause()
	s.SetCommentsOpen(true)
	s.SetCommentsOpen(false)
	// Comments closed again but still paused: timer must stay frozen.
	tickFor(s, time.Second)
	if got := s.Snapshot().Progress; got != 0 {
		t.Fatalf("paused session must not advance, got %f", got)
	}

	s.TogglePause()
	s.Tick(TickInterval)
	if got := s.Snapshot().Progress; got <= 0 {
		t.Fatal("unpaused session must advance")
	}
}

func TestVideoDurationDiscovery(t *testing.T) {
	s := NewSession([]StoryMedia{{ID: "v", MediaType: types.MediaTypeVideo}})

	// Before load the session is gated entirely.
	tickFor(s, time.Second)
	if got := s.Snapshot().Progress; got != 0 {
		t.Fatalf("loading media must gate the timer, got %f", got)
	}

	s.MediaLoaded(20 * time.Second)
	tickFor(s, 5*time.Second)
	snap := s.Snapshot()
	if snap.Progress < 24 || snap.Progress > 26 {
		t.Fatalf("5s into a 20s video should be ~25%%, got %f", snap.Progress)
	}
	if s.Closed() {
		t.Fatal("video must not complete at the image default duration")
	}
}

func TestTapNavigation(t *testing.T) {
	s := NewSession(imageStories("a", "b", "c"))
	s.MediaLoaded(0)

	// TapLeft on the first story is a no-op.
	tickFor(s, time.Second)
	before := s.Snapshot()
	s.TapLeft()
	after := s.Snapshot()
	if after.StoryID != "a" || after.Progress != before.Progress {
		t.Fatalf("tap-left at first story must be a no-op, got %+v", after)
	}

	s.TapRight()
	if snap := s.Snapshot(); snap.StoryID != "b" || snap.Progress != 0 {
		t.Fatalf("tap-right must advance with reset, got %+v", snap)
	}

	s.MediaLoaded(0)
	s.TapLeft()
	if snap := s.Snapshot(); snap.StoryID != "a" || snap.Progress != 0 {
		t.Fatalf("tap-left must return to previous story at progress 0, got %+v", snap)
	}

	s.TapRight()
	s.TapRight()
	if s.Closed() {
		t.Fatal("should be on last story, not closed")
	}
	s.TapRight()
	if !s.Closed() {
		t.Fatal("tap-right on last story must close the viewer")
	}
}

func TestAdvanceResetsDurationToDefault(t *testing.T) {
	s := NewSession([]StoryMedia{
		{ID: "v", MediaType: types.MediaTypeVideo},
		{ID: "i", MediaType: types.MediaTypeImage},
	})
	s.MediaLoaded(60 * time.Second)

	s.TapRight()
	if snap := s.Snapshot(); snap.Phase != PhaseLoading {
		t.Fatalf("advancing must clear the loaded gate, got %s", snap.Phase)
	}

	s.MediaLoaded(0)
	tickFor(s, DefaultDuration)
	if !s.Closed() {
		t.Fatal("image story after a long video must play the default 5s window")
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	id := m.Open(imageStories("a"))

	if err := m.With(id, func(s *Session) { s.MediaLoaded(0) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Close(id)
	if err := m.With(id, func(*Session) {}); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession after close, got %v", err)
	}
}
