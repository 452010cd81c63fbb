package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestLocationUnmarshalString(t *testing.T) {
	var l Location
	if err := json.Unmarshal([]byte(`"Lisbon, Portugal"`), &l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Name != "Lisbon, Portugal" {
		t.Fatalf("expected free-text name, got %q", l.Name)
	}
	if l.Verified {
		t.Fatal("free-text location must not be verified")
	}
}

func TestLocationUnmarshalObject(t *testing.T) {
	raw := `{"name":"Alfama","address":"Lisbon","lat":38.71,"lon":-9.13,"verified":true}`
	var l Location
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Name != "Alfama" || !l.Verified {
		t.Fatalf("unexpected location: %+v", l)
	}
	if l.Lat != 38.71 || l.Lon != -9.13 {
		t.Fatalf("unexpected coordinates: %+v", l)
	}
}

func TestStoryLiveBoundary(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	story := Story{CreatedAt: created, ExpiresAt: created.Add(StoryLifetime)}

	if !story.Live(created.Add(StoryLifetime - time.Second)) {
		t.Fatal("story must be visible one second before expiry")
	}
	if story.Live(created.Add(StoryLifetime + time.Second)) {
		t.Fatal("story must be excluded one second after expiry")
	}
	if story.Live(created.Add(StoryLifetime)) {
		t.Fatal("story must be excluded exactly at expiry")
	}
}

func TestAddToSetIdempotent(t *testing.T) {
	set := []string{"u1", "u2"}
	set = AddToSet(set, "u2")
	if len(set) != 2 {
		t.Fatalf("expected no duplicate, got %v", set)
	}
	set = AddToSet(set, "u3")
	if len(set) != 3 || !SetContains(set, "u3") {
		t.Fatalf("expected u3 added, got %v", set)
	}
}

func TestRemoveFromSet(t *testing.T) {
	set := []string{"a", "b", "a"}
	set = RemoveFromSet(set, "a")
	if len(set) != 1 || set[0] != "b" {
		t.Fatalf("expected only b, got %v", set)
	}
	set = RemoveFromSet(set, "missing")
	if len(set) != 1 {
		t.Fatalf("removing absent id must be a no-op, got %v", set)
	}
}
