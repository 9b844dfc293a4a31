package ttlstore

import (
	"testing"
	"time"
)

func newTestStore(start time.Time) (*MemoryStore, *time.Time) {
	s := NewMemoryStore()
	current := start
	s.now = func() time.Time { return current }
	return s, &current
}

func TestSetIfAbsent(t *testing.T) {
	s, _ := newTestStore(time.Unix(1000, 0))

	if !s.SetIfAbsent("k", 1, time.Minute) {
		t.Fatal("first SetIfAbsent should store")
	}
	if s.SetIfAbsent("k", 2, time.Minute) {
		t.Fatal("second SetIfAbsent should be rejected while entry is live")
	}
	v, ok := s.Get("k")
	if !ok || v.(int) != 1 {
		t.Fatalf("Get = %v, %v; want 1, true", v, ok)
	}
}

func TestLazyExpiry(t *testing.T) {
	s, now := newTestStore(time.Unix(1000, 0))

	s.Set("k", "v", 30*time.Second)
	*now = now.Add(31 * time.Second)

	if _, ok := s.Get("k"); ok {
		t.Fatal("expired entry should not be returned")
	}
	// Expired entry must not block a new SetIfAbsent.
	if !s.SetIfAbsent("k", "v2", time.Minute) {
		t.Fatal("SetIfAbsent should succeed after expiry")
	}
}

func TestTouchExtends(t *testing.T) {
	s, now := newTestStore(time.Unix(1000, 0))

	s.Set("k", "v", 30*time.Second)
	*now = now.Add(20 * time.Second)
	if !s.Touch("k", 30*time.Second) {
		t.Fatal("Touch on live entry should succeed")
	}
	*now = now.Add(25 * time.Second)
	if _, ok := s.Get("k"); !ok {
		t.Fatal("touched entry should still be live")
	}

	*now = now.Add(time.Hour)
	if s.Touch("k", time.Minute) {
		t.Fatal("Touch on expired entry should fail")
	}
}

func TestSweep(t *testing.T) {
	s, now := newTestStore(time.Unix(1000, 0))

	s.Set("a", 1, 10*time.Second)
	s.Set("b", 2, time.Hour)
	*now = now.Add(time.Minute)

	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d, want 1", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d after sweep, want 1", s.Len())
	}
	if _, ok := s.Get("b"); !ok {
		t.Fatal("unexpired entry should survive sweep")
	}
}
