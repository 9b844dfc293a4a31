// Package ttlstore provides a process-wide key-value store with per-entry
// time-to-live. Entries expire lazily on the next access to the same key; an
// optional fixed-interval sweeper reclaims abandoned keys. Rate-limit
// buckets, dispatch dedup, and emit-once guards all sit on top of it so a
// multi-instance deployment can swap in an external cache behind the same
// interface.
package ttlstore

import (
	"sync"
	"time"
)

// Store is the TTL key-value contract used by the rate limiter and the
// dispatch dedup registry.
type Store interface {
	// Get returns the live value for key, or false if absent or expired.
	Get(key string) (interface{}, bool)
	// SetIfAbsent stores value under key with the given TTL only when no
	// live entry exists. Returns true when the value was stored.
	SetIfAbsent(key string, value interface{}, ttl time.Duration) bool
	// Set unconditionally stores value under key with the given TTL.
	Set(key string, value interface{}, ttl time.Duration)
	// Touch extends a live entry's expiry by ttl. Returns false when the
	// entry is absent or already expired.
	Touch(key string, ttl time.Duration) bool
	// Delete removes key.
	Delete(key string)
	// Sweep removes all expired entries and reports how many were removed.
	Sweep() int
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// MemoryStore is the in-process Store implementation.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

func (s *MemoryStore) SetIfAbsent(key string, value interface{}, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && !s.now().After(e.expiresAt) {
		return false
	}
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
	return true
}

func (s *MemoryStore) Set(key string, value interface{}, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
}

func (s *MemoryStore) Touch(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return false
	}
	e.expiresAt = s.now().Add(ttl)
	s.entries[key] = e
	return true
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of entries including any not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweeper runs Sweep on the store at the given interval until stop is
// closed.
func StartSweeper(s Store, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
