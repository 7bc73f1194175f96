// Package cache holds the in-memory geocoding and transit-time caches and a
// MapProvider decorator that consults them before the real backend.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value      V
	insertedAt time.Time
	expiresAt  time.Time
}

// Stats is a point-in-time view of one cache.
type Stats struct {
	Size     int       `json:"size"`
	Hits     int64     `json:"hits"`
	Misses   int64     `json:"misses"`
	HitRate  float64   `json:"hitRate"`
	OldestAt time.Time `json:"oldestAt,omitzero"`
}

// ttlStore is the shared TTL + capacity store under both caches. Entries are
// evicted oldest-insertion-first when the capacity is exceeded. A background
// janitor sweeps expired entries; Get never returns an expired value
// regardless of janitor timing.
type ttlStore[V any] struct {
	mu       sync.RWMutex
	entries  map[string]entry[V]
	capacity int
	ttl      time.Duration

	hits, misses int64

	stopOnce sync.Once
	stop     chan struct{}

	now func() time.Time
}

func newTTLStore[V any](ttl time.Duration, capacity int, cleanupEvery time.Duration) *ttlStore[V] {
	s := &ttlStore[V]{
		entries:  make(map[string]entry[V]),
		capacity: capacity,
		ttl:      ttl,
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	if cleanupEvery > 0 {
		go s.janitor(cleanupEvery)
	}
	return s
}

func (s *ttlStore[V]) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.stop:
			return
		}
	}
}

// Stop terminates the background janitor.
func (s *ttlStore[V]) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *ttlStore[V]) get(key string) (V, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	now := s.now()
	s.mu.RUnlock()

	if ok && now.Before(e.expiresAt) {
		s.mu.Lock()
		s.hits++
		s.mu.Unlock()
		return e.value, true
	}

	s.mu.Lock()
	s.misses++
	if ok {
		// Expired: drop it now rather than waiting for the janitor.
		if e2, still := s.entries[key]; still && !s.now().Before(e2.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
	var zero V
	return zero, false
}

// set stores value under key. A zero ttl selects the store default; a
// negative ttl yields an already-expired entry.
func (s *ttlStore[V]) set(key string, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = s.ttl
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry[V]{value: value, insertedAt: now, expiresAt: now.Add(ttl)}
	for s.capacity > 0 && len(s.entries) > s.capacity {
		s.evictOldestLocked()
	}
}

func (s *ttlStore[V]) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range s.entries {
		if first || e.insertedAt.Before(oldestAt) {
			oldestKey, oldestAt, first = k, e.insertedAt, false
		}
	}
	if !first {
		delete(s.entries, oldestKey)
	}
}

func (s *ttlStore[V]) has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return ok && s.now().Before(e.expiresAt)
}

func (s *ttlStore[V]) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Cleanup removes expired entries and returns how many were dropped.
func (s *ttlStore[V]) Cleanup() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Reset empties the store and zeroes the hit/miss counters.
func (s *ttlStore[V]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry[V])
	s.hits, s.misses = 0, 0
}

func (s *ttlStore[V]) stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Size: len(s.entries), Hits: s.hits, Misses: s.misses}
	if total := s.hits + s.misses; total > 0 {
		st.HitRate = float64(s.hits) / float64(total)
	}
	for _, e := range s.entries {
		if st.OldestAt.IsZero() || e.insertedAt.Before(st.OldestAt) {
			st.OldestAt = e.insertedAt
		}
	}
	return st
}
