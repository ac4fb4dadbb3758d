// Package feedcache stores the last successfully parsed feed per URL
// together with the HTTP validators needed for conditional revalidation.
package feedcache

import (
	"sync"
	"time"

	"feedwatch/internal/domain/entity"
)

// Validators are the HTTP cache validators captured from a response.
// Both values are kept verbatim so they can be echoed back in
// If-None-Match / If-Modified-Since headers.
type Validators struct {
	ETag         string
	LastModified string
}

// Entry is one cached feed keyed by URL. InsertedAt is set by the store on
// write; freshness policy (how long an entry short-circuits the network)
// belongs to the caller.
type Entry struct {
	Feed         *entity.NormalizedFeed
	ETag         string
	LastModified string
	InsertedAt   time.Time
}

// Age returns how long ago the entry was written.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.InsertedAt)
}

// Store is the cache contract the fetch pipeline consumes.
type Store interface {
	// Get returns the entry for a URL, or false when none is cached.
	Get(url string) (*Entry, bool)

	// SetWithHeaders stores a feed for a URL along with its response
	// validators, overwriting any previous entry (last writer wins).
	SetWithHeaders(url string, feed *entity.NormalizedFeed, v Validators)
}

// MemoryStore is an in-process Store backed by a map. Reads and writes for
// different URLs never contend beyond the short critical section; there is
// no cross-key locking.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(url string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[url]
	return e, ok
}

// SetWithHeaders implements Store.
func (s *MemoryStore) SetWithHeaders(url string, feed *entity.NormalizedFeed, v Validators) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[url] = &Entry{
		Feed:         feed,
		ETag:         v.ETag,
		LastModified: v.LastModified,
		InsertedAt:   s.now(),
	}
}

// Len returns the number of cached URLs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
