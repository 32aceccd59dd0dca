// Package resource hands out short opaque handles for in-memory audio blobs.
// A handle resolves until it is revoked; the store never evicts on its own,
// so the owner of a handle is responsible for revoking it.
package resource

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scheme prefixes every handle issued by a Store.
const Scheme = "blob:nateq/"

// ErrRevoked is returned when a handle no longer resolves.
var ErrRevoked = errors.New("resource handle revoked or unknown")

// Handle is an opaque reference to a stored blob. The zero value is the
// null handle.
type Handle string

// IsZero reports whether h is the null handle.
func (h Handle) IsZero() bool {
	return h == ""
}

// Valid reports whether h looks like a handle issued by a Store.
func (h Handle) Valid() bool {
	return strings.HasPrefix(string(h), Scheme) && len(h) > len(Scheme)
}

// Stats is a snapshot of the store's bookkeeping.
type Stats struct {
	Live     int   // Handles that currently resolve
	Size     int64 // Bytes held by live handles
	Issued   int64 // Handles ever issued
	Revoked  int64 // Handles revoked
	LastPut  time.Time
	LastFree time.Time

	// Oldest is when the longest-lived handle was issued; zero when none is live.
	Oldest time.Time
}

type entry struct {
	blob    []byte
	created time.Time
}

// Store maps handles to immutable blobs.
type Store struct {
	items map[Handle]*entry
	size  int64

	// Synchronization
	mu sync.RWMutex

	// Metrics
	stats Stats
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items: make(map[Handle]*entry),
	}
}

// Put stores blob and returns a fresh handle for it. The store keeps the
// slice as given; callers must not modify it afterwards.
func (s *Store) Put(blob []byte) Handle {
	h := Handle(Scheme + uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.items[h] = &entry{blob: blob, created: now}
	s.size += int64(len(blob))
	s.stats.Issued++
	s.stats.LastPut = now
	return h
}

// Resolve returns the blob behind h. Revoked and unknown handles never
// resolve.
func (s *Store) Resolve(h Handle) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[h]
	if !ok {
		return nil, false
	}
	return e.blob, true
}

// Open is Resolve with an error for callers that propagate failures.
func (s *Store) Open(h Handle) ([]byte, error) {
	blob, ok := s.Resolve(h)
	if !ok {
		return nil, ErrRevoked
	}
	return blob, nil
}

// Revoke releases h. Revoking the null handle or an already revoked handle
// is a no-op.
func (s *Store) Revoke(h Handle) {
	if h.IsZero() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[h]
	if !ok {
		return
	}
	delete(s.items, h)
	s.size -= int64(len(e.blob))
	s.stats.Revoked++
	s.stats.LastFree = time.Now()
}

// Len returns the number of live handles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Size returns the number of bytes held by live handles.
func (s *Store) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Stats returns a snapshot of the store's counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	stats.Live = len(s.items)
	stats.Size = s.size
	for _, e := range s.items {
		if stats.Oldest.IsZero() || e.created.Before(stats.Oldest) {
			stats.Oldest = e.created
		}
	}
	return stats
}
