package memory

import (
	"context"
	"sync"
	"time"

	"github.com/chainnote/chainnote-go/pkg/presence"
)

type entry struct {
	loc       presence.Location
	expiresAt time.Time
}

// MemoryStore is an in-process presence store. Thread-safe via sync.RWMutex.
// Expiry is checked on every read and swept in the background, so entries for
// senders who never follow up cannot accumulate.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	stop    chan struct{}
	once    sync.Once
	now     func() time.Time
}

// NewMemoryStore creates a memory store with the given TTL (DefaultTTL when
// non-positive) and starts its background sweep.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = presence.DefaultTTL
	}
	s := &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	go s.sweep()
	return s
}

// Put records or refreshes the sender's location.
func (s *MemoryStore) Put(_ context.Context, userID string, loc presence.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = entry{loc: loc, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Get returns the sender's location, or (nil, nil) when absent or expired.
func (s *MemoryStore) Get(_ context.Context, userID string) (*presence.Location, error) {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()

	if !ok || s.now().After(e.expiresAt) {
		return nil, nil
	}
	loc := e.loc
	return &loc, nil
}

// Close stops the background sweep.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for k, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, k)
				}
			}
			s.mu.Unlock()
		}
	}
}
