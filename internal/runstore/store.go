package runstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"smooth/internal/metrics"
	"smooth/internal/simulation"
)

const (
	DefaultTTL          = 1 * time.Hour
	defaultCleanupEvery = 5 * time.Minute
)

// Entry is a stored run result.
type Entry struct {
	ID        string
	Result    *simulation.Result
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store keeps finished runs in memory so that the ledger and rankings can be
// fetched after the run request returned. Nothing is written to disk.
type Store struct {
	mu    sync.RWMutex
	store map[string]*Entry
	ttl   time.Duration
	now   func() time.Time
}

// New returns an empty store. A ttl <= 0 uses DefaultTTL.
func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		store: make(map[string]*Entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores res under a fresh id.
func (s *Store) Put(res *simulation.Result) *Entry {
	now := s.now()
	e := &Entry{
		ID:        uuid.NewString(),
		Result:    res,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.store[e.ID] = e
	n := len(s.store)
	s.mu.Unlock()

	metrics.UpdateStoredRunsMetric(n)
	return e
}

// Get returns the entry if it exists and has not expired.
func (s *Store) Get(id string) (*Entry, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.store[id]
	if !ok || s.now().After(e.ExpiresAt) {
		return nil, false
	}
	return e, true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.store)
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	s.store = make(map[string]*Entry)
	s.mu.Unlock()
	metrics.UpdateStoredRunsMetric(0)
}

// Evict removes expired entries and reports how many were dropped.
func (s *Store) Evict() int {
	s.mu.Lock()
	now := s.now()
	dropped := 0
	for id, e := range s.store {
		if now.After(e.ExpiresAt) {
			delete(s.store, id)
			dropped++
		}
	}
	n := len(s.store)
	s.mu.Unlock()

	metrics.UpdateStoredRunsMetric(n)
	return dropped
}

// Cleanup evicts expired entries periodically until ctx is done.
func (s *Store) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(defaultCleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Evict()
		}
	}
}
