package store

import (
	"sync"
	"time"

	"github.com/i474232898/airquality-forecast/internal/airquality"
)

// RefreshRecord summarises one published snapshot.
type RefreshRecord struct {
	RefreshedAt time.Time `json:"refreshedAt"`
	Countries   int       `json:"countries"`
}

// MemoryStore is a concurrency-safe in-memory holder of the current global
// AQI snapshot. Readers always see either the previous or the next snapshot
// in full, never a mix.
type MemoryStore struct {
	mu sync.RWMutex

	current airquality.Snapshot
	ok      bool

	// refresh history, oldest first
	history    []RefreshRecord
	maxHistory int // max number of records kept (0 = unlimited)
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, the refresh history is unbounded.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
	}
}

// Current returns a copy of the published snapshot, if any.
func (s *MemoryStore) Current() (airquality.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ok {
		return airquality.Snapshot{}, false
	}
	return s.current.Clone(), true
}

// Replace publishes snapshot as a whole and records it in the history.
func (s *MemoryStore) Replace(snapshot airquality.Snapshot) {
	owned := snapshot.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = owned
	s.ok = true

	s.history = append(s.history, RefreshRecord{
		RefreshedAt: owned.RefreshedAt,
		Countries:   len(owned.Countries),
	})

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.history) > s.maxHistory {
		over := len(s.history) - s.maxHistory
		s.history = s.history[over:]
	}
}

// History returns the recorded refreshes, oldest first.
func (s *MemoryStore) History() []RefreshRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RefreshRecord, len(s.history))
	copy(out, s.history)
	return out
}
