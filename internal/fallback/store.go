package fallback

import (
	"context"
	"errors"
	"sync"
)

// ErrDuplicate is returned when a record with the same id is already stored.
var ErrDuplicate = errors.New("fallback record already stored")

// Store keeps requests that could not be relayed until someone processes them
// by hand. Append must be safe for concurrent callers.
type Store interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
	Count(ctx context.Context) (int, error)
}

// MemoryStore is a process-lifetime Store. Records are never evicted.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// List returns a copy in append order.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
