package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. State is lost on restart and
// is not shared between instances; use RedisStore for that.
type MemoryStore struct {
	mu      sync.Mutex
	records map[Key]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[Key]Record)}
}

// Save creates or replaces the record for rec.Key().
func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.Key()] = rec
	return nil
}

// Get returns the record for key.
func (s *MemoryStore) Get(_ context.Context, key Key) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	return rec, ok, nil
}

// Delete removes the record for key.
func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Update applies fn to the record for key while holding the store lock.
func (s *MemoryStore) Update(_ context.Context, key Key, fn func(rec *Record) Action) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return false, nil
	}

	switch fn(&rec) {
	case ActionSave:
		s.records[key] = rec
	case ActionDelete:
		delete(s.records, key)
	}

	return true, nil
}

// List returns a copy of every stored record.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

// DeleteExpired removes every record expired at now.
func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, key)
			n++
		}
	}
	return n, nil
}
