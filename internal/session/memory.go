package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. Records are stored encoded
// so callers never share a draft with the store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[int64][]byte
	expires map[int64]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		records: make(map[int64][]byte),
		expires: make(map[int64]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, actor int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.records[actor]
	if !ok {
		return nil, nil
	}
	if s.now().After(s.expires[actor]) {
		delete(s.records, actor)
		delete(s.expires, actor)
		return nil, nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Actor] = data
	s.expires[rec.Actor] = s.now().Add(s.ttl)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, actor int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, actor)
	delete(s.expires, actor)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
