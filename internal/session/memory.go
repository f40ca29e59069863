package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Expired sessions are dropped lazily.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*memoryEntry),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.liveLocked(id)
	if entry == nil {
		return "", ErrNotFound
	}
	entry.expiresAt = s.now().Add(s.ttl)
	val, ok := entry.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *MemoryStore) Set(_ context.Context, id, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	entry := s.sessions[id]
	if entry == nil {
		entry = &memoryEntry{values: make(map[string]string)}
		s.sessions[id] = entry
	}
	entry.values[key] = value
	entry.expiresAt = s.now().Add(s.ttl)
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.liveLocked(id)
	if entry == nil {
		return false, nil
	}
	entry.expiresAt = s.now().Add(s.ttl)
	return true, nil
}

// Len reports the number of sessions currently held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) liveLocked(id string) *memoryEntry {
	entry, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.sessions, id)
		return nil
	}
	return entry
}

func (s *MemoryStore) pruneLocked() {
	now := s.now()
	for id, entry := range s.sessions {
		if !now.Before(entry.expiresAt) {
			delete(s.sessions, id)
		}
	}
}

// PurgeExpired drops every expired session.
func (s *MemoryStore) PurgeExpired(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.sessions)
	s.pruneLocked()
	return int64(before - len(s.sessions)), nil
}
