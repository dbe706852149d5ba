package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	values    map[string][]byte
	expiresAt time.Time
}

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
	nextGC   time.Time
}

// NewMemoryStore keeps sessions in process memory. Every write extends the
// session's lifetime by ttl.
func NewMemoryStore(ttl time.Duration) Store {
	return newMemoryStore(ttl, time.Now)
}

func newMemoryStore(ttl time.Duration, now func() time.Time) *memoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &memoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      now,
		nextGC:   now().Add(ttl),
	}
}

func (s *memoryStore) Get(_ context.Context, sessionID, key string, dst any) (bool, error) {
	if sessionID == "" {
		return false, ErrEmptySessionID
	}

	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	if ok && s.now().After(entry.expiresAt) {
		delete(s.sessions, sessionID)
		ok = false
	}
	var raw []byte
	if ok {
		raw, ok = entry.values[key]
	}
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrDecodeValue, key, err)
	}
	return true, nil
}

func (s *memoryStore) Set(ctx context.Context, sessionID, key string, value any) error {
	return s.Update(ctx, sessionID, map[string]any{key: value})
}

func (s *memoryStore) Update(_ context.Context, sessionID string, set map[string]any, remove ...string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	encoded, err := encodeValues(set)
	if err != nil {
		return err
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok || now.After(entry.expiresAt) {
		entry = &memoryEntry{values: make(map[string][]byte)}
		s.sessions[sessionID] = entry
	}
	for k, raw := range encoded {
		entry.values[k] = raw
	}
	for _, k := range remove {
		delete(entry.values, k)
	}
	entry.expiresAt = now.Add(s.ttl)
	if len(entry.values) == 0 {
		delete(s.sessions, sessionID)
	}

	if now.After(s.nextGC) {
		for id, e := range s.sessions {
			if now.After(e.expiresAt) {
				delete(s.sessions, id)
			}
		}
		s.nextGC = now.Add(s.ttl)
	}

	return nil
}

func (s *memoryStore) Delete(_ context.Context, sessionID string, keys ...string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(entry.values, k)
	}
	if len(entry.values) == 0 {
		delete(s.sessions, sessionID)
	}
	return nil
}
