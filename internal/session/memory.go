package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"quizweb/internal/quiz"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps JSON snapshots of each state in process memory, so a
// caller never shares a *quiz.State with another request.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: map[string]memoryEntry{},
		ttl:     ttlOrDefault(ttl),
		now:     time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, token string) (*quiz.State, error) {
	s.mu.RLock()
	entry, ok := s.entries[token]
	s.mu.RUnlock()
	if !ok || !s.now().Before(entry.expiresAt) {
		return nil, ErrNotFound
	}
	var st quiz.State
	if err := json.Unmarshal(entry.data, &st); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &st, nil
}

func (s *MemoryStore) Save(_ context.Context, st *quiz.State) (string, error) {
	if st == nil || st.ID == "" {
		return "", errors.New("session state requires an id")
	}
	data, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[st.ID] = memoryEntry{data: data, expiresAt: now.Add(s.ttl)}
	if now.Sub(s.lastSweep) >= time.Minute {
		for id, e := range s.entries {
			if !now.Before(e.expiresAt) {
				delete(s.entries, id)
			}
		}
		s.lastSweep = now
	}
	return st.ID, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, expired ones included until the
// next sweep.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
