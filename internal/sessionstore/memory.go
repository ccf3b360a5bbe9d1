package sessionstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wilcolinadev/naturalize/internal/quiz"
)

// MemoryStore is the in-process fallback used when no Redis address is
// configured, and by tests. Sessions expire lazily on read.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string]memorySession
	recents    map[string][]int
	drafts     map[string]string
	sessionTTL time.Duration
}

type memorySession struct {
	payload   []byte
	expiresAt time.Time
}

func NewMemoryStore(sessionTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string]memorySession),
		recents:    make(map[string][]int),
		drafts:     make(map[string]string),
		sessionTTL: sessionTTL,
	}
}

func (s *MemoryStore) SaveQuizSession(_ context.Context, session *quiz.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[session.ID] = memorySession{payload: payload, expiresAt: time.Now().Add(s.sessionTTL)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetQuizSession(_ context.Context, id string) (*quiz.Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	var session quiz.Session
	if err := json.Unmarshal(entry.payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *MemoryStore) DeleteQuizSession(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) PushRecentSentence(_ context.Context, subject string, sentenceID, window int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := append([]int{sentenceID}, s.recents[subject]...)
	if len(updated) > window {
		updated = updated[:window]
	}
	s.recents[subject] = updated
	return nil
}

func (s *MemoryStore) RecentSentences(_ context.Context, subject string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, len(s.recents[subject]))
	copy(ids, s.recents[subject])
	return ids, nil
}

func (s *MemoryStore) GetDraft(_ context.Context, subject, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.drafts[subject+":"+key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) SetDraft(_ context.Context, subject, key, value string) error {
	s.mu.Lock()
	s.drafts[subject+":"+key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ClearDraft(_ context.Context, subject, key string) error {
	s.mu.Lock()
	delete(s.drafts, subject+":"+key)
	s.mu.Unlock()
	return nil
}
