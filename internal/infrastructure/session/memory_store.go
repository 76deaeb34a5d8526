package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase/wizard"
)

// MemoryStore: сессии в памяти процесса для development и тестов.
// Состояние хранится сериализованным, чтобы вызывающие не делили один объект.
type MemoryStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]memoryItem
	ttl   time.Duration
	now   func() time.Time
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]memoryItem), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, st *wizard.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item := memoryItem{data: data}
	if s.ttl > 0 {
		item.expiresAt = s.now().Add(s.ttl)
	}
	s.items[st.ID] = item
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id uuid.UUID) (*wizard.State, error) {
	s.mu.Lock()
	item, ok := s.items[id]
	if ok && !item.expiresAt.IsZero() && s.now().After(item.expiresAt) {
		delete(s.items, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	var st wizard.State
	if err := json.Unmarshal(item.data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// Len возвращает число живых сессий.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
