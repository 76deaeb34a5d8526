package draft

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// Session привязывает сохранения одной сессии мастера к одному заказу.
// Сохранения идут строго по очереди, поэтому параллельные вызовы создают не больше одного заказа.
type Session struct {
	store   *Store
	ownerID uuid.UUID

	mu      sync.Mutex
	orderID *uuid.UUID
}

// NewSession создаёт сессию. orderID можно передать, если заказ уже создан раньше.
func NewSession(store *Store, ownerID uuid.UUID, orderID *uuid.UUID) *Session {
	s := &Session{store: store, ownerID: ownerID}
	if orderID != nil && *orderID != uuid.Nil {
		id := *orderID
		s.orderID = &id
	}
	return s
}

func (s *Session) Save(ctx context.Context, fields Fields) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.Save(ctx, s.ownerID, s.orderID, fields)
	if err != nil {
		return uuid.Nil, err
	}
	if s.orderID == nil {
		s.orderID = &id
	}
	return id, nil
}

// OrderID возвращает закреплённый id заказа.
func (s *Session) OrderID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orderID == nil {
		return uuid.Nil, false
	}
	return *s.orderID, true
}

func (s *Session) Finalize(ctx context.Context) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.orderID == nil {
		return nil, apperror.ErrNoOrderToFinalize
	}
	return s.store.Finalize(ctx, s.ownerID, *s.orderID)
}
