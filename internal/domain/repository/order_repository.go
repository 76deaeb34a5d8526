package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	Update(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
}
