package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
)

type GetOrderUseCase struct {
	orderRepo repository.OrderRepository
}

func NewGetOrderUseCase(orderRepo repository.OrderRepository) *GetOrderUseCase {
	return &GetOrderUseCase{orderRepo: orderRepo}
}

// Execute возвращает заказ, если он виден пользователю. Чужой заказ выглядит как несуществующий.
func (uc *GetOrderUseCase) Execute(ctx context.Context, orderID, userID uuid.UUID) (*entity.Order, error) {
	return loadVisible(ctx, uc.orderRepo, orderID, userID)
}
