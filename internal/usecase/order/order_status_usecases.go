package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/validation"
)

// ChangeStatusUseCase: переходы заказа после отправки.
// Начать и завершить работу может только назначенный портной, отменить: владелец или портной.
// Перевод в pending выполняется только через оформление черновика.
type ChangeStatusUseCase struct {
	orderRepo repository.OrderRepository
}

func NewChangeStatusUseCase(orderRepo repository.OrderRepository) *ChangeStatusUseCase {
	return &ChangeStatusUseCase{orderRepo: orderRepo}
}

func (uc *ChangeStatusUseCase) Execute(ctx context.Context, orderID, userID uuid.UUID, target valueobject.OrderStatus) (*entity.Order, error) {
	order, err := loadVisible(ctx, uc.orderRepo, orderID, userID)
	if err != nil {
		return nil, err
	}

	switch target {
	case valueobject.OrderStatusInProgress:
		if !order.IsAssignedTo(userID) {
			return nil, apperror.ErrForbidden
		}
		err = order.StartWork()
	case valueobject.OrderStatusCompleted:
		if !order.IsAssignedTo(userID) {
			return nil, apperror.ErrForbidden
		}
		err = order.Complete()
	case valueobject.OrderStatusCancelled:
		err = order.Cancel()
	default:
		return nil, apperror.Validation("статус можно сменить только на in_progress, completed или cancelled")
	}
	if err != nil {
		return nil, err
	}

	if err := uc.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

type UpdateTailorNotesUseCase struct {
	orderRepo repository.OrderRepository
}

func NewUpdateTailorNotesUseCase(orderRepo repository.OrderRepository) *UpdateTailorNotesUseCase {
	return &UpdateTailorNotesUseCase{orderRepo: orderRepo}
}

func (uc *UpdateTailorNotesUseCase) Execute(ctx context.Context, orderID, tailorID uuid.UUID, notes string) (*entity.Order, error) {
	if err := validation.ValidateTailorNotes(notes); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	order, err := loadVisible(ctx, uc.orderRepo, orderID, tailorID)
	if err != nil {
		return nil, err
	}
	if !order.IsAssignedTo(tailorID) {
		return nil, apperror.ErrForbidden
	}

	order.SetTailorNotes(notes)
	if err := uc.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func loadVisible(ctx context.Context, repo repository.OrderRepository, orderID, userID uuid.UUID) (*entity.Order, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.VisibleTo(userID) {
		return nil, apperror.ErrOrderNotFound
	}
	return order, nil
}
