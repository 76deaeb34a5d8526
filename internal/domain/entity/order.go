package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// Order: заказ клиента у портного.
type Order struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	TailorID   *uuid.UUID

	CustomerName  string
	CustomerPhone string
	CustomerEmail string

	Measurements     valueobject.MeasurementSet
	CustomerPhotoURL string
	StylePhotoURL    string
	StyleReference   string
	FabricType       string
	Notes            string
	TailorNotes      string

	Status    valueobject.OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDraftOrder создаёт черновик. Имя и телефон обязательны.
func NewDraftOrder(customerID uuid.UUID, name, phone string) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, apperror.Validation("для создания заказа нужны имя и телефон")
	}

	now := time.Now()
	return &Order{
		ID:            uuid.New(),
		CustomerID:    customerID,
		CustomerName:  name,
		CustomerPhone: phone,
		Status:        valueobject.OrderStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsEditableByCustomer: клиент может менять поля заказа до начала работы.
func (o *Order) IsEditableByCustomer() bool {
	return o.Status == valueobject.OrderStatusDraft || o.Status == valueobject.OrderStatusPending
}

// Submit переводит черновик в pending. Повторный вызов для pending и дальше ничего не меняет.
// Возвращает true, если статус изменился.
func (o *Order) Submit() (bool, error) {
	switch {
	case o.Status == valueobject.OrderStatusDraft:
		o.Status = valueobject.OrderStatusPending
		o.UpdatedAt = time.Now()
		return true, nil
	case o.Status.Rank() >= valueobject.OrderStatusPending.Rank():
		return false, nil
	}
	return false, apperror.New(apperror.ErrCodeConflict, "отменённый заказ нельзя отправить")
}

func (o *Order) StartWork() error {
	if !o.Status.CanTransitionTo(valueobject.OrderStatusInProgress) {
		return apperror.New(apperror.ErrCodeConflict, "невозможно начать работу в текущем статусе")
	}
	o.Status = valueobject.OrderStatusInProgress
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) Complete() error {
	if !o.Status.CanTransitionTo(valueobject.OrderStatusCompleted) {
		return apperror.New(apperror.ErrCodeConflict, "невозможно завершить заказ в текущем статусе")
	}
	o.Status = valueobject.OrderStatusCompleted
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) Cancel() error {
	if !o.Status.CanTransitionTo(valueobject.OrderStatusCancelled) {
		return apperror.New(apperror.ErrCodeConflict, "невозможно отменить заказ в текущем статусе")
	}
	o.Status = valueobject.OrderStatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}

// SetTailorNotes обновляет заметки портного.
func (o *Order) SetTailorNotes(notes string) {
	o.TailorNotes = notes
	o.UpdatedAt = time.Now()
}

func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && o.CustomerID == userID
}

func (o *Order) IsAssignedTo(userID uuid.UUID) bool {
	return userID != uuid.Nil && o.TailorID != nil && *o.TailorID == userID
}

// VisibleTo: черновик видит только клиент, портной видит заказ после отправки.
func (o *Order) VisibleTo(userID uuid.UUID) bool {
	if o.IsOwnedBy(userID) {
		return true
	}
	return o.IsAssignedTo(userID) && o.Status != valueobject.OrderStatusDraft
}

// CanRequestTryOn: запускать примерку могут владелец и назначенный портной.
func (o *Order) CanRequestTryOn(userID uuid.UUID) bool {
	return o.IsOwnedBy(userID) || o.IsAssignedTo(userID)
}
