package draft

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/metrics"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// ErrInsufficientFields: заказа ещё нет, а имени или телефона для его создания не хватает.
var ErrInsufficientFields = apperror.Validation("для сохранения черновика укажите имя и телефон")

// Store сохраняет черновики заказов и отправляет их портному.
type Store struct {
	orders  repository.OrderRepository
	metrics *metrics.Registry
}

func NewStore(orders repository.OrderRepository, m *metrics.Registry) *Store {
	return &Store{orders: orders, metrics: m}
}

// Save создаёт черновик (orderID == nil) или дописывает поля в существующий заказ.
// Возвращает id заказа.
func (s *Store) Save(ctx context.Context, ownerID uuid.UUID, orderID *uuid.UUID, fields Fields) (uuid.UUID, error) {
	id, err := s.save(ctx, ownerID, orderID, fields)
	if err != nil {
		s.metrics.ObserveAutosave("error")
		return uuid.Nil, err
	}
	s.metrics.ObserveAutosave("ok")
	return id, nil
}

func (s *Store) save(ctx context.Context, ownerID uuid.UUID, orderID *uuid.UUID, fields Fields) (uuid.UUID, error) {
	if ownerID == uuid.Nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}
	if err := fields.validate(); err != nil {
		return uuid.Nil, err
	}

	if orderID == nil {
		if !fields.hasContact() {
			return uuid.Nil, ErrInsufficientFields
		}
		order, err := entity.NewDraftOrder(ownerID, *fields.CustomerName, *fields.CustomerPhone)
		if err != nil {
			return uuid.Nil, err
		}
		fields.applyTo(order)
		if err := s.orders.Create(ctx, order); err != nil {
			return uuid.Nil, ioError(err, "не удалось сохранить черновик заказа")
		}
		logger.Log.WithFields(logrus.Fields{
			"order_id": order.ID,
			"owner_id": ownerID,
		}).Info("создан черновик заказа")
		return order.ID, nil
	}

	order, err := s.load(ctx, ownerID, *orderID)
	if err != nil {
		return uuid.Nil, err
	}
	if !order.IsEditableByCustomer() {
		return uuid.Nil, apperror.New(apperror.ErrCodeConflict, "заказ уже в работе, изменить его нельзя")
	}
	if fields.IsEmpty() {
		return order.ID, nil
	}

	fields.applyTo(order)
	order.UpdatedAt = time.Now()
	if err := s.orders.Update(ctx, order); err != nil {
		return uuid.Nil, ioError(err, "не удалось сохранить черновик заказа")
	}
	return order.ID, nil
}

// Finalize переводит черновик в pending. Для уже отправленного заказа ничего не делает.
func (s *Store) Finalize(ctx context.Context, ownerID, orderID uuid.UUID) (*entity.Order, error) {
	if ownerID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	order, err := s.load(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}

	changed, err := order.Submit()
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, ioError(err, "не удалось отправить заказ")
	}
	s.metrics.ObserveFinalized()
	logger.Log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   valueobject.OrderStatusPending,
	}).Info("заказ отправлен портному")
	return order, nil
}

// Get возвращает заказ владельцу.
func (s *Store) Get(ctx context.Context, ownerID, orderID uuid.UUID) (*entity.Order, error) {
	return s.load(ctx, ownerID, orderID)
}

func (s *Store) load(ctx context.Context, ownerID, orderID uuid.UUID) (*entity.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, ioError(err, "не удалось загрузить заказ")
	}
	if !order.IsOwnedBy(ownerID) {
		return nil, apperror.ErrForbidden
	}
	return order, nil
}

// ioError превращает сбой хранилища во временную ошибку, доменные ошибки пропускает как есть.
func ioError(err error, message string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code != apperror.ErrCodeDatabaseError && appErr.Code != apperror.ErrCodeInternal {
		return err
	}
	return apperror.Transient(err, message)
}
