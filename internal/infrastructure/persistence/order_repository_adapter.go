package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

type OrderRepositoryAdapter struct {
	db *sqlx.DB
}

func NewOrderRepositoryAdapter(db *sqlx.DB) *OrderRepositoryAdapter {
	return &OrderRepositoryAdapter{db: db}
}

type orderRow struct {
	ID               uuid.UUID     `db:"id"`
	CustomerID       uuid.UUID     `db:"customer_id"`
	TailorID         uuid.NullUUID `db:"tailor_id"`
	CustomerName     string        `db:"customer_name"`
	CustomerPhone    string        `db:"customer_phone"`
	CustomerEmail    string        `db:"customer_email"`
	Measurements     []byte        `db:"measurements"`
	CustomerPhotoURL string        `db:"customer_photo_url"`
	StylePhotoURL    string        `db:"style_photo_url"`
	StyleReference   string        `db:"style_reference"`
	FabricType       string        `db:"fabric_type"`
	Notes            string        `db:"notes"`
	TailorNotes      string        `db:"tailor_notes"`
	Status           string        `db:"status"`
	CreatedAt        time.Time     `db:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

func toOrderRow(o *entity.Order) (orderRow, error) {
	measurements, err := json.Marshal(o.Measurements)
	if err != nil {
		return orderRow{}, err
	}
	row := orderRow{
		ID:               o.ID,
		CustomerID:       o.CustomerID,
		CustomerName:     o.CustomerName,
		CustomerPhone:    o.CustomerPhone,
		CustomerEmail:    o.CustomerEmail,
		Measurements:     measurements,
		CustomerPhotoURL: o.CustomerPhotoURL,
		StylePhotoURL:    o.StylePhotoURL,
		StyleReference:   o.StyleReference,
		FabricType:       o.FabricType,
		Notes:            o.Notes,
		TailorNotes:      o.TailorNotes,
		Status:           string(o.Status),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	if o.TailorID != nil {
		row.TailorID = uuid.NullUUID{UUID: *o.TailorID, Valid: true}
	}
	return row, nil
}

func (r orderRow) toEntity() (*entity.Order, error) {
	order := &entity.Order{
		ID:               r.ID,
		CustomerID:       r.CustomerID,
		CustomerName:     r.CustomerName,
		CustomerPhone:    r.CustomerPhone,
		CustomerEmail:    r.CustomerEmail,
		CustomerPhotoURL: r.CustomerPhotoURL,
		StylePhotoURL:    r.StylePhotoURL,
		StyleReference:   r.StyleReference,
		FabricType:       r.FabricType,
		Notes:            r.Notes,
		TailorNotes:      r.TailorNotes,
		Status:           valueobject.OrderStatus(r.Status),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.TailorID.Valid {
		id := r.TailorID.UUID
		order.TailorID = &id
	}
	if len(r.Measurements) > 0 {
		if err := json.Unmarshal(r.Measurements, &order.Measurements); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (r *OrderRepositoryAdapter) Create(ctx context.Context, order *entity.Order) error {
	row, err := toOrderRow(order)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать мерки")
	}

	query := `
		INSERT INTO orders (id, customer_id, tailor_id, customer_name, customer_phone, customer_email,
		                    measurements, customer_photo_url, style_photo_url, style_reference,
		                    fabric_type, notes, tailor_notes, status, created_at, updated_at)
		VALUES (:id, :customer_id, :tailor_id, :customer_name, :customer_phone, :customer_email,
		        :measurements, :customer_photo_url, :style_photo_url, :style_reference,
		        :fabric_type, :notes, :tailor_notes, :status, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать заказ")
	}
	return nil
}

func (r *OrderRepositoryAdapter) Update(ctx context.Context, order *entity.Order) error {
	row, err := toOrderRow(order)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать мерки")
	}

	query := `
		UPDATE orders
		SET tailor_id = :tailor_id, customer_name = :customer_name, customer_phone = :customer_phone,
		    customer_email = :customer_email, measurements = :measurements,
		    customer_photo_url = :customer_photo_url, style_photo_url = :style_photo_url,
		    style_reference = :style_reference, fabric_type = :fabric_type, notes = :notes,
		    tailor_notes = :tailor_notes, status = :status, updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить заказ")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить результат обновления")
	}
	if rows == 0 {
		return apperror.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var row orderRow
	query := `
		SELECT id, customer_id, tailor_id, customer_name, customer_phone, customer_email,
		       measurements, customer_photo_url, style_photo_url, style_reference,
		       fabric_type, notes, tailor_notes, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}

	order, err := row.toEntity()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждён набор мерок заказа")
	}
	return order, nil
}
