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

// TryOnJobRepositoryAdapter хранит задачи примерки в PostgreSQL.
type TryOnJobRepositoryAdapter struct {
	db *sqlx.DB
}

func NewTryOnJobRepositoryAdapter(db *sqlx.DB) *TryOnJobRepositoryAdapter {
	return &TryOnJobRepositoryAdapter{db: db}
}

type tryOnJobRow struct {
	ID           uuid.UUID      `db:"id"`
	OrderID      uuid.UUID      `db:"order_id"`
	RequestedBy  uuid.UUID      `db:"requested_by"`
	Input        []byte         `db:"input"`
	Status       string         `db:"status"`
	OutputURL    sql.NullString `db:"output_url"`
	ErrorMessage sql.NullString `db:"error_message"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
}

const tryOnJobColumns = `id, order_id, requested_by, input, status, output_url, error_message, created_at, updated_at, completed_at`

func (r tryOnJobRow) toEntity() (*entity.TryOnJob, error) {
	job := &entity.TryOnJob{
		ID:          r.ID,
		OrderID:     r.OrderID,
		RequestedBy: r.RequestedBy,
		Status:      valueobject.JobStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Input, &job.Input); err != nil {
		return nil, err
	}
	if r.OutputURL.Valid {
		v := r.OutputURL.String
		job.OutputURL = &v
	}
	if r.ErrorMessage.Valid {
		v := r.ErrorMessage.String
		job.ErrorMessage = &v
	}
	if r.CompletedAt.Valid {
		v := r.CompletedAt.Time
		job.CompletedAt = &v
	}
	return job, nil
}

func (r *TryOnJobRepositoryAdapter) Create(ctx context.Context, job *entity.TryOnJob) error {
	input, err := json.Marshal(job.Input)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать задачу примерки")
	}

	query := `
		INSERT INTO tryon_jobs (id, order_id, requested_by, input, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query, job.ID, job.OrderID, job.RequestedBy, input, string(job.Status), job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать задачу примерки")
	}
	return nil
}

func (r *TryOnJobRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.TryOnJob, error) {
	var row tryOnJobRow
	err := r.db.GetContext(ctx, &row, `SELECT `+tryOnJobColumns+` FROM tryon_jobs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrTryOnJobNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить задачу примерки")
	}
	return row.toEntity()
}

// Complete пишет терминальный результат только если задача ещё не завершена.
func (r *TryOnJobRepositoryAdapter) Complete(ctx context.Context, id uuid.UUID, result entity.JobResult) (*entity.TryOnJob, error) {
	if err := result.Validate(); err != nil {
		return nil, err
	}

	var outputURL, errorMessage sql.NullString
	if result.Status == valueobject.JobStatusDone {
		outputURL = sql.NullString{String: result.OutputURL, Valid: true}
	} else {
		errorMessage = sql.NullString{String: result.ErrorMessage, Valid: true}
	}

	query := `
		UPDATE tryon_jobs
		SET status = $2, output_url = $3, error_message = $4, updated_at = NOW(), completed_at = NOW()
		WHERE id = $1 AND status IN ('queued', 'processing')
		RETURNING ` + tryOnJobColumns

	var row tryOnJobRow
	err := r.db.GetContext(ctx, &row, query, id, string(result.Status), outputURL, errorMessage)
	if errors.Is(err, sql.ErrNoRows) {
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, apperror.ErrJobAlreadyTerminal
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось завершить задачу примерки")
	}
	return row.toEntity()
}
