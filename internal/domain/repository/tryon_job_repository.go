package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
)

// TryOnJobRepository хранит задачи примерки.
// Complete пишет терминальный результат ровно один раз и возвращает apperror.ErrJobAlreadyTerminal при повторе.
type TryOnJobRepository interface {
	Create(ctx context.Context, job *entity.TryOnJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.TryOnJob, error)
	Complete(ctx context.Context, id uuid.UUID, result entity.JobResult) (*entity.TryOnJob, error)
}
