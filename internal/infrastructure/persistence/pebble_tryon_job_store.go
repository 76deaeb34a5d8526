package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// PebbleTryOnJobStore: встроенное хранилище задач примерки для однонодовой установки.
// Значения хранятся в JSON под ключом tryon_job/<id>.
type PebbleTryOnJobStore struct {
	db *pebble.DB
	// pebble не даёт compare-and-set, поэтому завершение задачи сериализуется здесь
	mu sync.Mutex
}

type pebbleJobRecord struct {
	ID           uuid.UUID         `json:"id"`
	OrderID      uuid.UUID         `json:"order_id"`
	RequestedBy  uuid.UUID         `json:"requested_by"`
	Input        entity.TryOnInput `json:"input"`
	Status       string            `json:"status"`
	OutputURL    *string           `json:"output_url,omitempty"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

func NewPebbleTryOnJobStore(dir string) (*PebbleTryOnJobStore, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleTryOnJobStore{db: db}, nil
}

func (p *PebbleTryOnJobStore) Close() error { return p.db.Close() }

func jobKey(id uuid.UUID) []byte {
	return []byte("tryon_job/" + id.String())
}

func toPebbleRecord(job *entity.TryOnJob) pebbleJobRecord {
	return pebbleJobRecord{
		ID:           job.ID,
		OrderID:      job.OrderID,
		RequestedBy:  job.RequestedBy,
		Input:        job.Input,
		Status:       string(job.Status),
		OutputURL:    job.OutputURL,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
		CompletedAt:  job.CompletedAt,
	}
}

func (r pebbleJobRecord) toEntity() *entity.TryOnJob {
	return &entity.TryOnJob{
		ID:           r.ID,
		OrderID:      r.OrderID,
		RequestedBy:  r.RequestedBy,
		Input:        r.Input,
		Status:       valueobject.JobStatus(r.Status),
		OutputURL:    r.OutputURL,
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		CompletedAt:  r.CompletedAt,
	}
}

func (p *PebbleTryOnJobStore) put(job *entity.TryOnJob) error {
	b, err := json.Marshal(toPebbleRecord(job))
	if err != nil {
		return err
	}
	return p.db.Set(jobKey(job.ID), b, pebble.Sync)
}

func (p *PebbleTryOnJobStore) get(id uuid.UUID) (*entity.TryOnJob, error) {
	v, closer, err := p.db.Get(jobKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, apperror.ErrTryOnJobNotFound
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось прочитать задачу примерки")
	}
	defer closer.Close()

	var rec pebbleJobRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждена запись задачи примерки")
	}
	return rec.toEntity(), nil
}

func (p *PebbleTryOnJobStore) Create(_ context.Context, job *entity.TryOnJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.put(job); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать задачу примерки")
	}
	return nil
}

func (p *PebbleTryOnJobStore) FindByID(_ context.Context, id uuid.UUID) (*entity.TryOnJob, error) {
	return p.get(id)
}

func (p *PebbleTryOnJobStore) Complete(_ context.Context, id uuid.UUID, result entity.JobResult) (*entity.TryOnJob, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	job, err := p.get(id)
	if err != nil {
		return nil, err
	}
	if err := job.Complete(result); err != nil {
		return nil, err
	}
	if err := p.put(job); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось завершить задачу примерки")
	}
	return job, nil
}
