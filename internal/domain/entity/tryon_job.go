package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// TryOnInput: входные данные генерации.
type TryOnInput struct {
	CustomerPhotoURL string                      `json:"customer_photo_url"`
	StylePhotoURL    string                      `json:"style_photo_url"`
	Measurements     *valueobject.MeasurementSet `json:"measurements,omitempty"`
}

// TryOnJob: одна попытка генерации примерки.
// OutputURL задан тогда и только тогда, когда статус done. После done/failed задача не меняется.
type TryOnJob struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	RequestedBy  uuid.UUID
	Input        TryOnInput
	Status       valueobject.JobStatus
	OutputURL    *string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// NewTryOnJob создаёт задачу в статусе processing.
func NewTryOnJob(orderID, requestedBy uuid.UUID, input TryOnInput) (*TryOnJob, error) {
	if strings.TrimSpace(input.CustomerPhotoURL) == "" || strings.TrimSpace(input.StylePhotoURL) == "" {
		return nil, apperror.Validation("для примерки нужны фото клиента и фото фасона")
	}
	now := time.Now()
	return &TryOnJob{
		ID:          uuid.New(),
		OrderID:     orderID,
		RequestedBy: requestedBy,
		Input:       input,
		Status:      valueobject.JobStatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// JobResult: терминальный результат, который пишет воркер.
type JobResult struct {
	Status       valueobject.JobStatus `json:"status"`
	OutputURL    string                `json:"output_url,omitempty"`
	ErrorMessage string                `json:"error,omitempty"`
}

// Succeeded строит результат done.
func Succeeded(outputURL string) JobResult {
	return JobResult{Status: valueobject.JobStatusDone, OutputURL: outputURL}
}

// Failed строит результат failed.
func Failed(message string) JobResult {
	if message == "" {
		message = "генерация не удалась"
	}
	return JobResult{Status: valueobject.JobStatusFailed, ErrorMessage: message}
}

// Validate проверяет инвариант результата.
func (r JobResult) Validate() error {
	switch r.Status {
	case valueobject.JobStatusDone:
		if r.OutputURL == "" {
			return apperror.Validation("для статуса done нужен output_url")
		}
	case valueobject.JobStatusFailed:
		if r.ErrorMessage == "" {
			return apperror.Validation("для статуса failed нужно сообщение об ошибке")
		}
	default:
		return apperror.Validation("результат задачи должен быть done или failed")
	}
	return nil
}

// Complete применяет терминальный результат. Повторное завершение запрещено.
func (j *TryOnJob) Complete(result JobResult) error {
	if err := result.Validate(); err != nil {
		return err
	}
	if j.Status.IsTerminal() {
		return apperror.ErrJobAlreadyTerminal
	}

	now := time.Now()
	j.Status = result.Status
	if result.Status == valueobject.JobStatusDone {
		url := result.OutputURL
		j.OutputURL = &url
		j.ErrorMessage = nil
	} else {
		msg := result.ErrorMessage
		j.ErrorMessage = &msg
		j.OutputURL = nil
	}
	j.UpdatedAt = now
	j.CompletedAt = &now
	return nil
}
