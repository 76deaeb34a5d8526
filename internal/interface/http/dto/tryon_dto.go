package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/usecase/tryon"
)

type SubmitTryOnRequest struct {
	OrderID          string          `json:"order_id" binding:"required"`
	CustomerPhotoURL string          `json:"customer_photo_url" binding:"required"`
	StylePhotoURL    string          `json:"style_photo_url" binding:"required"`
	Measurements     json.RawMessage `json:"measurements"`
}

// ToSubmitRequest разбирает id заказа и мерки. Неизвестные ключи мерок отклоняются.
func (r SubmitTryOnRequest) ToSubmitRequest() (tryon.SubmitRequest, error) {
	orderID, err := uuid.Parse(r.OrderID)
	if err != nil {
		return tryon.SubmitRequest{}, err
	}
	req := tryon.SubmitRequest{
		OrderID:          orderID,
		CustomerPhotoURL: r.CustomerPhotoURL,
		StylePhotoURL:    r.StylePhotoURL,
	}
	if len(r.Measurements) > 0 && string(r.Measurements) != "null" {
		m, err := valueobject.ParseMeasurements(r.Measurements)
		if err != nil {
			return tryon.SubmitRequest{}, err
		}
		req.Measurements = &m
	}
	return req, nil
}

type SubmitTryOnResponse struct {
	JobID string `json:"job_id"`
}

// JobResultRequest: результат, который присылает воркер генерации.
type JobResultRequest struct {
	Status    string `json:"status" binding:"required"`
	OutputURL string `json:"output_url"`
	Error     string `json:"error"`
}

func (r JobResultRequest) ToJobResult() entity.JobResult {
	return entity.JobResult{
		Status:       valueobject.JobStatus(r.Status),
		OutputURL:    r.OutputURL,
		ErrorMessage: r.Error,
	}
}

type JobResponse struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	Status      string     `json:"status"`
	OutputURL   *string    `json:"output_url,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func ToJobResponse(j *entity.TryOnJob) JobResponse {
	return JobResponse{
		ID:          j.ID.String(),
		OrderID:     j.OrderID.String(),
		Status:      string(j.Status),
		OutputURL:   j.OutputURL,
		Error:       j.ErrorMessage,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
	}
}
