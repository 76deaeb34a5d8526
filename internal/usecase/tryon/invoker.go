package tryon

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
)

// GenerationRequest: задание для воркера генерации. Передаётся по Kafka и HTTP, поэтому с json-тегами.
type GenerationRequest struct {
	JobID            uuid.UUID                   `json:"job_id"`
	OrderID          uuid.UUID                   `json:"order_id"`
	CustomerPhotoURL string                      `json:"customer_photo_url"`
	StylePhotoURL    string                      `json:"style_photo_url"`
	Measurements     *valueobject.MeasurementSet `json:"measurements,omitempty"`
}

// WorkerInvoker запускает воркер генерации. Ошибка означает, что задание не было принято.
type WorkerInvoker interface {
	Invoke(ctx context.Context, req GenerationRequest) error
}

// Sleeper: пауза между опросами. В тестах подменяется, чтобы не ждать реальное время.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper спит на реальном таймере и прерывается отменой контекста.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
