// Package worker: способы запуска воркера генерации примерки.
package worker

import (
	"context"
	"time"

	"github.com/ignatzorin/atelier-backend/internal/goroutine"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/usecase/tryon"
)

// Processor выполняет одну генерацию.
type Processor interface {
	Process(ctx context.Context, req tryon.GenerationRequest) error
}

// LocalInvoker выполняет генерацию в горутине этого же процесса.
type LocalInvoker struct {
	processor Processor
	timeout   time.Duration
}

func NewLocalInvoker(processor Processor, timeout time.Duration) *LocalInvoker {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &LocalInvoker{processor: processor, timeout: timeout}
}

// Invoke не ждёт генерацию: контекст запроса к ней не привязан.
func (l *LocalInvoker) Invoke(_ context.Context, req tryon.GenerationRequest) error {
	goroutine.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		if err := l.processor.Process(ctx, req); err != nil {
			logger.Log.WithField("job_id", req.JobID).WithError(err).Error("локальный воркер примерки завершился ошибкой")
		}
	})
	return nil
}
