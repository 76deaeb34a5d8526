package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/metrics"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/storage"
	"github.com/ignatzorin/atelier-backend/internal/usecase/tryon"
)

// ResultSink записывает терминальный результат задачи.
type ResultSink interface {
	Complete(ctx context.Context, jobID uuid.UUID, result entity.JobResult) (*entity.TryOnJob, error)
}

// Uploader кладёт результат в объектное хранилище.
type Uploader interface {
	Upload(ctx context.Context, data []byte, opts storage.UploadOptions) (string, error)
}

// Processor выполняет одну генерацию и завершает задачу ровно один раз.
type Processor struct {
	generator Generator
	fetcher   Fetcher
	uploader  Uploader
	sink      ResultSink
	metrics   *metrics.Registry
}

func NewProcessor(generator Generator, fetcher Fetcher, uploader Uploader, sink ResultSink, m *metrics.Registry) *Processor {
	return &Processor{generator: generator, fetcher: fetcher, uploader: uploader, sink: sink, metrics: m}
}

// Process генерирует примерку. Ошибки генерации записываются в задачу как failed,
// наружу возвращается только сбой записи результата.
func (p *Processor) Process(ctx context.Context, req tryon.GenerationRequest) error {
	started := time.Now()
	defer p.metrics.ObserveWorker(started)

	log := logger.Log.WithFields(logrus.Fields{
		"job_id":   req.JobID,
		"order_id": req.OrderID,
	})

	url, err := p.generate(ctx, req)
	result := entity.Succeeded(url)
	if err != nil {
		log.WithError(err).Warn("генерация примерки не удалась")
		result = entity.Failed(apperror.UserMessage(err))
	}

	if _, err := p.sink.Complete(ctx, req.JobID, result); err != nil {
		if apperror.IsNotFound(err) || errors.Is(err, apperror.ErrJobAlreadyTerminal) {
			log.WithError(err).Warn("результат примерки не записан")
			return nil
		}
		return fmt.Errorf("ai: complete job %s: %w", req.JobID, err)
	}

	log.WithFields(logrus.Fields{
		"status":   result.Status,
		"duration": time.Since(started).String(),
	}).Info("генерация примерки завершена")
	return nil
}

func (p *Processor) generate(ctx context.Context, req tryon.GenerationRequest) (string, error) {
	customer, err := p.fetcher.Fetch(ctx, req.CustomerPhotoURL)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeGenerationFailed, "не удалось загрузить фото клиента")
	}
	style, err := p.fetcher.Fetch(ctx, req.StylePhotoURL)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeGenerationFailed, "не удалось загрузить фото фасона")
	}

	img, err := p.generator.Generate(ctx, BuildPrompt(req.Measurements), customer, style)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeGenerationFailed, "модель не смогла построить примерку")
	}

	url, err := p.uploader.Upload(ctx, img.Data, storage.UploadOptions{
		Bucket:      storage.BucketTryOnResults,
		Path:        fmt.Sprintf("%s/%s.%s", req.OrderID, req.JobID, extension(img.MIME)),
		ContentType: img.MIME,
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

func extension(mime string) string {
	switch mime {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
