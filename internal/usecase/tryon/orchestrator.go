package tryon

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/goroutine"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/metrics"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 30

	// TimeoutMessage: результат ожидания, когда попытки опроса исчерпаны.
	TimeoutMessage = "Timeout waiting for generation"
)

// SubmitRequest: запрос на генерацию примерки для заказа.
type SubmitRequest struct {
	OrderID          uuid.UUID
	CustomerPhotoURL string
	StylePhotoURL    string
	Measurements     *valueobject.MeasurementSet
}

// PollResult: текущее состояние задачи.
type PollResult struct {
	JobID     uuid.UUID             `json:"job_id"`
	Status    valueobject.JobStatus `json:"status"`
	OutputURL string                `json:"output_url,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// Options задаёт параметры опроса по умолчанию.
type Options struct {
	PollInterval time.Duration
	MaxAttempts  int
	Sleeper      Sleeper
	// PhotoURLs ограничивает адреса входных фото. По умолчанию PublicHostPolicy.
	PhotoURLs PhotoURLPolicy
}

// Orchestrator создаёт задачи примерки, запускает воркер и ждёт результат.
// Сам оркестратор задачу не меняет, кроме пометки failed при неудачном запуске воркера.
type Orchestrator struct {
	orders   repository.OrderRepository
	jobs     repository.TryOnJobRepository
	invoker  WorkerInvoker
	sleeper  Sleeper
	interval time.Duration
	attempts int
	metrics  *metrics.Registry
	recovery *goroutine.RecoveryHandler

	photoURLs PhotoURLPolicy
}

func NewOrchestrator(
	orders repository.OrderRepository,
	jobs repository.TryOnJobRepository,
	invoker WorkerInvoker,
	m *metrics.Registry,
	opts Options,
) *Orchestrator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Sleeper == nil {
		opts.Sleeper = TimerSleeper{}
	}
	if opts.PhotoURLs == nil {
		opts.PhotoURLs = PublicHostPolicy{}
	}
	return &Orchestrator{
		orders:   orders,
		jobs:     jobs,
		invoker:  invoker,
		sleeper:  opts.Sleeper,
		interval: opts.PollInterval,
		attempts: opts.MaxAttempts,
		metrics:  m,
		recovery: goroutine.DefaultRecoveryHandler,

		photoURLs: opts.PhotoURLs,
	}
}

// Submit проверяет права, создаёт задачу в статусе processing и запускает воркер.
// Если воркер не принял задание, задача сразу помечается failed.
func (o *Orchestrator) Submit(ctx context.Context, callerID uuid.UUID, req SubmitRequest) (uuid.UUID, error) {
	if callerID == uuid.Nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}
	req.CustomerPhotoURL = strings.TrimSpace(req.CustomerPhotoURL)
	req.StylePhotoURL = strings.TrimSpace(req.StylePhotoURL)

	order, err := o.authorize(ctx, callerID, req.OrderID)
	if err != nil {
		return uuid.Nil, err
	}
	for _, raw := range []string{req.CustomerPhotoURL, req.StylePhotoURL} {
		if err := o.checkPhotoURL(raw, order.CustomerID); err != nil {
			return uuid.Nil, err
		}
	}

	job, err := entity.NewTryOnJob(order.ID, callerID, entity.TryOnInput{
		CustomerPhotoURL: req.CustomerPhotoURL,
		StylePhotoURL:    req.StylePhotoURL,
		Measurements:     req.Measurements,
	})
	if err != nil {
		return uuid.Nil, err
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return uuid.Nil, apperror.Transient(err, "не удалось создать задачу примерки")
	}
	o.metrics.ObserveSubmitted()

	log := logger.Log.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"order_id": order.ID,
	})

	err = o.invoker.Invoke(ctx, GenerationRequest{
		JobID:            job.ID,
		OrderID:          order.ID,
		CustomerPhotoURL: req.CustomerPhotoURL,
		StylePhotoURL:    req.StylePhotoURL,
		Measurements:     req.Measurements,
	})
	if err != nil {
		log.WithError(err).Warn("воркер примерки не принял задание")
		if _, cerr := o.jobs.Complete(ctx, job.ID, entity.Failed("не удалось запустить генерацию")); cerr != nil {
			log.WithError(cerr).Error("не удалось пометить задачу примерки как failed")
		}
		return uuid.Nil, apperror.Transient(err, "не удалось запустить генерацию примерки")
	}

	log.Info("задача примерки запущена")
	return job.ID, nil
}

// Poll читает состояние задачи и ничего не меняет.
func (o *Orchestrator) Poll(ctx context.Context, jobID uuid.UUID) (PollResult, error) {
	job, err := o.jobs.FindByID(ctx, jobID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return PollResult{}, err
		}
		return PollResult{}, apperror.Transient(err, "не удалось получить статус примерки")
	}
	return toPollResult(job), nil
}

// Job возвращает задачу, если вызывающий имеет доступ к её заказу.
func (o *Orchestrator) Job(ctx context.Context, callerID, jobID uuid.UUID) (*entity.TryOnJob, error) {
	if callerID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	job, err := o.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.RequestedBy == callerID {
		return job, nil
	}
	if _, err := o.authorize(ctx, callerID, job.OrderID); err != nil {
		return nil, err
	}
	return job, nil
}

// Complete записывает результат воркера. Повторная запись отклоняется с ErrJobAlreadyTerminal.
func (o *Orchestrator) Complete(ctx context.Context, jobID uuid.UUID, result entity.JobResult) (*entity.TryOnJob, error) {
	if err := result.Validate(); err != nil {
		return nil, err
	}
	job, err := o.jobs.Complete(ctx, jobID, result)
	if err != nil {
		return nil, err
	}
	logger.Log.WithFields(logrus.Fields{
		"job_id": job.ID,
		"status": job.Status,
	}).Info("задача примерки завершена")
	return job, nil
}

func (o *Orchestrator) authorize(ctx context.Context, callerID, orderID uuid.UUID) (*entity.Order, error) {
	order, err := o.orders.FindByID(ctx, orderID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.Transient(err, "не удалось загрузить заказ")
	}
	if !order.CanRequestTryOn(callerID) {
		return nil, apperror.ErrForbidden
	}
	return order, nil
}

func toPollResult(job *entity.TryOnJob) PollResult {
	res := PollResult{JobID: job.ID, Status: job.Status}
	if job.OutputURL != nil {
		res.OutputURL = *job.OutputURL
	}
	if job.ErrorMessage != nil {
		res.Error = *job.ErrorMessage
	}
	return res
}
