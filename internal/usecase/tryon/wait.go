package tryon

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// ProgressFunc вызывается после каждого опроса.
type ProgressFunc func(attempt int, status valueobject.JobStatus)

// WaitOptions: параметры ожидания. Нулевые значения заменяются настройками оркестратора.
type WaitOptions struct {
	MaxAttempts int
	Interval    time.Duration
	OnProgress  ProgressFunc
}

// WaitResult: итог ожидания. Success = true только для статуса done.
type WaitResult struct {
	Success   bool
	OutputURL string
	Error     string
	Attempts  int
}

// WaitForCompletion опрашивает задачу до терминального статуса или исчерпания попыток.
// Опросы идут строго последовательно, после последней попытки пауза не делается.
func (o *Orchestrator) WaitForCompletion(ctx context.Context, jobID uuid.UUID, opts WaitOptions) WaitResult {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = o.attempts
	}
	if opts.Interval <= 0 {
		opts.Interval = o.interval
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		res, err := o.Poll(ctx, jobID)
		if err != nil {
			return WaitResult{Error: apperror.UserMessage(err), Attempts: attempt}
		}
		if opts.OnProgress != nil {
			opts.OnProgress(attempt, res.Status)
		}

		switch res.Status {
		case valueobject.JobStatusDone:
			return WaitResult{Success: true, OutputURL: res.OutputURL, Attempts: attempt}
		case valueobject.JobStatusFailed:
			msg := res.Error
			if msg == "" {
				msg = "генерация не удалась"
			}
			return WaitResult{Error: msg, Attempts: attempt}
		}

		if attempt == opts.MaxAttempts {
			break
		}
		if err := o.sleeper.Sleep(ctx, opts.Interval); err != nil {
			return WaitResult{Error: fmt.Sprintf("ожидание прервано: %v", err), Attempts: attempt}
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"job_id":   jobID,
		"attempts": opts.MaxAttempts,
	}).Warn("истекло время ожидания примерки")
	return WaitResult{Error: TimeoutMessage, Attempts: opts.MaxAttempts}
}
