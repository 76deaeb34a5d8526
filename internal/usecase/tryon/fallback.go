package tryon

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// FallbackResult: картинка для превью. При IsFallback = true URL равен переданному запасному фото.
type FallbackResult struct {
	URL        string `json:"url"`
	IsFallback bool   `json:"is_fallback"`
	Error      string `json:"error,omitempty"`
	JobID      string `json:"job_id,omitempty"`
}

// GenerateWithFallback запускает генерацию и ждёт её. Любая неудача, включая панику,
// превращается в запасной результат, ошибка наружу не возвращается.
func (o *Orchestrator) GenerateWithFallback(ctx context.Context, callerID uuid.UUID, req SubmitRequest, fallbackURL string, onProgress ProgressFunc) (result FallbackResult) {
	fallback := func(reason string) FallbackResult {
		o.metrics.ObserveFallback()
		logger.Log.WithFields(logrus.Fields{
			"order_id": req.OrderID,
			"reason":   reason,
		}).Warn("примерка заменена фото фасона")
		return FallbackResult{URL: fallbackURL, IsFallback: true, Error: reason, JobID: result.JobID}
	}

	panicked := o.recovery.Run(func() {
		jobID, err := o.Submit(ctx, callerID, req)
		if err != nil {
			o.metrics.ObserveOutcome("submit_failed", 0)
			result = fallback(apperror.UserMessage(err))
			return
		}
		result.JobID = jobID.String()

		wait := o.WaitForCompletion(ctx, jobID, WaitOptions{OnProgress: onProgress})
		if !wait.Success {
			outcome := "failed"
			if wait.Error == TimeoutMessage {
				outcome = "timeout"
			}
			o.metrics.ObserveOutcome(outcome, wait.Attempts)
			result = fallback(wait.Error)
			return
		}

		o.metrics.ObserveOutcome("done", wait.Attempts)
		result = FallbackResult{URL: wait.OutputURL, JobID: jobID.String()}
	})
	if panicked {
		result = fallback("внутренняя ошибка генерации")
	}
	return result
}
