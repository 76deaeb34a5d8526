package wizard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/goroutine"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase/tryon"
)

var (
	errPhotosRequired = apperror.Precondition("для примерки загрузите фото клиента и фото фасона")
	errNoOrderYet     = apperror.Precondition("заказ ещё не сохранён: заполните имя и телефон")
)

// StartPreview запускает генерацию превью в фоне и сразу возвращает состояние со статусом running.
// Ход генерации приходит через Notifier, итог записывается в сессию.
// Повторный запуск отклоняется, пока running превью моложе PreviewStaleAfter.
func (c *Controller) StartPreview(ctx context.Context, callerID, sessionID uuid.UUID) (*State, error) {
	st, err := c.mutate(ctx, callerID, sessionID, false, func(st *State) error {
		if !st.hasPhotos() {
			return errPhotosRequired
		}
		if st.Preview != nil && st.Preview.Status == PreviewRunning {
			// генерация, прерванная перезапуском процесса, не должна блокировать повтор
			if time.Since(st.Preview.UpdatedAt) < c.previewStale {
				return apperror.New(apperror.ErrCodeConflict, "примерка уже генерируется")
			}
			logger.Log.WithField("session_id", st.ID).Warn("превью зависло в running, запускаем заново")
		}
		st.Preview = &Preview{Status: PreviewRunning, UpdatedAt: time.Now()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	goroutine.SafeGo(func() {
		if _, err := c.GeneratePreview(context.Background(), callerID, sessionID); err != nil {
			fallback := Preview{
				Status:     PreviewReady,
				URL:        st.StylePhotoURL,
				IsFallback: true,
				Error:      apperror.UserMessage(err),
				UpdatedAt:  time.Now(),
			}
			c.storePreview(sessionID, fallback)
			c.notifier.PreviewFinished(callerID, sessionID, fallback)
		}
	})
	return st, nil
}

// GeneratePreview синхронно строит превью: дожидается автосохранения ради id заказа,
// запускает примерку и при любой неудаче подставляет фото фасона.
func (c *Controller) GeneratePreview(ctx context.Context, callerID, sessionID uuid.UUID) (*Preview, error) {
	st, err := c.load(ctx, callerID, sessionID)
	if err != nil {
		return nil, err
	}
	if !st.hasPhotos() {
		return nil, errPhotosRequired
	}

	orderID, ok := c.flush(st)
	if !ok {
		return nil, errNoOrderYet
	}

	req := tryon.SubmitRequest{
		OrderID:          orderID,
		CustomerPhotoURL: st.CustomerPhotoURL,
		StylePhotoURL:    st.StylePhotoURL,
	}
	if !st.Measurements.IsEmpty() {
		m := st.Measurements
		req.Measurements = &m
	}

	res := c.preview.GenerateWithFallback(ctx, callerID, req, st.StylePhotoURL, func(attempt int, status valueobject.JobStatus) {
		c.notifier.PreviewProgress(callerID, sessionID, attempt, status)
	})

	preview := Preview{
		Status:     PreviewReady,
		URL:        res.URL,
		IsFallback: res.IsFallback,
		Error:      res.Error,
		JobID:      res.JobID,
		UpdatedAt:  time.Now(),
	}
	c.storePreview(sessionID, preview)
	c.notifier.PreviewFinished(callerID, sessionID, preview)
	return &preview, nil
}

// storePreview записывает итог в сессию, если она ещё существует.
func (c *Controller) storePreview(sessionID uuid.UUID, preview Preview) {
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()

	c.mu.Lock()
	live, ok := c.live[sessionID]
	c.mu.Unlock()
	if ok {
		live.mu.Lock()
		defer live.mu.Unlock()
	}

	st, err := c.sessions.Load(ctx, sessionID)
	if err != nil {
		if !apperror.IsNotFound(err) {
			logger.Log.WithFields(logrus.Fields{
				"session_id": sessionID,
				"error":      err.Error(),
			}).Warn("не удалось сохранить превью примерки")
		}
		return
	}
	st.Preview = &preview
	st.UpdatedAt = time.Now()
	if err := c.sessions.Save(ctx, st); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("не удалось сохранить превью примерки")
	}
}
