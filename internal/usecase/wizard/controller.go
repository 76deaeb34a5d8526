package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/imageprep"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase/draft"
	"github.com/ignatzorin/atelier-backend/internal/usecase/tryon"
	"github.com/ignatzorin/atelier-backend/internal/usecase/upload"
	"github.com/ignatzorin/atelier-backend/internal/validation"
)

const (
	autosaveTimeout = 30 * time.Second

	defaultSessionTTL = 72 * time.Hour
	// defaultPreviewStaleAfter: худшее ожидание опроса (30 x 2s) с запасом.
	defaultPreviewStaleAfter = tryon.DefaultMaxAttempts*tryon.DefaultPollInterval + time.Minute
	maxSweepInterval         = time.Minute
)

var errNotAtConfirm = apperror.Precondition("подтвердить заказ можно только на последнем шаге")

// PreviewGenerator строит превью примерки с запасным фото.
type PreviewGenerator interface {
	GenerateWithFallback(ctx context.Context, callerID uuid.UUID, req tryon.SubmitRequest, fallbackURL string, onProgress tryon.ProgressFunc) tryon.FallbackResult
}

// PhotoUploader готовит и хранит фото.
type PhotoUploader interface {
	Upload(ctx context.Context, ownerID uuid.UUID, scope imageprep.Scope, kind upload.Kind, data []byte) (*upload.Result, error)
	Remove(ctx context.Context, ownerID uuid.UUID, path string) error
}

// Notifier сообщает клиенту о ходе генерации превью.
type Notifier interface {
	PreviewProgress(userID, sessionID uuid.UUID, attempt int, status valueobject.JobStatus)
	PreviewFinished(userID, sessionID uuid.UUID, preview Preview)
}

type nopNotifier struct{}

func (nopNotifier) PreviewProgress(uuid.UUID, uuid.UUID, int, valueobject.JobStatus) {}
func (nopNotifier) PreviewFinished(uuid.UUID, uuid.UUID, Preview)                   {}

// Deps: зависимости контроллера.
type Deps struct {
	Sessions SessionStore
	Drafts   *draft.Store
	Photos   PhotoUploader
	Preview  PreviewGenerator
	Notifier Notifier

	// SessionTTL: после такого простоя сессия считается истёкшей и её автосохранение освобождается.
	SessionTTL time.Duration
	// PreviewStaleAfter: running превью старше этого считается брошенным, генерацию можно запустить снова.
	PreviewStaleAfter time.Duration
}

// Controller ведёт сессии мастера. Изменения состояния одной сессии сериализуются,
// автосохранение черновика идёт через debouncer с одним запуском в полёте.
type Controller struct {
	sessions SessionStore
	drafts   *draft.Store
	photos   PhotoUploader
	preview  PreviewGenerator
	notifier Notifier
	debounce time.Duration

	idleTTL      time.Duration
	previewStale time.Duration

	mu        sync.Mutex
	live      map[uuid.UUID]*liveSession
	lastSweep time.Time
}

type liveSession struct {
	mu       sync.Mutex
	draft    *draft.Session
	autosave *draft.Debouncer

	// touched меняется под Controller.mu.
	touched time.Time
}

func NewController(deps Deps, autosaveDebounce time.Duration) *Controller {
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = defaultSessionTTL
	}
	if deps.PreviewStaleAfter <= 0 {
		deps.PreviewStaleAfter = defaultPreviewStaleAfter
	}
	return &Controller{
		sessions:     deps.Sessions,
		drafts:       deps.Drafts,
		photos:       deps.Photos,
		preview:      deps.Preview,
		notifier:     deps.Notifier,
		debounce:     autosaveDebounce,
		idleTTL:      deps.SessionTTL,
		previewStale: deps.PreviewStaleAfter,
		live:         make(map[uuid.UUID]*liveSession),
	}
}

// Start открывает новую сессию мастера для клиента. tailorID: портной, которому уйдёт заказ.
func (c *Controller) Start(ctx context.Context, ownerID uuid.UUID, tailorID *uuid.UUID) (*State, error) {
	if ownerID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	st := newState(ownerID, tailorID)
	if err := c.sessions.Save(ctx, st); err != nil {
		return nil, apperror.Transient(err, "не удалось начать оформление заказа")
	}
	logger.Log.WithFields(logrus.Fields{
		"session_id": st.ID,
		"owner_id":   ownerID,
	}).Info("начато оформление заказа")
	return st, nil
}

// Get возвращает состояние сессии владельцу.
func (c *Controller) Get(ctx context.Context, callerID, sessionID uuid.UUID) (*State, error) {
	return c.load(ctx, callerID, sessionID)
}

// Abandon останавливает автосохранение и удаляет сессию. Результаты запросов в полёте отбрасываются.
func (c *Controller) Abandon(ctx context.Context, callerID, sessionID uuid.UUID) error {
	if _, err := c.load(ctx, callerID, sessionID); err != nil {
		return err
	}
	c.drop(sessionID)
	if err := c.sessions.Delete(ctx, sessionID); err != nil {
		return apperror.Transient(err, "не удалось закрыть сессию")
	}
	return nil
}

// Confirm сохраняет последние изменения и отправляет заказ портному.
// Доступен только на шаге confirm, контакт проверяется повторно.
// При ошибке состояние сессии остаётся, подтверждение можно повторить.
func (c *Controller) Confirm(ctx context.Context, callerID, sessionID uuid.UUID) (*entity.Order, error) {
	st, err := c.load(ctx, callerID, sessionID)
	if err != nil {
		return nil, err
	}
	if st.Step != StepConfirm {
		return nil, errNotAtConfirm
	}
	if err := validation.ValidateContact(st.CustomerName, st.CustomerPhone, st.CustomerEmail); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	live := c.liveFor(st)

	if err := live.autosave.Flush(); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("автосохранение перед подтверждением не удалось")
		if live.autosave.Pending() {
			return nil, apperror.Transient(err, "не удалось сохранить последние изменения, попробуйте ещё раз")
		}
	}

	order, err := live.draft.Finalize(ctx)
	if err != nil {
		return nil, err
	}

	c.drop(sessionID)
	if err := c.sessions.Delete(ctx, sessionID); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("не удалось удалить сессию после подтверждения")
	}
	return order, nil
}

func (c *Controller) load(ctx context.Context, callerID, sessionID uuid.UUID) (*State, error) {
	if callerID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	st, err := c.sessions.Load(ctx, sessionID)
	if err != nil {
		if apperror.IsNotFound(err) {
			c.drop(sessionID)
			return nil, err
		}
		return nil, apperror.Transient(err, "не удалось загрузить сессию")
	}
	if st.OwnerID != callerID {
		return nil, apperror.ErrForbidden
	}
	return st, nil
}

// mutate применяет fn к свежему состоянию под замком сессии и сохраняет результат.
func (c *Controller) mutate(ctx context.Context, callerID, sessionID uuid.UUID, autosave bool, fn func(st *State) error) (*State, error) {
	st, err := c.load(ctx, callerID, sessionID)
	if err != nil {
		return nil, err
	}
	live := c.liveFor(st)

	live.mu.Lock()
	defer live.mu.Unlock()

	if st, err = c.load(ctx, callerID, sessionID); err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	st.UpdatedAt = time.Now()
	if err := c.sessions.Save(ctx, st); err != nil {
		return nil, apperror.Transient(err, "не удалось сохранить изменения")
	}
	if autosave {
		live.autosave.Trigger()
	}
	return st, nil
}

func (c *Controller) liveFor(st *State) *liveSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.sweepLocked(now)

	if live, ok := c.live[st.ID]; ok {
		live.touched = now
		return live
	}
	sessionID := st.ID
	live := &liveSession{draft: draft.NewSession(c.drafts, st.OwnerID, st.OrderID), touched: now}
	live.autosave = draft.NewDebouncer(c.debounce, func() error {
		return c.autosave(sessionID, live)
	}, func(err error) {
		logger.Log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("автосохранение не удалось, повторим при следующем изменении")
	})
	c.live[st.ID] = live
	return live
}

// sweepLocked освобождает сессии, к которым не обращались дольше TTL: в хранилище их уже нет.
func (c *Controller) sweepLocked(now time.Time) {
	interval := c.idleTTL
	if interval > maxSweepInterval {
		interval = maxSweepInterval
	}
	if now.Sub(c.lastSweep) < interval {
		return
	}
	c.lastSweep = now

	for id, live := range c.live {
		if now.Sub(live.touched) > c.idleTTL {
			delete(c.live, id)
			live.autosave.Stop()
			logger.Log.WithField("session_id", id).Debug("сессия мастера истекла, автосохранение остановлено")
		}
	}
}

func (c *Controller) drop(sessionID uuid.UUID) {
	c.mu.Lock()
	live, ok := c.live[sessionID]
	delete(c.live, sessionID)
	c.mu.Unlock()
	if ok {
		live.autosave.Stop()
	}
}

// autosave берёт снимок состояния в момент запуска, поэтому сохранения применяются в порядке изменений.
func (c *Controller) autosave(sessionID uuid.UUID, live *liveSession) error {
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()

	live.mu.Lock()
	st, err := c.sessions.Load(ctx, sessionID)
	live.mu.Unlock()
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}

	if _, ok := live.draft.OrderID(); !ok && !st.hasContact() {
		return nil
	}

	orderID, err := live.draft.Save(ctx, st.draftFields())
	if err != nil {
		return err
	}
	if st.OrderID != nil {
		return nil
	}

	live.mu.Lock()
	defer live.mu.Unlock()
	st, err = c.sessions.Load(ctx, sessionID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	st.OrderID = &orderID
	return c.sessions.Save(ctx, st)
}

// flush дожидается автосохранения и возвращает id заказа, если он уже создан.
func (c *Controller) flush(st *State) (uuid.UUID, bool) {
	live := c.liveFor(st)
	if err := live.autosave.Flush(); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"session_id": st.ID,
			"error":      err.Error(),
		}).Warn("автосохранение не удалось")
	}
	return live.draft.OrderID()
}
