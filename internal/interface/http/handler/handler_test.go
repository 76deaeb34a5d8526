package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/http/middleware"
	"github.com/ignatzorin/atelier-backend/internal/imageprep"
	"github.com/ignatzorin/atelier-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/atelier-backend/internal/infrastructure/session"
	"github.com/ignatzorin/atelier-backend/internal/interface/http/response"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/storage"
	"github.com/ignatzorin/atelier-backend/internal/usecase/draft"
	"github.com/ignatzorin/atelier-backend/internal/usecase/order"
	"github.com/ignatzorin/atelier-backend/internal/usecase/tryon"
	"github.com/ignatzorin/atelier-backend/internal/usecase/upload"
	"github.com/ignatzorin/atelier-backend/internal/usecase/wizard"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]entity.Order
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[uuid.UUID]entity.Order)}
}

func (m *memOrders) Create(ctx context.Context, o *entity.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = *o
	return nil
}

func (m *memOrders) Update(ctx context.Context, o *entity.Order) error {
	return m.Create(ctx, o)
}

func (m *memOrders) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	return &o, nil
}

func (m *memOrders) seed(t *testing.T, status valueobject.OrderStatus) (entity.Order, uuid.UUID) {
	t.Helper()
	o, err := entity.NewDraftOrder(uuid.New(), "Анна", "+7 900 123 45 67")
	require.NoError(t, err)
	tailor := uuid.New()
	o.TailorID = &tailor
	o.Status = status
	o.CustomerPhotoURL = "https://cdn/order-photos/" + o.CustomerID.String() + "/customer-1.webp"
	o.StylePhotoURL = "https://cdn/order-photos/" + o.CustomerID.String() + "/style-1.webp"
	require.NoError(t, m.Create(context.Background(), o))
	return *o, tailor
}

type stubInvoker struct {
	mu   sync.Mutex
	reqs []tryon.GenerationRequest
	err  error
}

func (s *stubInvoker) Invoke(ctx context.Context, req tryon.GenerationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.err
}

// asUser подменяет AuthMiddleware: пользователь берётся из заголовка X-Test-User.
func asUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-Test-User"); raw != "" {
			c.Set(middleware.ContextUserIDKey, uuid.MustParse(raw))
		}
		c.Next()
	}
}

func do(t *testing.T, r http.Handler, method, path string, user uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("X-Test-User", user.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func jpegOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

func newUploads() *upload.Service {
	return upload.NewService(
		imageprep.NewPreparer(imageprep.DefaultLimits(), imageprep.DefaultCompressOptions()),
		storage.NewGateway(storage.NewMemoryStore("http://media.test"), nil),
		nil,
	)
}

func TestOrderHandler(t *testing.T) {
	orders := newMemOrders()
	h := NewOrderHandler(
		order.NewGetOrderUseCase(orders),
		order.NewChangeStatusUseCase(orders),
		order.NewUpdateTailorNotesUseCase(orders),
	)
	r := gin.New()
	r.Use(asUser())
	r.GET("/orders/:id", h.GetOrder)
	r.POST("/orders/:id/status", h.ChangeStatus)
	r.PUT("/orders/:id/tailor-notes", h.UpdateTailorNotes)

	o, tailor := orders.seed(t, valueobject.OrderStatusPending)
	path := "/orders/" + o.ID.String()

	t.Run("owner reads order", func(t *testing.T) {
		w := do(t, r, http.MethodGet, path, o.CustomerID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		assert.True(t, env.Success)
		assert.Contains(t, string(env.Data), `"status":"pending"`)
	})

	t.Run("stranger gets 404", func(t *testing.T) {
		w := do(t, r, http.MethodGet, path, uuid.New(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("no identity gets 401", func(t *testing.T) {
		w := do(t, r, http.MethodGet, path, uuid.Nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad id gets 400", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/orders/not-a-uuid", o.CustomerID, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("tailor starts work", func(t *testing.T) {
		w := do(t, r, http.MethodPost, path+"/status", tailor, map[string]string{"status": "in_progress"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"status":"in_progress"`)
	})

	t.Run("unknown status is validation error", func(t *testing.T) {
		w := do(t, r, http.MethodPost, path+"/status", tailor, map[string]string{"status": "shipped"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, string(apperror.ErrCodeValidation), decode(t, w).Error.Code)
	})

	t.Run("customer cannot write tailor notes", func(t *testing.T) {
		w := do(t, r, http.MethodPut, path+"/tailor-notes", o.CustomerID, map[string]string{"notes": "x"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestTryOnHandler_SubmitPollAndCallback(t *testing.T) {
	orders := newMemOrders()
	jobs, err := persistence.NewPebbleTryOnJobStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = jobs.Close() })

	invoker := &stubInvoker{}
	h := NewTryOnHandler(tryon.NewOrchestrator(orders, jobs, invoker, nil, tryon.Options{}))

	r := gin.New()
	r.Use(asUser())
	r.POST("/tryon/jobs", h.Submit)
	r.GET("/tryon/jobs/:id", h.GetJob)
	r.POST("/internal/tryon/jobs/:id/result", h.CompleteJob)

	o, _ := orders.seed(t, valueobject.OrderStatusDraft)
	submit := map[string]any{
		"order_id":           o.ID.String(),
		"customer_photo_url": o.CustomerPhotoURL,
		"style_photo_url":    o.StylePhotoURL,
		"measurements":       map[string]any{"waist": 32},
	}

	w := do(t, r, http.MethodPost, "/tryon/jobs", o.CustomerID, submit)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var submitted struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &submitted))
	require.Len(t, invoker.reqs, 1)
	require.NotNil(t, invoker.reqs[0].Measurements)
	assert.Equal(t, 32.0, *invoker.reqs[0].Measurements.Waist)

	w = do(t, r, http.MethodGet, "/tryon/jobs/"+submitted.JobID, o.CustomerID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"processing"`)

	result := map[string]string{"status": "done", "output_url": "https://cdn/tryon-results/out.png"}
	w = do(t, r, http.MethodPost, "/internal/tryon/jobs/"+submitted.JobID+"/result", uuid.Nil, result)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/internal/tryon/jobs/"+submitted.JobID+"/result", uuid.Nil, map[string]string{"status": "failed", "error": "late"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodGet, "/tryon/jobs/"+submitted.JobID, o.CustomerID, nil)
	assert.Contains(t, w.Body.String(), `"output_url":"https://cdn/tryon-results/out.png"`)
}

func TestTryOnHandler_RejectsUnknownMeasurement(t *testing.T) {
	orders := newMemOrders()
	jobs, err := persistence.NewPebbleTryOnJobStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = jobs.Close() })
	h := NewTryOnHandler(tryon.NewOrchestrator(orders, jobs, &stubInvoker{}, nil, tryon.Options{}))

	r := gin.New()
	r.Use(asUser())
	r.POST("/tryon/jobs", h.Submit)

	o, _ := orders.seed(t, valueobject.OrderStatusDraft)
	w := do(t, r, http.MethodPost, "/tryon/jobs", o.CustomerID, map[string]any{
		"order_id":           o.ID.String(),
		"customer_photo_url": o.CustomerPhotoURL,
		"style_photo_url":    o.StylePhotoURL,
		"measurements":       map[string]any{"belly": 40},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTryOnHandler_InvokerFailureIsUnavailable(t *testing.T) {
	orders := newMemOrders()
	jobs, err := persistence.NewPebbleTryOnJobStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = jobs.Close() })
	h := NewTryOnHandler(tryon.NewOrchestrator(orders, jobs, &stubInvoker{err: errors.New("broker down")}, nil, tryon.Options{}))

	r := gin.New()
	r.Use(asUser())
	r.POST("/tryon/jobs", h.Submit)

	o, _ := orders.seed(t, valueobject.OrderStatusDraft)
	w := do(t, r, http.MethodPost, "/tryon/jobs", o.CustomerID, map[string]any{
		"order_id":           o.ID.String(),
		"customer_photo_url": o.CustomerPhotoURL,
		"style_photo_url":    o.StylePhotoURL,
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type wizardEnv struct {
	router http.Handler
	orders *memOrders
}

func newWizardEnv(t *testing.T) *wizardEnv {
	t.Helper()
	orders := newMemOrders()
	uploads := newUploads()
	ctrl := wizard.NewController(wizard.Deps{
		Sessions: session.NewMemoryStore(time.Hour),
		Drafts:   draft.NewStore(orders, nil),
		Photos:   uploads,
		Preview:  tryon.NewOrchestrator(orders, newMemJobs(), &stubInvoker{err: errors.New("offline")}, nil, tryon.Options{}),
	}, time.Hour)
	h := NewWizardHandler(ctrl, uploads)

	r := gin.New()
	r.Use(asUser())
	r.POST("/wizard/sessions", h.Start)
	s := r.Group("/wizard/sessions/:id")
	s.GET("", h.Get)
	s.DELETE("", h.Abandon)
	s.PUT("/contact", h.UpdateContact)
	s.PUT("/measurements", h.UpdateMeasurements)
	s.POST("/measurements/submit", h.SubmitMeasurements)
	s.POST("/photos/:kind", h.AttachPhoto)
	s.PUT("/style", h.UpdateStyle)
	s.POST("/next", h.Next)
	s.POST("/back", h.Back)
	s.POST("/confirm", h.Confirm)
	return &wizardEnv{router: r, orders: orders}
}

type memJobs struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]entity.TryOnJob
}

func newMemJobs() *memJobs { return &memJobs{jobs: make(map[uuid.UUID]entity.TryOnJob)} }

func (m *memJobs) Create(ctx context.Context, job *entity.TryOnJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memJobs) FindByID(ctx context.Context, id uuid.UUID) (*entity.TryOnJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, apperror.ErrTryOnJobNotFound
	}
	return &j, nil
}

func (m *memJobs) Complete(ctx context.Context, id uuid.UUID, result entity.JobResult) (*entity.TryOnJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, apperror.ErrTryOnJobNotFound
	}
	if err := j.Complete(result); err != nil {
		return nil, err
	}
	m.jobs[id] = j
	return &j, nil
}

func (e *wizardEnv) start(t *testing.T, user uuid.UUID) string {
	t.Helper()
	w := do(t, e.router, http.MethodPost, "/wizard/sessions", user, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var st struct {
		ID       string `json:"id"`
		StepName string `json:"step_name"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &st))
	assert.Equal(t, "contact", st.StepName)
	return "/wizard/sessions/" + st.ID
}

func TestWizardHandler_ContactGateAndConfirm(t *testing.T) {
	e := newWizardEnv(t)
	user := uuid.New()
	base := e.start(t, user)

	w := do(t, e.router, http.MethodPut, base+"/contact", user, map[string]string{"name": "Анна", "phone": "12345"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, e.router, http.MethodPost, base+"/next", user, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "короткий телефон не пускает дальше")

	w = do(t, e.router, http.MethodPut, base+"/contact", user, map[string]string{"name": "Анна", "phone": "+7 900 123 45 67"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, e.router, http.MethodPost, base+"/next", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"step_name":"measurements_photo"`)

	w = do(t, e.router, http.MethodGet, base, uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, e.router, http.MethodPost, base+"/confirm", user, nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code, "подтверждение доступно только на последнем шаге")

	for i := 0; i < 3; i++ {
		w = do(t, e.router, http.MethodPost, base+"/next", user, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Contains(t, w.Body.String(), `"step_name":"confirm"`)

	w = do(t, e.router, http.MethodPost, base+"/confirm", user, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
	assert.Len(t, e.orders.orders, 1)

	w = do(t, e.router, http.MethodGet, base, user, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "сессия удалена после confirm")
}

func TestWizardHandler_Measurements(t *testing.T) {
	e := newWizardEnv(t)
	user := uuid.New()
	base := e.start(t, user)

	w := do(t, e.router, http.MethodPut, base+"/measurements", user, `{"waist": 32, "belly": 40}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, e.router, http.MethodPut, base+"/measurements", user, `{"waist": 15}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	require.Len(t, env.Error.Fields, 1)
	assert.Equal(t, "waist", env.Error.Fields[0].Field)
	assert.Contains(t, env.Error.Fields[0].Message, "20–60")

	w = do(t, e.router, http.MethodPut, base+"/measurements", user, `{"waist": 32}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, e.router, http.MethodPost, base+"/measurements/submit", user, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "неполный набор не проходит отправку")
}

func TestWizardHandler_PhotoUpload(t *testing.T) {
	e := newWizardEnv(t)
	user := uuid.New()
	base := e.start(t, user)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "me.jpg")
	require.NoError(t, err)
	_, err = part.Write(jpegOf(t, 700, 900))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, base+"/photos/customer", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-User", user.String())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "http://media.test/order-photos/"+user.String()+"/customer-")

	w = do(t, e.router, http.MethodPost, base+"/photos/selfie", user, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandler_RejectsNonImage(t *testing.T) {
	h := NewUploadHandler(newUploads())
	r := gin.New()
	r.Use(asUser())
	r.POST("/uploads", h.Upload)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte(strings.Repeat("plain text ", 100)))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-User", uuid.NewString())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandler(t *testing.T) {
	ok := PingerFunc(func(ctx context.Context) error { return nil })
	down := PingerFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	r := gin.New()
	r.GET("/health", NewHealthHandler(map[string]Pinger{"database": ok}).Health)
	w := do(t, r, http.MethodGet, "/health", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	r = gin.New()
	r.GET("/health", NewHealthHandler(map[string]Pinger{"database": ok, "redis": down}).Health)
	w = do(t, r, http.MethodGet, "/health", uuid.Nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
