package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/atelier-backend/internal/config"
	"github.com/ignatzorin/atelier-backend/internal/http/middleware"
	"github.com/ignatzorin/atelier-backend/internal/interface/http/handler"
	"github.com/ignatzorin/atelier-backend/internal/service"
)

// Handlers собирает все хэндлеры API.
type Handlers struct {
	Health *handler.HealthHandler
	Upload *handler.UploadHandler
	Wizard *handler.WizardHandler
	TryOn  *handler.TryOnHandler
	Order  *handler.OrderHandler
	WS     *handler.WSHandler

	// Metrics отдаёт /metrics, nil отключает маршрут.
	Metrics http.Handler
}

func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}
	if cfg.Storage.Driver == "local" {
		r.StaticFS("/media", http.Dir(cfg.Storage.LocalPath))
	}

	internal := r.Group("/internal")
	internal.Use(middleware.WorkerAuthMiddleware(cfg.TryOn.WorkerSecret))
	{
		internal.POST("/tryon/jobs/:id/result", middleware.UUIDValidator("id"), h.TryOn.CompleteJob)
	}

	api := r.Group("/api")
	api.GET("/ws", h.WS.Handle)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokenManager))

	// загрузки и генерация дорогие: отдельный лимит на пользователя
	heavy := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)

	uploads := protected.Group("/uploads")
	{
		uploads.POST("", heavy, h.Upload.Upload)
		uploads.DELETE("", h.Upload.Delete)
	}

	wizard := protected.Group("/wizard/sessions")
	{
		wizard.POST("", h.Wizard.Start)

		session := wizard.Group("/:id", middleware.UUIDValidator("id"))
		session.GET("", h.Wizard.Get)
		session.DELETE("", h.Wizard.Abandon)
		session.PUT("/contact", h.Wizard.UpdateContact)
		session.PUT("/measurements", h.Wizard.UpdateMeasurements)
		session.POST("/measurements/submit", h.Wizard.SubmitMeasurements)
		session.POST("/photos/:kind", heavy, h.Wizard.AttachPhoto)
		session.DELETE("/photos/:kind", h.Wizard.RemovePhoto)
		session.PUT("/style", h.Wizard.UpdateStyle)
		session.POST("/next", h.Wizard.Next)
		session.POST("/back", h.Wizard.Back)
		session.POST("/preview", heavy, h.Wizard.StartPreview)
		session.POST("/confirm", h.Wizard.Confirm)
	}

	tryon := protected.Group("/tryon/jobs")
	{
		tryon.POST("", heavy, h.TryOn.Submit)
		tryon.GET("/:id", middleware.UUIDValidator("id"), h.TryOn.GetJob)
	}

	orders := protected.Group("/orders/:id", middleware.UUIDValidator("id"))
	{
		orders.GET("", h.Order.GetOrder)
		orders.POST("/status", h.Order.ChangeStatus)
		orders.PUT("/tailor-notes", h.Order.UpdateTailorNotes)
	}

	return r
}
