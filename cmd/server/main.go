package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/atelier-backend/internal/bootstrap"
	"github.com/ignatzorin/atelier-backend/internal/config"
	"github.com/ignatzorin/atelier-backend/internal/db"
	httpRouter "github.com/ignatzorin/atelier-backend/internal/http/router"
	"github.com/ignatzorin/atelier-backend/internal/imageprep"
	"github.com/ignatzorin/atelier-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/atelier-backend/internal/infrastructure/session"
	"github.com/ignatzorin/atelier-backend/internal/infrastructure/worker"
	"github.com/ignatzorin/atelier-backend/internal/interface/http/handler"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/metrics"
	"github.com/ignatzorin/atelier-backend/internal/service"
	"github.com/ignatzorin/atelier-backend/internal/storage"
	"github.com/ignatzorin/atelier-backend/internal/usecase/draft"
	"github.com/ignatzorin/atelier-backend/internal/usecase/order"
	"github.com/ignatzorin/atelier-backend/internal/usecase/tryon"
	"github.com/ignatzorin/atelier-backend/internal/usecase/upload"
	"github.com/ignatzorin/atelier-backend/internal/usecase/wizard"
	"github.com/ignatzorin/atelier-backend/internal/ws"
)

// accessTokenTTL используется только при выпуске токенов в тестах, сервер их лишь проверяет.
const accessTokenTTL = 15 * time.Minute

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, db.Migrations()); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	registry := metrics.NewRegistry()
	tokenManager := service.NewTokenManager(cfg.JWTSecret, accessTokenTTL)
	healthChecks := map[string]handler.Pinger{"database": dbConn}

	// Объектное хранилище.
	objectStore, err := bootstrap.ObjectStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("main: не удалось подготовить объектное хранилище: %v", err)
	}
	gateway := storage.NewGateway(objectStore, registry)

	// Репозитории.
	orderRepo := persistence.NewOrderRepositoryAdapter(dbConn)
	jobRepo, closeJobs, err := bootstrap.JobStore(cfg.TryOn, dbConn)
	if err != nil {
		log.Fatalf("main: не удалось открыть хранилище задач примерки: %v", err)
	}
	defer func() {
		if err := closeJobs(); err != nil {
			logger.Log.WithError(err).Error("main: ошибка закрытия хранилища задач")
		}
	}()

	// Запуск генерации.
	var invoker tryon.WorkerInvoker
	switch cfg.TryOn.Invoker {
	case "kafka":
		k := worker.NewKafkaInvoker(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer k.Close()
		invoker = k
	case "http":
		invoker = worker.NewHTTPInvoker(cfg.TryOn.FunctionURL, cfg.TryOn.WorkerSecret, 0)
	default:
		processor, closeGen, err := bootstrap.Processor(ctx, cfg.Gemini, cfg.TryOn.FetchAllowPrivate, gateway, jobRepo, registry)
		if err != nil {
			log.Fatalf("main: не удалось подготовить генератор примерки: %v", err)
		}
		defer closeGen()
		invoker = worker.NewLocalInvoker(processor, 0)
	}

	// Сессии мастера.
	var sessions wizard.SessionStore
	switch cfg.Wizard.SessionDriver {
	case "redis":
		rs, err := session.NewRedisStore(ctx, cfg.Wizard.RedisURL, cfg.Wizard.SessionTTL)
		if err != nil {
			log.Fatalf("main: ошибка подключения к Redis: %v", err)
		}
		defer rs.Close()
		sessions = rs
		healthChecks["redis"] = rs
	default:
		sessions = session.NewMemoryStore(cfg.Wizard.SessionTTL)
	}

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Use cases.
	preparer := imageprep.NewPreparer(imageprep.Limits{
		MaxGeneralBytes: cfg.Uploads.MaxGeneralBytes,
		MaxWizardBytes:  cfg.Uploads.MaxWizardBytes,
	}, imageprep.DefaultCompressOptions())
	uploadService := upload.NewService(preparer, gateway, registry)

	photoURLs, err := bootstrap.PhotoURLPolicy(cfg.Storage)
	if err != nil {
		log.Fatalf("main: некорректный адрес хранилища: %v", err)
	}
	orchestrator := tryon.NewOrchestrator(orderRepo, jobRepo, invoker, registry, tryon.Options{
		PollInterval: cfg.TryOn.PollInterval,
		MaxAttempts:  cfg.TryOn.MaxAttempts,
		PhotoURLs:    photoURLs,
	})

	wizardController := wizard.NewController(wizard.Deps{
		Sessions: sessions,
		Drafts:   draft.NewStore(orderRepo, registry),
		Photos:   uploadService,
		Preview:  orchestrator,
		Notifier: ws.NewPreviewNotifier(hub),

		SessionTTL:        cfg.Wizard.SessionTTL,
		PreviewStaleAfter: time.Duration(cfg.TryOn.MaxAttempts)*cfg.TryOn.PollInterval + time.Minute,
	}, cfg.Wizard.AutosaveDebounce)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Health: handler.NewHealthHandler(healthChecks),
		Upload: handler.NewUploadHandler(uploadService),
		Wizard: handler.NewWizardHandler(wizardController, uploadService),
		TryOn:  handler.NewTryOnHandler(orchestrator),
		Order: handler.NewOrderHandler(
			order.NewGetOrderUseCase(orderRepo),
			order.NewChangeStatusUseCase(orderRepo),
			order.NewUpdateTailorNotesUseCase(orderRepo),
		),
		WS:      handler.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
		Metrics: registry.Handler(),
	}, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
