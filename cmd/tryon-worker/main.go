// Команда tryon-worker читает задания примерки из Kafka и выполняет генерацию.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/atelier-backend/internal/bootstrap"
	"github.com/ignatzorin/atelier-backend/internal/config"
	"github.com/ignatzorin/atelier-backend/internal/db"
	"github.com/ignatzorin/atelier-backend/internal/infrastructure/worker"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/metrics"
	"github.com/ignatzorin/atelier-backend/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("worker: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}

	// Встроенное хранилище задач не делится между процессами.
	if cfg.TryOn.JobStore == "pebble" {
		log.Fatalf("worker: TRYON_JOB_STORE=pebble работает только с TRYON_INVOKER=local")
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("worker: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	registry := metrics.NewRegistry()

	objectStore, err := bootstrap.ObjectStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("worker: не удалось подготовить объектное хранилище: %v", err)
	}

	jobRepo, closeJobs, err := bootstrap.JobStore(cfg.TryOn, dbConn)
	if err != nil {
		log.Fatalf("worker: не удалось открыть хранилище задач примерки: %v", err)
	}
	defer closeJobs()

	processor, closeGen, err := bootstrap.Processor(ctx, cfg.Gemini, cfg.TryOn.FetchAllowPrivate, storage.NewGateway(objectStore, registry), jobRepo, registry)
	if err != nil {
		log.Fatalf("worker: не удалось подготовить генератор: %v", err)
	}
	defer closeGen()

	consumer := worker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, processor)
	defer consumer.Close()

	logger.Log.WithField("topic", cfg.Kafka.Topic).Info("worker: ожидаем задания примерки")
	if err := consumer.Run(ctx); err != nil {
		logger.Log.WithError(err).Error("worker: чтение очереди остановлено")
	}
}

func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("worker: ошибка закрытия базы: %v", err)
	}
}
