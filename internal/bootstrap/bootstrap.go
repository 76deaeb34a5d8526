// Package bootstrap собирает инфраструктуру по конфигурации: общий код для cmd/server и cmd/tryon-worker.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/atelier-backend/internal/ai"
	"github.com/ignatzorin/atelier-backend/internal/config"
	"github.com/ignatzorin/atelier-backend/internal/domain/repository"
	"github.com/ignatzorin/atelier-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/atelier-backend/internal/metrics"
	"github.com/ignatzorin/atelier-backend/internal/storage"
)

// fetchTimeout: потолок на скачивание одного входного фото воркером.
const fetchTimeout = 30 * time.Second

// ObjectStore открывает драйвер объектного хранилища из STORAGE_DRIVER.
func ObjectStore(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error) {
	switch cfg.Driver {
	case "", "local":
		return storage.NewLocalStore(cfg.LocalPath, cfg.LocalPublicURL)
	case "minio":
		return storage.NewMinIOStore(ctx, storage.MinIOConfig{
			Endpoint:   cfg.MinIOEndpoint,
			AccessKey:  cfg.MinIOAccessKey,
			SecretKey:  cfg.MinIOSecretKey,
			UseSSL:     cfg.MinIOUseSSL,
			PublicURL:  cfg.MinIOPublicURL,
			PresignTTL: cfg.PresignTTL,
		}, storage.BucketOrderPhotos, storage.BucketTryOnResults)
	case "s3":
		return storage.NewS3Store(ctx, cfg.AWSRegion, cfg.S3BucketPrefix, cfg.PresignTTL)
	}
	return nil, fmt.Errorf("bootstrap: неизвестный STORAGE_DRIVER %q", cfg.Driver)
}

// PhotoURLPolicy возвращает список origin, с которых хранилище выдаёт ссылки на фото.
func PhotoURLPolicy(cfg config.StorageConfig) (*storage.OriginPolicy, error) {
	switch cfg.Driver {
	case "", "local":
		return storage.NewOriginPolicy(cfg.LocalPublicURL)
	case "minio":
		if cfg.MinIOPublicURL != "" {
			return storage.NewOriginPolicy(cfg.MinIOPublicURL)
		}
		scheme := "http"
		if cfg.MinIOUseSSL {
			scheme = "https"
		}
		return storage.NewOriginPolicy(scheme + "://" + cfg.MinIOEndpoint)
	case "s3":
		return storage.NewOriginPolicy(
			"https://*.s3."+cfg.AWSRegion+".amazonaws.com",
			"https://s3."+cfg.AWSRegion+".amazonaws.com",
		)
	}
	return nil, fmt.Errorf("bootstrap: неизвестный STORAGE_DRIVER %q", cfg.Driver)
}

// JobStore возвращает хранилище задач примерки и функцию закрытия.
func JobStore(cfg config.TryOnConfig, db *sqlx.DB) (repository.TryOnJobRepository, func() error, error) {
	switch cfg.JobStore {
	case "", "postgres":
		return persistence.NewTryOnJobRepositoryAdapter(db), func() error { return nil }, nil
	case "pebble":
		store, err := persistence.NewPebbleTryOnJobStore(cfg.PebblePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("bootstrap: неизвестный TRYON_JOB_STORE %q", cfg.JobStore)
}

// Processor собирает воркер генерации на Gemini.
// allowPrivateFetch разрешает скачивать фото из внутренней сети (локальное хранилище, MinIO в той же сети).
func Processor(ctx context.Context, cfg config.GeminiConfig, allowPrivateFetch bool, gateway *storage.Gateway, sink ai.ResultSink, m *metrics.Registry) (*ai.Processor, func() error, error) {
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("bootstrap: GEMINI_API_KEY не задан")
	}
	generator, err := ai.NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, nil, err
	}
	return ai.NewProcessor(generator, ai.NewHTTPFetcher(fetchTimeout, allowPrivateFetch), gateway, sink, m), generator.Close, nil
}
