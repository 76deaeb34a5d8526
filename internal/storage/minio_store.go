package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig: параметры подключения к MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicURL: базовый адрес публичного чтения; если пуст, выдаются presigned ссылки.
	PublicURL  string
	PresignTTL time.Duration
}

// MinIOStore: драйвер поверх minio-go.
type MinIOStore struct {
	client     *minio.Client
	publicURL  string
	presignTTL time.Duration
}

// NewMinIOStore подключается к MinIO и создаёт отсутствующие бакеты.
func NewMinIOStore(ctx context.Context, cfg MinIOConfig, buckets ...string) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать клиент MinIO: %w", err)
	}

	for _, bucket := range buckets {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("storage: не удалось проверить бакет %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: не удалось создать бакет %s: %w", bucket, err)
		}
	}

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MinIOStore{
		client:     client,
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
		presignTTL: ttl,
	}, nil
}

func (m *MinIOStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("storage: не удалось загрузить в MinIO: %w", err)
	}
	return nil
}

func (m *MinIOStore) Delete(ctx context.Context, bucket, key string) error {
	err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("storage: не удалось удалить из MinIO: %w", err)
	}
	return nil
}

func (m *MinIOStore) URL(ctx context.Context, bucket, key string) (string, error) {
	if m.publicURL != "" {
		return m.publicURL + "/" + bucket + "/" + escapeKey(key), nil
	}
	u, err := m.client.PresignedGetObject(ctx, bucket, key, m.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("storage: не удалось подписать ссылку: %w", err)
	}
	return u.String(), nil
}
