// Package storage: шлюз к объектному хранилищу фото и результатов примерки.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/metrics"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// Логические бакеты сервиса.
const (
	BucketOrderPhotos  = "order-photos"
	BucketTryOnResults = "tryon-results"
)

// ObjectStore: драйвер конкретного хранилища.
// Put перезаписывает существующий объект, Delete не считает отсутствие объекта ошибкой.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
	URL(ctx context.Context, bucket, key string) (string, error)
}

// UploadOptions описывает, куда положить объект.
type UploadOptions struct {
	Bucket      string
	Path        string
	ContentType string
}

// Gateway загружает и удаляет объекты. Повторов нет: политика повторов у вызывающего.
type Gateway struct {
	store   ObjectStore
	metrics *metrics.Registry
}

// NewGateway создаёт шлюз поверх драйвера.
func NewGateway(store ObjectStore, m *metrics.Registry) *Gateway {
	return &Gateway{store: store, metrics: m}
}

var bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)

// Upload записывает данные по bucket/path и возвращает URL объекта.
func (g *Gateway) Upload(ctx context.Context, data []byte, opts UploadOptions) (string, error) {
	key, err := cleanKey(opts.Bucket, opts.Path)
	if err != nil {
		return "", err
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err = g.store.Put(ctx, opts.Bucket, key, bytes.NewReader(data), int64(len(data)), contentType)
	g.metrics.ObserveStorage("put", err)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"bucket": opts.Bucket,
			"path":   key,
			"error":  err.Error(),
		}).Warn("storage: не удалось загрузить объект")
		return "", apperror.Transient(err, "не удалось загрузить файл, попробуйте ещё раз")
	}

	url, err := g.store.URL(ctx, opts.Bucket, key)
	if err != nil {
		return "", apperror.Transient(err, "не удалось получить ссылку на файл")
	}
	return url, nil
}

// Remove удаляет объект. Отсутствующий объект не является ошибкой.
func (g *Gateway) Remove(ctx context.Context, bucket, p string) error {
	key, err := cleanKey(bucket, p)
	if err != nil {
		return err
	}

	err = g.store.Delete(ctx, bucket, key)
	g.metrics.ObserveStorage("delete", err)
	if err != nil {
		return apperror.Transient(err, "не удалось удалить файл, попробуйте ещё раз")
	}
	return nil
}

// cleanKey нормализует путь объекта и запрещает выход за пределы бакета.
func cleanKey(bucket, p string) (string, error) {
	if !bucketPattern.MatchString(bucket) {
		return "", apperror.Validation(fmt.Sprintf("некорректное имя бакета %q", bucket))
	}

	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return "", apperror.Validation("путь объекта обязателен")
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", apperror.Validation("путь объекта не может содержать ..")
		}
	}

	key := strings.TrimPrefix(path.Clean("/"+p), "/")
	if key == "" || key == "." {
		return "", apperror.Validation("путь объекта обязателен")
	}
	return key, nil
}
