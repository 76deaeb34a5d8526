// Package upload: загрузка фото: подготовка изображения и запись в объектное хранилище.
package upload

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/imageprep"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/metrics"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/storage"
)

// Kind: назначение фото.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindStyle    Kind = "style"
	KindGeneral  Kind = "photo"
)

func ParseKind(v string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(v))); k {
	case KindCustomer, KindStyle:
		return k, nil
	}
	return "", apperror.Validation("тип фото должен быть customer или style")
}

// RequiresQuality: контроль разрешения нужен только для фото клиента.
func (k Kind) RequiresQuality() bool {
	return k == KindCustomer
}

// Result: загруженный объект.
type Result struct {
	URL    string `json:"url"`
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int    `json:"size"`
}

// Service готовит изображение и кладёт его в бакет order-photos по пути <owner>/<kind>-<uuid>.webp.
type Service struct {
	preparer *imageprep.Preparer
	gateway  *storage.Gateway
	metrics  *metrics.Registry
}

func NewService(preparer *imageprep.Preparer, gateway *storage.Gateway, m *metrics.Registry) *Service {
	return &Service{preparer: preparer, gateway: gateway, metrics: m}
}

// MaxBytes возвращает потолок размера для области загрузки.
func (s *Service) MaxBytes(scope imageprep.Scope) int64 {
	return s.preparer.Limits().MaxBytes(scope)
}

func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, scope imageprep.Scope, kind Kind, data []byte) (*Result, error) {
	if ownerID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}

	prepared, err := s.preparer.Prepare(data, scope, kind.RequiresQuality())
	if err != nil {
		s.metrics.ObserveUpload(string(scope), "rejected")
		return nil, err
	}

	p := fmt.Sprintf("%s/%s-%s.webp", ownerID, kind, uuid.New())
	url, err := s.gateway.Upload(ctx, prepared.Blob.Data, storage.UploadOptions{
		Bucket:      storage.BucketOrderPhotos,
		Path:        p,
		ContentType: prepared.Blob.ContentType,
	})
	if err != nil {
		s.metrics.ObserveUpload(string(scope), "error")
		return nil, err
	}
	s.metrics.ObserveUpload(string(scope), "ok")

	logger.Log.WithFields(logrus.Fields{
		"owner_id": ownerID,
		"path":     p,
		"original": fmt.Sprintf("%dx%d", prepared.Original.Width, prepared.Original.Height),
		"size":     len(prepared.Blob.Data),
	}).Info("фото загружено")

	return &Result{
		URL:    url,
		Path:   p,
		Width:  prepared.Blob.Width,
		Height: prepared.Blob.Height,
		Size:   len(prepared.Blob.Data),
	}, nil
}

// Remove удаляет фото владельца. Чужие пути запрещены, отсутствующий объект не ошибка.
func (s *Service) Remove(ctx context.Context, ownerID uuid.UUID, p string) error {
	if ownerID == uuid.Nil {
		return apperror.ErrUnauthorized
	}
	p = strings.TrimPrefix(strings.TrimSpace(p), "/")
	if !strings.HasPrefix(p, ownerID.String()+"/") {
		return apperror.ErrForbidden
	}
	return s.gateway.Remove(ctx, storage.BucketOrderPhotos, p)
}
