package tryon

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/validation"
)

var errForeignPhotoURL = apperror.Validation("фото для примерки должны быть загружены через сервис")

// PhotoURLPolicy решает, с какого адреса воркеру можно скачивать входные фото.
type PhotoURLPolicy interface {
	Allows(u *url.URL) bool
}

// PublicHostPolicy пропускает любые хосты, кроме localhost и IP внутренних сетей.
// Используется, если адреса хранилища не заданы.
type PublicHostPolicy struct{}

func (PublicHostPolicy) Allows(u *url.URL) bool {
	return validation.IsPublicHost(u.Hostname())
}

// checkPhotoURL принимает только http(s) ссылки, разрешённые политикой и указывающие на фото владельца заказа.
// Пустой URL пропускается: обязательность проверяет entity.NewTryOnJob.
func (o *Orchestrator) checkPhotoURL(raw string, ownerID uuid.UUID) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.User != nil {
		return errForeignPhotoURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errForeignPhotoURL
	}
	if !o.photoURLs.Allows(u) {
		return errForeignPhotoURL
	}
	// ключи фото заказа начинаются с id владельца: <owner>/<kind>-<uuid>.webp
	if !strings.Contains(u.Path, "/"+ownerID.String()+"/") {
		return errForeignPhotoURL
	}
	return nil
}
