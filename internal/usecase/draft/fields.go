package draft

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
)

// Fields: частичное обновление черновика. nil означает «не трогать», пустая строка очищает поле.
type Fields struct {
	CustomerName     *string
	CustomerPhone    *string
	CustomerEmail    *string
	Measurements     *valueobject.MeasurementSet
	CustomerPhotoURL *string
	StylePhotoURL    *string
	StyleReference   *string
	FabricType       *string
	Notes            *string
	// TailorID назначается один раз, при создании заказа.
	TailorID *uuid.UUID
}

// String: удобный конструктор указателя для Fields.
func String(v string) *string {
	return &v
}

func (f Fields) IsEmpty() bool {
	return f.CustomerName == nil && f.CustomerPhone == nil && f.CustomerEmail == nil &&
		f.Measurements == nil && f.CustomerPhotoURL == nil && f.StylePhotoURL == nil &&
		f.StyleReference == nil && f.FabricType == nil && f.Notes == nil && f.TailorID == nil
}

func (f Fields) hasContact() bool {
	return f.CustomerName != nil && strings.TrimSpace(*f.CustomerName) != "" &&
		f.CustomerPhone != nil && strings.TrimSpace(*f.CustomerPhone) != ""
}

func (f Fields) validate() error {
	if f.Measurements != nil {
		return f.Measurements.ValidatePartial()
	}
	return nil
}

// applyTo накладывает заданные поля на заказ. Мерки заменяются целиком: мастер всегда присылает полный снимок.
func (f Fields) applyTo(o *entity.Order) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	// пустые имя и телефон не затирают сохранённый контакт
	if f.CustomerName != nil && strings.TrimSpace(*f.CustomerName) != "" {
		set(&o.CustomerName, f.CustomerName)
	}
	if f.CustomerPhone != nil && strings.TrimSpace(*f.CustomerPhone) != "" {
		set(&o.CustomerPhone, f.CustomerPhone)
	}
	set(&o.CustomerEmail, f.CustomerEmail)
	set(&o.CustomerPhotoURL, f.CustomerPhotoURL)
	set(&o.StylePhotoURL, f.StylePhotoURL)
	set(&o.StyleReference, f.StyleReference)
	set(&o.FabricType, f.FabricType)
	set(&o.Notes, f.Notes)
	if f.Measurements != nil {
		o.Measurements = *f.Measurements
	}
	if f.TailorID != nil && *f.TailorID != uuid.Nil && o.TailorID == nil {
		id := *f.TailorID
		o.TailorID = &id
	}
}
