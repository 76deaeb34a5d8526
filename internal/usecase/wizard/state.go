// Package wizard: серверный мастер оформления заказа: шаги, автосохранение черновика, превью примерки.
package wizard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/usecase/draft"
)

// Step: шаг мастера.
type Step int

const (
	StepContact Step = iota
	StepMeasurementsPhoto
	StepStyleFabric
	StepPreview
	StepConfirm
)

var stepNames = map[Step]string{
	StepContact:           "contact",
	StepMeasurementsPhoto: "measurements_photo",
	StepStyleFabric:       "style_fabric",
	StepPreview:           "preview",
	StepConfirm:           "confirm",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

const (
	PreviewRunning = "running"
	PreviewReady   = "ready"
)

// Preview: результат шага примерки.
type Preview struct {
	Status     string    `json:"status"`
	URL        string    `json:"url,omitempty"`
	IsFallback bool      `json:"is_fallback"`
	Error      string    `json:"error,omitempty"`
	JobID      string    `json:"job_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// State: состояние сессии мастера. Хранится в SessionStore с TTL и удаляется после confirm или abandon.
type State struct {
	ID       uuid.UUID  `json:"id"`
	OwnerID  uuid.UUID  `json:"owner_id"`
	TailorID *uuid.UUID `json:"tailor_id,omitempty"`
	Step     Step       `json:"step"`

	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`

	Measurements         valueobject.MeasurementSet `json:"measurements"`
	MeasurementsComplete bool                       `json:"measurements_complete"`

	CustomerPhotoURL  string `json:"customer_photo_url,omitempty"`
	CustomerPhotoPath string `json:"customer_photo_path,omitempty"`
	StylePhotoURL     string `json:"style_photo_url,omitempty"`
	StylePhotoPath    string `json:"style_photo_path,omitempty"`

	StyleReference string `json:"style_reference,omitempty"`
	FabricType     string `json:"fabric_type,omitempty"`
	Notes          string `json:"notes,omitempty"`

	Preview *Preview   `json:"preview,omitempty"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newState(ownerID uuid.UUID, tailorID *uuid.UUID) *State {
	now := time.Now()
	return &State{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		TailorID:  tailorID,
		Step:      StepContact,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StepName: имя текущего шага для ответа API.
func (s *State) StepName() string {
	return s.Step.String()
}

func (s *State) hasContact() bool {
	return s.CustomerName != "" && s.CustomerPhone != ""
}

func (s *State) hasPhotos() bool {
	return s.CustomerPhotoURL != "" && s.StylePhotoURL != ""
}

// draftFields: снимок полей черновика для автосохранения.
func (s *State) draftFields() draft.Fields {
	f := draft.Fields{
		CustomerName:     draft.String(s.CustomerName),
		CustomerPhone:    draft.String(s.CustomerPhone),
		CustomerEmail:    draft.String(s.CustomerEmail),
		CustomerPhotoURL: draft.String(s.CustomerPhotoURL),
		StylePhotoURL:    draft.String(s.StylePhotoURL),
		StyleReference:   draft.String(s.StyleReference),
		FabricType:       draft.String(s.FabricType),
		Notes:            draft.String(s.Notes),
		TailorID:         s.TailorID,
	}
	m := s.Measurements
	f.Measurements = &m
	return f
}

// SessionStore хранит состояние мастера. Load возвращает apperror.ErrSessionNotFound для неизвестной или истёкшей сессии.
type SessionStore interface {
	Save(ctx context.Context, st *State) error
	Load(ctx context.Context, id uuid.UUID) (*State, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
