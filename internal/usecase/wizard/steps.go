package wizard

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
	"github.com/ignatzorin/atelier-backend/internal/imageprep"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase/upload"
	"github.com/ignatzorin/atelier-backend/internal/validation"
)

// Contact: поля шага 0.
type Contact struct {
	Name  string
	Phone string
	Email string
}

// Style: поля шага фасона и ткани.
type Style struct {
	StyleReference string
	FabricType     string
	Notes          string
}

// UpdateContact сохраняет контакт. Формат проверяется при переходе дальше, а не на каждом вводе.
func (c *Controller) UpdateContact(ctx context.Context, callerID, sessionID uuid.UUID, in Contact) (*State, error) {
	return c.mutate(ctx, callerID, sessionID, true, func(st *State) error {
		st.CustomerName = strings.TrimSpace(in.Name)
		st.CustomerPhone = strings.TrimSpace(in.Phone)
		st.CustomerEmail = strings.TrimSpace(in.Email)
		return nil
	})
}

// UpdateMeasurements заменяет набор мерок. Заполненные значения должны быть в допустимом диапазоне.
func (c *Controller) UpdateMeasurements(ctx context.Context, callerID, sessionID uuid.UUID, m valueobject.MeasurementSet) (*State, error) {
	if err := m.ValidatePartial(); err != nil {
		return nil, err
	}
	return c.mutate(ctx, callerID, sessionID, true, func(st *State) error {
		st.Measurements = m
		st.MeasurementsComplete = m.IsComplete()
		return nil
	})
}

// SubmitMeasurements: отправка формы мерок: все обязательные поля заполнены и в диапазоне.
func (c *Controller) SubmitMeasurements(ctx context.Context, callerID, sessionID uuid.UUID) (*State, error) {
	return c.mutate(ctx, callerID, sessionID, false, func(st *State) error {
		if err := st.Measurements.Validate(); err != nil {
			st.MeasurementsComplete = false
			return err
		}
		st.MeasurementsComplete = true
		return nil
	})
}

// AttachPhoto готовит и загружает фото, затем привязывает его к сессии. Предыдущее фото того же типа удаляется.
func (c *Controller) AttachPhoto(ctx context.Context, callerID, sessionID uuid.UUID, kind upload.Kind, data []byte) (*State, error) {
	if _, err := c.load(ctx, callerID, sessionID); err != nil {
		return nil, err
	}

	res, err := c.photos.Upload(ctx, callerID, imageprep.ScopeWizard, kind, data)
	if err != nil {
		return nil, err
	}

	var previous string
	st, err := c.mutate(ctx, callerID, sessionID, true, func(st *State) error {
		switch kind {
		case upload.KindCustomer:
			previous = st.CustomerPhotoPath
			st.CustomerPhotoURL, st.CustomerPhotoPath = res.URL, res.Path
		case upload.KindStyle:
			previous = st.StylePhotoPath
			st.StylePhotoURL, st.StylePhotoPath = res.URL, res.Path
		default:
			return apperror.Validation("тип фото должен быть customer или style")
		}
		st.Preview = nil
		return nil
	})
	if err != nil {
		c.removePhoto(callerID, res.Path)
		return nil, err
	}
	if previous != "" && previous != res.Path {
		c.removePhoto(callerID, previous)
	}
	return st, nil
}

// RemovePhoto отвязывает фото от сессии и удаляет объект из хранилища.
func (c *Controller) RemovePhoto(ctx context.Context, callerID, sessionID uuid.UUID, kind upload.Kind) (*State, error) {
	var removed string
	st, err := c.mutate(ctx, callerID, sessionID, true, func(st *State) error {
		switch kind {
		case upload.KindCustomer:
			removed = st.CustomerPhotoPath
			st.CustomerPhotoURL, st.CustomerPhotoPath = "", ""
		case upload.KindStyle:
			removed = st.StylePhotoPath
			st.StylePhotoURL, st.StylePhotoPath = "", ""
		default:
			return apperror.Validation("тип фото должен быть customer или style")
		}
		st.Preview = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	if removed != "" {
		c.removePhoto(callerID, removed)
	}
	return st, nil
}

func (c *Controller) removePhoto(ownerID uuid.UUID, path string) {
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()
	if err := c.photos.Remove(ctx, ownerID, path); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"path":  path,
			"error": err.Error(),
		}).Warn("не удалось удалить фото")
	}
}

// UpdateStyle сохраняет фасон, ткань и комментарий.
func (c *Controller) UpdateStyle(ctx context.Context, callerID, sessionID uuid.UUID, in Style) (*State, error) {
	if err := validation.ValidateStyle(in.StyleReference, in.FabricType, in.Notes); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	return c.mutate(ctx, callerID, sessionID, true, func(st *State) error {
		st.StyleReference = strings.TrimSpace(in.StyleReference)
		st.FabricType = strings.TrimSpace(in.FabricType)
		st.Notes = strings.TrimSpace(in.Notes)
		return nil
	})
}

// Next переходит к следующему шагу. Жёсткая проверка только на шаге контакта.
func (c *Controller) Next(ctx context.Context, callerID, sessionID uuid.UUID) (*State, error) {
	return c.mutate(ctx, callerID, sessionID, false, func(st *State) error {
		if st.Step == StepContact {
			if err := validation.ValidateContact(st.CustomerName, st.CustomerPhone, st.CustomerEmail); err != nil {
				return apperror.Validation(err.Error())
			}
		}
		if st.Step < StepConfirm {
			st.Step++
		}
		return nil
	})
}

// Back возвращает на предыдущий шаг. Разрешён всегда.
func (c *Controller) Back(ctx context.Context, callerID, sessionID uuid.UUID) (*State, error) {
	return c.mutate(ctx, callerID, sessionID, false, func(st *State) error {
		if st.Step > StepContact {
			st.Step--
		}
		return nil
	})
}
