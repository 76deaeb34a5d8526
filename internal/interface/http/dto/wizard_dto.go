package dto

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/usecase/wizard"
)

type StartSessionRequest struct {
	TailorID *string `json:"tailor_id"`
}

// ParseTailorID разбирает необязательный id портного.
func (r StartSessionRequest) ParseTailorID() (*uuid.UUID, error) {
	if r.TailorID == nil || *r.TailorID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*r.TailorID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

type ContactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

func (r ContactRequest) ToContact() wizard.Contact {
	return wizard.Contact{Name: r.Name, Phone: r.Phone, Email: r.Email}
}

type StyleRequest struct {
	StyleReference string `json:"style_reference"`
	FabricType     string `json:"fabric_type"`
	Notes          string `json:"notes"`
}

func (r StyleRequest) ToStyle() wizard.Style {
	return wizard.Style{StyleReference: r.StyleReference, FabricType: r.FabricType, Notes: r.Notes}
}

// SessionResponse: состояние мастера с именем шага.
type SessionResponse struct {
	*wizard.State
	StepName string `json:"step_name"`
}

func ToSessionResponse(st *wizard.State) SessionResponse {
	return SessionResponse{State: st, StepName: st.StepName()}
}
