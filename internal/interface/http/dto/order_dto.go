package dto

import (
	"time"

	"github.com/ignatzorin/atelier-backend/internal/domain/entity"
	"github.com/ignatzorin/atelier-backend/internal/domain/valueobject"
)

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type TailorNotesRequest struct {
	Notes string `json:"notes"`
}

type OrderResponse struct {
	ID               string                     `json:"id"`
	CustomerID       string                     `json:"customer_id"`
	TailorID         *string                    `json:"tailor_id,omitempty"`
	CustomerName     string                     `json:"customer_name"`
	CustomerPhone    string                     `json:"customer_phone"`
	CustomerEmail    string                     `json:"customer_email,omitempty"`
	Measurements     valueobject.MeasurementSet `json:"measurements"`
	CustomerPhotoURL string                     `json:"customer_photo_url,omitempty"`
	StylePhotoURL    string                     `json:"style_photo_url,omitempty"`
	StyleReference   string                     `json:"style_reference,omitempty"`
	FabricType       string                     `json:"fabric_type,omitempty"`
	Notes            string                     `json:"notes,omitempty"`
	TailorNotes      string                     `json:"tailor_notes,omitempty"`
	Status           string                     `json:"status"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

func ToOrderResponse(o *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID.String(),
		CustomerID:       o.CustomerID.String(),
		CustomerName:     o.CustomerName,
		CustomerPhone:    o.CustomerPhone,
		CustomerEmail:    o.CustomerEmail,
		Measurements:     o.Measurements,
		CustomerPhotoURL: o.CustomerPhotoURL,
		StylePhotoURL:    o.StylePhotoURL,
		StyleReference:   o.StyleReference,
		FabricType:       o.FabricType,
		Notes:            o.Notes,
		TailorNotes:      o.TailorNotes,
		Status:           string(o.Status),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	if o.TailorID != nil {
		id := o.TailorID.String()
		resp.TailorID = &id
	}
	return resp
}
