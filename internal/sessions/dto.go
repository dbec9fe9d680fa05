package sessions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// CreateSessionInput is the new-session form payload.
type CreateSessionInput struct {
	StudioID       uuid.UUID
	ClientID       uuid.UUID
	ProfessionalID uuid.UUID
	AppointmentID  *uuid.UUID
	StatusLabel    string
	BodyLocation   *string
	Size           *string
	ArtColor       *string
	Price          *decimal.Decimal
	Photos         []string
	Notes          *string
}

// UpdateSessionInput carries a partial session edit. Nil fields are left
// untouched.
type UpdateSessionInput struct {
	StatusLabel  *string
	BodyLocation *string
	Size         *string
	ArtColor     *string
	Price        *decimal.Decimal
	Photos       *[]string
	Notes        *string
}

// ListFilter narrows studio session listings.
type ListFilter struct {
	ClientID       *uuid.UUID
	ProfessionalID *uuid.UUID
	Status         *enums.AppointmentStatus
	From           *time.Time
	To             *time.Time
}

// SessionDTO is the transport shape for a session. Status carries the
// human-facing label, not the stored enum.
type SessionDTO struct {
	ID             uuid.UUID        `json:"id"`
	StudioID       uuid.UUID        `json:"studio_id"`
	ClientID       uuid.UUID        `json:"client_id"`
	ProfessionalID uuid.UUID        `json:"professional_id"`
	AppointmentID  *uuid.UUID       `json:"appointment_id,omitempty"`
	SessionNumber  int              `json:"session_number"`
	Status         string           `json:"status"`
	PerformedAt    *time.Time       `json:"performed_at,omitempty"`
	BodyLocation   *string          `json:"body_location,omitempty"`
	Size           *string          `json:"size,omitempty"`
	ArtColor       *string          `json:"art_color,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Photos         []string         `json:"photos,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// FromModel converts a session model to the external DTO.
func FromModel(m *models.Session) *SessionDTO {
	if m == nil {
		return nil
	}
	return &SessionDTO{
		ID:             m.ID,
		StudioID:       m.StudioID,
		ClientID:       m.ClientID,
		ProfessionalID: m.ProfessionalID,
		AppointmentID:  m.AppointmentID,
		SessionNumber:  m.SessionNumber,
		Status:         enums.DenormalizeStatus(m.Status),
		PerformedAt:    m.PerformedAt,
		BodyLocation:   m.BodyLocation,
		Size:           m.Size,
		ArtColor:       m.ArtColor,
		Price:          m.Price,
		Photos:         []string(m.Photos),
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromModels converts a listing.
func FromModels(items []models.Session) []SessionDTO {
	dtos := make([]SessionDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *FromModel(&items[i]))
	}
	return dtos
}
