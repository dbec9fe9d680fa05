package appointments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// CreateAppointmentInput is the booking form payload. EndTime is optional;
// when absent the duration falls back to the default slot length.
type CreateAppointmentInput struct {
	StudioID       uuid.UUID
	ClientID       uuid.UUID
	ProfessionalID uuid.UUID
	StartTime      time.Time
	EndTime        *time.Time
	StatusLabel    string
	ServiceType    *string
	BodyLocation   *string
	Size           *string
	ArtColor       *string
	Price          *decimal.Decimal
	Notes          *string
}

// UpdateAppointmentInput carries a partial appointment edit. Nil fields are
// left untouched.
type UpdateAppointmentInput struct {
	StartTime    *time.Time
	EndTime      *time.Time
	StatusLabel  *string
	ServiceType  *string
	BodyLocation *string
	Size         *string
	ArtColor     *string
	Price        *decimal.Decimal
	Notes        *string
}

// ConflictCheck is the detector's input.
type ConflictCheck struct {
	StudioID             uuid.UUID
	ProfessionalID       uuid.UUID
	StartTime            time.Time
	EndTime              time.Time
	ExcludeAppointmentID *uuid.UUID
}

// AppointmentDTO is the transport shape for an appointment. Status carries the
// human-facing label, not the stored enum.
type AppointmentDTO struct {
	ID              uuid.UUID        `json:"id"`
	StudioID        uuid.UUID        `json:"studio_id"`
	ClientID        uuid.UUID        `json:"client_id"`
	ProfessionalID  uuid.UUID        `json:"professional_id"`
	Status          string           `json:"status"`
	ScheduledDate   string           `json:"scheduled_date"`
	ScheduledTime   string           `json:"scheduled_time"`
	DurationMinutes int              `json:"duration_minutes"`
	ServiceType     *string          `json:"service_type,omitempty"`
	BodyLocation    *string          `json:"body_location,omitempty"`
	Size            *string          `json:"size,omitempty"`
	ArtColor        *string          `json:"art_color,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// FromModel converts an appointment model to the external DTO.
func FromModel(m *models.Appointment) *AppointmentDTO {
	if m == nil {
		return nil
	}
	return &AppointmentDTO{
		ID:              m.ID,
		StudioID:        m.StudioID,
		ClientID:        m.ClientID,
		ProfessionalID:  m.ProfessionalID,
		Status:          enums.DenormalizeStatus(m.Status),
		ScheduledDate:   m.ScheduledDate.Format("2006-01-02"),
		ScheduledTime:   m.ScheduledTime,
		DurationMinutes: m.DurationMinutes,
		ServiceType:     m.ServiceType,
		BodyLocation:    m.BodyLocation,
		Size:            m.Size,
		ArtColor:        m.ArtColor,
		Price:           m.Price,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromModels converts a listing.
func FromModels(items []models.Appointment) []AppointmentDTO {
	dtos := make([]AppointmentDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *FromModel(&items[i]))
	}
	return dtos
}
