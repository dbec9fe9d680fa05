package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// Session records a performed (or in-progress) service, distinct from the
// pre-scheduled Appointment that may have originated it.
type Session struct {
	ID             uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StudioID       uuid.UUID               `gorm:"column:studio_id;type:uuid;not null;index"`
	ClientID       uuid.UUID               `gorm:"column:client_id;type:uuid;not null;index"`
	ProfessionalID uuid.UUID               `gorm:"column:professional_id;type:uuid;not null"`
	AppointmentID  *uuid.UUID              `gorm:"column:appointment_id;type:uuid"`
	SessionNumber  int                     `gorm:"column:session_number;not null;default:1"`
	Status         enums.AppointmentStatus `gorm:"column:status;type:appointment_status_enum;not null;default:'pending'"`
	PerformedAt    *time.Time              `gorm:"column:performed_at"`

	BodyLocation        *string          `gorm:"column:body_location"`
	Size                *string          `gorm:"column:size"`
	ArtColor            *string          `gorm:"column:art_color"`
	Price               *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Photos              pq.StringArray   `gorm:"column:photos;type:text[]"`
	ConsentSignatureKey *string          `gorm:"column:consent_signature_key"`
	Notes               *string          `gorm:"column:notes"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Session) TableName() string {
	return "sessions"
}
