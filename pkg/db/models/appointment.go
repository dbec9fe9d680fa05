package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// Appointment is a scheduled service slot. The schedule is deliberately kept
// as a (date, time, duration) triple rather than a single timestamp; the
// conflict detector recombines them in the studio's timezone.
type Appointment struct {
	ID             uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StudioID       uuid.UUID               `gorm:"column:studio_id;type:uuid;not null;index"`
	ClientID       uuid.UUID               `gorm:"column:client_id;type:uuid;not null"`
	ProfessionalID uuid.UUID               `gorm:"column:professional_id;type:uuid;not null"`
	Status         enums.AppointmentStatus `gorm:"column:status;type:appointment_status_enum;not null;default:'pending'"`

	ScheduledDate   time.Time `gorm:"column:scheduled_date;type:date;not null"`
	ScheduledTime   string    `gorm:"column:scheduled_time;not null"` // "HH:MM"
	DurationMinutes int       `gorm:"column:duration_minutes;not null;default:60"`

	ServiceType  *string          `gorm:"column:service_type"`
	BodyLocation *string          `gorm:"column:body_location"`
	Size         *string          `gorm:"column:size"`
	ArtColor     *string          `gorm:"column:art_color"`
	Price        *decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Notes        *string          `gorm:"column:notes"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Appointment) TableName() string {
	return "appointments"
}
