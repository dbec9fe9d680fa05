package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnamnesisRecord captures a client's consent form answers and signature.
type AnamnesisRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StudioID      uuid.UUID       `gorm:"column:studio_id;type:uuid;not null;index"`
	ClientID      uuid.UUID       `gorm:"column:client_id;type:uuid;not null;index"`
	AppointmentID *uuid.UUID      `gorm:"column:appointment_id;type:uuid"`
	Answers       json.RawMessage `gorm:"column:answers;type:jsonb;not null"`
	SignatureKey  *string         `gorm:"column:signature_key"`
	PDFKey        *string         `gorm:"column:pdf_key"`
	SignedAt      *time.Time      `gorm:"column:signed_at"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (AnamnesisRecord) TableName() string {
	return "anamnesis_records"
}
