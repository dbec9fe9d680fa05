package anamnesis

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
)

// CreateRecordInput is the consent form submission payload.
type CreateRecordInput struct {
	StudioID      uuid.UUID
	ClientID      uuid.UUID
	AppointmentID *uuid.UUID
	Answers       json.RawMessage
	// SignatureDataURL is the drawn signature as a base64 data URL
	// (data:image/png;base64,...). Optional; forms can be saved unsigned.
	SignatureDataURL string
}

// RecordDTO is a consent record with a short-lived signed URL in place of the
// raw storage key.
type RecordDTO struct {
	ID            uuid.UUID       `json:"id"`
	ClientID      uuid.UUID       `json:"client_id"`
	AppointmentID *uuid.UUID      `json:"appointment_id,omitempty"`
	Answers       json.RawMessage `json:"answers"`
	SignatureURL  string          `json:"signature_url,omitempty"`
	SignedAt      *time.Time      `json:"signed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toDTO(record models.AnamnesisRecord, signatureURL string) RecordDTO {
	return RecordDTO{
		ID:            record.ID,
		ClientID:      record.ClientID,
		AppointmentID: record.AppointmentID,
		Answers:       record.Answers,
		SignatureURL:  signatureURL,
		SignedAt:      record.SignedAt,
		CreatedAt:     record.CreatedAt,
	}
}
