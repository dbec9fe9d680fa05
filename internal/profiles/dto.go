package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
)

// CreateProfileDTO carries the fields required to persist a new profile.
type CreateProfileDTO struct {
	Email        string
	PasswordHash string
	FullName     string
	Phone        *string
}

// ToModel converts the DTO into a persistable profile.
func (d CreateProfileDTO) ToModel() *models.Profile {
	return &models.Profile{
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		Phone:        d.Phone,
		IsActive:     true,
	}
}

// ProfileDTO is the transport shape for a profile.
type ProfileDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Phone       *string    `json:"phone,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FromModel converts a profile model to the external DTO.
func FromModel(m *models.Profile) *ProfileDTO {
	if m == nil {
		return nil
	}
	return &ProfileDTO{
		ID:          m.ID,
		Email:       m.Email,
		FullName:    m.FullName,
		Phone:       m.Phone,
		LastLoginAt: m.LastLoginAt,
		CreatedAt:   m.CreatedAt,
	}
}
