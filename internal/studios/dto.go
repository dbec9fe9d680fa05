package studios

import (
	"time"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// CreateStudioDTO carries the fields required to persist a new studio.
type CreateStudioDTO struct {
	Name     string
	Phone    *string
	Email    *string
	Address  *string
	Timezone string
	OwnerID  uuid.UUID
}

// ToModel converts the DTO into a persistable studio.
func (d CreateStudioDTO) ToModel() *models.Studio {
	studio := &models.Studio{
		Name:    d.Name,
		Phone:   d.Phone,
		Email:   d.Email,
		Address: d.Address,
		OwnerID: d.OwnerID,
	}
	if d.Timezone != "" {
		studio.Timezone = d.Timezone
	}
	return studio
}

// UpdateStudioInput captures the allowed studio fields for mutation.
type UpdateStudioInput struct {
	Name     *string
	Phone    *string
	Email    *string
	Address  *string
	LogoURL  *string
	Timezone *string
}

// InviteMemberInput captures the data required to invite a studio member.
type InviteMemberInput struct {
	Email    string
	FullName string
	Role     enums.MemberRole
}

// StudioDTO is the transport shape for a studio.
type StudioDTO struct {
	ID               uuid.UUID                      `json:"id"`
	Name             string                         `json:"name"`
	Phone            *string                        `json:"phone,omitempty"`
	Email            *string                        `json:"email,omitempty"`
	Address          *string                        `json:"address,omitempty"`
	LogoURL          *string                        `json:"logo_url,omitempty"`
	Timezone         string                         `json:"timezone"`
	WhatsAppInstance *string                        `json:"whatsapp_instance,omitempty"`
	WhatsAppStatus   *enums.WhatsAppConnectionState `json:"whatsapp_status,omitempty"`
	CreatedAt        time.Time                      `json:"created_at"`
}

// FromModel converts a studio model to the external DTO. The gateway token is
// deliberately never exposed.
func FromModel(m *models.Studio) *StudioDTO {
	if m == nil {
		return nil
	}
	return &StudioDTO{
		ID:               m.ID,
		Name:             m.Name,
		Phone:            m.Phone,
		Email:            m.Email,
		Address:          m.Address,
		LogoURL:          m.LogoURL,
		Timezone:         m.Timezone,
		WhatsAppInstance: m.WhatsAppInstance,
		WhatsAppStatus:   m.WhatsAppStatus,
		CreatedAt:        m.CreatedAt,
	}
}
