package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// Studio represents the canonical tenant model.
type Studio struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name     string    `gorm:"column:name;not null"`
	Phone    *string   `gorm:"column:phone"`
	Email    *string   `gorm:"column:email"`
	Address  *string   `gorm:"column:address"`
	LogoURL  *string   `gorm:"column:logo_url"`
	Timezone string    `gorm:"column:timezone;not null;default:'America/Sao_Paulo'"`

	// WhatsApp gateway wiring; one messaging instance per studio.
	WhatsAppInstance *string                        `gorm:"column:whatsapp_instance"`
	WhatsAppToken    *string                        `gorm:"column:whatsapp_token"`
	WhatsAppStatus   *enums.WhatsAppConnectionState `gorm:"column:whatsapp_status"`

	OwnerID   uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Studio) TableName() string {
	return "studios"
}
