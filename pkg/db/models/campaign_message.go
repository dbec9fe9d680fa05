package models

import (
	"time"

	"github.com/google/uuid"
)

// CampaignMessage is the per-recipient send log for a campaign run.
type CampaignMessage struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CampaignID       uuid.UUID  `gorm:"column:campaign_id;type:uuid;not null;index"`
	ClientID         uuid.UUID  `gorm:"column:client_id;type:uuid;not null"`
	Phone            string     `gorm:"column:phone;not null"`
	Sent             bool       `gorm:"column:sent;not null;default:false"`
	GatewayMessageID *string    `gorm:"column:gateway_message_id"`
	Error            *string    `gorm:"column:error"`
	SentAt           *time.Time `gorm:"column:sent_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (CampaignMessage) TableName() string {
	return "campaign_messages"
}
