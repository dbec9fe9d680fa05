package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// MarketingCampaign is a WhatsApp broadcast to a segmented client audience.
type MarketingCampaign struct {
	ID       uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StudioID uuid.UUID              `gorm:"column:studio_id;type:uuid;not null;index"`
	Name     string                 `gorm:"column:name;not null"`
	Message  string                 `gorm:"column:message;not null"`
	Audience enums.CampaignAudience `gorm:"column:audience;type:campaign_audience_enum;not null"`
	Status   enums.CampaignStatus   `gorm:"column:status;type:campaign_status_enum;not null;default:'draft'"`

	RecipientCount int `gorm:"column:recipient_count;not null;default:0"`
	SentCount      int `gorm:"column:sent_count;not null;default:0"`
	FailedCount    int `gorm:"column:failed_count;not null;default:0"`

	QueuedAt   *time.Time `gorm:"column:queued_at"`
	StartedAt  *time.Time `gorm:"column:started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at"`

	CreatedByUserID uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (MarketingCampaign) TableName() string {
	return "marketing_campaigns"
}
