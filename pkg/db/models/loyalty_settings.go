package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoyaltySettings holds the per-studio cashback policy.
type LoyaltySettings struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StudioID        uuid.UUID       `gorm:"column:studio_id;type:uuid;not null;uniqueIndex"`
	CashbackPercent decimal.Decimal `gorm:"column:cashback_percent;type:numeric(5,2);not null;default:0"`
	// ExpiryDays of 0 means earned credit never expires.
	ExpiryDays int       `gorm:"column:expiry_days;not null;default:0"`
	Enabled    bool      `gorm:"column:enabled;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LoyaltySettings) TableName() string {
	return "loyalty_settings"
}
