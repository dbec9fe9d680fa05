package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// LoyaltyTransaction is an immutable cashback ledger entry. Amount is always
// a positive magnitude; direction is implied by Type, never by sign. Rows are
// never updated or deleted; expiration is evaluated at read time.
type LoyaltyTransaction struct {
	ID            uuid.UUID                    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StudioID      uuid.UUID                    `gorm:"column:studio_id;type:uuid;not null;index"`
	ClientID      uuid.UUID                    `gorm:"column:client_id;type:uuid;not null;index"`
	AppointmentID *uuid.UUID                   `gorm:"column:appointment_id;type:uuid"`
	Type          enums.LoyaltyTransactionType `gorm:"column:type;type:loyalty_transaction_type_enum;not null"`
	Amount        decimal.Decimal              `gorm:"column:amount;type:numeric(12,2);not null"`
	Description   string                       `gorm:"column:description;not null"`
	ExpiresAt     *time.Time                   `gorm:"column:expires_at"`
	CreatedAt     time.Time                    `gorm:"column:created_at;autoCreateTime"`
}

func (LoyaltyTransaction) TableName() string {
	return "loyalty_transactions"
}
