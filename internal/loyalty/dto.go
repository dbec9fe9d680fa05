package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safetatt/safetatt-backend/pkg/db/models"
	"github.com/safetatt/safetatt-backend/pkg/enums"
)

// Balance reports a client's spendable credit and the next credit expiry.
type Balance struct {
	Balance        decimal.Decimal `json:"balance"`
	NextExpiration *time.Time      `json:"next_expiration,omitempty"`
}

// CreateTransactionInput captures the immutable data a ledger entry requires.
type CreateTransactionInput struct {
	StudioID      uuid.UUID
	ClientID      uuid.UUID
	AppointmentID *uuid.UUID
	Type          enums.LoyaltyTransactionType
	Amount        decimal.Decimal
	Description   string
	ExpiresAt     *time.Time
}

// DashboardMetrics summarizes a studio's loyalty liability.
type DashboardMetrics struct {
	TotalLiability decimal.Decimal `json:"total_liability"`
	RedeemedMonth  decimal.Decimal `json:"redeemed_month"`
	ExpiringSoon   decimal.Decimal `json:"expiring_soon"`
}

// ClientSummary is the per-client loyalty aggregate shown in studio views.
type ClientSummary struct {
	ClientID         uuid.UUID       `json:"client_id"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	Balance          decimal.Decimal `json:"balance"`
	TotalAccumulated decimal.Decimal `json:"total_accumulated"`
	LastVisit        *time.Time      `json:"last_visit,omitempty"`
	NextExpiration   *time.Time      `json:"next_expiration,omitempty"`
}

// UpdateSettingsInput changes a studio's cashback policy.
type UpdateSettingsInput struct {
	StudioID        uuid.UUID
	CashbackPercent decimal.Decimal
	ExpiryDays      int
	Enabled         bool
}

// TransactionDTO is the transport shape for a ledger entry.
type TransactionDTO struct {
	ID            uuid.UUID                    `json:"id"`
	StudioID      uuid.UUID                    `json:"studio_id"`
	ClientID      uuid.UUID                    `json:"client_id"`
	AppointmentID *uuid.UUID                   `json:"appointment_id,omitempty"`
	Type          enums.LoyaltyTransactionType `json:"type"`
	Amount        decimal.Decimal              `json:"amount"`
	Description   string                       `json:"description"`
	ExpiresAt     *time.Time                   `json:"expires_at,omitempty"`
	CreatedAt     time.Time                    `json:"created_at"`
}

// TransactionFromModel converts a ledger entry to the external DTO.
func TransactionFromModel(m *models.LoyaltyTransaction) *TransactionDTO {
	if m == nil {
		return nil
	}
	return &TransactionDTO{
		ID:            m.ID,
		StudioID:      m.StudioID,
		ClientID:      m.ClientID,
		AppointmentID: m.AppointmentID,
		Type:          m.Type,
		Amount:        m.Amount,
		Description:   m.Description,
		ExpiresAt:     m.ExpiresAt,
		CreatedAt:     m.CreatedAt,
	}
}

// TransactionsFromModels converts a ledger listing.
func TransactionsFromModels(items []models.LoyaltyTransaction) []TransactionDTO {
	dtos := make([]TransactionDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *TransactionFromModel(&items[i]))
	}
	return dtos
}

// SettingsDTO is the transport shape for a studio cashback policy.
type SettingsDTO struct {
	StudioID        uuid.UUID       `json:"studio_id"`
	CashbackPercent decimal.Decimal `json:"cashback_percent"`
	ExpiryDays      int             `json:"expiry_days"`
	Enabled         bool            `json:"enabled"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SettingsFromModel converts the policy to the external DTO.
func SettingsFromModel(m *models.LoyaltySettings) *SettingsDTO {
	if m == nil {
		return nil
	}
	return &SettingsDTO{
		StudioID:        m.StudioID,
		CashbackPercent: m.CashbackPercent,
		ExpiryDays:      m.ExpiryDays,
		Enabled:         m.Enabled,
		UpdatedAt:       m.UpdatedAt,
	}
}
