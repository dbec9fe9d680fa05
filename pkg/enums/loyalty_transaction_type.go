package enums

import "fmt"

// LoyaltyTransactionType maps to the loyalty_transaction_type_enum enum in Postgres.
type LoyaltyTransactionType string

const (
	LoyaltyTransactionTypeCredit       LoyaltyTransactionType = "CREDIT"
	LoyaltyTransactionTypeDebit        LoyaltyTransactionType = "DEBIT"
	LoyaltyTransactionTypeExpired      LoyaltyTransactionType = "EXPIRED"
	LoyaltyTransactionTypeManualAdjust LoyaltyTransactionType = "MANUAL_ADJUST"
)

var validLoyaltyTransactionTypes = []LoyaltyTransactionType{
	LoyaltyTransactionTypeCredit,
	LoyaltyTransactionTypeDebit,
	LoyaltyTransactionTypeExpired,
	LoyaltyTransactionTypeManualAdjust,
}

// IsValid reports whether the value matches the canonical transaction type enum.
func (t LoyaltyTransactionType) IsValid() bool {
	for _, candidate := range validLoyaltyTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsEarning reports whether the type adds spendable balance.
func (t LoyaltyTransactionType) IsEarning() bool {
	return t == LoyaltyTransactionTypeCredit || t == LoyaltyTransactionTypeManualAdjust
}

// ParseLoyaltyTransactionType converts raw input into LoyaltyTransactionType.
func ParseLoyaltyTransactionType(value string) (LoyaltyTransactionType, error) {
	for _, candidate := range validLoyaltyTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loyalty transaction type %q", value)
}
