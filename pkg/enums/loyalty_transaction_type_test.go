package enums

import "testing"

func TestLoyaltyTransactionTypeIsEarning(t *testing.T) {
	if !LoyaltyTransactionTypeCredit.IsEarning() {
		t.Fatal("CREDIT should earn")
	}
	if !LoyaltyTransactionTypeManualAdjust.IsEarning() {
		t.Fatal("MANUAL_ADJUST should earn")
	}
	if LoyaltyTransactionTypeDebit.IsEarning() {
		t.Fatal("DEBIT should not earn")
	}
	if LoyaltyTransactionTypeExpired.IsEarning() {
		t.Fatal("EXPIRED should not earn")
	}
}

func TestParseLoyaltyTransactionType(t *testing.T) {
	for _, valid := range validLoyaltyTransactionTypes {
		parsed, err := ParseLoyaltyTransactionType(string(valid))
		if err != nil {
			t.Fatalf("parse %q: %v", valid, err)
		}
		if parsed != valid {
			t.Fatalf("parse %q = %q", valid, parsed)
		}
	}
	if _, err := ParseLoyaltyTransactionType("credit"); err == nil {
		t.Fatal("expected case-sensitive parse to reject lowercase")
	}
}
