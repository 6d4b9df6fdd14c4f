package enums

import "fmt"

// LedgerEntryType names a fund movement recorded against a transaction.
type LedgerEntryType string

const (
	LedgerEntryPaymentConfirmed LedgerEntryType = "payment_confirmed"
	LedgerEntryPaymentSettled   LedgerEntryType = "payment_settled"
	LedgerEntryPaymentRefunded  LedgerEntryType = "payment_refunded"
	// LedgerEntryPaymentReversed undoes a confirmation whose payment later failed.
	LedgerEntryPaymentReversed LedgerEntryType = "payment_reversed"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryPaymentConfirmed,
	LedgerEntryPaymentSettled,
	LedgerEntryPaymentRefunded,
	LedgerEntryPaymentReversed,
}

// IsValid reports whether the value matches a known ledger entry type.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
