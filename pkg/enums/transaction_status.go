package enums

import "fmt"

// TransactionStatus maps to the transaction_status column.
type TransactionStatus string

const (
	TransactionStatusInitiated TransactionStatus = "initiated"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusSettled   TransactionStatus = "settled"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusInitiated,
	TransactionStatusConfirmed,
	TransactionStatusSettled,
	TransactionStatusFailed,
	TransactionStatusRefunded,
}

// LiveTransactionStatuses blocks a second transaction on the same order.
// Keep in sync with the ux_transactions_live_order index predicate.
var LiveTransactionStatuses = []TransactionStatus{
	TransactionStatusInitiated,
	TransactionStatusConfirmed,
	TransactionStatusSettled,
}

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TransactionStatus.
func (s TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsLive reports whether the status holds the order's single payment slot.
func (s TransactionStatus) IsLive() bool {
	for _, candidate := range LiveTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// HasConfirmed reports whether funds were confirmed at some point, which is
// what makes a repeated confirm with the same reference a replay.
func (s TransactionStatus) HasConfirmed() bool {
	switch s {
	case TransactionStatusConfirmed, TransactionStatusSettled, TransactionStatusRefunded:
		return true
	default:
		return false
	}
}

// ParseTransactionStatus converts raw input into a TransactionStatus.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	for _, candidate := range validTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction status %q", value)
}
