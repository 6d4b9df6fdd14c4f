package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money renders amounts with two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
