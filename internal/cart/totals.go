package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
)

// DeliveryFeePolicy prices delivery for a cart.
type DeliveryFeePolicy interface {
	Fee(items []models.CartItem, subtotal decimal.Decimal) decimal.Decimal
}

// FlatDeliveryFee charges the same fee for any non-empty cart.
type FlatDeliveryFee struct {
	Amount decimal.Decimal
}

func (f FlatDeliveryFee) Fee(items []models.CartItem, _ decimal.Decimal) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}
	return f.Amount
}

// Totals is derived from the persisted lines on every read and never stored.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
	TotalQuantity int             `json:"total_quantity"`
}

// ComputeTotals sums quantity x price_at_add over items and adds the policy fee.
// A nil policy means free delivery.
func ComputeTotals(items []models.CartItem, policy DeliveryFeePolicy) Totals {
	subtotal := decimal.Zero
	quantity := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		quantity += item.Quantity
	}
	fee := decimal.Zero
	if policy != nil {
		fee = policy.Fee(items, subtotal)
	}
	return Totals{
		Subtotal:      subtotal,
		DeliveryFee:   fee,
		Total:         subtotal.Add(fee),
		ItemCount:     len(items),
		TotalQuantity: quantity,
	}
}
