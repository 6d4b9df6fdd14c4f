package dto

import (
	"time"

	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
)

type TransactionResponse struct {
	ID               string  `json:"id"`
	OrderID          string  `json:"order_id"`
	BuyerID          string  `json:"buyer_id"`
	SellerID         string  `json:"seller_id"`
	Amount           string  `json:"amount"`
	PaymentMethod    string  `json:"payment_method"`
	Status           string  `json:"status"`
	PaymentReference *string `json:"payment_reference,omitempty"`
	RefundReason     *string `json:"refund_reason,omitempty"`
	FailureReason    *string `json:"failure_reason,omitempty"`
	ConfirmedAt      *string `json:"confirmed_at,omitempty"`
	SettledAt        *string `json:"settled_at,omitempty"`
	RefundedAt       *string `json:"refunded_at,omitempty"`
	FailedAt         *string `json:"failed_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

type ConfirmResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Replayed    bool                `json:"replayed"`
}

type LedgerEntryResponse struct {
	ID            string         `json:"id"`
	TransactionID string         `json:"transaction_id"`
	OrderID       string         `json:"order_id"`
	ActorID       string         `json:"actor_id"`
	Type          string         `json:"type"`
	Amount        string         `json:"amount"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     string         `json:"created_at"`
}

func FromTransaction(txn *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:               txn.ID.String(),
		OrderID:          txn.OrderID.String(),
		BuyerID:          txn.BuyerID.String(),
		SellerID:         txn.SellerID.String(),
		Amount:           Money(txn.Amount),
		PaymentMethod:    string(txn.PaymentMethod),
		Status:           string(txn.Status),
		PaymentReference: txn.PaymentReference,
		RefundReason:     txn.RefundReason,
		FailureReason:    txn.FailureReason,
		ConfirmedAt:      formatTime(txn.ConfirmedAt),
		SettledAt:        formatTime(txn.SettledAt),
		RefundedAt:       formatTime(txn.RefundedAt),
		FailedAt:         formatTime(txn.FailedAt),
		CreatedAt:        txn.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func FromLedgerEntries(entries []models.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, LedgerEntryResponse{
			ID:            entry.ID.String(),
			TransactionID: entry.TransactionID.String(),
			OrderID:       entry.OrderID.String(),
			ActorID:       entry.ActorID.String(),
			Type:          string(entry.Type),
			Amount:        Money(entry.Amount),
			Metadata:      entry.Metadata,
			CreatedAt:     entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
