package dto

import (
	"time"

	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
)

type OrderResponse struct {
	ID              string  `json:"id"`
	BuyerID         string  `json:"buyer_id"`
	SellerID        string  `json:"seller_id"`
	ProductID       string  `json:"product_id"`
	Quantity        int     `json:"quantity"`
	UnitPrice       string  `json:"unit_price"`
	TotalPrice      string  `json:"total_price"`
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	DeliveryAddress string  `json:"delivery_address"`
	DeliveryDate    *string `json:"delivery_date,omitempty"`
	PaymentMethod   string  `json:"payment_method"`
	Notes           *string `json:"notes,omitempty"`
	IsActive        bool    `json:"is_active"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type OrderListResponse struct {
	Orders     []OrderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func FromOrder(order *models.Order) OrderResponse {
	return OrderResponse{
		ID:              order.ID.String(),
		BuyerID:         order.BuyerID.String(),
		SellerID:        order.SellerID.String(),
		ProductID:       order.ProductID.String(),
		Quantity:        order.Quantity,
		UnitPrice:       Money(order.UnitPrice),
		TotalPrice:      Money(order.TotalPrice),
		Status:          string(order.Status),
		RejectionReason: order.RejectionReason,
		DeliveryAddress: order.DeliveryAddress,
		DeliveryDate:    formatTime(order.DeliveryDate),
		PaymentMethod:   string(order.PaymentMethod),
		Notes:           order.Notes,
		IsActive:        order.IsActive,
		CreatedAt:       order.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       order.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func FromOrders(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, FromOrder(&orders[i]))
	}
	return out
}
