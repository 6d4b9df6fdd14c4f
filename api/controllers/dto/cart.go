package dto

import (
	"time"

	"github.com/angelmondragon/harvestlink-backend/internal/cart"
	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
)

type CartItemResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceAtAdd string `json:"price_at_add"`
	LineTotal  string `json:"line_total"`
}

type CartTotalsResponse struct {
	Subtotal      string `json:"subtotal"`
	DeliveryFee   string `json:"delivery_fee"`
	Total         string `json:"total"`
	ItemCount     int    `json:"item_count"`
	TotalQuantity int    `json:"total_quantity"`
}

type CartResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Items     []CartItemResponse `json:"items"`
	Totals    CartTotalsResponse `json:"totals"`
	UpdatedAt string             `json:"updated_at"`
}

type CheckoutResponse struct {
	Orders []OrderResponse    `json:"orders"`
	Totals CartTotalsResponse `json:"totals"`
}

func FromCartView(view *cart.CartView) CartResponse {
	if view == nil || view.Cart == nil {
		return CartResponse{Items: []CartItemResponse{}}
	}
	items := make([]CartItemResponse, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, FromCartItem(item))
	}
	return CartResponse{
		ID:        view.Cart.ID.String(),
		Status:    string(view.Cart.Status),
		Items:     items,
		Totals:    FromTotals(view.Totals),
		UpdatedAt: view.Cart.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func FromCartItem(item models.CartItem) CartItemResponse {
	return CartItemResponse{
		ID:         item.ID.String(),
		ProductID:  item.ProductID.String(),
		Quantity:   item.Quantity,
		PriceAtAdd: Money(item.PriceAtAdd),
		LineTotal:  Money(item.LineTotal()),
	}
}

func FromTotals(t cart.Totals) CartTotalsResponse {
	return CartTotalsResponse{
		Subtotal:      Money(t.Subtotal),
		DeliveryFee:   Money(t.DeliveryFee),
		Total:         Money(t.Total),
		ItemCount:     t.ItemCount,
		TotalQuantity: t.TotalQuantity,
	}
}

func FromCheckout(result *cart.CheckoutResult) CheckoutResponse {
	if result == nil {
		return CheckoutResponse{Orders: []OrderResponse{}}
	}
	return CheckoutResponse{
		Orders: FromOrders(result.Orders),
		Totals: FromTotals(result.Totals),
	}
}
