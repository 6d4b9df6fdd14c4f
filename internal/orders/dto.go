package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

// CreateInput carries the buyer-supplied fields for a new order.
type CreateInput struct {
	ProductID       uuid.UUID
	Quantity        int
	DeliveryAddress string
	DeliveryDate    *time.Time
	PaymentMethod   enums.PaymentMethod
	Notes           *string
}

// ListParams filters a buyer or seller order listing.
type ListParams struct {
	Limit  int
	Cursor string
	Status enums.OrderStatus
}

// ListResult is one page of orders plus the cursor for the next page.
type ListResult struct {
	Orders     []models.Order
	NextCursor string
}

func orderPayload(order *models.Order) map[string]any {
	payload := map[string]any{
		"order_id":    order.ID.String(),
		"buyer_id":    order.BuyerID.String(),
		"seller_id":   order.SellerID.String(),
		"product_id":  order.ProductID.String(),
		"quantity":    order.Quantity,
		"total_price": order.TotalPrice.StringFixed(2),
		"status":      order.Status,
	}
	if order.RejectionReason != nil {
		payload["rejection_reason"] = *order.RejectionReason
	}
	return payload
}
