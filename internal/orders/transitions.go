package orders

import "github.com/angelmondragon/harvestlink-backend/pkg/enums"

// sellerEdges lists the statuses a seller may move an order to from each state.
var sellerEdges = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusAccepted, enums.OrderStatusRejected},
	enums.OrderStatusAccepted:   {enums.OrderStatusProcessing},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
}

// CanSellerTransition reports whether from -> to is a legal seller move.
func CanSellerTransition(from, to enums.OrderStatus) bool {
	for _, next := range sellerEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanBuyerCancel reports whether the buyer may still cancel an order in status.
func CanBuyerCancel(status enums.OrderStatus) bool {
	return status == enums.OrderStatusPending || status == enums.OrderStatusAccepted
}

// releasesStock reports whether moving into status returns the reserved quantity to the catalog.
func releasesStock(status enums.OrderStatus) bool {
	return status == enums.OrderStatusRejected || status == enums.OrderStatusCancelled
}
