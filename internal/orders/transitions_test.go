package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

func TestCanSellerTransition(t *testing.T) {
	allowed := map[[2]enums.OrderStatus]bool{
		{enums.OrderStatusPending, enums.OrderStatusAccepted}:    true,
		{enums.OrderStatusPending, enums.OrderStatusRejected}:    true,
		{enums.OrderStatusAccepted, enums.OrderStatusProcessing}: true,
		{enums.OrderStatusProcessing, enums.OrderStatusShipped}:  true,
		{enums.OrderStatusShipped, enums.OrderStatusDelivered}:   true,
	}
	statuses := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusAccepted,
		enums.OrderStatusRejected,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]enums.OrderStatus{from, to}]
			assert.Equal(t, want, CanSellerTransition(from, to), "%s -> %s", from, to)
		}
		if from.IsTerminal() {
			assert.Empty(t, sellerEdges[from], "terminal %s has seller edges", from)
		}
	}
}

func TestCanBuyerCancel(t *testing.T) {
	assert.True(t, CanBuyerCancel(enums.OrderStatusPending))
	assert.True(t, CanBuyerCancel(enums.OrderStatusAccepted))
	assert.False(t, CanBuyerCancel(enums.OrderStatusProcessing))
	assert.False(t, CanBuyerCancel(enums.OrderStatusRejected))
	assert.False(t, CanBuyerCancel(enums.OrderStatusCancelled))
}
