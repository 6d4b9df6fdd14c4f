package cart

import (
	"time"

	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

// CartView is returned by every cart operation: the cart, its lines and derived totals.
type CartView struct {
	Cart   *models.Cart
	Items  []models.CartItem
	Totals Totals
}

// CheckoutInput carries the delivery details applied to every order created from the cart.
type CheckoutInput struct {
	DeliveryAddress string
	DeliveryDate    *time.Time
	PaymentMethod   enums.PaymentMethod
	Notes           *string
}

// CheckoutResult lists the orders created from the cart and the totals the buyer saw.
type CheckoutResult struct {
	Orders []models.Order
	Totals Totals
}
