package cart

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/harvestlink-backend/api/validators"
	cartsvc "github.com/angelmondragon/harvestlink-backend/internal/cart"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type checkoutRequest struct {
	DeliveryAddress string  `json:"delivery_address" validate:"required,max=500"`
	DeliveryDate    *string `json:"delivery_date"`
	PaymentMethod   string  `json:"payment_method" validate:"required,payment_method"`
	Notes           *string `json:"notes" validate:"omitempty,max=1000"`
}

func (p checkoutRequest) toInput() (cartsvc.CheckoutInput, error) {
	date, err := validators.ParseOptionalDate("delivery_date", p.DeliveryDate)
	if err != nil {
		return cartsvc.CheckoutInput{}, err
	}
	input := cartsvc.CheckoutInput{
		DeliveryAddress: validators.SanitizeString(p.DeliveryAddress, 500),
		DeliveryDate:    date,
		PaymentMethod:   enums.PaymentMethod(p.PaymentMethod),
	}
	if p.Notes != nil {
		notes := validators.SanitizeString(*p.Notes, 1000)
		input.Notes = &notes
	}
	return input, nil
}
