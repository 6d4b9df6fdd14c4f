package orders

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/harvestlink-backend/api/validators"
	internalorders "github.com/angelmondragon/harvestlink-backend/internal/orders"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

type createOrderRequest struct {
	ProductID       uuid.UUID `json:"product_id" validate:"required"`
	Quantity        int       `json:"quantity" validate:"required,gt=0"`
	DeliveryAddress string    `json:"delivery_address" validate:"required,max=500"`
	DeliveryDate    *string   `json:"delivery_date"`
	PaymentMethod   string    `json:"payment_method" validate:"required,payment_method"`
	Notes           *string   `json:"notes" validate:"omitempty,max=1000"`
}

func (p createOrderRequest) toInput() (internalorders.CreateInput, error) {
	date, err := validators.ParseOptionalDate("delivery_date", p.DeliveryDate)
	if err != nil {
		return internalorders.CreateInput{}, err
	}
	input := internalorders.CreateInput{
		ProductID:       p.ProductID,
		Quantity:        p.Quantity,
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

type updateStatusRequest struct {
	Status          string  `json:"status" validate:"required,order_status"`
	RejectionReason *string `json:"rejection_reason" validate:"omitempty,max=500"`
}
