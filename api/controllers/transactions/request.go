package transactions

import "github.com/google/uuid"

type initiateRequest struct {
	OrderID       uuid.UUID `json:"order_id" validate:"required"`
	PaymentMethod string    `json:"payment_method" validate:"required,payment_method"`
}

type confirmRequest struct {
	PaymentReference string `json:"payment_reference" validate:"required,max=128"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
