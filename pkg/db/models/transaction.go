package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

// Transaction is the payment record for one order. Amount is copied from the
// order at initiation and never updated.
type Transaction struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID               `gorm:"column:order_id;type:uuid;not null"`
	BuyerID          uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID         uuid.UUID               `gorm:"column:seller_id;type:uuid;not null"`
	Amount           decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentMethod    enums.PaymentMethod     `gorm:"column:payment_method;type:text;not null"`
	Status           enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'initiated'"`
	PaymentReference *string                 `gorm:"column:payment_reference"`
	RefundReason     *string                 `gorm:"column:refund_reason"`
	FailureReason    *string                 `gorm:"column:failure_reason"`
	ConfirmedAt      *time.Time              `gorm:"column:confirmed_at"`
	SettledAt        *time.Time              `gorm:"column:settled_at"`
	RefundedAt       *time.Time              `gorm:"column:refunded_at"`
	FailedAt         *time.Time              `gorm:"column:failed_at"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// Reference returns the payment reference or an empty string.
func (t Transaction) Reference() string {
	if t.PaymentReference == nil {
		return ""
	}
	return *t.PaymentReference
}
