package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

// Order is a single-product agreement between a buyer and the product's seller.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID         uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID        uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	ProductID       uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	Quantity        int                 `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice      decimal.Decimal     `gorm:"column:total_price;type:numeric(12,2);not null"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	RejectionReason *string             `gorm:"column:rejection_reason"`
	DeliveryAddress string              `gorm:"column:delivery_address;not null"`
	DeliveryDate    *time.Time          `gorm:"column:delivery_date"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Notes           *string             `gorm:"column:notes"`
	IsActive        bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
