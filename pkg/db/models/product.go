package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

// Product is the catalog row the commerce flow reads price, stock and
// ownership from. available_stock carries CHECK (available_stock >= 0).
type Product struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SellerID       uuid.UUID           `gorm:"column:seller_id;type:uuid;not null"`
	Name           string              `gorm:"column:name;not null"`
	Unit           string              `gorm:"column:unit;not null;default:'kg'"`
	Price          decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	AvailableStock int                 `gorm:"column:available_stock;not null;default:0"`
	Status         enums.ProductStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
