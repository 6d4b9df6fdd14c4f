package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

// LedgerEntry records a fund movement. (transaction_id, type) is unique so a
// movement is applied at most once per transaction.
type LedgerEntry struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	TransactionID uuid.UUID             `gorm:"column:transaction_id;type:uuid;not null"`
	OrderID       uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	BuyerID       uuid.UUID             `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID      uuid.UUID             `gorm:"column:seller_id;type:uuid;not null"`
	ActorID       uuid.UUID             `gorm:"column:actor_id;type:uuid;not null"`
	Type          enums.LedgerEntryType `gorm:"column:type;type:text;not null"`
	Amount        decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Metadata      map[string]any        `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}
