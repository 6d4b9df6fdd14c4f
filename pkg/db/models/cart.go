package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

// Cart is a buyer's pre-checkout basket. At most one active cart exists per
// owner (ux_carts_active_owner).
type Cart struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID   uuid.UUID        `gorm:"column:owner_id;type:uuid;not null"`
	Status    enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	ClosedAt  *time.Time       `gorm:"column:closed_at"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
