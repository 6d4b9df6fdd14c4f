package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

// Notification stores an in-app notification for one user.
type Notification struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID               `gorm:"column:user_id;type:uuid;not null"`
	Event     enums.NotificationEvent `gorm:"column:event;type:text;not null"`
	Payload   map[string]any          `gorm:"column:payload;type:jsonb;serializer:json"`
	ReadAt    *time.Time              `gorm:"column:read_at"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
}
