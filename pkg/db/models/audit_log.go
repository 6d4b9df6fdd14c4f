package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
)

// AuditLog is an append-only who-did-what record.
type AuditLog struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ActorID     uuid.UUID       `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole   enums.ActorRole `gorm:"column:actor_role;type:text;not null"`
	ActionType  string          `gorm:"column:action_type;not null"`
	Description string          `gorm:"column:description;not null"`
	TableName   string          `gorm:"column:table_name;not null"`
	RecordID    uuid.UUID       `gorm:"column:record_id;type:uuid;not null"`
	OldValues   map[string]any  `gorm:"column:old_values;type:jsonb;serializer:json"`
	NewValues   map[string]any  `gorm:"column:new_values;type:jsonb;serializer:json"`
	Metadata    map[string]any  `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
