package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
	"github.com/angelmondragon/harvestlink-backend/pkg/logger"
)

// Action types recorded by the commerce flow.
const (
	ActionOrderCreate         = "order.create"
	ActionOrderStatusUpdate   = "order.status_update"
	ActionOrderCancel         = "order.cancel"
	ActionOrderExpire         = "order.expire"
	ActionTransactionInitiate = "transaction.initiate"
	ActionTransactionConfirm  = "transaction.confirm"
	ActionTransactionSettle   = "transaction.settle"
	ActionTransactionFail     = "transaction.fail"
	ActionTransactionRefund   = "transaction.refund"
	ActionCartCheckout        = "cart.checkout"
)

// Entry describes one audited action.
type Entry struct {
	ActorID     uuid.UUID
	ActorRole   enums.ActorRole
	ActionType  string
	Description string
	TableName   string
	RecordID    uuid.UUID
	OldValues   map[string]any
	NewValues   map[string]any
	Metadata    map[string]any
}

// Trail appends audit entries. Failures are logged and never returned, so an
// audit outage cannot undo the state change being recorded.
type Trail interface {
	Record(ctx context.Context, entry Entry)
}

// Repository persists audit rows.
type Repository interface {
	Insert(ctx context.Context, row *models.AuditLog) error
	ListForRecord(ctx context.Context, tableName string, recordID uuid.UUID) ([]models.AuditLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds audit persistence to the audit_logs table.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, row *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) ListForRecord(ctx context.Context, tableName string, recordID uuid.UUID) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("table_name = ? AND record_id = ?", tableName, recordID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

type trail struct {
	repo Repository
	logg *logger.Logger
}

// NewTrail returns a Trail writing through repo.
func NewTrail(repo Repository, logg *logger.Logger) Trail {
	return &trail{repo: repo, logg: logg}
}

func (t *trail) Record(ctx context.Context, entry Entry) {
	if t.repo == nil {
		return
	}
	role := entry.ActorRole
	if role == "" {
		role = enums.ActorRoleSystem
	}
	row := &models.AuditLog{
		ActorID:     entry.ActorID,
		ActorRole:   role,
		ActionType:  entry.ActionType,
		Description: entry.Description,
		TableName:   entry.TableName,
		RecordID:    entry.RecordID,
		OldValues:   entry.OldValues,
		NewValues:   entry.NewValues,
		Metadata:    entry.Metadata,
	}
	if err := t.repo.Insert(ctx, row); err != nil && t.logg != nil {
		ctx = t.logg.WithFields(ctx, map[string]any{
			"action_type": entry.ActionType,
			"table_name":  entry.TableName,
			"record_id":   entry.RecordID.String(),
			"actor_id":    entry.ActorID.String(),
		})
		t.logg.Error(ctx, "audit record failed", err)
	}
}

// Noop discards entries.
type Noop struct{}

func (Noop) Record(context.Context, Entry) {}
