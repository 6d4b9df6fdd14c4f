package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/harvestlink-backend/pkg/db"
	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/harvestlink-backend/pkg/errors"
)

const entryUniqueIndex = "ux_ledger_entries_transaction_type"

// Service records fund movements. Each (transaction, type) pair is written at most once.
type Service interface {
	WithTx(tx *gorm.DB) Service
	RecordEntry(ctx context.Context, input RecordEntryInput) (*models.LedgerEntry, error)
	ListForTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.LedgerEntry, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
}

type service struct {
	repo Repository
}

// RecordEntryInput captures the immutable data a ledger entry requires.
type RecordEntryInput struct {
	TransactionID uuid.UUID
	OrderID       uuid.UUID
	BuyerID       uuid.UUID
	SellerID      uuid.UUID
	ActorID       uuid.UUID
	Type          enums.LedgerEntryType
	Amount        decimal.Decimal
	Metadata      map[string]any
}

// EntryFor builds the input for a movement of the transaction's full amount.
func EntryFor(txn *models.Transaction, entryType enums.LedgerEntryType, actorID uuid.UUID, metadata map[string]any) RecordEntryInput {
	return RecordEntryInput{
		TransactionID: txn.ID,
		OrderID:       txn.OrderID,
		BuyerID:       txn.BuyerID,
		SellerID:      txn.SellerID,
		ActorID:       actorID,
		Type:          entryType,
		Amount:        txn.Amount,
		Metadata:      metadata,
	}
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) RecordEntry(ctx context.Context, input RecordEntryInput) (*models.LedgerEntry, error) {
	if input.TransactionID == uuid.Nil {
		return nil, fmt.Errorf("transaction id is required")
	}
	if input.OrderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	if input.BuyerID == uuid.Nil || input.SellerID == uuid.Nil {
		return nil, fmt.Errorf("buyer and seller ids are required")
	}
	if input.ActorID == uuid.Nil {
		return nil, fmt.Errorf("actor id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid ledger entry type %q", input.Type)
	}
	if input.Amount.IsNegative() {
		return nil, fmt.Errorf("ledger amount must not be negative")
	}

	entry := &models.LedgerEntry{
		TransactionID: input.TransactionID,
		OrderID:       input.OrderID,
		BuyerID:       input.BuyerID,
		SellerID:      input.SellerID,
		ActorID:       input.ActorID,
		Type:          input.Type,
		Amount:        input.Amount,
		Metadata:      input.Metadata,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, entryUniqueIndex) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "ledger entry already applied").
				WithDetails(map[string]any{"transaction_id": input.TransactionID, "type": input.Type})
		}
		return nil, err
	}
	return entry, nil
}

func (s *service) ListForTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.LedgerEntry, error) {
	return s.repo.ListByTransaction(ctx, transactionID)
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	return s.repo.ListByOrderID(ctx, orderID)
}
