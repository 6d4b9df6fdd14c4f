package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/harvestlink-backend/internal/audit"
	"github.com/angelmondragon/harvestlink-backend/internal/ledger"
	"github.com/angelmondragon/harvestlink-backend/internal/notifications"
	"github.com/angelmondragon/harvestlink-backend/internal/orders"
	"github.com/angelmondragon/harvestlink-backend/pkg/db"
	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/harvestlink-backend/pkg/errors"
	"github.com/angelmondragon/harvestlink-backend/pkg/metrics"
)

const (
	liveOrderIndex = "ux_transactions_live_order"
	referenceIndex = "ux_transactions_payment_reference"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Actor identifies who is driving a payment transition.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

func (a Actor) privileged() bool {
	return a.Role == enums.ActorRoleAdmin || a.Role == enums.ActorRoleSystem
}

// ConfirmResult reports the confirmed transaction and whether the call replayed
// an already applied confirmation.
type ConfirmResult struct {
	Transaction *models.Transaction
	Replayed    bool
}

// Service drives the payment state machine and its ledger.
type Service interface {
	Initiate(ctx context.Context, buyerID, orderID uuid.UUID, method enums.PaymentMethod) (*models.Transaction, error)
	Confirm(ctx context.Context, actor Actor, transactionID uuid.UUID, reference string) (*ConfirmResult, error)
	Settle(ctx context.Context, actor Actor, transactionID uuid.UUID) (*models.Transaction, error)
	Fail(ctx context.Context, actor Actor, transactionID uuid.UUID, reason string) (*models.Transaction, error)
	Refund(ctx context.Context, buyerID, transactionID uuid.UUID, reason string) (*models.Transaction, error)
	GetDetails(ctx context.Context, transactionID, requesterID uuid.UUID, isAdmin bool) (*models.Transaction, error)
	ListLedger(ctx context.Context, transactionID uuid.UUID) ([]models.LedgerEntry, error)
}

type service struct {
	repo     Repository
	orders   orders.Repository
	ledger   ledger.Service
	tx       txRunner
	notifier notifications.Dispatcher
	trail    audit.Trail
	metrics  *metrics.CommerceMetrics
	now      func() time.Time
}

// NewService builds the payment service. metrics may be nil.
func NewService(
	repo Repository,
	orderRepo orders.Repository,
	ledgerSvc ledger.Service,
	tx txRunner,
	notifier notifications.Dispatcher,
	trail audit.Trail,
	m *metrics.CommerceMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if trail == nil {
		return nil, fmt.Errorf("audit trail required")
	}
	return &service{
		repo:     repo,
		orders:   orderRepo,
		ledger:   ledgerSvc,
		tx:       tx,
		notifier: notifier,
		trail:    trail,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Initiate(ctx context.Context, buyerID, orderID uuid.UUID, method enums.PaymentMethod) (txn *models.Transaction, err error) {
	defer s.observe("payments.initiate", time.Now(), &err)

	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.BuyerID != buyerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeOrderNotEligible, "order is not awaiting payment").
				WithDetails(map[string]any{"status": order.Status})
		}

		repo := s.repo.WithTx(tx)
		live, err := repo.HasLiveForOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check live transactions")
		}
		if live {
			return notEligibleAlreadyPaying()
		}

		txn = &models.Transaction{
			OrderID:       order.ID,
			BuyerID:       order.BuyerID,
			SellerID:      order.SellerID,
			Amount:        order.TotalPrice,
			PaymentMethod: method,
			Status:        enums.TransactionStatusInitiated,
		}
		if err := repo.Create(ctx, txn); err != nil {
			if db.IsUniqueViolation(err, liveOrderIndex) {
				return notEligibleAlreadyPaying()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err, "initiate payment")
	}

	s.metrics.Transition(metrics.AggregateTransaction, "", string(enums.TransactionStatusInitiated))
	s.notifier.NotifyUser(ctx, txn.SellerID, enums.NotificationPaymentInitiated, transactionPayload(txn))
	s.trail.Record(ctx, audit.Entry{
		ActorID:     buyerID,
		ActorRole:   enums.ActorRoleBuyer,
		ActionType:  audit.ActionTransactionInitiate,
		Description: "payment initiated",
		TableName:   "transactions",
		RecordID:    txn.ID,
		NewValues:   map[string]any{"status": txn.Status},
		Metadata: map[string]any{
			"order_id":       txn.OrderID.String(),
			"payment_method": txn.PaymentMethod,
			"amount":         txn.Amount.StringFixed(2),
		},
	})
	return txn, nil
}

// Confirm binds reference to the transaction and moves it to confirmed exactly
// once. Repeating the call with the same reference after it was applied
// returns the stored record without side effects.
func (s *service) Confirm(ctx context.Context, actor Actor, transactionID uuid.UUID, reference string) (result *ConfirmResult, err error) {
	defer s.observe("payments.confirm", time.Now(), &err)

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}

	result = &ConfirmResult{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := loadTransaction(ctx, repo, transactionID)
		if err != nil {
			return err
		}
		if current.BuyerID != actor.ID && !actor.privileged() {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to confirm this payment")
		}
		if isReplay(current, reference) {
			result.Transaction, result.Replayed = current, true
			return nil
		}

		other, err := repo.FindByReference(ctx, reference)
		switch {
		case err == nil && other.ID != current.ID:
			return duplicateReference()
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check payment reference")
		}
		if current.Status != enums.TransactionStatusInitiated {
			return invalidTransition(current.Status, enums.TransactionStatusConfirmed)
		}

		applied, err := repo.CompareAndSetStatus(ctx, current.ID, enums.TransactionStatusInitiated, map[string]any{
			"status":            enums.TransactionStatusConfirmed,
			"payment_reference": reference,
			"confirmed_at":      s.now(),
		})
		if err != nil {
			if db.IsUniqueViolation(err, referenceIndex) {
				return duplicateReference()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm transaction")
		}
		if !applied {
			// Lost the race; the winner may have applied this very reference.
			latest, err := loadTransaction(ctx, repo, transactionID)
			if err != nil {
				return err
			}
			if isReplay(latest, reference) {
				result.Transaction, result.Replayed = latest, true
				return nil
			}
			return invalidTransition(latest.Status, enums.TransactionStatusConfirmed)
		}

		if _, err := s.ledger.WithTx(tx).RecordEntry(ctx, ledger.EntryFor(current, enums.LedgerEntryPaymentConfirmed, actor.ID, map[string]any{
			"payment_reference": reference,
		})); err != nil {
			return asServiceError(err, "record ledger entry")
		}
		result.Transaction, err = loadTransaction(ctx, repo, transactionID)
		return err
	})
	if err != nil {
		return nil, asServiceError(err, "confirm payment")
	}

	if result.Replayed {
		s.metrics.ConfirmReplayed()
		return result, nil
	}

	txn := result.Transaction
	s.metrics.Transition(metrics.AggregateTransaction, string(enums.TransactionStatusInitiated), string(txn.Status))
	payload := transactionPayload(txn)
	s.notifier.NotifyUser(ctx, txn.BuyerID, enums.NotificationPaymentConfirmed, payload)
	s.notifier.NotifyUser(ctx, txn.SellerID, enums.NotificationPaymentConfirmed, payload)
	s.trail.Record(ctx, audit.Entry{
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		ActionType:  audit.ActionTransactionConfirm,
		Description: "payment confirmed",
		TableName:   "transactions",
		RecordID:    txn.ID,
		OldValues:   map[string]any{"status": enums.TransactionStatusInitiated},
		NewValues:   map[string]any{"status": txn.Status},
		Metadata:    map[string]any{"payment_reference": reference},
	})
	return result, nil
}

func (s *service) Settle(ctx context.Context, actor Actor, transactionID uuid.UUID) (txn *models.Transaction, err error) {
	defer s.observe("payments.settle", time.Now(), &err)

	if !actor.privileged() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "settlement requires an administrator")
	}
	txn, err = s.transition(ctx, transitionSpec{
		id:      transactionID,
		to:      enums.TransactionStatusSettled,
		from:    []enums.TransactionStatus{enums.TransactionStatusConfirmed},
		actor:   actor,
		updates: map[string]any{"settled_at": s.now()},
		entry:   enums.LedgerEntryPaymentSettled,
		guard:   s.requireActiveOrder,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, txn.SellerID, enums.NotificationPaymentSettled, transactionPayload(txn))
	s.trail.Record(ctx, audit.Entry{
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		ActionType:  audit.ActionTransactionSettle,
		Description: "payment settled",
		TableName:   "transactions",
		RecordID:    txn.ID,
		OldValues:   map[string]any{"status": enums.TransactionStatusConfirmed},
		NewValues:   map[string]any{"status": txn.Status},
		Metadata:    map[string]any{"amount": txn.Amount.StringFixed(2)},
	})
	return txn, nil
}

func (s *service) Fail(ctx context.Context, actor Actor, transactionID uuid.UUID, reason string) (txn *models.Transaction, err error) {
	defer s.observe("payments.fail", time.Now(), &err)

	if !actor.privileged() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the payment processor may fail a payment")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "payment failed"
	}
	var previous enums.TransactionStatus
	txn, err = s.transition(ctx, transitionSpec{
		id:      transactionID,
		to:      enums.TransactionStatusFailed,
		from:    []enums.TransactionStatus{enums.TransactionStatusInitiated, enums.TransactionStatusConfirmed},
		actor:   actor,
		updates: map[string]any{"failure_reason": reason, "failed_at": s.now()},
		// Funds were applied on confirm; the failure takes them back out.
		entryFrom: map[enums.TransactionStatus]enums.LedgerEntryType{
			enums.TransactionStatusConfirmed: enums.LedgerEntryPaymentReversed,
		},
		metadata: map[string]any{"reason": reason},
		previous: &previous,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, txn.BuyerID, enums.NotificationPaymentFailed, transactionPayload(txn))
	s.trail.Record(ctx, audit.Entry{
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		ActionType:  audit.ActionTransactionFail,
		Description: "payment failed",
		TableName:   "transactions",
		RecordID:    txn.ID,
		OldValues:   map[string]any{"status": previous},
		NewValues:   map[string]any{"status": txn.Status},
		Metadata:    map[string]any{"reason": reason},
	})
	return txn, nil
}

func (s *service) Refund(ctx context.Context, buyerID, transactionID uuid.UUID, reason string) (txn *models.Transaction, err error) {
	defer s.observe("payments.refund", time.Now(), &err)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason required")
	}
	var previous enums.TransactionStatus
	txn, err = s.transition(ctx, transitionSpec{
		id:   transactionID,
		to:   enums.TransactionStatusRefunded,
		from: []enums.TransactionStatus{enums.TransactionStatusConfirmed, enums.TransactionStatusSettled},
		actor: Actor{
			ID:   buyerID,
			Role: enums.ActorRoleBuyer,
		},
		buyerOnly: true,
		updates:   map[string]any{"refund_reason": reason, "refunded_at": s.now()},
		entry:     enums.LedgerEntryPaymentRefunded,
		metadata:  map[string]any{"reason": reason},
		previous:  &previous,
	})
	if err != nil {
		return nil, err
	}

	payload := transactionPayload(txn)
	payload["reason"] = reason
	s.notifier.NotifyUser(ctx, txn.BuyerID, enums.NotificationPaymentRefunded, payload)
	s.notifier.NotifyUser(ctx, txn.SellerID, enums.NotificationPaymentRefunded, payload)
	s.trail.Record(ctx, audit.Entry{
		ActorID:     buyerID,
		ActorRole:   enums.ActorRoleBuyer,
		ActionType:  audit.ActionTransactionRefund,
		Description: "payment refunded",
		TableName:   "transactions",
		RecordID:    txn.ID,
		OldValues:   map[string]any{"status": previous},
		NewValues:   map[string]any{"status": txn.Status},
		Metadata:    map[string]any{"reason": reason, "amount": txn.Amount.StringFixed(2)},
	})
	return txn, nil
}

func (s *service) GetDetails(ctx context.Context, transactionID, requesterID uuid.UUID, isAdmin bool) (*models.Transaction, error) {
	txn, err := loadTransaction(ctx, s.repo, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.BuyerID != requesterID && !isAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this transaction")
	}
	return txn, nil
}

func (s *service) ListLedger(ctx context.Context, transactionID uuid.UUID) ([]models.LedgerEntry, error) {
	if _, err := loadTransaction(ctx, s.repo, transactionID); err != nil {
		return nil, err
	}
	entries, err := s.ledger.ListForTransaction(ctx, transactionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	return entries, nil
}

type transitionSpec struct {
	id        uuid.UUID
	to        enums.TransactionStatus
	from      []enums.TransactionStatus
	actor     Actor
	buyerOnly bool
	updates   map[string]any
	entry     enums.LedgerEntryType
	entryFrom map[enums.TransactionStatus]enums.LedgerEntryType
	metadata  map[string]any
	previous  *enums.TransactionStatus
	// guard runs inside the DB transaction after the status and ownership checks.
	guard func(ctx context.Context, tx *gorm.DB, current *models.Transaction) error
}

// transition moves a transaction along one edge with a compare-and-swap on
// its current status, writing the ledger entry for the edge in the same DB
// transaction. The status check runs before the ownership check.
func (s *service) transition(ctx context.Context, move transitionSpec) (*models.Transaction, error) {
	var (
		out  *models.Transaction
		from enums.TransactionStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := loadTransaction(ctx, repo, move.id)
		if err != nil {
			return err
		}
		if !statusIn(current.Status, move.from) {
			return invalidTransition(current.Status, move.to)
		}
		if move.buyerOnly && current.BuyerID != move.actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer may perform this action")
		}
		if move.guard != nil {
			if err := move.guard(ctx, tx, current); err != nil {
				return err
			}
		}

		updates := map[string]any{"status": move.to}
		for key, value := range move.updates {
			updates[key] = value
		}
		applied, err := repo.CompareAndSetStatus(ctx, current.ID, current.Status, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transaction status")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "transaction status changed concurrently").
				WithDetails(map[string]any{"from": current.Status, "to": move.to})
		}

		entry := move.entry
		if entry == "" {
			entry = move.entryFrom[current.Status]
		}
		if entry != "" {
			input := ledger.EntryFor(current, entry, move.actor.ID, move.metadata)
			if _, err := s.ledger.WithTx(tx).RecordEntry(ctx, input); err != nil {
				return asServiceError(err, "record ledger entry")
			}
		}
		from = current.Status
		out, err = loadTransaction(ctx, repo, move.id)
		return err
	})
	if err != nil {
		return nil, asServiceError(err, "update transaction")
	}
	if move.previous != nil {
		*move.previous = from
	}
	s.metrics.Transition(metrics.AggregateTransaction, string(from), string(out.Status))
	return out, nil
}

// requireActiveOrder locks the paid order and refuses when it was cancelled,
// rejected or otherwise deactivated.
func (s *service) requireActiveOrder(ctx context.Context, tx *gorm.DB, current *models.Transaction) error {
	order, err := s.orders.WithTx(tx).FindByIDForUpdate(ctx, current.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !order.IsActive || order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusRejected {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is no longer active").
			WithDetails(map[string]any{"order_id": order.ID, "order_status": order.Status})
	}
	return nil
}

func (s *service) observe(operation string, start time.Time, errp *error) {
	s.metrics.ObserveDuration(operation, time.Since(start))
	if typed := pkgerrors.As(*errp); typed != nil {
		s.metrics.Rejected(operation, string(typed.Code()))
	}
}

func isReplay(txn *models.Transaction, reference string) bool {
	return txn.Status.HasConfirmed() && txn.Reference() == reference
}

func statusIn(status enums.TransactionStatus, allowed []enums.TransactionStatus) bool {
	for _, candidate := range allowed {
		if candidate == status {
			return true
		}
	}
	return false
}

func loadTransaction(ctx context.Context, repo Repository, id uuid.UUID) (*models.Transaction, error) {
	txn, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return txn, nil
}

func transactionPayload(txn *models.Transaction) map[string]any {
	payload := map[string]any{
		"transaction_id": txn.ID.String(),
		"order_id":       txn.OrderID.String(),
		"amount":         txn.Amount.StringFixed(2),
		"payment_method": txn.PaymentMethod,
		"status":         txn.Status,
	}
	if ref := txn.Reference(); ref != "" {
		payload["payment_reference"] = ref
	}
	return payload
}

func notEligibleAlreadyPaying() error {
	return pkgerrors.New(pkgerrors.CodeOrderNotEligible, "order already has a payment in progress")
}

func duplicateReference() error {
	return pkgerrors.New(pkgerrors.CodeDuplicateReference, "payment reference already used by another transaction")
}

func invalidTransition(from, to enums.TransactionStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "transaction status transition not allowed").
		WithDetails(map[string]any{"from": from, "to": to})
}

func asServiceError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
