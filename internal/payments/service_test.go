package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/harvestlink-backend/internal/audit"
	"github.com/angelmondragon/harvestlink-backend/internal/catalog"
	"github.com/angelmondragon/harvestlink-backend/internal/ledger"
	"github.com/angelmondragon/harvestlink-backend/internal/notifications"
	"github.com/angelmondragon/harvestlink-backend/internal/orders"
	"github.com/angelmondragon/harvestlink-backend/pkg/db"
	"github.com/angelmondragon/harvestlink-backend/pkg/db/dbtest"
	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/harvestlink-backend/pkg/errors"
	"github.com/angelmondragon/harvestlink-backend/pkg/metrics"
)

var admin = Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin}

type fixture struct {
	conn     *gorm.DB
	svc      Service
	orders   orders.Service
	notifier *notifications.Recorder
	trail    *audit.Recorder
	sellerID uuid.UUID
	buyerID  uuid.UUID
	product  *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	return newFixtureWithRepo(t, conn, NewRepository(conn))
}

func newFixtureWithRepo(t *testing.T, conn *gorm.DB, repo Repository) *fixture {
	t.Helper()
	tx := db.FromConn(conn)
	orderRepo := orders.NewRepository(conn)
	orderSvc, err := orders.NewService(orderRepo, catalog.NewRepository(conn), tx, notifications.Noop{}, audit.Noop{}, nil)
	require.NoError(t, err)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)

	notifier := &notifications.Recorder{}
	trail := &audit.Recorder{}
	svc, err := NewService(repo, orderRepo, ledgerSvc, tx, notifier, trail, metrics.NewCommerceMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)

	sellerID := uuid.New()
	return &fixture{
		conn:     conn,
		svc:      svc,
		orders:   orderSvc,
		notifier: notifier,
		trail:    trail,
		sellerID: sellerID,
		buyerID:  uuid.New(),
		product:  dbtest.SeedProduct(t, conn, sellerID, "1000", 50),
	}
}

func (f *fixture) order(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.orders.Create(context.Background(), f.buyerID, orders.CreateInput{
		ProductID:       f.product.ID,
		Quantity:        2,
		DeliveryAddress: "Techiman Central Market",
		PaymentMethod:   enums.PaymentMethodMTN,
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) buyer() Actor {
	return Actor{ID: f.buyerID, Role: enums.ActorRoleBuyer}
}

func (f *fixture) ledgerEntries(t *testing.T, txnID uuid.UUID) []models.LedgerEntry {
	t.Helper()
	entries, err := f.svc.ListLedger(context.Background(), txnID)
	require.NoError(t, err)
	return entries
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *models.Transaction {
	t.Helper()
	var txn models.Transaction
	require.NoError(t, f.conn.Where("id = ?", id).First(&txn).Error)
	return &txn
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestInitiateConfirmIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t)
	require.Equal(t, "2000.00", order.TotalPrice.StringFixed(2))

	txn, err := f.svc.Initiate(ctx, f.buyerID, order.ID, enums.PaymentMethodMTN)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusInitiated, txn.Status)
	assert.Equal(t, "2000.00", txn.Amount.StringFixed(2))
	assert.Nil(t, txn.PaymentReference)
	require.Len(t, f.notifier.Sent(enums.NotificationPaymentInitiated, &f.sellerID), 1)
	initiated := f.trail.Entries(audit.ActionTransactionInitiate)
	require.Len(t, initiated, 1)
	assert.Equal(t, "2000.00", initiated[0].Metadata["amount"])
	assert.Equal(t, enums.PaymentMethodMTN, initiated[0].Metadata["payment_method"])

	first, err := f.svc.Confirm(ctx, f.buyer(), txn.ID, "R1")
	require.NoError(t, err)
	assert.False(t, first.Replayed)
	assert.Equal(t, enums.TransactionStatusConfirmed, first.Transaction.Status)
	assert.Equal(t, "R1", first.Transaction.Reference())
	assert.NotNil(t, first.Transaction.ConfirmedAt)

	second, err := f.svc.Confirm(ctx, f.buyer(), txn.ID, "R1")
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, enums.TransactionStatusConfirmed, second.Transaction.Status)
	assert.Equal(t, first.Transaction.ConfirmedAt.UTC(), second.Transaction.ConfirmedAt.UTC())

	assert.Len(t, f.ledgerEntries(t, txn.ID), 1)
	assert.Len(t, f.trail.Entries(audit.ActionTransactionConfirm), 1)
	assert.Len(t, f.notifier.Sent(enums.NotificationPaymentConfirmed, &f.buyerID), 1)
	assert.Len(t, f.notifier.Sent(enums.NotificationPaymentConfirmed, &f.sellerID), 1)
	assert.Equal(t, "2000.00", f.reload(t, txn.ID).Amount.StringFixed(2))

	_, err = f.svc.Initiate(ctx, f.buyerID, order.ID, enums.PaymentMethodVodafone)
	requireCode(t, err, pkgerrors.CodeOrderNotEligible)
}

func TestConfirmRejectsReferenceOfAnotherTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Initiate(ctx, f.buyerID, f.order(t).ID, enums.PaymentMethodMTN)
	require.NoError(t, err)
	second, err := f.svc.Initiate(ctx, f.buyerID, f.order(t).ID, enums.PaymentMethodMTN)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, f.buyer(), first.ID, "R1")
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, f.buyer(), second.ID, "R1")
	requireCode(t, err, pkgerrors.CodeDuplicateReference)

	assert.Equal(t, enums.TransactionStatusInitiated, f.reload(t, second.ID).Status)
	assert.Nil(t, f.reload(t, second.ID).PaymentReference)
	assert.Equal(t, enums.TransactionStatusConfirmed, f.reload(t, first.ID).Status)
	assert.Equal(t, "R1", f.reload(t, first.ID).Reference())
	assert.Empty(t, f.ledgerEntries(t, second.ID))
}

type blindReferenceRepo struct {
	Repository
}

func (r blindReferenceRepo) WithTx(tx *gorm.DB) Repository {
	return blindReferenceRepo{Repository: r.Repository.WithTx(tx)}
}

func (r blindReferenceRepo) FindByReference(context.Context, string) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestConfirmReferenceIndexBacksPreCheck(t *testing.T) {
	conn := dbtest.Open(t)
	f := newFixtureWithRepo(t, conn, blindReferenceRepo{Repository: NewRepository(conn)})
	ctx := context.Background()

	first, err := f.svc.Initiate(ctx, f.buyerID, f.order(t).ID, enums.PaymentMethodMTN)
	require.NoError(t, err)
	second, err := f.svc.Initiate(ctx, f.buyerID, f.order(t).ID, enums.PaymentMethodMTN)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, f.buyer(), first.ID, "R9")
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.buyer(), second.ID, "R9")
	requireCode(t, err, pkgerrors.CodeDuplicateReference)
	assert.Equal(t, enums.TransactionStatusInitiated, f.reload(t, second.ID).Status)
}

type blindLiveRepo struct {
	Repository
}

func (r blindLiveRepo) WithTx(tx *gorm.DB) Repository {
	return blindLiveRepo{Repository: r.Repository.WithTx(tx)}
}

func (r blindLiveRepo) HasLiveForOrder(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

func TestInitiateLiveIndexBacksPreCheck(t *testing.T) {
	conn := dbtest.Open(t)
	f := newFixtureWithRepo(t, conn, blindLiveRepo{Repository: NewRepository(conn)})
	ctx := context.Background()
	order := f.order(t)

	_, err := f.svc.Initiate(ctx, f.buyerID, order.ID, enums.PaymentMethodMTN)
	require.NoError(t, err)
	_, err = f.svc.Initiate(ctx, f.buyerID, order.ID, enums.PaymentMethodMTN)
	requireCode(t, err, pkgerrors.CodeOrderNotEligible)

	var count int64
	require.NoError(t, conn.Model(&models.Transaction{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestInitiateEligibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t)

	_, err := f.svc.Initiate(ctx, uuid.New(), order.ID, enums.PaymentMethodMTN)
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.Initiate(ctx, f.buyerID, uuid.New(), enums.PaymentMethodMTN)
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.Initiate(ctx, f.buyerID, order.ID, "crypto")
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.orders.UpdateStatus(ctx, f.sellerID, order.ID, enums.OrderStatusAccepted, nil)
	require.NoError(t, err)
	_, err = f.svc.Initiate(ctx, f.buyerID, order.ID, enums.PaymentMethodMTN)
	requireCode(t, err, pkgerrors.CodeOrderNotEligible)
}

func TestSettleRequiresConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn, err := f.svc.Initiate(ctx, f.buyerID, f.order(t).ID, enums.PaymentMethodBankTransfer)
	require.NoError(t, err)

	_, err = f.svc.Settle(ctx, admin, txn.ID)
	requireCode(t, err, pkgerrors.CodeInvalidTransition)
	assert.Equal(t, enums.TransactionStatusInitiated, f.reload(t, txn.ID).Status)

	_, err = f.svc.Confirm(ctx, f.buyer(), txn.ID, "BT-100")
	require.NoError(t, err)

	_, err = f.svc.Settle(ctx, f.buyer(), txn.ID)
	requireCode(t, err, pkgerrors.CodeForbidden)

	settled, err := f.svc.Settle(ctx, admin, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusSettled, settled.Status)
	assert.NotNil(t, settled.SettledAt)
	assert.Len(t, f.notifier.Sent(enums.NotificationPaymentSettled, &f.sellerID), 1)

	_, err = f.svc.Settle(ctx, admin, txn.ID)
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	replay, err := f.svc.Confirm(ctx, f.buyer(), txn.ID, "BT-100")
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, enums.TransactionStatusSettled, replay.Transaction.Status)

	entries := f.ledgerEntries(t, txn.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, enums.LedgerEntryPaymentSettled, entries[1].Type)
	assert.Equal(t, admin.ID, entries[1].ActorID)
}

func TestRefundSettledTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn, err := f.svc.Initiate(ctx, f.buyerID, f.order(t).ID, enums.PaymentMethodMTN)
	require.NoError(t, err)

	_, err = f.svc.Refund(ctx, f.buyerID, txn.ID, "damaged goods")
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	_, err = f.svc.Confirm(ctx, f.buyer(), txn.ID, "R1")
	require.NoError(t, err)
	_, err = f.svc.Settle(ctx, admin, txn.ID)
	require.NoError(t, err)

	_, err = f.svc.Refund(ctx, f.buyerID, txn.ID, "  ")
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Refund(ctx, f.sellerID, txn.ID, "damaged goods")
	requireCode(t, err, pkgerrors.CodeForbidden)

	refunded, err := f.svc.Refund(ctx, f.buyerID, txn.ID, "damaged goods")
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusRefunded, refunded.Status)
	require.NotNil(t, refunded.RefundReason)
	assert.Equal(t, "damaged goods", *refunded.RefundReason)
	assert.Equal(t, "2000.00", refunded.Amount.StringFixed(2))

	_, err = f.svc.Refund(ctx, f.buyerID, txn.ID, "damaged goods")
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	refunds := f.trail.Entries(audit.ActionTransactionRefund)
	require.Len(t, refunds, 1)
	assert.Equal(t, "damaged goods", refunds[0].Metadata["reason"])
	assert.Equal(t, enums.TransactionStatusSettled, refunds[0].OldValues["status"])
	assert.Len(t, f.notifier.Sent(enums.NotificationPaymentRefunded, &f.buyerID), 1)
	assert.Len(t, f.notifier.Sent(enums.NotificationPaymentRefunded, &f.sellerID), 1)
	assert.Len(t, f.ledgerEntries(t, txn.ID), 3)
}

func TestRefundChecksStatusBeforeOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn, err := f.svc.Initiate(ctx, f.buyerID, f.order(t).ID, enums.PaymentMethodMTN)
	require.NoError(t, err)

	_, err = f.svc.Refund(ctx, uuid.New(), txn.ID, "changed my mind")
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	_, err = f.svc.Refund(ctx, f.buyerID, uuid.New(), "changed my mind")
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestFailFreesTheOrderForANewAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t)
	txn, err := f.svc.Initiate(ctx, f.buyerID, order.ID, enums.PaymentMethodAirtelTigo)
	require.NoError(t, err)

	_, err = f.svc.Fail(ctx, f.buyer(), txn.ID, "declined")
	requireCode(t, err, pkgerrors.CodeForbidden)

	failed, err := f.svc.Fail(ctx, Actor{ID: uuid.New(), Role: enums.ActorRoleSystem}, txn.ID, "declined")
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "declined", *failed.FailureReason)
	assert.Len(t, f.notifier.Sent(enums.NotificationPaymentFailed, &f.buyerID), 1)
	assert.Empty(t, f.ledgerEntries(t, txn.ID))

	_, err = f.svc.Fail(ctx, admin, txn.ID, "")
	requireCode(t, err, pkgerrors.CodeInvalidTransition)
	_, err = f.svc.Confirm(ctx, f.buyer(), txn.ID, "R1")
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	retry, err := f.svc.Initiate(ctx, f.buyerID, order.ID, enums.PaymentMethodMTN)
	require.NoError(t, err)
	assert.NotEqual(t, txn.ID, retry.ID)
}

func TestFailAfterConfirmReversesTheFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t)
	system := Actor{ID: uuid.New(), Role: enums.ActorRoleSystem}

	first, err := f.svc.Initiate(ctx, f.buyerID, order.ID, enums.PaymentMethodMTN)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.buyer(), first.ID, "R1")
	require.NoError(t, err)

	failed, err := f.svc.Fail(ctx, system, first.ID, "chargeback")
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusFailed, failed.Status)

	byType := map[enums.LedgerEntryType]models.LedgerEntry{}
	for _, entry := range f.ledgerEntries(t, first.ID) {
		byType[entry.Type] = entry
	}
	require.Len(t, byType, 2)
	require.Contains(t, byType, enums.LedgerEntryPaymentConfirmed)
	reversal, ok := byType[enums.LedgerEntryPaymentReversed]
	require.True(t, ok)
	assert.Equal(t, "2000.00", reversal.Amount.StringFixed(2))
	assert.Equal(t, system.ID, reversal.ActorID)
	assert.Equal(t, "chargeback", reversal.Metadata["reason"])

	fails := f.trail.Entries(audit.ActionTransactionFail)
	require.Len(t, fails, 1)
	assert.Equal(t, enums.TransactionStatusConfirmed, fails[0].OldValues["status"])

	retry, err := f.svc.Initiate(ctx, f.buyerID, order.ID, enums.PaymentMethodMTN)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.buyer(), retry.ID, "R2")
	require.NoError(t, err)

	net := decimal.Zero
	for _, id := range []uuid.UUID{first.ID, retry.ID} {
		for _, entry := range f.ledgerEntries(t, id) {
			switch entry.Type {
			case enums.LedgerEntryPaymentConfirmed:
				net = net.Add(entry.Amount)
			case enums.LedgerEntryPaymentReversed:
				net = net.Sub(entry.Amount)
			}
		}
	}
	assert.Equal(t, order.TotalPrice.StringFixed(2), net.StringFixed(2))
}

func TestSettleRefusesInactiveOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t)
	txn, err := f.svc.Initiate(ctx, f.buyerID, order.ID, enums.PaymentMethodMTN)
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.buyer(), txn.ID, "R1")
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", order.ID).
		Updates(map[string]any{"status": enums.OrderStatusCancelled, "is_active": false}).Error)

	_, err = f.svc.Settle(ctx, admin, txn.ID)
	requireCode(t, err, pkgerrors.CodeInvalidTransition)
	assert.Equal(t, enums.TransactionStatusConfirmed, f.reload(t, txn.ID).Status)
	assert.Len(t, f.ledgerEntries(t, txn.ID), 1)
	assert.Empty(t, f.notifier.Sent(enums.NotificationPaymentSettled, &f.sellerID))
	assert.Empty(t, f.trail.Entries(audit.ActionTransactionSettle))
}

// racedConfirmRepo commits a confirmation with the same reference inside the
// compare-and-set, then reports the swap as lost, the way a concurrent
// confirm that committed first would look.
type racedConfirmRepo struct {
	Repository
	ledger ledger.Service
	tx     *gorm.DB
}

func (r racedConfirmRepo) WithTx(tx *gorm.DB) Repository {
	return racedConfirmRepo{Repository: r.Repository.WithTx(tx), ledger: r.ledger, tx: tx}
}

func (r racedConfirmRepo) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from enums.TransactionStatus, updates map[string]any) (bool, error) {
	if updates["status"] != enums.TransactionStatusConfirmed {
		return r.Repository.CompareAndSetStatus(ctx, id, from, updates)
	}
	current, err := r.Repository.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	applied, err := r.Repository.CompareAndSetStatus(ctx, id, from, updates)
	if err != nil || !applied {
		return false, err
	}
	_, err = r.ledger.WithTx(r.tx).RecordEntry(ctx, ledger.EntryFor(current, enums.LedgerEntryPaymentConfirmed, current.BuyerID, map[string]any{
		"payment_reference": updates["payment_reference"],
	}))
	return false, err
}

func TestConfirmLosingTheSwapToSameReferenceReplays(t *testing.T) {
	conn := dbtest.Open(t)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	f := newFixtureWithRepo(t, conn, racedConfirmRepo{Repository: NewRepository(conn), ledger: ledgerSvc})
	ctx := context.Background()

	txn, err := f.svc.Initiate(ctx, f.buyerID, f.order(t).ID, enums.PaymentMethodMTN)
	require.NoError(t, err)

	res, err := f.svc.Confirm(ctx, f.buyer(), txn.ID, "R1")
	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Equal(t, enums.TransactionStatusConfirmed, res.Transaction.Status)
	assert.Equal(t, "R1", res.Transaction.Reference())

	assert.Len(t, f.ledgerEntries(t, txn.ID), 1)
	assert.Empty(t, f.trail.Entries(audit.ActionTransactionConfirm))
	assert.Empty(t, f.notifier.Sent(enums.NotificationPaymentConfirmed, &f.buyerID))
	assert.Empty(t, f.notifier.Sent(enums.NotificationPaymentConfirmed, &f.sellerID))
}

func TestConfirmValidationAndAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn, err := f.svc.Initiate(ctx, f.buyerID, f.order(t).ID, enums.PaymentMethodMTN)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, f.buyer(), txn.ID, " ")
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Confirm(ctx, f.buyer(), uuid.New(), "R1")
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.Confirm(ctx, Actor{ID: f.sellerID, Role: enums.ActorRoleSeller}, txn.ID, "R1")
	requireCode(t, err, pkgerrors.CodeForbidden)

	res, err := f.svc.Confirm(ctx, admin, txn.ID, "R1")
	require.NoError(t, err)
	assert.False(t, res.Replayed)

	_, err = f.svc.Confirm(ctx, f.buyer(), txn.ID, "R2")
	requireCode(t, err, pkgerrors.CodeInvalidTransition)
}

func TestGetDetailsAndLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn, err := f.svc.Initiate(ctx, f.buyerID, f.order(t).ID, enums.PaymentMethodMTN)
	require.NoError(t, err)

	got, err := f.svc.GetDetails(ctx, txn.ID, f.buyerID, false)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)

	_, err = f.svc.GetDetails(ctx, txn.ID, uuid.New(), true)
	require.NoError(t, err)

	_, err = f.svc.GetDetails(ctx, txn.ID, f.sellerID, false)
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.GetDetails(ctx, uuid.New(), f.buyerID, false)
	requireCode(t, err, pkgerrors.CodeNotFound)

	assert.Empty(t, f.ledgerEntries(t, txn.ID))
	_, err = f.svc.ListLedger(ctx, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)
}
