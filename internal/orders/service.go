package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/harvestlink-backend/internal/audit"
	"github.com/angelmondragon/harvestlink-backend/internal/catalog"
	"github.com/angelmondragon/harvestlink-backend/internal/notifications"
	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/harvestlink-backend/pkg/errors"
	"github.com/angelmondragon/harvestlink-backend/pkg/metrics"
	"github.com/angelmondragon/harvestlink-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the order status state machine.
type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, input CreateInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, sellerID, orderID uuid.UUID, status enums.OrderStatus, rejectionReason *string) (*models.Order, error)
	Cancel(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error)
	GetDetails(ctx context.Context, requesterID, orderID uuid.UUID, role enums.ActorRole) (*models.Order, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, params ListParams) (*ListResult, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, params ListParams) (*ListResult, error)
	// ExpirePending cancels up to limit pending orders created before cutoff
	// that no payment is in flight for, and reports how many it expired.
	ExpirePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type service struct {
	repo     Repository
	catalog  catalog.Catalog
	tx       txRunner
	notifier notifications.Dispatcher
	trail    audit.Trail
	metrics  *metrics.CommerceMetrics
}

// NewService builds the order service. metrics may be nil.
func NewService(
	repo Repository,
	products catalog.Catalog,
	tx txRunner,
	notifier notifications.Dispatcher,
	trail audit.Trail,
	m *metrics.CommerceMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
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
		catalog:  products,
		tx:       tx,
		notifier: notifier,
		trail:    trail,
		metrics:  m,
	}, nil
}

func (s *service) Create(ctx context.Context, buyerID uuid.UUID, input CreateInput) (order *models.Order, err error) {
	defer s.observe("orders.create", time.Now(), &err)

	if err := validateCreate(input); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.catalog.WithTx(tx)
		product, err := catalog.LoadSellableForUpdate(ctx, products, input.ProductID)
		if err != nil {
			return err
		}
		if product.SellerID == buyerID {
			return pkgerrors.New(pkgerrors.CodeSelfTrade, "cannot order your own product")
		}
		if err := catalog.EnsureStock(product, input.Quantity); err != nil {
			return err
		}
		if err := products.ReserveStock(ctx, product.ID, input.Quantity); err != nil {
			return err
		}

		order = &models.Order{
			BuyerID:         buyerID,
			SellerID:        product.SellerID,
			ProductID:       product.ID,
			Quantity:        input.Quantity,
			UnitPrice:       product.Price,
			TotalPrice:      product.Price.Mul(decimal.NewFromInt(int64(input.Quantity))),
			Status:          enums.OrderStatusPending,
			DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
			DeliveryDate:    input.DeliveryDate,
			PaymentMethod:   input.PaymentMethod,
			Notes:           input.Notes,
			IsActive:        true,
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err, "create order")
	}

	s.metrics.Transition(metrics.AggregateOrder, "", string(enums.OrderStatusPending))
	payload := orderPayload(order)
	s.notifier.Broadcast(ctx, enums.NotificationOrderCreated, payload)
	s.notifier.NotifyUser(ctx, order.SellerID, enums.NotificationNewOrder, payload)
	s.trail.Record(ctx, audit.Entry{
		ActorID:     buyerID,
		ActorRole:   enums.ActorRoleBuyer,
		ActionType:  audit.ActionOrderCreate,
		Description: "order placed",
		TableName:   "orders",
		RecordID:    order.ID,
		NewValues: map[string]any{
			"status":      order.Status,
			"quantity":    order.Quantity,
			"total_price": order.TotalPrice.StringFixed(2),
		},
	})
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, sellerID, orderID uuid.UUID, status enums.OrderStatus, rejectionReason *string) (order *models.Order, err error) {
	defer s.observe("orders.update_status", time.Now(), &err)

	var previous enums.OrderStatus
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := lockOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if current.SellerID != sellerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !CanSellerTransition(current.Status, status) {
			return invalidTransition(current.Status, status)
		}

		updates := map[string]any{"status": status, "rejection_reason": nil}
		if status == enums.OrderStatusRejected {
			if trimmed(rejectionReason) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required when rejecting an order")
			}
			if err := ensureUnpaid(ctx, repo, current, status); err != nil {
				return err
			}
			updates["rejection_reason"] = *rejectionReason
			updates["is_active"] = false
		}

		if err := s.applyTransition(ctx, tx, current, updates); err != nil {
			return err
		}
		previous = current.Status
		order, err = loadOrder(ctx, repo, orderID)
		return err
	})
	if err != nil {
		return nil, asServiceError(err, "update order status")
	}

	s.metrics.Transition(metrics.AggregateOrder, string(previous), string(order.Status))
	payload := orderPayload(order)
	payload["previous_status"] = previous
	s.notifier.Broadcast(ctx, enums.NotificationOrderStatusChanged, payload)
	s.notifier.NotifyUser(ctx, order.BuyerID, enums.NotificationOrderStatusChanged, payload)
	entry := audit.Entry{
		ActorID:     sellerID,
		ActorRole:   enums.ActorRoleSeller,
		ActionType:  audit.ActionOrderStatusUpdate,
		Description: fmt.Sprintf("order moved from %s to %s", previous, order.Status),
		TableName:   "orders",
		RecordID:    order.ID,
		OldValues:   map[string]any{"status": previous},
		NewValues:   map[string]any{"status": order.Status},
	}
	if order.RejectionReason != nil {
		entry.NewValues["rejection_reason"] = *order.RejectionReason
	}
	s.trail.Record(ctx, entry)
	return order, nil
}

func (s *service) Cancel(ctx context.Context, buyerID, orderID uuid.UUID) (order *models.Order, err error) {
	defer s.observe("orders.cancel", time.Now(), &err)

	var previous enums.OrderStatus
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := lockOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if current.BuyerID != buyerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !CanBuyerCancel(current.Status) {
			return invalidTransition(current.Status, enums.OrderStatusCancelled)
		}
		if err := ensureUnpaid(ctx, repo, current, enums.OrderStatusCancelled); err != nil {
			return err
		}
		updates := map[string]any{"status": enums.OrderStatusCancelled, "is_active": false}
		if err := s.applyTransition(ctx, tx, current, updates); err != nil {
			return err
		}
		previous = current.Status
		order, err = loadOrder(ctx, repo, orderID)
		return err
	})
	if err != nil {
		return nil, asServiceError(err, "cancel order")
	}

	s.metrics.Transition(metrics.AggregateOrder, string(previous), string(order.Status))
	s.notifier.NotifyUser(ctx, order.SellerID, enums.NotificationOrderCancelled, orderPayload(order))
	s.trail.Record(ctx, audit.Entry{
		ActorID:     buyerID,
		ActorRole:   enums.ActorRoleBuyer,
		ActionType:  audit.ActionOrderCancel,
		Description: "order cancelled by buyer",
		TableName:   "orders",
		RecordID:    order.ID,
		OldValues:   map[string]any{"status": previous},
		NewValues:   map[string]any{"status": order.Status},
	})
	return order, nil
}

func (s *service) GetDetails(ctx context.Context, requesterID, orderID uuid.UUID, role enums.ActorRole) (*models.Order, error) {
	order, err := loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != requesterID && order.SellerID != requesterID && !role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this order")
	}
	return order, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params ListParams) (*ListResult, error) {
	return s.list(ctx, listParams{BuyerID: buyerID}, params)
}

func (s *service) ListForSeller(ctx context.Context, sellerID uuid.UUID, params ListParams) (*ListResult, error) {
	return s.list(ctx, listParams{SellerID: sellerID}, params)
}

func (s *service) list(ctx context.Context, scope listParams, params ListParams) (*ListResult, error) {
	if params.Status != "" && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	scope.Status = params.Status
	scope.Limit = params.Limit
	scope.Cursor = cursor

	rows, next, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	if rows == nil {
		rows = []models.Order{}
	}
	return &ListResult{Orders: rows, NextCursor: pagination.EncodeNext(next)}, nil
}

func (s *service) ExpirePending(ctx context.Context, cutoff time.Time, limit int) (expired int, err error) {
	defer s.observe("orders.expire_pending", time.Now(), &err)

	candidates, err := s.repo.ListExpirable(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expirable orders")
	}

	var errs error
	for i := range candidates {
		order, expireErr := s.expireOne(ctx, &candidates[i])
		if expireErr != nil {
			// A concurrent accept or cancel wins over expiry.
			if typed := pkgerrors.As(expireErr); typed != nil && typed.Code() == pkgerrors.CodeInvalidTransition {
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", candidates[i].ID, expireErr))
			continue
		}
		expired++

		s.metrics.Transition(metrics.AggregateOrder, string(enums.OrderStatusPending), string(order.Status))
		payload := orderPayload(order)
		payload["reason"] = "expired"
		s.notifier.NotifyUser(ctx, order.BuyerID, enums.NotificationOrderCancelled, payload)
		s.notifier.NotifyUser(ctx, order.SellerID, enums.NotificationOrderCancelled, payload)
		s.trail.Record(ctx, audit.Entry{
			ActorRole:   enums.ActorRoleSystem,
			ActionType:  audit.ActionOrderExpire,
			Description: "pending order expired",
			TableName:   "orders",
			RecordID:    order.ID,
			OldValues:   map[string]any{"status": enums.OrderStatusPending},
			NewValues:   map[string]any{"status": order.Status},
		})
	}
	if errs != nil {
		return expired, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "expire pending orders")
	}
	return expired, nil
}

func (s *service) expireOne(ctx context.Context, candidate *models.Order) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDForUpdate(ctx, candidate.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
		}
		if current.Status != enums.OrderStatusPending {
			return invalidTransition(current.Status, enums.OrderStatusCancelled)
		}
		if err := ensureUnpaid(ctx, repo, current, enums.OrderStatusCancelled); err != nil {
			return err
		}
		updates := map[string]any{"status": enums.OrderStatusCancelled, "is_active": false}
		if err := s.applyTransition(ctx, tx, current, updates); err != nil {
			return err
		}
		order, err = loadOrder(ctx, repo, current.ID)
		return err
	})
	return order, err
}

// applyTransition writes updates guarded by the order's current status and
// returns stock to the catalog when the new status ends the order early.
func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, current *models.Order, updates map[string]any) error {
	applied, err := s.repo.WithTx(tx).CompareAndSetStatus(ctx, current.ID, current.Status, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !applied {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status changed concurrently").
			WithDetails(map[string]any{"from": current.Status})
	}
	next, _ := updates["status"].(enums.OrderStatus)
	if releasesStock(next) {
		return s.catalog.WithTx(tx).ReleaseStock(ctx, current.ProductID, current.Quantity)
	}
	return nil
}

func (s *service) observe(operation string, start time.Time, errp *error) {
	s.metrics.ObserveDuration(operation, time.Since(start))
	if typed := pkgerrors.As(*errp); typed != nil {
		s.metrics.Rejected(operation, string(typed.Code()))
	}
}

func validateCreate(input CreateInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	return nil
}

func loadOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// lockOrder loads the order row for update so status changes serialize with
// payment initiation on the same order.
func lockOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order")
	}
	return order, nil
}

// ensureUnpaid refuses to end an order while a transaction against it is
// initiated, confirmed or settled.
func ensureUnpaid(ctx context.Context, repo Repository, current *models.Order, to enums.OrderStatus) error {
	live, err := repo.HasLivePayment(ctx, current.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check live payment")
	}
	if live {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order has a live payment").
			WithDetails(map[string]any{"from": current.Status, "to": to, "live_payment": true})
	}
	return nil
}

func invalidTransition(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status transition not allowed").
		WithDetails(map[string]any{"from": from, "to": to})
}

func asServiceError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
