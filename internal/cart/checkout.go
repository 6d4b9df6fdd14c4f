package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/harvestlink-backend/internal/audit"
	"github.com/angelmondragon/harvestlink-backend/internal/orders"
	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/harvestlink-backend/pkg/errors"
)

// Checkout turns every line of the buyer's active cart into an order and then
// closes the cart. A line is claimed (deleted under the cart lock) before its
// order is placed, so concurrent checkouts never order the same line twice.
// When an order fails its line is put back and the orders already created are
// returned with the error; the cart stays open with the remaining lines.
func (s *service) Checkout(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (result *CheckoutResult, err error) {
	defer s.observe("cart.checkout", time.Now(), &err)

	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	cart, err := s.findActiveCart(ctx, s.repo, buyerID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	result = &CheckoutResult{Orders: make([]models.Order, 0, len(cart.Items))}
	placed := make([]models.CartItem, 0, len(cart.Items))
	defer func() { result.Totals = ComputeTotals(placed, s.fees) }()

	for _, item := range cart.Items {
		claimed, err := s.claimLine(ctx, cart.ID, item.ID)
		if err != nil {
			return result, err
		}
		if !claimed {
			continue
		}
		order, err := s.placer.Create(ctx, buyerID, orders.CreateInput{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			DeliveryAddress: input.DeliveryAddress,
			DeliveryDate:    input.DeliveryDate,
			PaymentMethod:   input.PaymentMethod,
			Notes:           input.Notes,
		})
		if err != nil {
			if restoreErr := s.restoreLine(ctx, item); restoreErr != nil {
				return result, restoreErr
			}
			if typed := pkgerrors.As(err); typed != nil && typed.Details() == nil {
				typed.WithDetails(map[string]any{
					"product_id":     item.ProductID.String(),
					"orders_created": len(result.Orders),
				})
			}
			return result, err
		}
		result.Orders = append(result.Orders, *order)
		placed = append(placed, item)
	}
	if len(result.Orders) == 0 {
		return result, pkgerrors.New(pkgerrors.CodeConflict, "cart was checked out concurrently")
	}

	closed, err := s.closeCart(ctx, cart.ID, true)
	if err != nil {
		return result, err
	}

	orderIDs := make([]string, 0, len(result.Orders))
	for _, order := range result.Orders {
		orderIDs = append(orderIDs, order.ID.String())
	}
	status := enums.CartStatusActive
	if closed {
		status = enums.CartStatusClosed
	}
	s.notifier.NotifyUser(ctx, buyerID, enums.NotificationCartUpdated, map[string]any{
		"cart_id": cart.ID.String(),
		"status":  status,
		"orders":  orderIDs,
	})
	s.trail.Record(ctx, audit.Entry{
		ActorID:     buyerID,
		ActorRole:   enums.ActorRoleBuyer,
		ActionType:  audit.ActionCartCheckout,
		Description: "cart checked out",
		TableName:   "carts",
		RecordID:    cart.ID,
		OldValues:   map[string]any{"status": enums.CartStatusActive},
		NewValues:   map[string]any{"status": status},
		Metadata: map[string]any{
			"order_ids": orderIDs,
			"subtotal":  ComputeTotals(placed, s.fees).Subtotal.StringFixed(2),
		},
	})
	return result, nil
}

// claimLine removes a line from the still-active cart and reports whether this
// caller removed it.
func (s *service) claimLine(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	var claimed bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockActive(ctx, cartID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				claimed = false
				return nil
			}
			return err
		}
		var err error
		claimed, err = repo.DeleteItem(ctx, cartID, itemID)
		return err
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim cart item")
	}
	return claimed, nil
}

// restoreLine puts a claimed line back with its original id, quantity and
// locked price. A closed cart, or a line re-added meanwhile, is left as is.
func (s *service) restoreLine(ctx context.Context, item models.CartItem) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockActive(ctx, item.CartID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		line := item
		_, err := repo.InsertItem(ctx, &line)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore cart item")
	}
	return nil
}
