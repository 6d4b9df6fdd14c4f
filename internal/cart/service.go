package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/harvestlink-backend/internal/audit"
	"github.com/angelmondragon/harvestlink-backend/internal/catalog"
	"github.com/angelmondragon/harvestlink-backend/internal/notifications"
	"github.com/angelmondragon/harvestlink-backend/internal/orders"
	"github.com/angelmondragon/harvestlink-backend/pkg/db"
	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	"github.com/angelmondragon/harvestlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/harvestlink-backend/pkg/errors"
	"github.com/angelmondragon/harvestlink-backend/pkg/metrics"
)

const activeCartIndex = "ux_carts_active_owner"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderPlacer interface {
	Create(ctx context.Context, buyerID uuid.UUID, input orders.CreateInput) (*models.Order, error)
}

// Service maintains each buyer's single active cart.
type Service interface {
	GetOrCreateCart(ctx context.Context, buyerID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, buyerID, productID uuid.UUID, quantity int) (*CartView, error)
	UpdateItemQuantity(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*CartView, error)
	ClearCart(ctx context.Context, buyerID uuid.UUID) (*CartView, error)
	ComputeTotals(cart *models.Cart) Totals
	CloseCart(ctx context.Context, buyerID uuid.UUID) error
	Checkout(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
}

type service struct {
	repo     CartRepository
	catalog  catalog.Catalog
	tx       txRunner
	fees     DeliveryFeePolicy
	placer   orderPlacer
	notifier notifications.Dispatcher
	trail    audit.Trail
	metrics  *metrics.CommerceMetrics
	now      func() time.Time
}

// NewService builds a cart service. metrics may be nil.
func NewService(
	repo CartRepository,
	products catalog.Catalog,
	tx txRunner,
	fees DeliveryFeePolicy,
	placer orderPlacer,
	notifier notifications.Dispatcher,
	trail audit.Trail,
	m *metrics.CommerceMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if fees == nil {
		return nil, fmt.Errorf("delivery fee policy required")
	}
	if placer == nil {
		return nil, fmt.Errorf("order placer required")
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
		fees:     fees,
		placer:   placer,
		notifier: notifier,
		trail:    trail,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) GetOrCreateCart(ctx context.Context, buyerID uuid.UUID) (*CartView, error) {
	cart, err := s.ensureActiveCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return s.viewOf(cart), nil
}

func (s *service) AddItem(ctx context.Context, buyerID, productID uuid.UUID, quantity int) (view *CartView, err error) {
	defer s.observe("cart.add_item", time.Now(), &err)

	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	cart, err := s.ensureActiveCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := lockActiveCart(ctx, repo, cart.ID); err != nil {
			return err
		}
		product, err := catalog.LoadSellable(ctx, s.catalog.WithTx(tx), productID)
		if err != nil {
			return err
		}

		existing, err := repo.FindItemByProduct(ctx, cart.ID, productID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		if existing == nil {
			if err := catalog.EnsureStock(product, quantity); err != nil {
				return err
			}
			inserted, err := repo.InsertItem(ctx, &models.CartItem{
				CartID:     cart.ID,
				ProductID:  productID,
				Quantity:   quantity,
				PriceAtAdd: product.Price,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart item")
			}
			if inserted {
				return nil
			}
			// A concurrent add created the line first; fall through to increment it.
			existing, err = repo.FindItemByProduct(ctx, cart.ID, productID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
			}
		}

		if err := catalog.EnsureStock(product, existing.Quantity+quantity); err != nil {
			return err
		}
		applied, err := repo.IncrementItemWithinStock(ctx, existing.ID, productID, quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment cart item")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock")
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err, "add cart item")
	}
	return s.refreshAndNotify(ctx, buyerID, cart.ID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, buyerID, itemID uuid.UUID, quantity int) (view *CartView, err error) {
	defer s.observe("cart.update_item", time.Now(), &err)

	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	cart, err := s.findActiveCart(ctx, s.repo, buyerID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := lockActiveCart(ctx, repo, cart.ID); err != nil {
			return err
		}
		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		product, err := s.catalog.WithTx(tx).GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeProductUnavailable, "product not available")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if err := catalog.EnsureStock(product, quantity); err != nil {
			return err
		}
		applied, err := repo.SetItemQuantityWithinStock(ctx, item.ID, item.ProductID, quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock")
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err, "update cart item")
	}
	return s.refreshAndNotify(ctx, buyerID, cart.ID)
}

func (s *service) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*CartView, error) {
	cart, err := s.ensureActiveCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := lockActiveCart(ctx, repo, cart.ID); err != nil {
			return err
		}
		_, err := repo.DeleteItem(ctx, cart.ID, itemID)
		return err
	})
	if err != nil {
		return nil, asServiceError(err, "remove cart item")
	}
	return s.refreshAndNotify(ctx, buyerID, cart.ID)
}

func (s *service) ClearCart(ctx context.Context, buyerID uuid.UUID) (*CartView, error) {
	cart, err := s.ensureActiveCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := lockActiveCart(ctx, repo, cart.ID); err != nil {
			return err
		}
		return repo.DeleteItems(ctx, cart.ID)
	})
	if err != nil {
		return nil, asServiceError(err, "clear cart")
	}
	return s.refreshAndNotify(ctx, buyerID, cart.ID)
}

func (s *service) ComputeTotals(cart *models.Cart) Totals {
	if cart == nil {
		return ComputeTotals(nil, s.fees)
	}
	return ComputeTotals(cart.Items, s.fees)
}

// CloseCart is a no-op when the buyer has no active cart.
func (s *service) CloseCart(ctx context.Context, buyerID uuid.UUID) error {
	cart, err := s.findActiveCart(ctx, s.repo, buyerID)
	if err != nil || cart == nil {
		return err
	}
	_, err = s.closeCart(ctx, cart.ID, false)
	return err
}

// closeCart moves the cart to closed under its row lock. With onlyIfEmpty it
// leaves the cart active while any line remains.
func (s *service) closeCart(ctx context.Context, cartID uuid.UUID, onlyIfEmpty bool) (bool, error) {
	var closed bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		closed = false
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockActive(ctx, cartID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if onlyIfEmpty {
			remaining, err := repo.CountItems(ctx, cartID)
			if err != nil || remaining > 0 {
				return err
			}
		}
		var err error
		closed, err = repo.Close(ctx, cartID, s.now())
		return err
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close cart")
	}
	if closed {
		s.metrics.Transition(metrics.AggregateCart, string(enums.CartStatusActive), string(enums.CartStatusClosed))
	}
	return closed, nil
}

// lockActiveCart fails with CodeConflict once the cart has been closed.
func lockActiveCart(ctx context.Context, repo CartRepository, cartID uuid.UUID) error {
	if _, err := repo.LockActive(ctx, cartID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart was checked out, retry").
				WithDetails(map[string]any{"cart_id": cartID.String()})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
	}
	return nil
}

// ensureActiveCart returns the buyer's active cart, creating it on first use.
// Concurrent creators race on ux_carts_active_owner and the loser re-reads.
func (s *service) ensureActiveCart(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	cart, err := s.findActiveCart(ctx, s.repo, buyerID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	cart = &models.Cart{OwnerID: buyerID, Status: enums.CartStatusActive}
	if err := s.repo.Create(ctx, cart); err != nil {
		if !db.IsUniqueViolation(err, activeCartIndex) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
		}
		cart, err = s.findActiveCart(ctx, s.repo, buyerID)
		if err != nil {
			return nil, err
		}
		if cart == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart changed concurrently, retry")
		}
		return cart, nil
	}
	cart.Items = []models.CartItem{}
	return cart, nil
}

// findActiveCart returns nil without error when the buyer has no active cart.
func (s *service) findActiveCart(ctx context.Context, repo CartRepository, buyerID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindActiveByOwner(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) refreshAndNotify(ctx context.Context, buyerID, cartID uuid.UUID) (*CartView, error) {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	view := s.viewOf(cart)
	s.notifier.NotifyUser(ctx, buyerID, enums.NotificationCartUpdated, map[string]any{
		"cart_id":        cart.ID.String(),
		"item_count":     view.Totals.ItemCount,
		"total_quantity": view.Totals.TotalQuantity,
		"total":          view.Totals.Total.StringFixed(2),
	})
	return view, nil
}

func (s *service) viewOf(cart *models.Cart) *CartView {
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return &CartView{
		Cart:   cart,
		Items:  items,
		Totals: ComputeTotals(items, s.fees),
	}
}

func (s *service) observe(operation string, start time.Time, errp *error) {
	s.metrics.ObserveDuration(operation, time.Since(start))
	if typed := pkgerrors.As(*errp); typed != nil {
		s.metrics.Rejected(operation, string(typed.Code()))
	}
}

func asServiceError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
