package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/harvestlink-backend/pkg/errors"
)

// Catalog is the read/stock surface the commerce flow needs from products.
type Catalog interface {
	WithTx(tx *gorm.DB) Catalog
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// GetProductForUpdate row-locks the product on postgres.
	GetProductForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// ReserveStock decrements available_stock only when enough remains.
	ReserveStock(ctx context.Context, id uuid.UUID, qty int) error
	ReleaseStock(ctx context.Context, id uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the catalog to the products table.
func NewRepository(db *gorm.DB) Catalog {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Catalog {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) GetProductForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ReserveStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	res := r.db.WithContext(ctx).Exec(
		`UPDATE products
		 SET available_stock = available_stock - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND available_stock >= ?`,
		qty, id, qty,
	)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock")
	}
	return nil
}

func (r *repository) ReleaseStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Exec(
		`UPDATE products
		 SET available_stock = available_stock + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		qty, id,
	)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	return nil
}

// LoadSellable fetches a product and rejects it unless it can be bought.
// A missing product is reported as unavailable rather than not found.
func LoadSellable(ctx context.Context, c Catalog, id uuid.UUID) (*models.Product, error) {
	product, err := c.GetProduct(ctx, id)
	return requireSellable(product, err)
}

// LoadSellableForUpdate is LoadSellable with a row lock, for use inside a transaction.
func LoadSellableForUpdate(ctx context.Context, c Catalog, id uuid.UUID) (*models.Product, error) {
	product, err := c.GetProductForUpdate(ctx, id)
	return requireSellable(product, err)
}

func requireSellable(product *models.Product, err error) (*models.Product, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "product not available")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Status.IsSellable() {
		return nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "product not available").
			WithDetails(map[string]any{"status": product.Status})
	}
	return product, nil
}

// EnsureStock fails with InsufficientStock when qty exceeds what the product has.
func EnsureStock(product *models.Product, qty int) error {
	if qty > product.AvailableStock {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
			WithDetails(map[string]any{
				"requested": qty,
				"available": product.AvailableStock,
			})
	}
	return nil
}
