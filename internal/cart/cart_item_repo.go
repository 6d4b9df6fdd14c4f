package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/harvestlink-backend/pkg/db/models"
)

// ListItems returns the cart's lines oldest first.
func (r *Repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := orderItems(r.db.WithContext(ctx)).
		Where("cart_id = ?", cartID).
		Find(&items).Error
	return items, err
}

func (r *Repository) CountItems(ctx context.Context, cartID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ?", cartID).
		Count(&count).Error
	return count, err
}

func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) InsertItem(ctx context.Context, item *models.CartItem) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementItemWithinStock raises a line's quantity by delta only while the
// result still fits the product's current stock.
func (r *Repository) IncrementItemWithinStock(ctx context.Context, itemID, productID uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE cart_items
		 SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND quantity + ? <= (SELECT available_stock FROM products WHERE id = ?)`,
		delta, itemID, delta, productID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetItemQuantityWithinStock overwrites a line's quantity only while it fits current stock.
func (r *Repository) SetItemQuantityWithinStock(ctx context.Context, itemID, productID uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE cart_items
		 SET quantity = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND ? <= (SELECT available_stock FROM products WHERE id = ?)`,
		quantity, itemID, quantity, productID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}
