package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookshop-commerce/internal/model"
)

type CartRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*model.Cart, error)
	GetWithItems(ctx context.Context, userID string) (*model.Cart, error)
	FindItem(ctx context.Context, cartID, bookID uint) (*model.CartItem, error)
	IncrementItem(ctx context.Context, cartID, bookID uint, by int) error
	SetItemQuantity(ctx context.Context, cartID, bookID uint, quantity int) error
	RemoveItem(ctx context.Context, cartID, bookID uint) error
	ClearItems(ctx context.Context, tx *gorm.DB, cartID uint) error
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func (r *cartRepoImpl) GetOrCreate(ctx context.Context, userID string) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = model.Cart{UserID: userID}
		if err := r.db.WithContext(ctx).Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *cartRepoImpl) GetWithItems(ctx context.Context, userID string) (*model.Cart, error) {
	cart, err := r.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Where("cart_id = ?", cart.ID).
		Order("id asc").
		Find(&cart.Items).Error
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func (r *cartRepoImpl) FindItem(ctx context.Context, cartID, bookID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND book_id = ?", cartID, bookID).
		First(&item).Error
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// IncrementItem adds `by` to an existing line or inserts a new one.
// The cart_id/book_id unique index keeps a book to one line per cart.
func (r *cartRepoImpl) IncrementItem(ctx context.Context, cartID, bookID uint, by int) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "book_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", by),
			"updated_at": time.Now(),
		}),
	}).Create(&model.CartItem{
		CartID:   cartID,
		BookID:   bookID,
		Quantity: by,
	}).Error
}

func (r *cartRepoImpl) SetItemQuantity(ctx context.Context, cartID, bookID uint, quantity int) error {
	result := r.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("cart_id = ? AND book_id = ?", cartID, bookID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *cartRepoImpl) RemoveItem(ctx context.Context, cartID, bookID uint) error {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND book_id = ?", cartID, bookID).
		Delete(&model.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *cartRepoImpl) ClearItems(ctx context.Context, tx *gorm.DB, cartID uint) error {
	return tx.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error
}
