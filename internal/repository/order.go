package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bookshop-commerce/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByIDWithItems(ctx context.Context, id uint) (*model.Order, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error)
	MarkPaymentFailed(ctx context.Context, orderID uint) error
	ListByUser(ctx context.Context, userID string) ([]*model.Order, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByIDWithItems(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// MarkPaid advances payment_status to paid and status to processing.
// The status guard makes a duplicate completion a no-op rather than a
// second transition.
func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error) {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND payment_status = ?
		`,
			orderID,
			model.PaymentStatusPending,
		).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentStatusPaid,
			"status":         model.OrderStatusProcessing,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}

	var order model.Order
	if err := tx.WithContext(ctx).Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) MarkPaymentFailed(ctx context.Context, orderID uint) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", orderID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentStatusFailed,
			"updated_at":     time.Now(),
		}).Error
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}
