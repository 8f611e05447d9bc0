package repository

import (
	"context"

	"github.com/sjperalta/studio-finance-api/internal/models"
	"gorm.io/gorm"
)

// OrderRepository covers the booking/sales side the income ledger reaches
// into: the order itself, the buyer's session balance and product stock.
type OrderRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	AdjustSessions(ctx context.Context, userID uint, delta int) error
	AdjustStock(ctx context.Context, productID uint, delta int) error
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// AdjustSessions adds delta to the user's remaining sessions, floored at zero
func (r *orderRepository) AdjustSessions(ctx context.Context, userID uint, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("remaining_sessions", gorm.Expr("GREATEST(remaining_sessions + ?, 0)", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdjustStock adds delta to the product's stock
func (r *orderRepository) AdjustStock(ctx context.Context, productID uint, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
