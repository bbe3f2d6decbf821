package repository

import (
	"context"
	"fmt"
	"storefront/internal/model"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	// UpsertPaid inserts the order as PAID, or on a repeated stripe payment id
	// only moves the stored row to PAID. It returns the stored order id.
	UpsertPaid(ctx context.Context, order *model.Order) (string, error)
	// ReplaceItems swaps the full item set of an order in one transaction.
	ReplaceItems(ctx context.Context, orderID string, items []*model.OrderItem) error
	FindByStripePaymentID(ctx context.Context, stripePaymentID string) (*model.Order, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Order, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) UpsertPaid(ctx context.Context, order *model.Order) (string, error) {
	row := *order
	row.ID = uuid.NewString()
	row.Status = model.OrderStatusPaid
	row.Items = nil

	var orderID string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_payment_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     string(model.OrderStatusPaid),
				"updated_at": time.Now(),
			}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("upsert order: %w", err)
		}

		// the conflicting row keeps its original id
		var stored model.Order
		if err := tx.Select("id").
			Where("stripe_payment_id = ?", row.StripePaymentID).
			First(&stored).Error; err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		orderID = stored.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	return orderID, nil
}

func (r *orderRepoImpl) ReplaceItems(ctx context.Context, orderID string, items []*model.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		if len(items) == 0 {
			return nil
		}

		for _, item := range items {
			item.ID = uuid.NewString()
			item.OrderID = orderID
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		return nil
	})
}

func (r *orderRepoImpl) FindByStripePaymentID(ctx context.Context, stripePaymentID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Where("stripe_payment_id = ?", stripePaymentID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) ListRecent(ctx context.Context, limit int) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}
