package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"shop/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

func orderedProducts(db *gorm.DB) *gorm.DB {
	return db.Order("products.id ASC")
}

func (r *GORMOrderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("User").Preload("Products", orderedProducts)
}

func (r *GORMOrderRepository) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.preloaded(ctx).Order("id ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.preloaded(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %d: %w", id, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %d: %w", id, err)
	}
	return &order, nil
}

func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Products", orderedProducts).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of user %d: %w", userID, err)
	}
	return orders, nil
}

// Create inserts the order row and one order_products row per attached
// product in a single transaction. Attached products are referenced, never
// written.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("User", "Products.*").Create(order).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}
