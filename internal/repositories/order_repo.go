package repositories

import (
	"context"

	"shop/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// List returns all orders with their user and products loaded.
	List(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	// ListByUser returns the orders of one user ordered by id.
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	// Create stores the order and its product links atomically.
	Create(ctx context.Context, order *models.Order) error
}
