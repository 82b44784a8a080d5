package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"shop/internal/models"
)

// ProductQuery describes a filtered, searched and ordered product listing.
// Nil filter fields are not applied.
type ProductQuery struct {
	Search          []string
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	Discount        *int16
	Archived        *bool
	ExcludeArchived bool
	// Ordering holds column names, "-" prefixed for descending order.
	Ordering []string
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, q ProductQuery) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetByIDWithImages(ctx context.Context, id uint) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	Latest(ctx context.Context, limit int) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	SetArchived(ctx context.Context, ids []uint, archived bool) (int64, error)
	AddImage(ctx context.Context, image *models.ProductImage) error
}
