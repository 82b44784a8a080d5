package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"shop/internal/models"
)

// likeEscaper makes LIKE wildcards in search terms match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// List returns the products matching q.
func (r *GORMProductRepository) List(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	tx := r.db.WithContext(ctx).Model(&models.Product{})

	if q.ExcludeArchived {
		tx = tx.Where("archived = ?", false)
	}
	for _, term := range q.Search {
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		tx = tx.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, like, like)
	}
	if q.Name != nil {
		tx = tx.Where("name = ?", *q.Name)
	}
	if q.Description != nil {
		tx = tx.Where("description = ?", *q.Description)
	}
	if q.Price != nil {
		tx = tx.Where("price = ?", *q.Price)
	}
	if q.Discount != nil {
		tx = tx.Where("discount = ?", *q.Discount)
	}
	if q.Archived != nil {
		tx = tx.Where("archived = ?", *q.Archived)
	}
	for _, field := range q.Ordering {
		if strings.HasPrefix(field, "-") {
			tx = tx.Order(strings.TrimPrefix(field, "-") + " DESC")
		} else {
			tx = tx.Order(field + " ASC")
		}
	}
	tx = tx.Order("id ASC")

	var products []models.Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID, archived or not.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetByIDWithImages is GetByID with the image collection loaded.
func (r *GORMProductRepository) GetByIDWithImages(ctx context.Context, id uint) (*models.Product, error) {
	return r.get(r.db.WithContext(ctx).Preload("Images"), id)
}

func (r *GORMProductRepository) get(tx *gorm.DB, id uint) (*models.Product, error) {
	var product models.Product
	if err := tx.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// GetByIDs returns the products with the given ids ordered by id. Missing ids
// are silently skipped.
func (r *GORMProductRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products by IDs: %w", err)
	}
	return products, nil
}

// Latest returns the most recently added products, newest first.
func (r *GORMProductRepository) Latest(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get latest products: %w", err)
	}
	return products, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Omit("Images").Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes all columns of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(product).Select("*").Omit("id", "created_at", "Images").Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d: %w", product.ID, ErrProductNotFound)
	}
	return nil
}

// Delete removes a product row together with its order links and images.
func (r *GORMProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM order_products WHERE product_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to unlink product from orders: %w", err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return fmt.Errorf("failed to delete product images: %w", err)
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
		}
		return nil
	})
}

// SetArchived flips the archived flag of many products in one statement.
func (r *GORMProductRepository) SetArchived(ctx context.Context, ids []uint, archived bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Update("archived", archived)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update archived flag: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// AddImage attaches an image to an existing product.
func (r *GORMProductRepository) AddImage(ctx context.Context, image *models.ProductImage) error {
	if _, err := r.GetByID(ctx, image.ProductID); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return fmt.Errorf("failed to add product image: %w", err)
	}
	return nil
}
