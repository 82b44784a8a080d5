package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shop/internal/models"
	"shop/internal/repositories"
)

var maxPrice = decimal.RequireFromString("999999.99")

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Discount    int16           `json:"discount" validate:"min=0,max=100"`
	Preview     string          `json:"preview" validate:"max=255"`
	// Archived is left unchanged when nil.
	Archived *bool `json:"archived"`
}

// ProductPatch is a partial update; nil fields are left unchanged.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Discount    *int16           `json:"discount"`
	Archived    *bool            `json:"archived"`
	Preview     *string          `json:"preview"`
}

// Validate checks the input against the product column constraints.
func (in *ProductInput) Validate() error {
	verr := validateStruct(in)
	validatePrice(verr, in.Price)
	return verr.OrNil()
}

func validatePrice(verr *ValidationError, price decimal.Decimal) {
	switch {
	case price.IsNegative():
		verr.Add("price", "must not be negative")
	case price.GreaterThan(maxPrice):
		verr.Add("price", "must have at most 8 digits")
	case !price.Equal(price.Round(2)):
		verr.Add("price", "must have at most 2 decimal places")
	}
}

// ProductExportRow is one entry of the products data export.
type ProductExportRow struct {
	PK       uint   `json:"pk"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Archived bool   `json:"archived"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListVisibleProducts returns the products that are not archived.
func (s *ProductService) ListVisibleProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.List(ctx, repositories.ProductQuery{ExcludeArchived: true})
}

// QueryProducts runs an arbitrary product query, archived products included.
func (s *ProductService) QueryProducts(ctx context.Context, q repositories.ProductQuery) ([]models.Product, error) {
	return s.repo.List(ctx, q)
}

// AdminListProducts lists all products ordered by name descending, then pk,
// optionally narrowed by a search string.
func (s *ProductService) AdminListProducts(ctx context.Context, search string) ([]models.Product, error) {
	return s.repo.List(ctx, repositories.ProductQuery{
		Search:   SplitSearchTerms(search),
		Ordering: []string{"-name"},
	})
}

// SplitSearchTerms splits a search string on whitespace and commas.
func SplitSearchTerms(search string) []string {
	return strings.FieldsFunc(search, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// GetProductByID retrieves a single product by its ID, archived or not.
func (s *ProductService) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProductDetails retrieves a product with its images.
func (s *ProductService) GetProductDetails(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.GetByIDWithImages(ctx, id)
}

// CreateProduct validates and stores a new product.
func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	product := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Discount:    in.Discount,
		Preview:     in.Preview,
	}
	if in.Archived != nil {
		product.Archived = *in.Archived
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct replaces the editable fields of a product. The archived flag
// is kept as is unless the input carries one.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Discount = in.Discount
	product.Preview = in.Preview
	if in.Archived != nil {
		product.Archived = *in.Archived
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// PatchProduct applies the non-nil fields of patch.
func (s *ProductService) PatchProduct(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in := ProductInput{
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Discount:    product.Discount,
		Preview:     product.Preview,
	}
	if patch.Name != nil {
		in.Name = *patch.Name
	}
	if patch.Description != nil {
		in.Description = *patch.Description
	}
	if patch.Price != nil {
		in.Price = *patch.Price
	}
	if patch.Discount != nil {
		in.Discount = *patch.Discount
	}
	if patch.Preview != nil {
		in.Preview = *patch.Preview
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	product.Name = in.Name
	product.Description = in.Description
	product.Price = in.Price
	product.Discount = in.Discount
	product.Preview = in.Preview
	if patch.Archived != nil {
		product.Archived = *patch.Archived
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// SetArchived sets the archived flag on a product. The row is never deleted.
func (s *ProductService) SetArchived(ctx context.Context, id uint, archived bool) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.SetArchived(ctx, []uint{id}, archived); err != nil {
		return nil, err
	}
	product.Archived = archived
	return product, nil
}

// SetArchivedBulk flips the archived flag of a selection of products.
func (s *ProductService) SetArchivedBulk(ctx context.Context, ids []uint, archived bool) (int64, error) {
	return s.repo.SetArchived(ctx, ids, archived)
}

// DeleteProduct removes a product row. Only the API exposes this.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// LatestProducts returns the newest products, newest first.
func (s *ProductService) LatestProducts(ctx context.Context, limit int) ([]models.Product, error) {
	return s.repo.Latest(ctx, limit)
}

// AddImage attaches an image to a product.
func (s *ProductService) AddImage(ctx context.Context, productID uint, image, description string) (*models.ProductImage, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(image) == "" {
		verr.Add("image", "this field is required")
	}
	if len([]rune(description)) > 200 {
		verr.Add("description", "must have at most 200 characters")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	img := &models.ProductImage{ProductID: productID, Image: image, Description: description}
	if err := s.repo.AddImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

// ExportData returns every product ordered by pk in the export shape.
func (s *ProductService) ExportData(ctx context.Context) ([]ProductExportRow, error) {
	products, err := s.repo.List(ctx, repositories.ProductQuery{})
	if err != nil {
		return nil, err
	}
	rows := make([]ProductExportRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, ProductExportRow{
			PK:       p.ID,
			Name:     p.Name,
			Price:    p.Price.StringFixed(2),
			Archived: p.Archived,
		})
	}
	return rows, nil
}

// ProductCSVHeader lists the columns written by ExportCSV.
var ProductCSVHeader = []string{"id", "name", "description", "price", "discount", "created_at", "archived", "preview"}

// ExportCSV writes the selected products as CSV, ordered by pk.
func (s *ProductService) ExportCSV(ctx context.Context, w io.Writer, ids []uint) error {
	products, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ProductCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, p := range products {
		record := []string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.Name,
			p.Description,
			p.Price.StringFixed(2),
			strconv.Itoa(int(p.Discount)),
			p.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatBool(p.Archived),
			p.Preview,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
