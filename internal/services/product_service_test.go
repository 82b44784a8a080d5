package services_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shop/internal/models"
	"shop/internal/repositories"
	"shop/internal/services"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProductService_ListVisibleProducts(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	expectedProducts := []models.Product{
		{ID: 1, Name: "Product A", Price: price("10.00")},
		{ID: 2, Name: "Product B", Price: price("20.00")},
	}
	mockRepo.On("List", ctx, repositories.ProductQuery{ExcludeArchived: true}).Return(expectedProducts, nil).Once()

	products, err := service.ListVisibleProducts(ctx)
	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_AdminListProducts(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	mockRepo.On("List", ctx, repositories.ProductQuery{
		Search:   []string{"red", "chair"},
		Ordering: []string{"-name"},
	}).Return([]models.Product{}, nil).Once()

	_, err := service.AdminListProducts(ctx, " red, chair ")
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestSplitSearchTerms(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, services.SplitSearchTerms("a,b  c"))
	assert.Empty(t, services.SplitSearchTerms(" , "))
}

func TestProductService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	in := services.ProductInput{Name: "Desk", Description: "Oak", Price: price("199.90"), Discount: 5}
	mockRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Product) bool {
		return p.Name == "Desk" && p.Price.Equal(price("199.90")) && p.Discount == 5
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Product).ID = 7
	}).Return(nil).Once()

	product, err := service.CreateProduct(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, uint(7), product.ID)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    services.ProductInput
		field string
	}{
		{"missing name", services.ProductInput{Price: price("1")}, "name"},
		{"long name", services.ProductInput{Name: strings.Repeat("n", 101), Price: price("1")}, "name"},
		{"negative price", services.ProductInput{Name: "x", Price: price("-1")}, "price"},
		{"too many places", services.ProductInput{Name: "x", Price: price("1.005")}, "price"},
		{"too many digits", services.ProductInput{Name: "x", Price: price("1000000")}, "price"},
		{"discount above 100", services.ProductInput{Name: "x", Discount: 101}, "discount"},
		{"negative discount", services.ProductInput{Name: "x", Discount: -1}, "discount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := services.NewProductService(mockRepo)

			_, err := service.CreateProduct(context.Background(), tt.in)
			var verr *services.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	existing := &models.Product{ID: 1, Name: "Old", Price: price("1.00"), Archived: true}
	mockRepo.On("GetByID", ctx, uint(1)).Return(existing, nil).Once()
	mockRepo.On("Update", ctx, existing).Return(nil).Once()

	updated, err := service.UpdateProduct(ctx, 1, services.ProductInput{Name: "New", Price: price("2.50")})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.True(t, updated.Price.Equal(price("2.50")))
	assert.True(t, updated.Archived, "archived flag is not part of the form")
	mockRepo.AssertExpectations(t)

	// Test product not found
	mockRepo.On("GetByID", ctx, uint(2)).Return(nil, fmt.Errorf("product with ID 2: %w", repositories.ErrProductNotFound)).Once()
	_, err = service.UpdateProduct(ctx, 2, services.ProductInput{Name: "New"})
	assert.True(t, errors.Is(err, repositories.ErrProductNotFound))
	mockRepo.AssertExpectations(t)
}

func TestProductService_PatchProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	existing := &models.Product{ID: 3, Name: "Lamp", Description: "Desk lamp", Price: price("15.00"), Discount: 10}
	mockRepo.On("GetByID", ctx, uint(3)).Return(existing, nil).Once()
	mockRepo.On("Update", ctx, existing).Return(nil).Once()

	archived := true
	discount := int16(20)
	patched, err := service.PatchProduct(ctx, 3, services.ProductPatch{Discount: &discount, Archived: &archived})
	require.NoError(t, err)
	assert.Equal(t, "Lamp", patched.Name)
	assert.Equal(t, int16(20), patched.Discount)
	assert.True(t, patched.Archived)
	mockRepo.AssertExpectations(t)
}

func TestProductService_SetArchived(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	mockRepo.On("GetByID", ctx, uint(4)).Return(&models.Product{ID: 4}, nil).Once()
	mockRepo.On("SetArchived", ctx, []uint{4}, true).Return(int64(1), nil).Once()

	product, err := service.SetArchived(ctx, 4, true)
	require.NoError(t, err)
	assert.True(t, product.Archived)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	mockRepo.On("Delete", ctx, uint(1)).Return(nil).Once()
	assert.NoError(t, service.DeleteProduct(ctx, 1))

	mockRepo.On("Delete", ctx, uint(9)).Return(repositories.ErrProductNotFound).Once()
	assert.True(t, errors.Is(service.DeleteProduct(ctx, 9), repositories.ErrProductNotFound))
	mockRepo.AssertExpectations(t)
}

func TestProductService_AddImage(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	mockRepo.On("AddImage", ctx, &models.ProductImage{ProductID: 1, Image: "products/1/a.png", Description: "front"}).Return(nil).Once()
	img, err := service.AddImage(ctx, 1, "products/1/a.png", "front")
	require.NoError(t, err)
	assert.Equal(t, uint(1), img.ProductID)

	_, err = service.AddImage(ctx, 1, " ", "")
	var verr *services.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "image")
	mockRepo.AssertExpectations(t)
}

func TestProductService_ExportData(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	mockRepo.On("List", ctx, repositories.ProductQuery{}).Return([]models.Product{
		{ID: 1, Name: "A", Price: price("5"), Archived: false},
		{ID: 2, Name: "B", Price: price("7.5"), Archived: true},
	}, nil).Once()

	rows, err := service.ExportData(ctx)
	require.NoError(t, err)
	assert.Equal(t, []services.ProductExportRow{
		{PK: 1, Name: "A", Price: "5.00", Archived: false},
		{PK: 2, Name: "B", Price: "7.50", Archived: true},
	}, rows)
	mockRepo.AssertExpectations(t)
}

func TestProductService_ExportCSV(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mockRepo.On("GetByIDs", ctx, []uint{1, 2}).Return([]models.Product{
		{ID: 1, Name: "Chair", Description: "Wooden, sturdy", Price: price("12.5"), Discount: 0, CreatedAt: created},
		{ID: 2, Name: "Table", Price: price("40"), Discount: 10, CreatedAt: created, Archived: true, Preview: "p.png"},
	}, nil).Once()

	var buf bytes.Buffer
	require.NoError(t, service.ExportCSV(ctx, &buf, []uint{1, 2}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,name,description,price,discount,created_at,archived,preview", lines[0])
	assert.Equal(t, `1,Chair,"Wooden, sturdy",12.50,0,2024-03-01T10:00:00Z,false,`, lines[1])
	assert.Equal(t, "2,Table,,40.00,10,2024-03-01T10:00:00Z,true,p.png", lines[2])
	mockRepo.AssertExpectations(t)
}
