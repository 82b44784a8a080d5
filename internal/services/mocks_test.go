package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shop/internal/models"
	"shop/internal/repositories"
	"shop/pkg/rabbitmq"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) products(args mock.Arguments) ([]models.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) product(args mock.Arguments) (*models.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, q repositories.ProductQuery) ([]models.Product, error) {
	return m.products(m.Called(ctx, q))
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	return m.product(m.Called(ctx, id))
}

func (m *MockProductRepository) GetByIDWithImages(ctx context.Context, id uint) (*models.Product, error) {
	return m.product(m.Called(ctx, id))
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	return m.products(m.Called(ctx, ids))
}

func (m *MockProductRepository) Latest(ctx context.Context, limit int) ([]models.Product, error) {
	return m.products(m.Called(ctx, limit))
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) SetArchived(ctx context.Context, ids []uint, archived bool) (int64, error) {
	args := m.Called(ctx, ids, archived)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) AddImage(ctx context.Context, image *models.ProductImage) error {
	return m.Called(ctx, image).Error(0)
}

// MockPublisher records published order events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderCreated(event rabbitmq.OrderEvent) error {
	return m.Called(event).Error(0)
}
