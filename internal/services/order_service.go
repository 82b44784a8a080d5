package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shop/internal/cache"
	"shop/internal/models"
	"shop/internal/repositories"
	"shop/pkg/rabbitmq"
)

// ExportTimeLayout formats order timestamps in user exports.
const ExportTimeLayout = "2006-01-02 15:04:05-0700"

// OrderEventPublisher publishes order lifecycle events.
type OrderEventPublisher interface {
	PublishOrderCreated(event rabbitmq.OrderEvent) error
}

// OrderServiceConfig carries the optional collaborators of OrderService.
type OrderServiceConfig struct {
	Cache     cache.Store
	ExportTTL time.Duration
	Location  *time.Location
	// Publisher may be nil, in which case no events are sent.
	Publisher OrderEventPublisher
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	cache       cache.Store
	ttl         time.Duration
	loc         *time.Location
	publisher   OrderEventPublisher
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
	cfg OrderServiceConfig,
	logger *zap.Logger,
) *OrderService {
	if cfg.ExportTTL <= 0 {
		cfg.ExportTTL = 60 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		cache:       cfg.Cache,
		ttl:         cfg.ExportTTL,
		loc:         cfg.Location,
		publisher:   cfg.Publisher,
		logger:      logger.Named("orders"),
	}
}

// ListOrders retrieves all orders with user and products loaded.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.orderRepo.List(ctx)
}

// GetOrder retrieves a single order by its ID.
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// UserOrders returns a user and that user's orders ordered by id.
func (s *OrderService) UserOrders(ctx context.Context, userID uint) (*models.User, []models.Order, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, orders, nil
}

// ExportedOrder is one element of the user orders export.
type ExportedOrder struct {
	ID              uint   `json:"id"`
	DeliveryAddress string `json:"delivery_address"`
	Promocode       string `json:"promocode"`
	CreatedAt       string `json:"created_at"`
	Products        []uint `json:"products"`
}

// UserOrdersCacheKey is the cache key of a user's order export.
func UserOrdersCacheKey(userID uint) string {
	return fmt.Sprintf("user_orders_%d", userID)
}

// ExportUserOrders returns the serialized order export of a user. The
// payload is served from the cache while the entry lives, so orders added in
// the meantime show up only after the TTL.
func (s *OrderService) ExportUserOrders(ctx context.Context, userID uint) ([]byte, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	key := UserOrdersCacheKey(userID)
	if s.cache != nil {
		payload, err := s.cache.Get(ctx, key)
		if err == nil {
			return payload, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("order export cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(s.exportRows(orders))
	if err != nil {
		return nil, fmt.Errorf("failed to encode order export: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
			s.logger.Warn("order export cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return payload, nil
}

func (s *OrderService) exportRows(orders []models.Order) []ExportedOrder {
	rows := make([]ExportedOrder, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		rows = append(rows, ExportedOrder{
			ID:              o.ID,
			DeliveryAddress: o.DeliveryAddress,
			Promocode:       o.Promocode,
			CreatedAt:       o.CreatedAt.In(s.loc).Format(ExportTimeLayout),
			Products:        o.ProductIDs(),
		})
	}
	return rows
}

// HandleOrderEvent is the consumer side of order.created events.
func (s *OrderService) HandleOrderEvent(event rabbitmq.OrderEvent) error {
	s.logger.Info("order created",
		zap.Uint("order_id", event.OrderID),
		zap.Uint("user_id", event.UserID),
		zap.Uints("product_ids", event.ProductIDs),
		zap.String("source", event.Source),
	)
	return nil
}

func (s *OrderService) publishCreated(order *models.Order, source string) {
	if s.publisher == nil {
		return
	}
	event := rabbitmq.OrderEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		ProductIDs: order.ProductIDs(),
		Source:     source,
		CreatedAt:  order.CreatedAt,
	}
	if err := s.publisher.PublishOrderCreated(event); err != nil {
		s.logger.Warn("failed to publish order created event", zap.Uint("order_id", order.ID), zap.Error(err))
	}
}
