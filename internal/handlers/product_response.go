package handlers

import (
	"time"

	"shop/internal/models"
)

// ProductResponse is the serialized form of a product in JSON answers.
type ProductResponse struct {
	PK          uint                  `json:"pk"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Price       string                `json:"price"`
	Discount    int16                 `json:"discount"`
	CreatedAt   string                `json:"created_at"`
	Archived    bool                  `json:"archived"`
	Preview     string                `json:"preview"`
	Images      []models.ProductImage `json:"images,omitempty"`
}

func newProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		PK:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Discount:    p.Discount,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		Archived:    p.Archived,
		Preview:     p.Preview,
		Images:      p.Images,
	}
}

func newProductResponses(products []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, newProductResponse(&products[i]))
	}
	return out
}

// OrderResponse is the serialized form of an order with its owner and
// products.
type OrderResponse struct {
	ID              uint              `json:"id"`
	DeliveryAddress string            `json:"delivery_address"`
	Promocode       string            `json:"promocode"`
	CreatedAt       string            `json:"created_at"`
	User            *models.User      `json:"user,omitempty"`
	Products        []ProductResponse `json:"products"`
}

func newOrderResponse(o *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		DeliveryAddress: o.DeliveryAddress,
		Promocode:       o.Promocode,
		CreatedAt:       o.CreatedAt.UTC().Format(time.RFC3339),
		Products:        newProductResponses(o.Products),
	}
	if o.User.ID != 0 {
		user := o.User
		resp.User = &user
	}
	return resp
}

func newOrderResponses(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}
	return out
}
