package models

import "time"

// Order is a customer order. Products are linked through the order_products
// join table.
type Order struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	DeliveryAddress string    `json:"delivery_address" gorm:"type:text;not null;default:''"`
	Promocode       string    `json:"promocode" gorm:"size:20;not null;default:''"`
	CreatedAt       time.Time `json:"created_at"`
	UserID          uint      `json:"user_id" gorm:"index;not null"`
	User            User      `json:"user" gorm:"constraint:OnDelete:RESTRICT"`
	Products        []Product `json:"products" gorm:"many2many:order_products"`
}

// ProductIDs returns the ids of the attached products in load order.
func (o *Order) ProductIDs() []uint {
	ids := make([]uint, 0, len(o.Products))
	for _, p := range o.Products {
		ids = append(ids, p.ID)
	}
	return ids
}
