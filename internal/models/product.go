package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the shop. Products are never removed by the
// shop views; Archived hides them from regular listings.
type Product struct {
	ID          uint            `json:"pk" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:100;not null"`
	Description string          `json:"description" gorm:"type:text;not null;default:''"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(8,2);not null;default:0"`
	Discount    int16           `json:"discount" gorm:"not null;default:0"`
	CreatedAt   time.Time       `json:"created_at"`
	Archived    bool            `json:"archived" gorm:"not null;default:false"`
	Preview     string          `json:"preview" gorm:"size:255"`
	Images      []ProductImage  `json:"images,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// AbsoluteURL is the path of the product detail view.
func (p *Product) AbsoluteURL() string {
	return fmt.Sprintf("/products/%d/", p.ID)
}

// DescriptionShort cuts long descriptions for admin listings.
func (p *Product) DescriptionShort() string {
	r := []rune(p.Description)
	if len(r) < 48 {
		return p.Description
	}
	return string(r[:48]) + "..."
}

// ProductImage is an extra image attached to a product.
type ProductImage struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	ProductID   uint   `json:"product_id" gorm:"index;not null"`
	Image       string `json:"image" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"size:200;not null;default:''"`
}
