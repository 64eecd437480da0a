package models

import "gorm.io/gorm"

// Attribute is a typed extension field on a product (material, season, etc.).
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Product represents a catalog entry. Products are mutated only by
// administrators; carts and orders reference them but never own them.
type Product struct {
	ID          string      `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Title       string      `json:"title" validate:"required,min=2,max=200"`
	Description string      `json:"description" validate:"omitempty,max=2000"`
	Category    string      `json:"category" validate:"required,max=100"`
	Price       float64     `json:"price" validate:"gte=0"`
	Discount    float64     `json:"discount" validate:"gte=0,lte=100"` // percent
	Sizes       []string    `json:"sizes" gorm:"serializer:json" validate:"required,min=1"`
	Colors      []string    `json:"colors" gorm:"serializer:json" validate:"required,min=1"`
	Images      []string    `json:"images" gorm:"serializer:json"`
	Attributes  []Attribute `json:"attributes" gorm:"serializer:json"`
	InStock     bool        `json:"in_stock"`
	Active      bool        `json:"active"`
	Views       int64       `json:"views"`
	CreatedBy   string      `json:"created_by" gorm:"type:varchar(36)"`
	gorm.Model  `json:"-"`
}

// EffectivePrice returns the price with the product discount applied.
func (p *Product) EffectivePrice() float64 {
	if p.Discount <= 0 {
		return p.Price
	}
	return p.Price - p.Price*(p.Discount/100)
}

// Orderable reports whether the product may be placed in a cart or order.
func (p *Product) Orderable() bool {
	return p.Active && p.InStock
}

// HasSize reports whether the given size is offered.
func (p *Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// HasColor reports whether the given color is offered.
func (p *Product) HasColor(color string) bool {
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}
