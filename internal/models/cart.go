package models

import "time"

// AppliedPromo is the promo-code snapshot carried by a cart and copied onto
// the order at checkout.
type AppliedPromo struct {
	Code      string    `json:"code"`
	Discount  float64   `json:"discount"` // percent
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the promo is past its expiry at the given time.
func (p *AppliedPromo) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

// CartItem is a single selected line in a cart. Line identity is the
// (product, size, color) triple; adding the same triple again increments
// quantity instead of appending.
type CartItem struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"` // unit price, re-synced to the catalog on recompute
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	AddedAt   time.Time `json:"added_at"`
}

// Cart is the per-customer pre-checkout selection, keyed by customer id.
// Created lazily on first interaction; drained (not deleted) at checkout.
type Cart struct {
	CustomerID string        `json:"customer_id" gorm:"primaryKey;type:varchar(64)"`
	Username   string        `json:"username"`
	Items      []CartItem    `json:"items" gorm:"serializer:json"`
	Total      float64       `json:"total"`
	Promo      *AppliedPromo `json:"promo_code,omitempty" gorm:"serializer:json"`
	Version    int64         `json:"-"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// FindItem returns the index of the line matching the (product, size, color)
// triple, or -1 if the cart has no such line.
func (c *Cart) FindItem(productID, size, color string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.Size == size && item.Color == color {
			return i
		}
	}
	return -1
}

// RawTotal sums price*quantity over all lines, before any promo discount.
func (c *Cart) RawTotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// PromoActive reports whether an unexpired promo code is attached.
func (c *Cart) PromoActive(now time.Time) bool {
	return c.Promo != nil && c.Promo.Code != "" && !c.Promo.Expired(now)
}

// Drain empties the cart: no items, zero total, promo dropped.
func (c *Cart) Drain() {
	c.Items = nil
	c.Total = 0
	c.Promo = nil
}
