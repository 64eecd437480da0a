package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/imroytran/telegram-webapp/internal/models"
	"github.com/imroytran/telegram-webapp/internal/repositories"
)

// conflictRetries bounds the read-modify-write retry loop used to serialize
// concurrent mutations of the same cart or order.
const conflictRetries = 3

// CartService handles business logic for the per-customer shopping cart.
// Every mutation recomputes the cached total; unit prices are re-synced to
// the product's current effective price so totals reflect current
// promotions. Prices are only frozen at checkout, when the order snapshots
// them.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	promos   repositories.PromoRepository
}

// NewCartService creates a new CartService.
func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository, promos repositories.PromoRepository) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		promos:   promos,
	}
}

// Get returns the customer's cart, creating an empty one on first
// interaction. The returned total reflects current catalog prices.
func (s *CartService) Get(customerID, username string) (*models.Cart, error) {
	cart, created, err := s.loadOrCreate(customerID, username)
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.carts.Create(cart); err != nil {
			if !errors.Is(err, models.ErrConflict) {
				return nil, err
			}
			// Lost the create race; the concurrently stored cart wins.
			if cart, err = s.carts.GetByCustomer(customerID); err != nil {
				return nil, err
			}
		}
	}
	s.refreshTotal(cart)
	return cart, nil
}

// AddItem adds a product selection to the cart. If the (product, size,
// color) triple is already present, its quantity is incremented instead.
func (s *CartService) AddItem(customerID, username, productID string, quantity int, size, color string) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: got %d", models.ErrInvalidQuantity, quantity)
	}

	product, err := s.products.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if !product.Orderable() {
		return nil, fmt.Errorf("product %q: %w", product.Title, models.ErrProductUnavailable)
	}
	if !product.HasSize(size) {
		return nil, fmt.Errorf("%w: size %q", models.ErrInvalidSelection, size)
	}
	if !product.HasColor(color) {
		return nil, fmt.Errorf("%w: color %q", models.ErrInvalidSelection, color)
	}

	return s.mutate(customerID, username, func(cart *models.Cart) error {
		if i := cart.FindItem(productID, size, color); i >= 0 {
			cart.Items[i].Quantity += quantity
			cart.Items[i].Price = product.EffectivePrice()
			return nil
		}
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			Price:     product.EffectivePrice(),
			Size:      size,
			Color:     color,
			AddedAt:   time.Now(),
		})
		return nil
	})
}

// UpdateQuantity sets the quantity of the cart line at itemIndex.
func (s *CartService) UpdateQuantity(customerID, username string, itemIndex, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: got %d", models.ErrInvalidQuantity, quantity)
	}
	return s.mutate(customerID, username, func(cart *models.Cart) error {
		if itemIndex < 0 || itemIndex >= len(cart.Items) {
			return fmt.Errorf("%w: index %d, cart has %d items", models.ErrItemIndexOutOfRange, itemIndex, len(cart.Items))
		}
		cart.Items[itemIndex].Quantity = quantity
		return nil
	})
}

// RemoveItem deletes the cart line at itemIndex.
func (s *CartService) RemoveItem(customerID, username string, itemIndex int) (*models.Cart, error) {
	return s.mutate(customerID, username, func(cart *models.Cart) error {
		if itemIndex < 0 || itemIndex >= len(cart.Items) {
			return fmt.Errorf("%w: index %d, cart has %d items", models.ErrItemIndexOutOfRange, itemIndex, len(cart.Items))
		}
		cart.Items = append(cart.Items[:itemIndex], cart.Items[itemIndex+1:]...)
		return nil
	})
}

// Clear empties the cart and drops any applied promo code.
func (s *CartService) Clear(customerID, username string) (*models.Cart, error) {
	return s.mutate(customerID, username, func(cart *models.Cart) error {
		cart.Drain()
		return nil
	})
}

// ApplyPromoCode attaches an active, unexpired promo code to the cart and
// recomputes the discounted total.
func (s *CartService) ApplyPromoCode(customerID, username, code string) (*models.Cart, error) {
	promo, err := s.promos.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if !promo.Usable(time.Now()) {
		return nil, fmt.Errorf("promo code %q: %w", code, models.ErrPromoInvalid)
	}
	return s.mutate(customerID, username, func(cart *models.Cart) error {
		cart.Promo = &models.AppliedPromo{
			Code:      promo.Code,
			Discount:  promo.Discount,
			ExpiresAt: promo.ExpiresAt,
		}
		return nil
	})
}

// mutate runs a read-modify-write cycle against the customer's cart,
// recomputing the total before persisting. Optimistic-version conflicts are
// retried a few times before being surfaced.
func (s *CartService) mutate(customerID, username string, fn func(cart *models.Cart) error) (*models.Cart, error) {
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		cart, created, err := s.loadOrCreate(customerID, username)
		if err != nil {
			return nil, err
		}
		if err := fn(cart); err != nil {
			return nil, err
		}
		s.refreshTotal(cart)

		if created {
			err = s.carts.Create(cart)
		} else {
			err = s.carts.Save(cart)
		}
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *CartService) loadOrCreate(customerID, username string) (cart *models.Cart, created bool, err error) {
	cart, err = s.carts.GetByCustomer(customerID)
	if err == nil {
		return cart, false, nil
	}
	if errors.Is(err, models.ErrCartNotFound) {
		return &models.Cart{CustomerID: customerID, Username: username}, true, nil
	}
	return nil, false, err
}

// refreshTotal re-syncs each line's unit price to the product's current
// effective price, then recomputes the cached total and applies an unexpired
// promo. A product that disappeared from the catalog keeps its captured
// price; checkout is where that becomes an error.
func (s *CartService) refreshTotal(cart *models.Cart) {
	for i := range cart.Items {
		product, err := s.products.GetByID(cart.Items[i].ProductID)
		if err != nil {
			log.Printf("Warning: failed to refresh price for product %s: %v", cart.Items[i].ProductID, err)
			continue
		}
		cart.Items[i].Price = product.EffectivePrice()
	}

	total := cart.RawTotal()
	if cart.PromoActive(time.Now()) {
		total = total * (1 - cart.Promo.Discount/100)
	}
	cart.Total = total
}
