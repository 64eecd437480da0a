package models

import "errors"

// Domain errors. Services wrap these with context via fmt.Errorf("...: %w"),
// handlers map them to HTTP statuses with errors.Is.
var (
	ErrProductNotFound       = errors.New("product not found")
	ErrProductUnavailable    = errors.New("product is not available for order")
	ErrInvalidSelection      = errors.New("selected size or color is not offered for this product")
	ErrInvalidQuantity       = errors.New("quantity must be at least 1")
	ErrItemIndexOutOfRange   = errors.New("cart item index out of range")
	ErrPromoInvalid          = errors.New("promo code is invalid or expired")
	ErrCartNotFound          = errors.New("cart not found")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrMissingDeliveryInfo   = errors.New("delivery address and phone are required")
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrMissingTrackingNumber = errors.New("tracking number is required")
	ErrWrongNotificationType = errors.New("wrong notification type")
	ErrMalformedNotification = errors.New("malformed notification payload")
	ErrInvalidSignature      = errors.New("invalid notification signature")
	ErrInsufficientAmount    = errors.New("payment amount is less than order total")
	ErrConflict              = errors.New("concurrent update conflict")
)
