package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/imroytran/telegram-webapp/internal/models"
)

// statusForError maps domain errors to HTTP statuses. ValidationError and
// InvalidTransition classes are terminal for their input and surface as 4xx
// unchanged; anything unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrCartNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidSelection),
		errors.Is(err, models.ErrItemIndexOutOfRange),
		errors.Is(err, models.ErrPromoInvalid),
		errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrMissingDeliveryInfo),
		errors.Is(err, models.ErrMissingTrackingNumber),
		errors.Is(err, models.ErrProductUnavailable),
		errors.Is(err, models.ErrWrongNotificationType),
		errors.Is(err, models.ErrMalformedNotification),
		errors.Is(err, models.ErrInvalidSignature),
		errors.Is(err, models.ErrInsufficientAmount):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes the standard error envelope.
func fail(c *fiber.Ctx, err error, message string) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
