package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/addisride/addisride-backend/internal/services"
	"github.com/addisride/addisride-backend/internal/storage"
)

// respondServiceError maps the shared service errors onto HTTP responses.
// Anything unrecognized is logged and returned as a 500 with a generic
// message.
func respondServiceError(c *fiber.Ctx, err error) error {
	var tooSoon *services.TooSoonError
	if errors.As(err, &tooSoon) {
		c.Set("Retry-After", strconv.Itoa(int(tooSoon.RetryAfter.Seconds())))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":      tooSoon.Error(),
			"retryAfter": int(tooSoon.RetryAfter.Seconds()),
		})
	}
	var locked *services.AccountLockedError
	if errors.As(err, &locked) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":            locked.Error(),
			"remainingSeconds": locked.RemainingSeconds,
		})
	}
	var missing *services.MissingDocumentsError
	if errors.As(err, &missing) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Missing required documents",
			"missing": missing.Missing,
		})
	}

	switch {
	case errors.Is(err, services.ErrInvalidPhoneFormat),
		errors.Is(err, services.ErrNoValidCode),
		errors.Is(err, services.ErrCodeExpired),
		errors.Is(err, services.ErrInvalidCode),
		errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, services.ErrAccountPending),
		errors.Is(err, services.ErrAccountSuspended),
		errors.Is(err, services.ErrDriverStatusSuspended),
		errors.Is(err, services.ErrDriverStatusInactive):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, services.ErrBookingNotFound),
		errors.Is(err, services.ErrNoActivePricing),
		errors.Is(err, storage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("[HTTP ERROR] %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
