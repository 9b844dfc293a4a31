package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

var startedAt = time.Now()

// Health reports liveness and process uptime.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "addisride-backend",
		"uptime":  time.Since(startedAt).Round(time.Second).String(),
	})
}
