package middleware

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/addisride/addisride-backend/internal/ttlstore"
)

// RateLimit enforces a fixed-window request cap keyed by client IP and
// route path. The window counter lives in the TTL store and expires on its
// own, so no reset bookkeeping is needed.
func RateLimit(store ttlstore.Store, max int64, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("ratelimit:%s:%s", c.IP(), c.Path())

		counter := new(int64)
		if !store.SetIfAbsent(key, counter, window) {
			existing, ok := store.Get(key)
			if !ok {
				// Expired between the two calls; start a fresh window.
				store.Set(key, counter, window)
			} else {
				counter = existing.(*int64)
			}
		}

		if atomic.AddInt64(counter, 1) > max {
			c.Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		}
		return c.Next()
	}
}
