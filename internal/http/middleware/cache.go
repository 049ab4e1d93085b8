package middleware

import "github.com/gofiber/fiber/v2"

// CacheControl sets the Cache-Control header on successful responses of
// the wrapped routes. Frames rendered at a fixed timeline position are
// deterministic and safe to cache; live playback frames are not.
func CacheControl(value string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Response().StatusCode() < 400 {
			c.Set(fiber.HeaderCacheControl, value)
		}
		return err
	}
}
