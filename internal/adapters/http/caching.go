package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses by endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "no-store"

		case path == "/metrics":
			ttl = "no-cache"

		// The catalog changes only on seed.
		case strings.HasPrefix(path, "/v1/destinations"):
			ttl = "public, max-age=300"

		// Best queue may depend on the caller's position and the queue policy.
		case path == "/v1/queues/best":
			ttl = "private, max-age=5"

		case strings.HasPrefix(path, "/v1/queues"):
			ttl = "public, max-age=300"

		// Pure functions of the query string.
		case strings.HasPrefix(path, "/v1/geometry/"):
			ttl = "public, max-age=86400"

		case strings.HasPrefix(path, "/v1/tours"):
			ttl = "no-store"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
