package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/arnav/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(limiter.New(limiter.Config{
		Max:        deps.rateLimit(),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		// Sensor streams go over the websocket, which is one long request.
		Next: func(c *fiber.Ctx) bool {
			return websocket.IsWebSocketUpgrade(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health and readiness, no timeout
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	withTimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, deps.requestTimeout())
	}

	v1 := app.Group("/v1")

	// Catalog
	v1.Get("/destinations", withTimeout(ListDestinationsHandler(deps)))
	v1.Get("/destinations/:name", withTimeout(GetDestinationHandler(deps)))
	v1.Get("/queues", withTimeout(ListQueuesHandler(deps)))
	v1.Get("/queues/best", withTimeout(BestQueueHandler(deps)))

	// Geometry primitives
	v1.Get("/geometry/bearing", BearingHandler(deps))
	v1.Get("/geometry/distance", DistanceHandler(deps))
	v1.Get("/geometry/scale", ScaleHandler(deps))
	v1.Get("/geometry/visibility", VisibilityHandler(deps))
	v1.Get("/geometry/position", PositionHandler(deps))

	// Navigation
	v1.Post("/navigate", withTimeout(NavigateHandler(deps)))

	// Tours (Temporal)
	v1.Post("/tours", withTimeout(StartTourHandler(deps)))
	v1.Post("/tours/:id/arrivals", withTimeout(TourArrivalHandler(deps)))
	v1.Get("/tours/:id", withTimeout(GetTourHandler(deps)))

	app.Post("/graphql", withTimeout(GraphQLHandler(deps)))

	SetupDocs(app, deps.openAPI())

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/navigate", websocket.New(NavigateWebSocketHandler(deps)))
}
