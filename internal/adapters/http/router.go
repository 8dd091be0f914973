package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"areascope/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 300 requests per minute per IP. Gesture-driven clients
	// mutate over the WebSocket, so the REST budget stays modest.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 with a 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Get("/areas", timeout.NewWithContext(ListAreasHandler(deps), 15*time.Second))
	v1.Post("/areas", timeout.NewWithContext(CreateAreaHandler(deps), 15*time.Second))
	v1.Get("/areas/:id", timeout.NewWithContext(GetAreaHandler(deps), 15*time.Second))
	v1.Put("/areas/:id/ring", timeout.NewWithContext(UpdateAreaRingHandler(deps), 15*time.Second))
	v1.Post("/areas/:id/visibility", timeout.NewWithContext(ToggleAreaVisibilityHandler(deps), 15*time.Second))
	v1.Delete("/areas/:id", timeout.NewWithContext(DeleteAreaHandler(deps), 15*time.Second))

	// View control
	v1.Post("/view/fit", timeout.NewWithContext(FitAllHandler(deps), 15*time.Second))
	v1.Get("/map/config", MapConfigHandler(deps))

	// Place search (outbound geocoding gets a longer budget)
	v1.Get("/search", timeout.NewWithContext(SearchHandler(deps), 20*time.Second))

	// Notices
	v1.Get("/notice", NoticeHandler(deps))

	// Interaction session
	v1.Get("/session", SessionHandler(deps))
	v1.Post("/session/draw", StartDrawingHandler(deps))
	v1.Post("/session/edit", StartEditingHandler(deps))
	v1.Post("/session/edit/target", SelectEditTargetHandler(deps))
	v1.Post("/session/edit/stop", StopEditingHandler(deps))
	v1.Post("/session/erase", StartErasingHandler(deps))
	v1.Post("/session/cancel", CancelHandler(deps))
	v1.Post("/session/confirm", ConfirmHandler(deps))

	// Mutation audit log
	v1.Get("/history", timeout.NewWithContext(HistoryHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
