package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/wanderlust/internal/pkg/metrics"
)

// LegacyAgentPath is the original serverless function route, kept as an alias.
const LegacyAgentPath = "/functions/v1/ai-travel-agent"

// legacySunset is when the legacy agent alias is removed.
var legacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

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

	// Server spans, continuing upstream traces
	app.Use(TracingMiddleware())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
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

	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: LegacyAgentPath, SunsetDate: legacySunset, Alternative: "/v1/agent/messages"},
	}))

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	auth := AuthMiddleware(deps.Identity)

	// Remote agent: bearer auth first, then a bounded request
	agent := timeout.NewWithContext(AgentMessageHandler(deps), 30*time.Second)
	app.Post("/v1/agent/messages", auth, agent)
	app.Post(LegacyAgentPath, auth, agent)

	// REST API v1, 15s per-request timeout
	v1 := app.Group("/v1")

	v1.Post("/sessions", timeout.NewWithContext(CreateSessionHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id", timeout.NewWithContext(GetSessionHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/messages", timeout.NewWithContext(SubmitMessageHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id/transcript", timeout.NewWithContext(SessionTranscriptHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id/itinerary", timeout.NewWithContext(SessionItineraryHandler(deps), 15*time.Second))
	v1.Delete("/sessions/:id", timeout.NewWithContext(CloseSessionHandler(deps), 15*time.Second))

	trips := v1.Group("/trips", auth)
	trips.Get("/", timeout.NewWithContext(ListTripsHandler(deps), 15*time.Second))
	trips.Post("/", timeout.NewWithContext(CreateTripHandler(deps), 15*time.Second))
	trips.Get("/:id", timeout.NewWithContext(GetTripHandler(deps), 15*time.Second))
	trips.Get("/:id/messages", timeout.NewWithContext(TripMessagesHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, "")

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/sessions/:id", websocket.New(SessionWebSocketHandler(deps)))
}
