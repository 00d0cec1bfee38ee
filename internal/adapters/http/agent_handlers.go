package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/wanderlust/internal/core/usecases"
	"github.com/samirrijal/wanderlust/internal/pkg/metrics"
)

// AgentMessageHandler answers one chat message with a reply and the updated
// roadmap. It sits behind AuthMiddleware; when tripId is given, both messages
// and the roadmap are stored against that trip.
func AgentMessageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req usecases.AgentRequest
		if err := c.BodyParser(&req); err != nil {
			metrics.AgentRequests.WithLabelValues("400").Inc()
			return errValidation(c, "invalid request body")
		}

		resp, err := deps.Agent.Respond(c.UserContext(), UserID(c), req)
		if err != nil {
			werr := respondError(c, err)
			metrics.AgentRequests.WithLabelValues(statusLabel(c)).Inc()
			return werr
		}

		metrics.AgentRequests.WithLabelValues("200").Inc()
		c.Set("Cache-Control", "no-store")
		return c.JSON(resp)
	}
}

func statusLabel(c *fiber.Ctx) string {
	return strconv.Itoa(c.Response().StatusCode())
}
