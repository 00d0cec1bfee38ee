package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

type createSessionRequest struct {
	Prompt string `json:"prompt"`
}

type submitMessageRequest struct {
	Text string `json:"text"`
}

// CreateSessionHandler opens a roadmap session, optionally seeded with a prompt.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createSessionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		id, err := deps.Sessions.Create(c.UserContext(), req.Prompt)
		if err != nil {
			return respondError(c, err)
		}

		snap, err := deps.Sessions.Snapshot(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		c.Location("/v1/sessions/" + id)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    id,
			"state": snap.State,
		})
	}
}

// SubmitMessageHandler accepts one user message. The reply is generated in
// the background; clients poll the session or listen on the WebSocket.
func SubmitMessageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req submitMessageRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		// The session keeps the ID after the request buffer is reused.
		id := utils.CopyString(c.Params("id"))
		if err := deps.Sessions.Submit(c.UserContext(), id, req.Text); err != nil {
			return respondError(c, err)
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"accepted": true,
			"state":    domain.StateGenerating,
		})
	}
}

// GetSessionHandler returns the session snapshot.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Sessions.Snapshot(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(snap)
	}
}

// SessionTranscriptHandler returns the transcript in creation order.
func SessionTranscriptHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		msgs, err := deps.Sessions.Transcript(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		if msgs == nil {
			msgs = []domain.Message{}
		}
		return c.JSON(msgs)
	}
}

// SessionItineraryHandler returns the current itinerary, 404 before the first reply.
func SessionItineraryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		it, err := deps.Sessions.Itinerary(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		if it == nil {
			return errNotFound(c, "session has no itinerary yet")
		}
		return c.JSON(it)
	}
}

// CloseSessionHandler forgets a session.
func CloseSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Close(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
