package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/wanderlust/internal/core/domain"
)

// tripView is a trip as shown on the dashboard.
type tripView struct {
	*domain.Trip
	DurationDays int    `json:"duration_days"`
	TimeUntil    string `json:"time_until,omitempty"`
}

func newTripView(t *domain.Trip, now time.Time) tripView {
	v := tripView{Trip: t, DurationDays: t.DurationDays()}
	if t.StartDate != nil {
		v.TimeUntil = domain.TimeUntil(*t.StartDate, now)
	}
	return v
}

type createTripRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Roadmap     *domain.Itinerary `json:"roadmap"`
}

// ListTripsHandler returns the caller's trips, newest first.
func ListTripsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trips, err := deps.Trips.List(c.UserContext(), UserID(c))
		if err != nil {
			return respondError(c, err)
		}

		page, pg := paginate(c, trips, 20, 100)
		now := time.Now()
		views := make([]tripView, 0, len(page))
		for _, t := range page {
			t.Roadmap = nil // detail only
			views = append(views, newTripView(&t, now))
		}

		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: views, Pagination: pg})
	}
}

// GetTripHandler returns one trip with its roadmap.
func GetTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trip, err := deps.Trips.Get(c.UserContext(), UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(newTripView(trip, time.Now()))
	}
}

// CreateTripHandler saves a new trip, typically from a session's itinerary.
func CreateTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createTripRequest
		if err := c.BodyParser(&req); err != nil {
			return errValidation(c, "invalid request body")
		}

		trip, err := deps.Trips.Create(c.UserContext(), UserID(c), req.Title, req.Description, req.Roadmap)
		if err != nil {
			return respondError(c, err)
		}

		c.Location("/v1/trips/" + trip.ID)
		return c.Status(fiber.StatusCreated).JSON(newTripView(trip, time.Now()))
	}
}

// TripMessagesHandler returns the stored transcript of a trip.
func TripMessagesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		msgs, err := deps.Trips.Messages(c.UserContext(), UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}

		page, pg := paginate(c, msgs, 100, 500)
		if page == nil {
			page = []domain.Message{}
		}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}
