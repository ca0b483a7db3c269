package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// StartTourRequest starts a durable multi-stop tour.
type StartTourRequest struct {
	SessionID    string   `json:"session_id"`
	Destinations []string `json:"destinations"`
}

// StartTourHandler: POST /v1/tours
func StartTourHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Tours == nil {
			return errUnavailable(c, "tours are not enabled")
		}

		var req StartTourRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(req.Destinations) == 0 {
			return errBadRequest(c, "destinations must not be empty")
		}
		if req.SessionID == "" {
			req.SessionID = uuid.NewString()
		}

		ctx := c.UserContext()
		for _, name := range req.Destinations {
			idx, err := deps.Catalog.DestinationIndex(ctx, name)
			if err != nil {
				return errFromDomain(c, err)
			}
			if idx < 0 {
				return errBadRequest(c, "unknown destination: "+name)
			}
		}

		tourID, err := deps.Tours.StartTour(ctx, req.SessionID, req.Destinations)
		if err != nil {
			return errFromDomain(c, err)
		}

		LoggerFromCtx(ctx).Info("tour started", "tour_id", tourID, "session", req.SessionID, "stops", len(req.Destinations))
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"tour_id":    tourID,
			"session_id": req.SessionID,
		})
	}
}

// TourArrivalHandler: POST /v1/tours/:id/arrivals
func TourArrivalHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Tours == nil {
			return errUnavailable(c, "tours are not enabled")
		}
		id := c.Params("id")
		if err := deps.Tours.SignalArrival(c.UserContext(), id); err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"tour_id": id, "status": "arrival recorded"})
	}
}

// GetTourHandler: GET /v1/tours/:id
func GetTourHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Tours == nil {
			return errUnavailable(c, "tours are not enabled")
		}
		id := c.Params("id")
		target, err := deps.Tours.CurrentTarget(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"tour_id": id, "target": target})
	}
}
