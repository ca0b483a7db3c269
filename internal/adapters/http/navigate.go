package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/arnav/internal/core/domain"
)

// NavigateRequest is one stateless navigation tick.
type NavigateRequest struct {
	Location    *domain.GeoPoint          `json:"location"`
	Orientation domain.OrientationReading `json:"orientation"`
	// Destination is a destination name or "queue".
	Destination string `json:"destination"`
}

// NavigateHandler computes a NavigationState from a single request.
// A reading with a missing axis is a 422, since there is no previous
// orientation to fall back to.
func NavigateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req NavigateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Location == nil {
			return errBadRequest(c, "location is required")
		}
		if !req.Location.Valid() {
			return errBadRequest(c, "location out of range")
		}
		if req.Destination == "" {
			req.Destination = deps.DefaultDestination
		}

		o, err := req.Orientation.Orientation()
		if err != nil {
			return errUnprocessable(c, err.Error())
		}

		ctx := c.UserContext()
		target, err := deps.Navigation.ResolveTarget(ctx, req.Destination, req.Location)
		if err != nil {
			return errFromDomain(c, err)
		}

		st := deps.Navigation.Navigate(ctx, *req.Location, o, target)
		return c.JSON(st)
	}
}
