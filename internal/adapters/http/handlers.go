package http

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/core/usecases"
	"github.com/samirrijal/arnav/internal/pkg/geospatial"
)

// DestinationView is a destination with its catalog position.
type DestinationView struct {
	Index int `json:"index"`
	domain.Destination
}

// ListDestinationsHandler returns the destination catalog in order.
func ListDestinationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dests, err := deps.Catalog.Destinations(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}

		views := make([]DestinationView, len(dests))
		for i, d := range dests {
			views[i] = DestinationView{Index: i, Destination: d}
		}

		page, pg := paginate(c, views)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetDestinationHandler resolves a destination by exact, case-sensitive name.
func GetDestinationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")
		if name == "" {
			return errBadRequest(c, "destination name is required")
		}

		dests, err := deps.Catalog.Destinations(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		idx := usecases.IndexOf(dests, name)
		if idx == domain.NoTarget {
			return errNotFound(c, "destination not found: "+name)
		}
		return c.JSON(DestinationView{Index: idx, Destination: dests[idx]})
	}
}

// ListQueuesHandler returns every queue.
func ListQueuesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		queues, err := deps.Catalog.Queues(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		if queues == nil {
			queues = []domain.QueuePoint{}
		}
		return c.JSON(queues)
	}
}

// BestQueueResponse is the selected queue plus how it was chosen.
type BestQueueResponse struct {
	Queue          domain.QueuePoint `json:"queue"`
	Policy         string            `json:"policy"`
	DistanceMeters *float64          `json:"distance_m,omitempty"`
}

// BestQueueHandler applies the queue policy. lat/lon are optional but must
// come together.
func BestQueueHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin, err := optionalPoint(c, "lat", "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		q, err := deps.Queues.BestQueue(c.UserContext(), origin)
		if err != nil {
			return errFromDomain(c, err)
		}

		resp := BestQueueResponse{Queue: q, Policy: string(deps.Queues.Policy())}
		if origin != nil {
			d := geospatial.Haversine(origin.Lat, origin.Lon, q.Location.Lat, q.Location.Lon)
			resp.DistanceMeters = &d
		}
		return c.JSON(resp)
	}
}

type paramError struct{ msg string }

func (e *paramError) Error() string { return e.msg }

// queryFloat parses a required finite float query parameter.
func queryFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, &paramError{name + " is required"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &paramError{name + " must be a finite number"}
	}
	return v, nil
}

// queryFloatDefault parses an optional float query parameter.
func queryFloatDefault(c *fiber.Ctx, name string, def float64) (float64, error) {
	if c.Query(name) == "" {
		return def, nil
	}
	return queryFloat(c, name)
}

// requiredPoint parses a latitude/longitude pair and validates its range.
func requiredPoint(c *fiber.Ctx, latName, lonName string) (domain.GeoPoint, error) {
	lat, err := queryFloat(c, latName)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	lon, err := queryFloat(c, lonName)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		return domain.GeoPoint{}, &paramError{latName + "/" + lonName + " out of range"}
	}
	return p, nil
}

func optionalPoint(c *fiber.Ctx, latName, lonName string) (*domain.GeoPoint, error) {
	if c.Query(latName) == "" && c.Query(lonName) == "" {
		return nil, nil
	}
	p, err := requiredPoint(c, latName, lonName)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
