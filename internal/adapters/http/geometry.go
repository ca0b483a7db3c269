package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/arnav/internal/pkg/geospatial"
)

// BearingHandler: GET /v1/geometry/bearing?from_lat=&from_lon=&to_lat=&to_lon=
func BearingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := requiredPoint(c, "from_lat", "from_lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		to, err := requiredPoint(c, "to_lat", "to_lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		b := geospatial.Bearing(from.Lat, from.Lon, to.Lat, to.Lon)
		return c.JSON(fiber.Map{
			"bearing": b,
			"compass": geospatial.CompassPoint(b),
		})
	}
}

// DistanceHandler: GET /v1/geometry/distance?from_lat=&from_lon=&to_lat=&to_lon=
func DistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := requiredPoint(c, "from_lat", "from_lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		to, err := requiredPoint(c, "to_lat", "to_lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		d := geospatial.Haversine(from.Lat, from.Lon, to.Lat, to.Lon)
		return c.JSON(fiber.Map{
			"distance_m":  d,
			"eta_minutes": deps.Navigation.Engine().ETAMinutes(d),
		})
	}
}

// ScaleHandler: GET /v1/geometry/scale?distance=
func ScaleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := queryFloat(c, "distance")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fiber.Map{"scale": deps.Navigation.Engine().ObjectScale(d)})
	}
}

// VisibilityHandler: GET /v1/geometry/visibility?bearing=&alpha=&beta=
// beta defaults to an upright device.
func VisibilityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		engine := deps.Navigation.Engine()

		bearing, err := queryFloat(c, "bearing")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		alpha, err := queryFloat(c, "alpha")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		beta, err := queryFloatDefault(c, "beta", engine.Params().ReferencePitch)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		return c.JSON(fiber.Map{
			"visible":    engine.IsObjectVisible(bearing, alpha, beta),
			"difference": geospatial.AngularDifference(bearing, alpha),
		})
	}
}

// PositionHandler: GET /v1/geometry/position?beta=&gamma=
func PositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		beta, err := queryFloat(c, "beta")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		gamma, err := queryFloat(c, "gamma")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(deps.Navigation.Engine().ObjectPosition(beta, gamma))
	}
}
