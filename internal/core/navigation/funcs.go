package navigation

import (
	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/pkg/geospatial"
)

var defaultEngine = Default()

// CalculateBearing is geospatial.Bearing under the engine's naming.
func CalculateBearing(lat1, lon1, lat2, lon2 float64) float64 {
	return geospatial.Bearing(lat1, lon1, lat2, lon2)
}

// CalculateDistance is geospatial.Haversine under the engine's naming.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return geospatial.Haversine(lat1, lon1, lat2, lon2)
}

// ObjectScale uses DefaultParams.
func ObjectScale(distanceMeters float64) float64 {
	return defaultEngine.ObjectScale(distanceMeters)
}

// IsObjectVisible uses DefaultParams.
func IsObjectVisible(targetBearing, deviceHeading, deviceTilt float64) bool {
	return defaultEngine.IsObjectVisible(targetBearing, deviceHeading, deviceTilt)
}

// ObjectPosition uses DefaultParams.
func ObjectPosition(deviceTilt, deviceRoll float64) domain.ScreenOffset {
	return defaultEngine.ObjectPosition(deviceTilt, deviceRoll)
}
