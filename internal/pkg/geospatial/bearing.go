package geospatial

import "math"

// Bearing returns the initial course from point 1 to point 2 in degrees
// clockwise from true north, normalized to [0, 360). Identical points yield 0.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dLon := toRad(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	return Wrap360(toDeg(math.Atan2(y, x)))
}

// Wrap360 folds an angle into [0, 360).
func Wrap360(deg float64) float64 {
	if deg == 0 {
		return 0 // also folds -0
	}
	if deg > 0 && deg < 360 {
		return deg
	}
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	// -1e-15 + 360 rounds to 360
	if d >= 360 {
		d = 0
	}
	return d
}

// AngularDifference returns the signed difference target-reference folded
// into (-180, 180]. Positive means the target is clockwise of the reference.
func AngularDifference(target, reference float64) float64 {
	d := Wrap360(target - reference)
	if d > 180 {
		d -= 360
	}
	return d
}

var compassPoints = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassPoint converts a bearing to an 8-point compass direction.
func CompassPoint(bearing float64) string {
	if math.IsNaN(bearing) {
		return ""
	}
	index := int((Wrap360(bearing)+22.5)/45.0) % 8
	return compassPoints[index]
}
