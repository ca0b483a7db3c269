// Package navigation turns a position, an orientation and a target into the
// overlay values a renderer draws: bearing, distance, marker scale, visibility
// and screen offset. Everything here is pure and safe for concurrent use.
package navigation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/pkg/geospatial"
)

// Params configures the engine. The zero value is not usable; start from DefaultParams.
type Params struct {
	// Scale falloff: MaxScale*RefDistance/max(d, RefDistance), clamped to [MinScale, MaxScale].
	MinScale    float64 `mapstructure:"min_scale"`
	MaxScale    float64 `mapstructure:"max_scale"`
	RefDistance float64 `mapstructure:"ref_distance_m"`

	// Half of the horizontal camera field of view, degrees.
	HalfFOV float64 `mapstructure:"half_fov_deg"`

	// Pitch gate, off by default. When on, beta must be within [PitchMin, PitchMax].
	PitchGate bool    `mapstructure:"pitch_gate"`
	PitchMin  float64 `mapstructure:"pitch_min_deg"`
	PitchMax  float64 `mapstructure:"pitch_max_deg"`

	// Screen mapping. ReferencePitch is the beta of an upright device.
	PixelsPerDegree float64 `mapstructure:"pixels_per_degree"`
	ReferencePitch  float64 `mapstructure:"reference_pitch_deg"`
	ViewportWidth   float64 `mapstructure:"viewport_width_px"`
	ViewportHeight  float64 `mapstructure:"viewport_height_px"`

	// Arrival and ETA.
	ArrivalRadius float64 `mapstructure:"arrival_radius_m"`
	WalkingSpeed  float64 `mapstructure:"walking_speed_m_per_min"`
}

// DefaultParams are the engine defaults used by the package-level functions.
var DefaultParams = Params{
	MinScale:        0.2,
	MaxScale:        1.0,
	RefDistance:     2,
	HalfFOV:         30,
	PitchGate:       false,
	PitchMin:        30,
	PitchMax:        150,
	PixelsPerDegree: 10,
	ReferencePitch:  90,
	ViewportWidth:   360,
	ViewportHeight:  640,
	ArrivalRadius:   2,
	WalkingSpeed:    100,
}

// Validate reports every inconsistent parameter at once.
func (p Params) Validate() error {
	var errs []string

	if p.MinScale <= 0 {
		errs = append(errs, fmt.Sprintf("min_scale must be positive, got %g", p.MinScale))
	}
	if p.MaxScale < p.MinScale {
		errs = append(errs, fmt.Sprintf("max_scale (%g) must be >= min_scale (%g)", p.MaxScale, p.MinScale))
	}
	if p.RefDistance <= 0 {
		errs = append(errs, "ref_distance_m must be positive")
	}
	if p.HalfFOV <= 0 || p.HalfFOV > 180 {
		errs = append(errs, fmt.Sprintf("half_fov_deg must be in (0, 180], got %g", p.HalfFOV))
	}
	if p.PitchGate && p.PitchMin > p.PitchMax {
		errs = append(errs, "pitch_min_deg must be <= pitch_max_deg")
	}
	if p.PixelsPerDegree <= 0 {
		errs = append(errs, "pixels_per_degree must be positive")
	}
	if p.ViewportWidth <= 0 || p.ViewportHeight <= 0 {
		errs = append(errs, "viewport dimensions must be positive")
	}
	if p.ArrivalRadius < 0 {
		errs = append(errs, "arrival_radius_m must not be negative")
	}
	if p.WalkingSpeed <= 0 {
		errs = append(errs, "walking_speed_m_per_min must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid engine params:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Engine evaluates the overlay geometry for a fixed set of parameters.
type Engine struct {
	params Params
}

// New creates an Engine after validating params.
func New(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: p}, nil
}

// Default returns an Engine using DefaultParams.
func Default() *Engine {
	return &Engine{params: DefaultParams}
}

// Params returns a copy of the engine parameters.
func (e *Engine) Params() Params {
	return e.params
}

// ObjectScale maps a distance to a marker scale. Non-positive distances give
// MaxScale and NaN gives MinScale.
func (e *Engine) ObjectScale(distanceMeters float64) float64 {
	p := e.params
	if math.IsNaN(distanceMeters) {
		return p.MinScale
	}
	d := math.Max(distanceMeters, p.RefDistance)
	return clamp(p.MaxScale*p.RefDistance/d, p.MinScale, p.MaxScale)
}

// IsObjectVisible reports whether a target at targetBearing falls inside the
// camera's horizontal field of view for the given heading, and, if the pitch
// gate is on, whether the device is held within the accepted pitch range.
func (e *Engine) IsObjectVisible(targetBearing, deviceHeading, deviceTilt float64) bool {
	p := e.params
	diff := geospatial.AngularDifference(targetBearing, deviceHeading)
	if math.IsNaN(diff) || math.Abs(diff) > p.HalfFOV {
		return false
	}
	if p.PitchGate && (deviceTilt < p.PitchMin || deviceTilt > p.PitchMax) {
		return false
	}
	return true
}

// ObjectPosition maps pitch and roll to a marker offset from the viewport
// centre. Rolling right moves the marker left; tilting down moves it up.
// The result is clamped to the viewport.
func (e *Engine) ObjectPosition(deviceTilt, deviceRoll float64) domain.ScreenOffset {
	p := e.params
	halfW := p.ViewportWidth / 2
	halfH := p.ViewportHeight / 2

	x := -deviceRoll * p.PixelsPerDegree
	y := (deviceTilt - p.ReferencePitch) * p.PixelsPerDegree

	return domain.ScreenOffset{
		X: clamp(x, -halfW, halfW),
		Y: clamp(y, -halfH, halfH),
	}
}

// ArrowRotation is the CSS-style rotation of the direction arrow: device
// heading minus target bearing, folded into (-180, 180].
func (e *Engine) ArrowRotation(targetBearing, deviceHeading float64) float64 {
	return geospatial.AngularDifference(deviceHeading, targetBearing)
}

// ETAMinutes estimates walking time rounded up to whole minutes.
func (e *Engine) ETAMinutes(distanceMeters float64) int {
	if distanceMeters <= 0 || math.IsNaN(distanceMeters) {
		return 0
	}
	return int(math.Ceil(distanceMeters / e.params.WalkingSpeed))
}

// Arrived reports whether distanceMeters is strictly inside the arrival
// radius. A radius of 0 never arrives.
func (e *Engine) Arrived(distanceMeters float64) bool {
	return distanceMeters < e.params.ArrivalRadius
}

// Compute derives a complete NavigationState in one step. Both points are
// normalized first so out-of-range input never produces NaN.
func (e *Engine) Compute(origin domain.GeoPoint, o domain.DeviceOrientation, target domain.Target, now time.Time) domain.NavigationState {
	from := origin.Normalize()
	to := target.Location.Normalize()

	bearing := geospatial.Bearing(from.Lat, from.Lon, to.Lat, to.Lon)
	distance := geospatial.Haversine(from.Lat, from.Lon, to.Lat, to.Lon)

	return domain.NavigationState{
		Target:         target,
		Bearing:        bearing,
		DistanceMeters: distance,
		Scale:          e.ObjectScale(distance),
		Visible:        e.IsObjectVisible(bearing, o.Alpha, o.Beta),
		ScreenOffset:   e.ObjectPosition(o.Beta, o.Gamma),
		ArrowRotation:  e.ArrowRotation(bearing, o.Alpha),
		Compass:        geospatial.CompassPoint(bearing),
		ETAMinutes:     e.ETAMinutes(distance),
		Arrived:        e.Arrived(distance),
		ComputedAt:     now,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
