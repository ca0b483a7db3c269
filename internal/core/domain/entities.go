package domain

import (
	"fmt"
	"time"
)

// TargetMode selects what the overlay navigates to.
type TargetMode string

const (
	ModeDestination TargetMode = "destination"
	ModeQueue       TargetMode = "queue"
)

// QueueSelector is the selection signal value that switches to queue-mode.
const QueueSelector = "queue"

// NoTarget is returned by index lookups that find nothing.
const NoTarget = -1

// Destination is a named product location inside the store catalog.
type Destination struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

// QueuePoint is a queueing waypoint (checkout line).
type QueuePoint struct {
	ID       int      `json:"id"`
	Location GeoPoint `json:"location"`
}

// Target is the resolved point the overlay currently points at.
type Target struct {
	Mode     TargetMode `json:"mode"`
	Name     string     `json:"name,omitempty"`
	QueueID  int        `json:"queue_id,omitempty"`
	Index    int        `json:"index"` // catalog position, NoTarget in queue-mode
	Location GeoPoint   `json:"location"`
}

// Label is the human-readable text shown in the overlay header.
func (t Target) Label() string {
	if t.Mode == ModeQueue {
		return "queue " + itoa(t.QueueID)
	}
	return t.Name
}

// DestinationTarget builds a destination-mode target.
func DestinationTarget(index int, d Destination) Target {
	return Target{Mode: ModeDestination, Name: d.Name, Index: index, Location: d.Location}
}

// QueueTarget builds a queue-mode target.
func QueueTarget(q QueuePoint) Target {
	return Target{Mode: ModeQueue, QueueID: q.ID, Index: NoTarget, Location: q.Location}
}

// DeviceOrientation is a fully populated orientation sample.
type DeviceOrientation struct {
	Alpha float64 `json:"alpha"` // compass heading, [0, 360)
	Beta  float64 `json:"beta"`  // front-back tilt, [-180, 180]
	Gamma float64 `json:"gamma"` // left-right tilt, [-90, 90]
}

// OrientationReading is a raw orientation event; sensors may omit any axis.
type OrientationReading struct {
	Alpha *float64 `json:"alpha"`
	Beta  *float64 `json:"beta"`
	Gamma *float64 `json:"gamma"`
}

// Orientation converts the reading, failing when an axis is missing.
func (r OrientationReading) Orientation() (DeviceOrientation, error) {
	if r.Alpha == nil || r.Beta == nil || r.Gamma == nil {
		return DeviceOrientation{}, ErrIncompleteOrientation
	}
	return DeviceOrientation{Alpha: *r.Alpha, Beta: *r.Beta, Gamma: *r.Gamma}, nil
}

// LocationReading is a geolocation fix with its reported accuracy in meters.
type LocationReading struct {
	Location GeoPoint  `json:"location"`
	Accuracy float64   `json:"accuracy,omitempty"`
	Time     time.Time `json:"time"`
}

// ScreenOffset is a marker offset from the viewport centre in pixels (+x right, +y down).
type ScreenOffset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NavigationState is everything the renderer needs for one frame.
type NavigationState struct {
	Target         Target       `json:"target"`
	Bearing        float64      `json:"bearing"`
	DistanceMeters float64      `json:"distance_m"`
	Scale          float64      `json:"scale"`
	Visible        bool         `json:"visible"`
	ScreenOffset   ScreenOffset `json:"screen_offset"`
	ArrowRotation  float64      `json:"arrow_rotation"`
	Compass        string       `json:"compass"`
	ETAMinutes     int          `json:"eta_minutes"`
	Arrived        bool         `json:"arrived"`
	ComputedAt     time.Time    `json:"computed_at"`
}

// ArrivalEvent is emitted when a session reaches its current target.
type ArrivalEvent struct {
	SessionID string    `json:"session_id"`
	Target    Target    `json:"target"`
	Next      *Target   `json:"next,omitempty"`
	Time      time.Time `json:"time"`
}

// CatalogSeed is a complete catalog snapshot, as loaded from a seed file.
type CatalogSeed struct {
	Destinations []Destination `json:"destinations"`
	Queues       []QueuePoint  `json:"queues"`
}

// Validate rejects duplicate keys and out-of-range coordinates.
func (s CatalogSeed) Validate() error {
	names := make(map[string]struct{}, len(s.Destinations))
	for _, d := range s.Destinations {
		if d.Name == "" || d.Name == QueueSelector {
			return fmt.Errorf("destination name %q is reserved or empty", d.Name)
		}
		if _, dup := names[d.Name]; dup {
			return fmt.Errorf("duplicate destination %q", d.Name)
		}
		names[d.Name] = struct{}{}
		if !d.Location.Valid() {
			return fmt.Errorf("destination %q: %w", d.Name, ErrInvalidLocation)
		}
	}
	ids := make(map[int]struct{}, len(s.Queues))
	for _, q := range s.Queues {
		if _, dup := ids[q.ID]; dup {
			return fmt.Errorf("duplicate queue %d", q.ID)
		}
		ids[q.ID] = struct{}{}
		if !q.Location.Valid() {
			return fmt.Errorf("queue %d: %w", q.ID, ErrInvalidLocation)
		}
	}
	return nil
}
