package natsadapter

import "strings"

// Subject layout:
//
//	nav.sensor.<session>.location     device -> navigator
//	nav.sensor.<session>.orientation  device -> navigator
//	nav.state.<session>               navigator -> device (JetStream NAV_STATES)
//	nav.target.<session>              tour worker -> device (JetStream NAV_STATES)
//	nav.arrival.<session>             navigator -> anyone (JetStream NAV_ARRIVALS)
const (
	sensorPrefix  = "nav.sensor."
	statePrefix   = "nav.state."
	targetPrefix  = "nav.target."
	arrivalPrefix = "nav.arrival."

	KindLocation    = "location"
	KindOrientation = "orientation"
)

func LocationSubject(session string) string    { return sensorPrefix + session + "." + KindLocation }
func OrientationSubject(session string) string { return sensorPrefix + session + "." + KindOrientation }
func StateSubject(session string) string       { return statePrefix + session }
func TargetSubject(session string) string      { return targetPrefix + session }
func ArrivalSubject(session string) string     { return arrivalPrefix + session }

// ParseSensorSubject splits nav.sensor.<session>.<kind>. Session ids may not
// contain dots.
func ParseSensorSubject(subject string) (session, kind string, ok bool) {
	rest, found := strings.CutPrefix(subject, sensorPrefix)
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", false
	}
	switch parts[1] {
	case KindLocation, KindOrientation:
		return parts[0], parts[1], true
	}
	return "", "", false
}

// ValidSessionID reports whether id can be embedded in a subject token.
func ValidSessionID(id string) bool {
	return id != "" && !strings.ContainsAny(id, ".*> \t\r\n")
}
