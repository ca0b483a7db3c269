// Command simulate walks a synthetic device toward a destination and streams
// its readings to a running service, printing every state it gets back.
//
//	simulate -transport ws -addr localhost:8080 -destination Manzana
//	simulate -transport nats -nats nats://localhost:4222 -destination queue
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/samirrijal/arnav/internal/adapters/memory"
	natsadapter "github.com/samirrijal/arnav/internal/adapters/nats"
	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/pkg/geospatial"
)

type options struct {
	transport   string
	addr        string
	natsURL     string
	destination string
	from        domain.GeoPoint
	steps       int
	interval    time.Duration
}

func main() {
	var o options
	flag.StringVar(&o.transport, "transport", "ws", "ws or nats")
	flag.StringVar(&o.addr, "addr", "localhost:8080", "API host:port for the websocket transport")
	flag.StringVar(&o.natsURL, "nats", "nats://localhost:4222", "NATS URL for the nats transport")
	flag.StringVar(&o.destination, "destination", "Manzana", "destination name or \"queue\"")
	flag.Float64Var(&o.from.Lat, "from-lat", 25.6470, "start latitude")
	flag.Float64Var(&o.from.Lon, "from-lon", -100.2900, "start longitude")
	flag.IntVar(&o.steps, "steps", 20, "readings to send")
	flag.DurationVar(&o.interval, "interval", 500*time.Millisecond, "pause between readings")
	flag.Parse()

	target, err := destinationTarget(o.destination)
	if err != nil {
		log.Fatal(err)
	}
	to := target.Location
	path := walk(o.from, to, o.steps)
	heading := domain.DeviceOrientation{
		Alpha: geospatial.Bearing(o.from.Lat, o.from.Lon, to.Lat, to.Lon),
		Beta:  90,
	}
	session := uuid.NewString()
	fmt.Fprintf(os.Stderr, "session %s: %d steps toward %s\n", session, len(path), o.destination)

	switch o.transport {
	case "ws":
		err = runWebSocket(o, session, heading, path)
	case "nats":
		err = runNATS(o, session, target, heading, path)
	default:
		err = fmt.Errorf("unknown transport %q", o.transport)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// destinationTarget looks the target up in the built-in store layout.
func destinationTarget(name string) (domain.Target, error) {
	if name == domain.QueueSelector {
		return domain.QueueTarget(memory.DefaultQueues()[0]), nil
	}
	for i, d := range memory.DefaultDestinations() {
		if d.Name == name {
			return domain.DestinationTarget(i, d), nil
		}
	}
	return domain.Target{}, fmt.Errorf("unknown destination %q", name)
}

// walk interpolates a straight path that ends exactly on to.
func walk(from, to domain.GeoPoint, steps int) []domain.GeoPoint {
	if steps < 1 {
		steps = 1
	}
	out := make([]domain.GeoPoint, 0, steps)
	for i := 1; i <= steps; i++ {
		f := float64(i) / float64(steps)
		out = append(out, domain.GeoPoint{
			Lat: from.Lat + (to.Lat-from.Lat)*f,
			Lon: from.Lon + (to.Lon-from.Lon)*f,
		})
	}
	return out
}

func printState(st domain.NavigationState) {
	fmt.Printf("%-12s %7.1fm %5.1f° %-2s visible=%-5v scale=%.2f eta=%dmin arrived=%v\n",
		st.Target.Label(), st.DistanceMeters, st.Bearing, st.Compass, st.Visible, st.Scale, st.ETAMinutes, st.Arrived)
}

type wsReading struct {
	Type     string           `json:"type"`
	Location *domain.GeoPoint `json:"location,omitempty"`
	Alpha    *float64         `json:"alpha,omitempty"`
	Beta     *float64         `json:"beta,omitempty"`
	Gamma    *float64         `json:"gamma,omitempty"`
}

func runWebSocket(o options, session string, heading domain.DeviceOrientation, path []domain.GeoPoint) error {
	u := url.URL{Scheme: "ws", Host: o.addr, Path: "/ws/navigate"}
	u.RawQuery = url.Values{"destination": {o.destination}, "session": {session}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer conn.Close()

	var hello map[string]any
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("read greeting: %w", err)
	}
	if msg, ok := hello["error"]; ok {
		return fmt.Errorf("server: %v", msg)
	}

	// Orientation is fixed for the whole walk, so it is sent once.
	if err := conn.WriteJSON(wsReading{Type: "orientation", Alpha: &heading.Alpha, Beta: &heading.Beta, Gamma: &heading.Gamma}); err != nil {
		return err
	}

	for _, p := range path {
		loc := p
		if err := conn.WriteJSON(wsReading{Type: "location", Location: &loc}); err != nil {
			return err
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read state: %w", err)
		}
		var st domain.NavigationState
		if err := json.Unmarshal(raw, &st); err != nil || st.ComputedAt.IsZero() {
			fmt.Fprintf(os.Stderr, "server: %s\n", raw)
		} else {
			printState(st)
		}
		time.Sleep(o.interval)
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return nil
}

func runNATS(o options, session string, target domain.Target, heading domain.DeviceOrientation, path []domain.GeoPoint) error {
	conn, err := natsadapter.Connect(o.natsURL)
	if err != nil {
		return err
	}
	defer conn.Drain()

	// The navigator opens unknown sessions on its default destination.
	events, err := natsadapter.NewPublisherConn(conn)
	if err != nil {
		return err
	}
	if err := events.PublishTarget(context.Background(), session, target); err != nil {
		return fmt.Errorf("publish target: %w", err)
	}

	sub := natsadapter.NewSubscriberConn(conn)
	defer sub.Close()
	if err := sub.SubscribeStates(session, printState); err != nil {
		return err
	}

	pub := natsadapter.NewSensorPublisher(conn)
	reading := domain.OrientationReading{Alpha: &heading.Alpha, Beta: &heading.Beta, Gamma: &heading.Gamma}
	if err := pub.PublishOrientation(session, reading); err != nil {
		return err
	}
	for _, p := range path {
		if err := pub.PublishLocation(session, domain.LocationReading{Location: p, Time: time.Now()}); err != nil {
			return err
		}
		time.Sleep(o.interval)
	}

	// Let the last state arrive.
	return conn.FlushTimeout(2 * time.Second)
}
