package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/pkg/telemetry"
)

var tracer = otel.Tracer("github.com/samirrijal/arnav/internal/adapters/nats")

// Connect dials NATS with the reconnect policy shared by every component.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the navigation streams exist.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}
	p, err := NewPublisherConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// NewPublisherConn reuses an existing connection.
func NewPublisherConn(conn *nats.Conn) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	streams := []nats.StreamConfig{
		{
			// Only the latest state per session matters to late joiners.
			Name:              "NAV_STATES",
			Subjects:          []string{statePrefix + ">", targetPrefix + ">"},
			Retention:         nats.LimitsPolicy,
			MaxMsgsPerSubject: 1,
			MaxAge:            10 * time.Minute,
			Storage:           nats.MemoryStorage,
		},
		{
			Name:      "NAV_ARRIVALS",
			Subjects:  []string{arrivalPrefix + ">"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishState stores the latest state of a session.
func (p *Publisher) PublishState(ctx context.Context, sessionID string, st *domain.NavigationState) error {
	_, span := tracer.Start(ctx, telemetry.SpanPublishState)
	defer span.End()

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(StateSubject(sessionID), data, nats.Context(ctx))
	return err
}

// PublishArrival records that a session reached its target.
func (p *Publisher) PublishArrival(ctx context.Context, event *domain.ArrivalEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ArrivalSubject(event.SessionID), data, nats.Context(ctx))
	return err
}

// PublishTarget announces a target change decided outside the session,
// e.g. by a tour workflow.
func (p *Publisher) PublishTarget(ctx context.Context, sessionID string, t domain.Target) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(TargetSubject(sessionID), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for readiness checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// SensorPublisher sends device readings on core NATS. It is what a device
// (or cmd/simulate) uses to feed a navigator.
type SensorPublisher struct {
	conn *nats.Conn
}

func NewSensorPublisher(conn *nats.Conn) *SensorPublisher {
	return &SensorPublisher{conn: conn}
}

func (p *SensorPublisher) PublishLocation(sessionID string, r domain.LocationReading) error {
	return p.publish(LocationSubject(sessionID), r)
}

func (p *SensorPublisher) PublishOrientation(sessionID string, r domain.OrientationReading) error {
	return p.publish(OrientationSubject(sessionID), r)
}

func (p *SensorPublisher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}
