package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/pkg/metrics"
)

// Subscriber implements ports.SensorSubscriber over core NATS wildcards.
// Readings are latest-wins, so there is nothing to gain from redelivery.
type Subscriber struct {
	conn  *nats.Conn
	owned bool

	mu   sync.Mutex
	subs []*nats.Subscription
}

// NewSubscriber connects to url.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn, owned: true}, nil
}

// NewSubscriberConn shares an existing connection; Close will not drain it.
func NewSubscriberConn(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

func (s *Subscriber) SubscribeLocations(ctx context.Context, handler func(ctx context.Context, sessionID string, r domain.LocationReading) error) error {
	return s.subscribe(sensorPrefix+"*."+KindLocation, KindLocation, func(session string, data []byte) error {
		var r domain.LocationReading
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("decode location: %w", err)
		}
		return handler(ctx, session, r)
	})
}

func (s *Subscriber) SubscribeOrientations(ctx context.Context, handler func(ctx context.Context, sessionID string, r domain.OrientationReading) error) error {
	return s.subscribe(sensorPrefix+"*."+KindOrientation, KindOrientation, func(session string, data []byte) error {
		var r domain.OrientationReading
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("decode orientation: %w", err)
		}
		return handler(ctx, session, r)
	})
}

// SubscribeTargets receives target changes for every session, e.g. from the
// tour worker.
func (s *Subscriber) SubscribeTargets(ctx context.Context, handler func(ctx context.Context, sessionID string, t domain.Target) error) error {
	sub, err := s.conn.Subscribe(targetPrefix+"*", func(msg *nats.Msg) {
		session, ok := strings.CutPrefix(msg.Subject, targetPrefix)
		if !ok || !ValidSessionID(session) {
			return
		}
		var t domain.Target
		if err := json.Unmarshal(msg.Data, &t); err != nil {
			slog.Warn("bad target message", "subject", msg.Subject, "error", err)
			return
		}
		if err := handler(ctx, session, t); err != nil {
			slog.Warn("target change rejected", "session", session, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe targets: %w", err)
	}
	s.track(sub)
	return nil
}

// SubscribeStates follows the states computed for one session.
func (s *Subscriber) SubscribeStates(sessionID string, handler func(st domain.NavigationState)) error {
	sub, err := s.conn.Subscribe(StateSubject(sessionID), func(msg *nats.Msg) {
		var st domain.NavigationState
		if err := json.Unmarshal(msg.Data, &st); err != nil {
			slog.Warn("bad state message", "subject", msg.Subject, "error", err)
			return
		}
		handler(st)
	})
	if err != nil {
		return err
	}
	s.track(sub)
	return nil
}

func (s *Subscriber) subscribe(subject, kind string, handle func(session string, data []byte) error) error {
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		session, _, ok := ParseSensorSubject(msg.Subject)
		if !ok {
			metrics.SensorMessages.WithLabelValues(kind, "bad_subject").Inc()
			return
		}
		if err := handle(session, msg.Data); err != nil {
			metrics.SensorMessages.WithLabelValues(kind, "error").Inc()
			slog.Warn("sensor reading rejected", "session", session, "kind", kind, "error", err)
			return
		}
		metrics.SensorMessages.WithLabelValues(kind, "ok").Inc()
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.track(sub)
	return nil
}

func (s *Subscriber) track(sub *nats.Subscription) {
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

// Close unsubscribes and, when the connection is owned, drains it.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
	if s.owned {
		_ = s.conn.Drain()
	}
}
