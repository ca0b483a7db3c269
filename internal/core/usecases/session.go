package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/core/ports"
	"github.com/samirrijal/arnav/internal/pkg/metrics"
	"github.com/samirrijal/arnav/internal/pkg/telemetry"
)

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithPublisher publishes every state and arrival through p.
func WithPublisher(p ports.EventPublisher) SessionOption {
	return func(s *Session) { s.publisher = p }
}

// WithAutoAdvance moves to the next target on arrival.
func WithAutoAdvance(on bool) SessionOption {
	return func(s *Session) { s.autoAdvance = on }
}

// Session merges one device's location and orientation streams into
// navigation ticks. The latest reading of each stream wins; every accepted
// reading recomputes a full state once both streams have reported.
type Session struct {
	id          string
	nav         *NavigationService
	publisher   ports.EventPublisher
	autoAdvance bool

	mu          sync.Mutex
	target      domain.Target
	location    *domain.GeoPoint
	orientation *domain.DeviceOrientation
	last        *domain.NavigationState
	arrivedAt   *domain.Target
	seen        time.Time
	closed      bool
}

// errSessionClosed is returned by updates to a session a hub has pruned.
var errSessionClosed = errors.New("session closed")

// NewSession creates a session navigating to target.
func NewSession(id string, nav *NavigationService, target domain.Target, opts ...SessionOption) *Session {
	s := &Session{id: id, nav: nav, target: target, seen: time.Now()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Target returns the current target.
func (s *Session) Target() domain.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Last returns the most recent state, or nil before the first tick.
func (s *Session) Last() *domain.NavigationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	st := *s.last
	return &st
}

// Location returns the last accepted fix, or nil.
func (s *Session) Location() *domain.GeoPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return nil
	}
	loc := *s.location
	return &loc
}

// LastSeen is when the session last accepted a reading.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}

// SetTarget switches the target, e.g. when a tour advances.
func (s *Session) SetTarget(t domain.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = t
	s.arrivedAt = nil
}

// UpdateLocation accepts a geolocation fix. The returned state is nil until
// an orientation has been seen.
func (s *Session) UpdateLocation(ctx context.Context, r domain.LocationReading) (*domain.NavigationState, error) {
	if !r.Location.Valid() {
		return nil, fmt.Errorf("session %s: %w: %+v", s.id, domain.ErrInvalidLocation, r.Location)
	}

	ctx, span := s.startSpan(ctx, "location")
	defer span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errSessionClosed
	}
	loc := r.Location
	s.location = &loc
	s.seen = time.Now()
	st, arrival, err := s.tick(ctx)
	s.mu.Unlock()

	s.publish(ctx, st, arrival)
	return st, err
}

// UpdateOrientation accepts an orientation event. Readings with a missing
// axis are rejected with domain.ErrIncompleteOrientation and the previous
// orientation stays in effect.
func (s *Session) UpdateOrientation(ctx context.Context, r domain.OrientationReading) (*domain.NavigationState, error) {
	o, err := r.Orientation()
	if err != nil {
		metrics.OrientationRejected.Inc()
		return nil, fmt.Errorf("session %s: %w", s.id, err)
	}

	ctx, span := s.startSpan(ctx, "orientation")
	defer span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errSessionClosed
	}
	s.orientation = &o
	s.seen = time.Now()
	st, arrival, err := s.tick(ctx)
	s.mu.Unlock()

	s.publish(ctx, st, arrival)
	return st, err
}

func (s *Session) startSpan(ctx context.Context, kind string) (context.Context, trace.Span) {
	return tracer.Start(ctx, telemetry.SpanSensorUpdate, trace.WithAttributes(
		attribute.String(telemetry.AttrSession, s.id),
		attribute.String(telemetry.AttrSensorKind, kind),
	))
}

// tick must be called with mu held. It returns the new state and, on a fresh
// arrival, the event to publish once mu is released.
func (s *Session) tick(ctx context.Context) (*domain.NavigationState, *domain.ArrivalEvent, error) {
	if s.location == nil || s.orientation == nil {
		return nil, nil, nil
	}

	st := s.nav.Navigate(ctx, *s.location, *s.orientation, s.target)
	s.last = &st

	if st.Arrived && !s.alreadyArrived() {
		event, err := s.arrive(ctx)
		return &st, event, err
	}
	return &st, nil, nil
}

func (s *Session) alreadyArrived() bool {
	return s.arrivedAt != nil && *s.arrivedAt == s.target
}

func (s *Session) arrive(ctx context.Context) (*domain.ArrivalEvent, error) {
	reached := s.target
	s.arrivedAt = &reached
	metrics.Arrivals.WithLabelValues(string(reached.Mode)).Inc()

	event := &domain.ArrivalEvent{SessionID: s.id, Target: reached, Time: time.Now()}

	if s.autoAdvance {
		next, err := s.nav.NextTarget(ctx, reached, s.location)
		if err != nil {
			return nil, fmt.Errorf("advance from %s: %w", reached.Label(), err)
		}
		if next != nil {
			event.Next = next
			s.target = *next
			s.arrivedAt = nil
			slog.InfoContext(ctx, "target advanced", "session", s.id, "from", reached.Label(), "to", next.Label())
		}
	}

	return event, nil
}

// publish runs without mu so a slow broker never blocks readers of the session.
func (s *Session) publish(ctx context.Context, st *domain.NavigationState, arrival *domain.ArrivalEvent) {
	if s.publisher == nil || st == nil {
		return
	}
	if err := s.publisher.PublishState(ctx, s.id, st); err != nil {
		slog.WarnContext(ctx, "publish state failed", "session", s.id, "error", err)
	}
	if arrival == nil {
		return
	}
	if err := s.publisher.PublishArrival(ctx, arrival); err != nil {
		slog.WarnContext(ctx, "publish arrival failed", "session", s.id, "error", err)
	}
}

// closeIfIdle marks the session closed when it has not seen a reading since
// cutoff. Closed sessions reject further updates.
func (s *Session) closeIfIdle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen.Before(cutoff) {
		s.closed = true
	}
	return s.closed
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SessionHub owns the sessions of a long-running worker, keyed by id.
type SessionHub struct {
	nav             *NavigationService
	publisher       ports.EventPublisher
	autoAdvance     bool
	defaultSelector string

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionHub creates a hub. Sessions created implicitly by incoming
// readings navigate to defaultSelector.
func NewSessionHub(nav *NavigationService, publisher ports.EventPublisher, autoAdvance bool, defaultSelector string) *SessionHub {
	return &SessionHub{
		nav:             nav,
		publisher:       publisher,
		autoAdvance:     autoAdvance,
		defaultSelector: defaultSelector,
		sessions:        make(map[string]*Session),
	}
}

// Open creates (or replaces) the session id navigating to selector.
func (h *SessionHub) Open(ctx context.Context, id, selector string) (*Session, error) {
	return h.open(ctx, id, selector, true)
}

// Get returns the session id, opening it with the default selector if needed.
// Concurrent first readings for the same id share one session.
func (h *SessionHub) Get(ctx context.Context, id string) (*Session, error) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	h.mu.Unlock()
	if ok {
		return s, nil
	}
	return h.open(ctx, id, h.defaultSelector, false)
}

func (h *SessionHub) open(ctx context.Context, id, selector string, replace bool) (*Session, error) {
	// Resolved outside mu: the catalog may hit the database.
	target, err := h.nav.ResolveTarget(ctx, selector, nil)
	if err != nil {
		return nil, err
	}
	s := NewSession(id, h.nav, target, WithPublisher(h.publisher), WithAutoAdvance(h.autoAdvance))

	h.mu.Lock()
	defer h.mu.Unlock()
	existing, exists := h.sessions[id]
	if exists && !replace {
		return existing, nil
	}
	if !exists {
		metrics.ActiveSessions.Inc()
	}
	h.sessions[id] = s
	return s, nil
}

// withSession applies fn to session id. If Prune closes the session while
// fn runs, fn is retried once on a fresh session.
func (h *SessionHub) withSession(ctx context.Context, id string, fn func(*Session) error) error {
	for attempt := 0; ; attempt++ {
		s, err := h.Get(ctx, id)
		if err != nil {
			return err
		}
		err = fn(s)
		if attempt == 0 && (errors.Is(err, errSessionClosed) || s.isClosed()) {
			continue
		}
		return err
	}
}

// Close forgets a session.
func (h *SessionHub) Close(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[id]; ok {
		delete(h.sessions, id)
		metrics.ActiveSessions.Dec()
	}
}

// Len returns the number of open sessions.
func (h *SessionHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// HandleLocation routes a location reading to its session.
func (h *SessionHub) HandleLocation(ctx context.Context, id string, r domain.LocationReading) error {
	return h.withSession(ctx, id, func(s *Session) error {
		_, err := s.UpdateLocation(ctx, r)
		return err
	})
}

// Retarget points session id at t, opening the session if needed.
func (h *SessionHub) Retarget(ctx context.Context, id string, t domain.Target) error {
	return h.withSession(ctx, id, func(s *Session) error {
		s.SetTarget(t)
		return nil
	})
}

// Prune closes sessions that have not seen a reading for longer than idle
// and returns how many were closed. A handler still holding a pruned session
// gets errSessionClosed and moves its reading to a new one.
func (h *SessionHub) Prune(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for id, s := range h.sessions {
		if s.closeIfIdle(cutoff) {
			delete(h.sessions, id)
			metrics.ActiveSessions.Dec()
			n++
		}
	}
	return n
}

// HandleOrientation routes an orientation reading to its session. Incomplete
// readings are dropped without error so brokers do not redeliver them.
func (h *SessionHub) HandleOrientation(ctx context.Context, id string, r domain.OrientationReading) error {
	err := h.withSession(ctx, id, func(s *Session) error {
		_, err := s.UpdateOrientation(ctx, r)
		return err
	})
	if errors.Is(err, domain.ErrIncompleteOrientation) {
		slog.DebugContext(ctx, "dropped incomplete orientation", "session", id)
		return nil
	}
	return err
}
