package usecases

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/core/navigation"
	"github.com/samirrijal/arnav/internal/pkg/metrics"
	"github.com/samirrijal/arnav/internal/pkg/telemetry"
)

var tracer = otel.Tracer("github.com/samirrijal/arnav/internal/core/usecases")

// NavigationService resolves targets and computes navigation states.
type NavigationService struct {
	engine  *navigation.Engine
	catalog *CatalogService
	queues  *QueueService
	now     func() time.Time
}

// NewNavigationService creates a new NavigationService.
func NewNavigationService(engine *navigation.Engine, catalog *CatalogService, queues *QueueService) *NavigationService {
	return &NavigationService{engine: engine, catalog: catalog, queues: queues, now: time.Now}
}

// Engine exposes the geometry engine used by this service.
func (s *NavigationService) Engine() *navigation.Engine {
	return s.engine
}

// ResolveTarget turns a selection signal into a target. "queue" selects the
// best queue (origin may be nil); anything else is an exact destination name.
// Unknown names wrap domain.ErrNoTarget.
func (s *NavigationService) ResolveTarget(ctx context.Context, selector string, origin *domain.GeoPoint) (domain.Target, error) {
	if selector == "" {
		return domain.Target{}, fmt.Errorf("empty selector: %w", domain.ErrNoTarget)
	}

	if selector == domain.QueueSelector {
		q, err := s.queues.BestQueue(ctx, origin)
		if err != nil {
			return domain.Target{}, err
		}
		return domain.QueueTarget(q), nil
	}

	dests, err := s.catalog.Destinations(ctx)
	if err != nil {
		return domain.Target{}, err
	}
	idx := IndexOf(dests, selector)
	if idx == domain.NoTarget {
		return domain.Target{}, fmt.Errorf("destination %q: %w", selector, domain.ErrNoTarget)
	}
	return domain.DestinationTarget(idx, dests[idx]), nil
}

// NextTarget is the arrival advance rule: the next destination in catalog
// order, and after the last one the best queue. Queue-mode has no successor.
func (s *NavigationService) NextTarget(ctx context.Context, current domain.Target, origin *domain.GeoPoint) (*domain.Target, error) {
	if current.Mode == domain.ModeQueue {
		return nil, nil
	}

	idx, dest, ok, err := s.catalog.NextDestination(ctx, current.Index)
	if err != nil {
		return nil, err
	}
	if ok {
		t := domain.DestinationTarget(idx, *dest)
		return &t, nil
	}

	q, err := s.queues.BestQueue(ctx, origin)
	if err != nil {
		return nil, err
	}
	t := domain.QueueTarget(q)
	return &t, nil
}

// Navigate computes the complete state for one update tick.
func (s *NavigationService) Navigate(ctx context.Context, origin domain.GeoPoint, o domain.DeviceOrientation, target domain.Target) domain.NavigationState {
	_, span := tracer.Start(ctx, telemetry.SpanNavigate)
	defer span.End()

	start := time.Now()
	st := s.engine.Compute(origin, o, target, s.now())

	metrics.ComputeDuration.Observe(time.Since(start).Seconds())
	metrics.NavigationTicks.WithLabelValues(string(target.Mode)).Inc()

	span.SetAttributes(
		attribute.String(telemetry.AttrTargetMode, string(target.Mode)),
		attribute.Float64(telemetry.AttrDistance, st.DistanceMeters),
		attribute.Bool(telemetry.AttrVisible, st.Visible),
	)
	return st
}
