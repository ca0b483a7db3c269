package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/core/ports"
	"github.com/samirrijal/arnav/internal/core/usecases"
)

// TourActivities holds the activity implementations for the tour workflow.
type TourActivities struct {
	Navigation *usecases.NavigationService
	Queues     *usecases.QueueService
	Publisher  ports.TargetPublisher
}

// ResolveDestination looks a stop up in the catalog.
func (a *TourActivities) ResolveDestination(ctx context.Context, name string) (domain.Target, error) {
	if name == domain.QueueSelector {
		return domain.Target{}, temporal.NewNonRetryableApplicationError("queue is not a tour stop", "UnknownStop", nil)
	}
	t, err := a.Navigation.ResolveTarget(ctx, name, nil)
	if errors.Is(err, domain.ErrNoTarget) {
		return domain.Target{}, temporal.NewNonRetryableApplicationError("unknown tour stop "+name, "UnknownStop", err)
	}
	if err != nil {
		return domain.Target{}, fmt.Errorf("resolve %q: %w", name, err)
	}
	return t, nil
}

// SelectBestQueue picks the queue that ends the tour. origin is the last
// stop, or nil when unknown.
func (a *TourActivities) SelectBestQueue(ctx context.Context, origin *domain.GeoPoint) (domain.Target, error) {
	q, err := a.Queues.BestQueue(ctx, origin)
	if err != nil {
		return domain.Target{}, fmt.Errorf("best queue: %w", err)
	}
	return domain.QueueTarget(q), nil
}

// PublishTarget tells the session's device about its new target.
func (a *TourActivities) PublishTarget(ctx context.Context, sessionID string, t domain.Target) error {
	if a.Publisher == nil {
		slog.InfoContext(ctx, "TARGET (no publisher)", "session", sessionID, "target", t.Label())
		return nil
	}
	if err := a.Publisher.PublishTarget(ctx, sessionID, t); err != nil {
		return fmt.Errorf("publish target for %s: %w", sessionID, err)
	}
	return nil
}
