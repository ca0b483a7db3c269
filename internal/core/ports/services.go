package ports

import (
	"context"

	"github.com/samirrijal/arnav/internal/core/domain"
)

// EventPublisher publishes navigation events to a message broker.
type EventPublisher interface {
	PublishState(ctx context.Context, sessionID string, state *domain.NavigationState) error
	PublishArrival(ctx context.Context, event *domain.ArrivalEvent) error
}

// TargetPublisher announces target changes decided outside a session.
type TargetPublisher interface {
	PublishTarget(ctx context.Context, sessionID string, t domain.Target) error
}

// SensorSubscriber delivers sensor readings published by devices.
type SensorSubscriber interface {
	SubscribeLocations(ctx context.Context, handler func(ctx context.Context, sessionID string, r domain.LocationReading) error) error
	SubscribeOrientations(ctx context.Context, handler func(ctx context.Context, sessionID string, r domain.OrientationReading) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// TourRunner starts and drives multi-stop tours.
type TourRunner interface {
	StartTour(ctx context.Context, sessionID string, destinations []string) (string, error)
	SignalArrival(ctx context.Context, tourID string) error
	CurrentTarget(ctx context.Context, tourID string) (*domain.Target, error)
}
