package usecases

import (
	"context"
	"fmt"
	"math"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/pkg/geospatial"
	"github.com/samirrijal/arnav/internal/pkg/telemetry"
)

// QueuePolicy names a best-queue selection rule.
type QueuePolicy string

const (
	// PolicyFixed always picks the configured default queue (or the first one).
	PolicyFixed QueuePolicy = "fixed"
	// PolicyNearest picks the queue closest to the caller's position.
	PolicyNearest QueuePolicy = "nearest"
)

// ParseQueuePolicy validates a policy name. Empty means fixed.
func ParseQueuePolicy(s string) (QueuePolicy, error) {
	switch QueuePolicy(s) {
	case "", PolicyFixed:
		return PolicyFixed, nil
	case PolicyNearest:
		return PolicyNearest, nil
	default:
		return "", fmt.Errorf("unknown queue policy %q", s)
	}
}

// QueueService selects the queue a shopper should head to.
type QueueService struct {
	catalog        *CatalogService
	policy         QueuePolicy
	defaultQueueID int
}

// NewQueueService creates a QueueService. defaultQueueID <= 0 means "first queue".
func NewQueueService(catalog *CatalogService, policy QueuePolicy, defaultQueueID int) *QueueService {
	if policy == "" {
		policy = PolicyFixed
	}
	return &QueueService{catalog: catalog, policy: policy, defaultQueueID: defaultQueueID}
}

// Policy returns the active selection policy.
func (s *QueueService) Policy() QueuePolicy {
	return s.policy
}

// BestQueue applies the configured policy. origin may be nil, in which case
// the nearest policy falls back to the fixed choice.
func (s *QueueService) BestQueue(ctx context.Context, origin *domain.GeoPoint) (domain.QueuePoint, error) {
	ctx, span := tracer.Start(ctx, telemetry.SpanBestQueue)
	defer span.End()

	queues, err := s.catalog.Queues(ctx)
	if err != nil {
		return domain.QueuePoint{}, err
	}
	if len(queues) == 0 {
		return domain.QueuePoint{}, fmt.Errorf("best queue: %w", domain.ErrNotFound)
	}

	if s.policy == PolicyNearest && origin != nil {
		return nearestQueue(queues, *origin), nil
	}
	return s.fixedQueue(queues), nil
}

func (s *QueueService) fixedQueue(queues []domain.QueuePoint) domain.QueuePoint {
	if s.defaultQueueID > 0 {
		for _, q := range queues {
			if q.ID == s.defaultQueueID {
				return q
			}
		}
	}
	return queues[0]
}

// ties keep catalog order
func nearestQueue(queues []domain.QueuePoint, origin domain.GeoPoint) domain.QueuePoint {
	best := queues[0]
	bestDist := math.Inf(1)
	for _, q := range queues {
		d := geospatial.Haversine(origin.Lat, origin.Lon, q.Location.Lat, q.Location.Lon)
		if d < bestDist {
			best, bestDist = q, d
		}
	}
	return best
}
