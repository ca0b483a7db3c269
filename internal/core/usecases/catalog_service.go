package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/core/ports"
	"github.com/samirrijal/arnav/internal/pkg/metrics"
)

const (
	destinationsCacheKey = "catalog:destinations"
	queuesCacheKey       = "catalog:queues"
	catalogCacheTTL      = 300
)

// CatalogService exposes the destination and queue catalogs.
type CatalogService struct {
	catalog ports.CatalogRepository
	cache   ports.CacheService
	ttl     int
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(catalog ports.CatalogRepository, cache ports.CacheService) *CatalogService {
	return &CatalogService{catalog: catalog, cache: cache, ttl: catalogCacheTTL}
}

// WithCacheTTL overrides the cache lifetime in seconds; non-positive values are ignored.
func (s *CatalogService) WithCacheTTL(seconds int) *CatalogService {
	if seconds > 0 {
		s.ttl = seconds
	}
	return s
}

// Destinations returns the ordered destination catalog.
func (s *CatalogService) Destinations(ctx context.Context) ([]domain.Destination, error) {
	var dests []domain.Destination
	if s.cached(ctx, destinationsCacheKey, &dests) {
		return dests, nil
	}

	dests, err := s.catalog.ListDestinations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	s.store(ctx, destinationsCacheKey, dests)
	return dests, nil
}

// Queues returns the queue catalog.
func (s *CatalogService) Queues(ctx context.Context) ([]domain.QueuePoint, error) {
	var queues []domain.QueuePoint
	if s.cached(ctx, queuesCacheKey, &queues) {
		return queues, nil
	}

	queues, err := s.catalog.ListQueues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	s.store(ctx, queuesCacheKey, queues)
	return queues, nil
}

// Destination returns a destination by exact name.
func (s *CatalogService) Destination(ctx context.Context, name string) (*domain.Destination, error) {
	d, err := s.catalog.GetDestination(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("destination %q: %w", name, err)
	}
	return d, nil
}

// Queue returns a queue by id.
func (s *CatalogService) Queue(ctx context.Context, id int) (*domain.QueuePoint, error) {
	q, err := s.catalog.GetQueue(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("queue %d: %w", id, err)
	}
	return q, nil
}

// DestinationIndex resolves a name to its catalog position using a
// case-sensitive exact match. It returns domain.NoTarget when absent.
func (s *CatalogService) DestinationIndex(ctx context.Context, name string) (int, error) {
	dests, err := s.Destinations(ctx)
	if err != nil {
		return domain.NoTarget, err
	}
	return IndexOf(dests, name), nil
}

// NextDestination returns the entry after index, or ok=false past the end.
func (s *CatalogService) NextDestination(ctx context.Context, index int) (int, *domain.Destination, bool, error) {
	dests, err := s.Destinations(ctx)
	if err != nil {
		return domain.NoTarget, nil, false, err
	}
	next := index + 1
	if index < 0 || next >= len(dests) {
		return domain.NoTarget, nil, false, nil
	}
	return next, &dests[next], true, nil
}

// Invalidate drops cached catalog entries, e.g. after a seed.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, destinationsCacheKey)
	_ = s.cache.Delete(ctx, queuesCacheKey)
}

// IndexOf is the exact-match lookup behind DestinationIndex.
func IndexOf(dests []domain.Destination, name string) int {
	for i, d := range dests {
		if d.Name == name {
			return i
		}
	}
	return domain.NoTarget
}

func (s *CatalogService) cached(ctx context.Context, key string, v any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues(key).Inc()
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.WarnContext(ctx, "discarding corrupt cache entry", "key", key, "error", err)
		return false
	}
	metrics.CacheHits.WithLabelValues(key).Inc()
	return true
}

func (s *CatalogService) store(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, data, s.ttl)
	}
}
