package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/arnav/internal/core/domain"
)

// --- Mock CatalogRepository ---

type mockCatalogRepo struct {
	listDestinationsFn func(ctx context.Context) ([]domain.Destination, error)
	listQueuesFn       func(ctx context.Context) ([]domain.QueuePoint, error)
	calls              int
}

func (m *mockCatalogRepo) ListDestinations(ctx context.Context) ([]domain.Destination, error) {
	m.calls++
	if m.listDestinationsFn != nil {
		return m.listDestinationsFn(ctx)
	}
	return nil, nil
}

func (m *mockCatalogRepo) GetDestination(ctx context.Context, name string) (*domain.Destination, error) {
	dests, _ := m.ListDestinations(ctx)
	for _, d := range dests {
		if d.Name == name {
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalogRepo) ListQueues(ctx context.Context) ([]domain.QueuePoint, error) {
	if m.listQueuesFn != nil {
		return m.listQueuesFn(ctx)
	}
	return nil, nil
}

func (m *mockCatalogRepo) GetQueue(ctx context.Context, id int) (*domain.QueuePoint, error) {
	qs, _ := m.ListQueues(ctx)
	for _, q := range qs {
		if q.ID == id {
			return &q, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalogRepo) UpsertDestination(ctx context.Context, position int, d *domain.Destination) error {
	return nil
}
func (m *mockCatalogRepo) UpsertQueue(ctx context.Context, q *domain.QueuePoint) error { return nil }

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	states   []domain.NavigationState
	arrivals []domain.ArrivalEvent
}

func (m *mockPublisher) PublishState(ctx context.Context, sessionID string, st *domain.NavigationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, *st)
	return nil
}

func (m *mockPublisher) PublishArrival(ctx context.Context, e *domain.ArrivalEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arrivals = append(m.arrivals, *e)
	return nil
}

// --- Fixtures ---

var (
	testDestinations = []domain.Destination{
		{Name: "CocaCola", Location: domain.GeoPoint{Lat: 25.6487015, Lon: -100.2898314}},
		{Name: "Pepsi", Location: domain.GeoPoint{Lat: 25.6487135, Lon: -100.2898274}},
		{Name: "Manzana", Location: domain.GeoPoint{Lat: 25.648325, Lon: -100.284891}},
	}
	testQueues = []domain.QueuePoint{
		{ID: 1, Location: domain.GeoPoint{Lat: 25.6487115, Lon: -100.2898174}},
		{ID: 2, Location: domain.GeoPoint{Lat: 25.6487135, Lon: -100.2898274}},
		{ID: 3, Location: domain.GeoPoint{Lat: 25.648325, Lon: -100.284891}},
	}
)

func fixtureRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		listDestinationsFn: func(ctx context.Context) ([]domain.Destination, error) { return testDestinations, nil },
		listQueuesFn:       func(ctx context.Context) ([]domain.QueuePoint, error) { return testQueues, nil },
	}
}

func f(v float64) *float64 { return &v }
