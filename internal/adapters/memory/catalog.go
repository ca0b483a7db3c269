// Package memory provides an in-process, read-mostly catalog. It is the
// default backend and the seed data for the SQL backends.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samirrijal/arnav/internal/core/domain"
)

// Catalog implements ports.CatalogRepository over slices.
type Catalog struct {
	mu           sync.RWMutex
	destinations []domain.Destination
	queues       []domain.QueuePoint
}

// NewCatalog copies the given entries into a new catalog.
func NewCatalog(destinations []domain.Destination, queues []domain.QueuePoint) *Catalog {
	return &Catalog{
		destinations: append([]domain.Destination(nil), destinations...),
		queues:       append([]domain.QueuePoint(nil), queues...),
	}
}

// DefaultDestinations is the store layout the overlay shipped with.
func DefaultDestinations() []domain.Destination {
	return []domain.Destination{
		{Name: "CocaCola", Location: domain.GeoPoint{Lat: 25.6487015, Lon: -100.2898314}},
		{Name: "Pepsi", Location: domain.GeoPoint{Lat: 25.6487135, Lon: -100.2898274}},
		{Name: "Manzana", Location: domain.GeoPoint{Lat: 25.648325, Lon: -100.284891}},
		{Name: "Carne-asada", Location: domain.GeoPoint{Lat: 25.647943, Lon: -100.218141}},
	}
}

// DefaultQueues is the checkout layout the overlay shipped with.
func DefaultQueues() []domain.QueuePoint {
	return []domain.QueuePoint{
		{ID: 1, Location: domain.GeoPoint{Lat: 25.6487115, Lon: -100.2898174}},
		{ID: 2, Location: domain.GeoPoint{Lat: 25.6487135, Lon: -100.2898274}},
		{ID: 3, Location: domain.GeoPoint{Lat: 25.648325, Lon: -100.284891}},
	}
}

// DefaultCatalog returns a catalog holding the default layout.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultDestinations(), DefaultQueues())
}

func (c *Catalog) ListDestinations(ctx context.Context) ([]domain.Destination, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Destination(nil), c.destinations...), nil
}

func (c *Catalog) GetDestination(ctx context.Context, name string) (*domain.Destination, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.destinations {
		if d.Name == name {
			d := d
			return &d, nil
		}
	}
	return nil, fmt.Errorf("destination %q: %w", name, domain.ErrNotFound)
}

func (c *Catalog) ListQueues(ctx context.Context) ([]domain.QueuePoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.QueuePoint(nil), c.queues...), nil
}

func (c *Catalog) GetQueue(ctx context.Context, id int) (*domain.QueuePoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, q := range c.queues {
		if q.ID == id {
			q := q
			return &q, nil
		}
	}
	return nil, fmt.Errorf("queue %d: %w", id, domain.ErrNotFound)
}

// UpsertDestination replaces a destination with the same name or inserts it
// at position (clamped to the catalog length).
func (c *Catalog) UpsertDestination(ctx context.Context, position int, d *domain.Destination) error {
	if !d.Location.Valid() {
		return fmt.Errorf("destination %q: %w", d.Name, domain.ErrInvalidLocation)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.destinations {
		if existing.Name == d.Name {
			c.destinations = append(c.destinations[:i], c.destinations[i+1:]...)
			break
		}
	}
	if position < 0 {
		position = 0
	}
	if position > len(c.destinations) {
		position = len(c.destinations)
	}
	c.destinations = append(c.destinations, domain.Destination{})
	copy(c.destinations[position+1:], c.destinations[position:])
	c.destinations[position] = *d
	return nil
}

// UpsertQueue replaces or inserts a queue, keeping the catalog sorted by id.
func (c *Catalog) UpsertQueue(ctx context.Context, q *domain.QueuePoint) error {
	if !q.Location.Valid() {
		return fmt.Errorf("queue %d: %w", q.ID, domain.ErrInvalidLocation)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.queues {
		if existing.ID == q.ID {
			c.queues[i] = *q
			return nil
		}
	}
	c.queues = append(c.queues, *q)
	sort.Slice(c.queues, func(i, j int) bool { return c.queues[i].ID < c.queues[j].ID })
	return nil
}
