package ports

import (
	"context"

	"github.com/samirrijal/arnav/internal/core/domain"
)

// CatalogRepository stores the ordered destination catalog and the queue catalog.
// Implementations return domain.ErrNotFound (possibly wrapped) for missing entries.
type CatalogRepository interface {
	ListDestinations(ctx context.Context) ([]domain.Destination, error)
	GetDestination(ctx context.Context, name string) (*domain.Destination, error)
	ListQueues(ctx context.Context) ([]domain.QueuePoint, error)
	GetQueue(ctx context.Context, id int) (*domain.QueuePoint, error)
	UpsertDestination(ctx context.Context, position int, d *domain.Destination) error
	UpsertQueue(ctx context.Context, q *domain.QueuePoint) error
}

// CatalogSeeder replaces a catalog wholesale.
type CatalogSeeder interface {
	SeedCatalog(ctx context.Context, seed domain.CatalogSeed) error
}
