package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/samirrijal/arnav/internal/core/domain"
)

// LoadSeedFile reads and validates a JSON catalog snapshot.
func LoadSeedFile(path string) (domain.CatalogSeed, error) {
	var seed domain.CatalogSeed
	data, err := os.ReadFile(path)
	if err != nil {
		return seed, fmt.Errorf("read seed: %w", err)
	}
	if err := json.Unmarshal(data, &seed); err != nil {
		return seed, fmt.Errorf("parse seed %s: %w", path, err)
	}
	if err := seed.Validate(); err != nil {
		return seed, fmt.Errorf("seed %s: %w", path, err)
	}
	return seed, nil
}

// DefaultSeed is the built-in layout as a seed snapshot.
func DefaultSeed() domain.CatalogSeed {
	return domain.CatalogSeed{Destinations: DefaultDestinations(), Queues: DefaultQueues()}
}

// SeedCatalog swaps both catalogs atomically.
func (c *Catalog) SeedCatalog(ctx context.Context, seed domain.CatalogSeed) error {
	if err := seed.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destinations = append([]domain.Destination(nil), seed.Destinations...)
	c.queues = append([]domain.QueuePoint(nil), seed.Queues...)
	return nil
}
