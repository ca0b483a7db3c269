// Package app wires the catalog backend, cache and core services from
// configuration. Every binary in cmd/ starts here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/arnav/internal/adapters/memory"
	"github.com/samirrijal/arnav/internal/adapters/postgres"
	"github.com/samirrijal/arnav/internal/adapters/sqlite"
	"github.com/samirrijal/arnav/internal/adapters/valkey"
	"github.com/samirrijal/arnav/internal/core/domain"
	"github.com/samirrijal/arnav/internal/core/navigation"
	"github.com/samirrijal/arnav/internal/core/ports"
	"github.com/samirrijal/arnav/internal/core/usecases"
	"github.com/samirrijal/arnav/internal/pkg/config"
)

// Services is the assembled core.
type Services struct {
	Catalog    *usecases.CatalogService
	Queues     *usecases.QueueService
	Navigation *usecases.NavigationService

	// Set only when the backend is in use.
	DB     *postgres.DB
	SQLite *sqlite.Catalog
	Cache  *valkey.Cache

	closers []func()
}

// Close releases every connection opened by Build, newest first.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Build opens the configured catalog backend and optional cache and creates
// the services. A failing cache is logged and skipped.
func Build(ctx context.Context, cfg *config.Config) (*Services, error) {
	s := &Services{}

	repo, err := s.openCatalog(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			s.Cache = c
			s.closers = append(s.closers, c.Close)
			cache = c
		}
	}

	engine, err := navigation.New(cfg.EngineParams())
	if err != nil {
		s.Close()
		return nil, err
	}
	policy, err := usecases.ParseQueuePolicy(cfg.Navigation.QueuePolicy)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Catalog = usecases.NewCatalogService(repo, cache).WithCacheTTL(cfg.Catalog.CacheTTL)
	s.Queues = usecases.NewQueueService(s.Catalog, policy, cfg.Navigation.DefaultQueueID)
	s.Navigation = usecases.NewNavigationService(engine, s.Catalog, s.Queues)
	return s, nil
}

func (s *Services) openCatalog(ctx context.Context, cfg *config.Config) (ports.CatalogRepository, error) {
	switch cfg.Catalog.Backend {
	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		s.DB = db
		s.closers = append(s.closers, db.Close)
		return postgres.NewCatalogRepo(db), nil

	case config.BackendSQLite:
		cat, err := sqlite.Open(ctx, cfg.Catalog.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.SQLite = cat
		s.closers = append(s.closers, func() { _ = cat.Close() })

		empty, err := cat.Empty(ctx)
		if err != nil {
			return nil, err
		}
		if empty {
			seed, err := loadSeed(cfg.Catalog.SeedFile)
			if err != nil {
				return nil, err
			}
			if err := cat.SeedCatalog(ctx, seed); err != nil {
				return nil, fmt.Errorf("seed sqlite catalog: %w", err)
			}
			slog.Info("seeded empty sqlite catalog", "destinations", len(seed.Destinations), "queues", len(seed.Queues))
		}
		return cat, nil

	default:
		seed, err := loadSeed(cfg.Catalog.SeedFile)
		if err != nil {
			return nil, err
		}
		cat := memory.NewCatalog(nil, nil)
		if err := cat.SeedCatalog(ctx, seed); err != nil {
			return nil, err
		}
		return cat, nil
	}
}

func loadSeed(path string) (domain.CatalogSeed, error) {
	if path == "" {
		return memory.DefaultSeed(), nil
	}
	seed, err := memory.LoadSeedFile(path)
	if err != nil {
		return domain.CatalogSeed{}, fmt.Errorf("seed file: %w", err)
	}
	return seed, nil
}

// ReportPoolStats samples database pool metrics until ctx is done. It is a
// no-op without a PostgreSQL backend.
func (s *Services) ReportPoolStats(ctx context.Context, every time.Duration) {
	if s.DB == nil {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.DB.ReportPoolStats()
		case <-ctx.Done():
			return
		}
	}
}
